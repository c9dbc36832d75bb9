package mysql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
)

func errorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// violatesConstraint reports whether err is a foreign key failure on the
// named constraint.
func violatesConstraint(err error, name string) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errNoReferencedRow && strings.Contains(me.Message, name)
}
