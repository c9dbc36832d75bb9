package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

const userColumns = `user_id, name, age, email`

// UserRepository implements ports.UserRepository on MySQL.
type UserRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewUserRepository(db *sql.DB, log zerolog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// List returns all users with their allergy count, ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.user_id, u.name, u.age, u.email, COUNT(ua.user_allergy_id) AS allergy_count
		FROM users u
		LEFT JOIN user_allergies ua ON u.user_id = ua.user_id
		GROUP BY u.user_id, u.name, u.age, u.email
		ORDER BY u.name`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var (
			u   domain.User
			age sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Name, &age, &u.Email, &u.AllergyCount); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Age = intPtr(age)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return findUser(ctx, r.db, id)
}

// Create inserts a user. A duplicate email maps to domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, age, email) VALUES (?, ?, ?)`,
		in.Name, nullInt(in.Age), in.Email,
	)
	if err != nil {
		if errorNumber(err) == errDupEntry {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: last insert id: %w", err)
	}

	return &domain.User{ID: id, Name: in.Name, Age: in.Age, Email: in.Email}, nil
}

// Update writes only the non-nil fields and reads the row back in the same
// transaction. Existence is checked explicitly because MySQL reports zero
// affected rows when the new values equal the stored ones.
func (r *UserRepository) Update(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	var (
		sets []string
		args []any
	)
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Age != nil {
		sets = append(sets, "age = ?")
		args = append(args, *in.Age)
	}
	if in.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *in.Email)
	}
	if len(sets) == 0 {
		return nil, domain.NewValidationError("", "no valid fields to update")
	}
	args = append(args, id)

	var updated *domain.User
	err := withTx(ctx, r.db, r.log, "update_user", func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM users WHERE user_id = ? FOR UPDATE`, id)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if !found {
			return domain.ErrUserNotFound
		}

		query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ?`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if errorNumber(err) == errDupEntry {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("update user: %w", err)
		}

		updated, err = findUser(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the user row; the foreign key cascade removes its
// user_allergies rows in the same transaction.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, r.log, "delete_user", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete user: rows affected: %w", err)
		}
		if n == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

func findUser(ctx context.Context, q queryer, id int64) (*domain.User, error) {
	var (
		u   domain.User
		age sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).
		Scan(&u.ID, &u.Name, &age, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	u.Age = intPtr(age)
	return &u, nil
}
