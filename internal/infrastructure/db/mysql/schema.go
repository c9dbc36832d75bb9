package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schema is applied in order. user_allergies holds the only relationship:
// the unique key is the authoritative duplicate guard and both foreign keys
// cascade, so deleting a user or an allergy removes its links.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INT AUTO_INCREMENT PRIMARY KEY,
		name    VARCHAR(100) NOT NULL,
		age     INT UNSIGNED NULL,
		email   VARCHAR(255) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS allergies (
		allergy_id  INT AUTO_INCREMENT PRIMARY KEY,
		name        VARCHAR(100) NOT NULL,
		severity    VARCHAR(50) NOT NULL DEFAULT 'mild',
		description TEXT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_allergies (
		user_allergy_id INT AUTO_INCREMENT PRIMARY KEY,
		user_id         INT NOT NULL,
		allergy_id      INT NOT NULL,
		notes           TEXT NULL,
		diagnosed_date  DATE NULL,
		UNIQUE KEY uq_user_allergy (user_id, allergy_id),
		KEY idx_user_allergies_allergy (allergy_id),
		CONSTRAINT fk_user_allergies_user FOREIGN KEY (user_id)
			REFERENCES users (user_id) ON DELETE CASCADE,
		CONSTRAINT fk_user_allergies_allergy FOREIGN KEY (allergy_id)
			REFERENCES allergies (allergy_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables if they do not exist. Each statement is
// retried up to retries times, one second apart, to ride out a database
// that is still starting.
func Migrate(ctx context.Context, db *sql.DB, retries int) error {
	for _, stmt := range schema {
		var err error
		for attempt := 0; attempt <= retries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
			}
			if _, err = db.ExecContext(ctx, stmt); err == nil {
				break
			}
		}
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
