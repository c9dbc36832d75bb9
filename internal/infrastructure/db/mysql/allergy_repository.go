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

// AllergyRepository implements ports.AllergyRepository on MySQL.
type AllergyRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewAllergyRepository(db *sql.DB, log zerolog.Logger) *AllergyRepository {
	return &AllergyRepository{db: db, log: log}
}

// List returns all allergies with the number of users linked to each,
// ordered by name.
func (r *AllergyRepository) List(ctx context.Context) ([]domain.Allergy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.allergy_id, a.name, a.severity, a.description, COUNT(ua.user_id) AS user_count
		FROM allergies a
		LEFT JOIN user_allergies ua ON a.allergy_id = ua.allergy_id
		GROUP BY a.allergy_id, a.name, a.severity, a.description
		ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("query allergies: %w", err)
	}
	defer rows.Close()

	allergies := []domain.Allergy{}
	for rows.Next() {
		var (
			a    domain.Allergy
			desc sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Severity, &desc, &a.UserCount); err != nil {
			return nil, fmt.Errorf("scan allergy: %w", err)
		}
		a.Description = stringPtr(desc)
		allergies = append(allergies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allergies: %w", err)
	}
	return allergies, nil
}

func (r *AllergyRepository) FindByID(ctx context.Context, id int64) (*domain.Allergy, error) {
	return findAllergy(ctx, r.db, id)
}

func (r *AllergyRepository) Create(ctx context.Context, in ports.CreateAllergyInput) (*domain.Allergy, error) {
	severity := in.Severity
	if severity == "" {
		severity = domain.DefaultSeverity
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO allergies (name, severity, description) VALUES (?, ?, ?)`,
		in.Name, severity, nullString(in.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("insert allergy: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert allergy: last insert id: %w", err)
	}

	return &domain.Allergy{ID: id, Name: in.Name, Severity: severity, Description: in.Description}, nil
}

func (r *AllergyRepository) Update(ctx context.Context, id int64, in ports.UpdateAllergyInput) (*domain.Allergy, error) {
	var (
		sets []string
		args []any
	)
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Severity != nil {
		sets = append(sets, "severity = ?")
		args = append(args, *in.Severity)
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *in.Description)
	}
	if len(sets) == 0 {
		return nil, domain.NewValidationError("", "no valid fields to update")
	}
	args = append(args, id)

	var updated *domain.Allergy
	err := withTx(ctx, r.db, r.log, "update_allergy", func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM allergies WHERE allergy_id = ? FOR UPDATE`, id)
		if err != nil {
			return fmt.Errorf("lock allergy: %w", err)
		}
		if !found {
			return domain.ErrAllergyNotFound
		}

		query := `UPDATE allergies SET ` + strings.Join(sets, ", ") + ` WHERE allergy_id = ?`
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update allergy: %w", err)
		}

		updated, err = findAllergy(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the allergy; linked user_allergies rows go with it through
// the foreign key cascade.
func (r *AllergyRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, r.log, "delete_allergy", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM allergies WHERE allergy_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete allergy: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete allergy: rows affected: %w", err)
		}
		if n == 0 {
			return domain.ErrAllergyNotFound
		}
		return nil
	})
}

func findAllergy(ctx context.Context, q queryer, id int64) (*domain.Allergy, error) {
	var (
		a    domain.Allergy
		desc sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT allergy_id, name, severity, description FROM allergies WHERE allergy_id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Severity, &desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAllergyNotFound
		}
		return nil, fmt.Errorf("find allergy %d: %w", id, err)
	}
	a.Description = stringPtr(desc)
	return &a, nil
}
