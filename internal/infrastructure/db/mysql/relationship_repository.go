package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

// RelationshipRepository implements ports.RelationshipRepository on MySQL.
type RelationshipRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewRelationshipRepository(db *sql.DB, log zerolog.Logger) *RelationshipRepository {
	return &RelationshipRepository{db: db, log: log}
}

// Assign runs the existence checks and the insert in one transaction. The
// parent rows are read with a shared lock so they cannot be deleted before
// commit. The pre-check for an existing pair only produces a friendlier
// path; under concurrent assignment the uq_user_allergy key rejects the
// second insert with a duplicate-entry error, which maps to the same
// domain.ErrAllergyAlreadyAssigned.
func (r *RelationshipRepository) Assign(ctx context.Context, userID int64, in ports.AssignAllergyInput) (*domain.UserAllergy, error) {
	var link *domain.UserAllergy

	err := withTx(ctx, r.db, r.log, "assign_allergy", func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM users WHERE user_id = ? LOCK IN SHARE MODE`, userID)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !found {
			return domain.ErrUserNotFound
		}

		found, err = exists(ctx, tx, `SELECT 1 FROM allergies WHERE allergy_id = ? LOCK IN SHARE MODE`, in.AllergyID)
		if err != nil {
			return fmt.Errorf("check allergy: %w", err)
		}
		if !found {
			return domain.ErrAllergyNotFound
		}

		found, err = exists(ctx, tx,
			`SELECT 1 FROM user_allergies WHERE user_id = ? AND allergy_id = ?`, userID, in.AllergyID)
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if found {
			return domain.ErrAllergyAlreadyAssigned
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_allergies (user_id, allergy_id, notes, diagnosed_date) VALUES (?, ?, ?, ?)`,
			userID, in.AllergyID, nullString(in.Notes), nullTime(in.DiagnosedDate),
		)
		if err != nil {
			return translateAssignError(err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert assignment: last insert id: %w", err)
		}

		link = &domain.UserAllergy{
			ID:            id,
			UserID:        userID,
			AllergyID:     in.AllergyID,
			Notes:         in.Notes,
			DiagnosedDate: in.DiagnosedDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func translateAssignError(err error) error {
	switch {
	case errorNumber(err) == errDupEntry:
		return domain.ErrAllergyAlreadyAssigned
	case violatesConstraint(err, "fk_user_allergies_allergy"):
		return domain.ErrAllergyNotFound
	case violatesConstraint(err, "fk_user_allergies_user"):
		return domain.ErrUserNotFound
	default:
		return fmt.Errorf("insert assignment: %w", err)
	}
}

// ListAllergiesForUser returns the user's assignments joined with allergy
// details, ordered by allergy name.
func (r *RelationshipRepository) ListAllergiesForUser(ctx context.Context, userID int64) ([]domain.UserAllergyDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.allergy_id, a.name, a.severity, a.description, ua.notes, ua.diagnosed_date
		FROM user_allergies ua
		JOIN allergies a ON ua.allergy_id = a.allergy_id
		WHERE ua.user_id = ?
		ORDER BY a.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user allergies: %w", err)
	}
	defer rows.Close()

	details := []domain.UserAllergyDetail{}
	for rows.Next() {
		var (
			d         domain.UserAllergyDetail
			desc      sql.NullString
			notes     sql.NullString
			diagnosed sql.NullTime
		)
		if err := rows.Scan(&d.AllergyID, &d.Name, &d.Severity, &desc, &notes, &diagnosed); err != nil {
			return nil, fmt.Errorf("scan user allergy: %w", err)
		}
		d.Description = stringPtr(desc)
		d.Notes = stringPtr(notes)
		d.DiagnosedDate = timePtr(diagnosed)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user allergies: %w", err)
	}
	return details, nil
}

// ListUsersForAllergy returns the allergy's assignments joined with user
// details, ordered by user name.
func (r *RelationshipRepository) ListUsersForAllergy(ctx context.Context, allergyID int64) ([]domain.AllergyUserDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.user_id, u.name, u.age, u.email, ua.notes, ua.diagnosed_date
		FROM user_allergies ua
		JOIN users u ON ua.user_id = u.user_id
		WHERE ua.allergy_id = ?
		ORDER BY u.name`, allergyID)
	if err != nil {
		return nil, fmt.Errorf("query allergy users: %w", err)
	}
	defer rows.Close()

	details := []domain.AllergyUserDetail{}
	for rows.Next() {
		var (
			d         domain.AllergyUserDetail
			age       sql.NullInt64
			notes     sql.NullString
			diagnosed sql.NullTime
		)
		if err := rows.Scan(&d.UserID, &d.Name, &age, &d.Email, &notes, &diagnosed); err != nil {
			return nil, fmt.Errorf("scan allergy user: %w", err)
		}
		d.Age = intPtr(age)
		d.Notes = stringPtr(notes)
		d.DiagnosedDate = timePtr(diagnosed)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allergy users: %w", err)
	}
	return details, nil
}

func (r *RelationshipRepository) Remove(ctx context.Context, userID, allergyID int64) error {
	n, err := r.deleteWhere(ctx, `DELETE FROM user_allergies WHERE user_id = ? AND allergy_id = ?`, userID, allergyID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *RelationshipRepository) RemoveAllForUser(ctx context.Context, userID int64) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM user_allergies WHERE user_id = ?`, userID)
}

func (r *RelationshipRepository) RemoveAllForAllergy(ctx context.Context, allergyID int64) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM user_allergies WHERE allergy_id = ?`, allergyID)
}

func (r *RelationshipRepository) deleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete assignments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete assignments: rows affected: %w", err)
	}
	return n, nil
}

var _ ports.RelationshipRepository = (*RelationshipRepository)(nil)
