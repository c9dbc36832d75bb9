package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

func TestUserRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	mock.ExpectQuery(q("LEFT JOIN user_allergies ua ON u.user_id = ua.user_id")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "age", "email", "allergy_count"}).
			AddRow(1, "Ana", 34, "a@x.com", 2).
			AddRow(2, "Bea", nil, "b@x.com", 0))

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Age == nil || *users[0].Age != 34 || users[0].AllergyCount != 2 {
		t.Errorf("unexpected first user: %+v", users[0])
	}
	if users[1].Age != nil || users[1].AllergyCount != 0 {
		t.Errorf("unexpected second user: %+v", users[1])
	}
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	mock.ExpectQuery(q("FROM users WHERE user_id = ?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "age", "email"}))

	_, err := repo.FindByID(context.Background(), 9)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	mock.ExpectExec(q("INSERT INTO users (name, age, email) VALUES (?, ?, ?)")).
		WithArgs("Ana", nil, "a@x.com").
		WillReturnResult(sqlmock.NewResult(1, 1))

	u, err := repo.Create(context.Background(), ports.CreateUserInput{Name: "Ana", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 1 || u.Name != "Ana" || u.Email != "a@x.com" || u.Age != nil {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'uq_users_email'"})

	_, err := repo.Create(context.Background(), ports.CreateUserInput{Name: "Ana", Email: "a@x.com"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserRepository_Update_OnlyGivenFields(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)
	age := 35

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT 1 FROM users WHERE user_id = ? FOR UPDATE")).WithArgs(1).WillReturnRows(oneRow())
	mock.ExpectExec(q("UPDATE users SET age = ? WHERE user_id = ?")).
		WithArgs(35, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM users WHERE user_id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "age", "email"}).AddRow(1, "Ana", 35, "a@x.com"))
	mock.ExpectCommit()

	u, err := repo.Update(context.Background(), 1, ports.UpdateUserInput{Age: &age})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Age == nil || *u.Age != 35 || u.Name != "Ana" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestUserRepository_Update_NotFoundRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)
	name := "Zoe"

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT 1 FROM users WHERE user_id = ? FOR UPDATE")).WithArgs(42).WillReturnRows(noRows())
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 42, ports.UpdateUserInput{Name: &name})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_Update_NoFieldsTouchesNothing(t *testing.T) {
	db, _ := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	_, err := repo.Update(context.Background(), 1, ports.UpdateUserInput{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM users WHERE user_id = ?")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserRepository_Delete_NotFoundRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM users WHERE user_id = ?")).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.Delete(context.Background(), 5); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_Delete_RollbackFailureKeepsOriginalError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db, discardLogger)
	boom := errors.New("lost connection during query")

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM users")).WillReturnError(boom)
	mock.ExpectRollback().WillReturnError(errors.New("rollback failed"))

	err := repo.Delete(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
}
