package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func userRow(t *testing.T, username, password string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "username", "display_name", "password_hash", "is_active"}).
		AddRow("u-1", username, "John Doe", string(hash), active)
}

func TestAuthenticateUser_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, username, display_name, password_hash, is_active").
		WithArgs("john.doe").
		WillReturnRows(userRow(t, "john.doe", "secret", true))

	user, err := repo.AuthenticateUser(context.Background(), "john.doe", "secret")
	assert.NoError(t, err)
	assert.Equal(t, "john.doe", user.Username)
}

func TestAuthenticateUser_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, username, display_name, password_hash, is_active").
		WithArgs("john.doe").
		WillReturnRows(userRow(t, "john.doe", "secret", true))

	_, err = repo.AuthenticateUser(context.Background(), "john.doe", "wrong")
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthenticateUser_UnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, username, display_name, password_hash, is_active").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "display_name", "password_hash", "is_active"}))

	_, err = repo.AuthenticateUser(context.Background(), "nobody", "secret")
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthenticateUser_Inactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, username, display_name, password_hash, is_active").
		WithArgs("john.doe").
		WillReturnRows(userRow(t, "john.doe", "secret", false))

	_, err = repo.AuthenticateUser(context.Background(), "john.doe", "secret")
	assert.EqualError(t, err, "user is inactive")
}
