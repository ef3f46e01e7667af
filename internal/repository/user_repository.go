package repository

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/warehop/bulkpick-api/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, username, password, displayName string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) CreateUser(ctx context.Context, username, password, displayName string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	const query = `
		INSERT INTO users (username, display_name, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err = u.db.QueryRowContext(ctx, query, user.Username, user.DisplayName, user.PasswordHash, user.IsActive).Scan(&user.ID)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (u *userRepository) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := u.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}

	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}

	return user, nil
}

func (u *userRepository) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User

	const query = `
		SELECT id, username, display_name, password_hash, is_active
		FROM users
		WHERE username = $1 AND deleted_at IS NULL`

	err := u.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsActive,
	)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}
