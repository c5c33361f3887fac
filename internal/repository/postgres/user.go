package postgres

import (
	"context"
	"database/sql"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (bool, error) {
	query := `INSERT INTO users (name, username, email, password_hash, role, status) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Username, u.Email, u.PasswordHash, u.Role, u.Status).Scan(&u.ID)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, username, email, password_hash, role, status FROM users WHERE LOWER(username) = LOWER($1)`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
