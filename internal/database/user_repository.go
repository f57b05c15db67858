package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pocketish/internal/domain"
)

// UserRepository resolves account rows for request authentication.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByAPIKey looks up the user owning the given API key.
// Returns domain.ErrNotFound when no user matches.
func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	query := `SELECT id, email, name, api_key, created_at FROM users WHERE api_key = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, apiKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user by api key: %w", err)
	}
	return &user, nil
}
