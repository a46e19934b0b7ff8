package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zenithmed/procureflow/internal/models"
	"go.uber.org/zap"
)

// ProfileRepository handles actor profile database operations. Profiles are
// reference data; the workflow engine re-reads them on every call.
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sql.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, logger: logger}
}

// GetByID retrieves a profile by id. Returns (nil, nil) when absent.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, role, department, created_at FROM profiles WHERE id = ?`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Department, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &u, nil
}

// ListByRole returns every profile holding the role.
func (r *ProfileRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return r.list(ctx, `SELECT id, email, name, role, department, created_at FROM profiles WHERE role = ?`, string(role))
}

// ListByName returns every profile with the given name. Used to resolve the
// distinguished chairman/auditor identities.
func (r *ProfileRepository) ListByName(ctx context.Context, name string) ([]*models.User, error) {
	return r.list(ctx, `SELECT id, email, name, role, department, created_at FROM profiles WHERE name = ?`, name)
}

func (r *ProfileRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list profiles", zap.Error(err))
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Department, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
