package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

// UserRoleRepository читает факты членства пользователя в ролях.
type UserRoleRepository struct {
	db *sqlx.DB
}

func NewUserRoleRepository(db *sqlx.DB) *UserRoleRepository {
	return &UserRoleRepository{db: db}
}

func (r *UserRoleRepository) ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	roles := []string{}
	if err := common.Executor(ctx, r.db).SelectContext(ctx, &roles, `
		SELECT role FROM user_roles WHERE user_id = $1
	`, userID); err != nil {
		return nil, fmt.Errorf("user role repository: list roles %w", err)
	}
	return roles, nil
}
