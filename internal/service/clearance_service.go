package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

// ClearanceService вычисляет допуск пользователя по его ролям. Результат не кешируется:
// изменение ролей действует со следующего запроса.
type ClearanceService struct {
	roles RoleRepository
}

func NewClearanceService(roles RoleRepository) *ClearanceService {
	return &ClearanceService{roles: roles}
}

func (s *ClearanceService) Resolve(ctx context.Context, userID uuid.UUID) (Caller, error) {
	roles, err := s.roles.ListRoles(ctx, userID)
	if err != nil {
		return Caller{}, internalError("clearance.list_roles", err)
	}
	return Caller{ID: userID, Clearance: valueobject.ClearanceFromRoles(roles)}, nil
}
