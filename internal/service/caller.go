package service

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

// Caller - личность и допуск вызывающего, вычисленные на входе запроса.
type Caller struct {
	ID        uuid.UUID
	Clearance valueobject.Clearance
}

func (c Caller) IsAdmin() bool {
	return c.Clearance.IsAdmin()
}
