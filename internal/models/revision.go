package models

import (
	"time"

	"github.com/google/uuid"
)

// RevisionRequest - запрос клиента на доработку сданной работы.
type RevisionRequest struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	OrderID     uuid.UUID  `db:"order_id" json:"order_id"`
	RequestedBy uuid.UUID  `db:"requested_by" json:"requested_by"`
	Reason      string     `db:"reason" json:"reason"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
