package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

// Order описывает заказ пакета услуги. Цена и срок фиксируются при создании.
type Order struct {
	ID               uuid.UUID               `db:"id" json:"id"`
	ClientID         uuid.UUID               `db:"client_id" json:"client_id"`
	FreelancerID     uuid.UUID               `db:"freelancer_id" json:"freelancer_id"`
	ServiceID        uuid.UUID               `db:"service_id" json:"service_id"`
	PackageID        uuid.UUID               `db:"package_id" json:"package_id"`
	ProjectBrief     string                  `db:"project_brief" json:"project_brief"`
	TotalPrice       float64                 `db:"total_price" json:"total_price"`
	DueAt            time.Time               `db:"due_at" json:"due_at"`
	RevisionsAllowed int                     `db:"revisions_allowed" json:"revisions_allowed"`
	RevisionsUsed    int                     `db:"revisions_used" json:"revisions_used"`
	Status           valueobject.OrderStatus `db:"status" json:"status"`
	CreatedAt        time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time               `db:"updated_at" json:"updated_at"`
	DeliveredAt      *time.Time              `db:"delivered_at" json:"delivered_at,omitempty"`
	CompletedAt      *time.Time              `db:"completed_at" json:"completed_at,omitempty"`
}

// PartyRole определяет роль пользователя в заказе.
func (o *Order) PartyRole(userID uuid.UUID) valueobject.PartyRole {
	switch userID {
	case o.ClientID:
		return valueobject.RoleClient
	case o.FreelancerID:
		return valueobject.RoleFreelancer
	}
	return valueobject.RoleNone
}

// OrderAddon - снимок дополнения на момент покупки.
type OrderAddon struct {
	OrderID           uuid.UUID `db:"order_id" json:"order_id"`
	AddonID           uuid.UUID `db:"addon_id" json:"addon_id"`
	Name              string    `db:"name" json:"name"`
	Quantity          int       `db:"quantity" json:"quantity"`
	UnitPrice         float64   `db:"unit_price" json:"unit_price"`
	DeliveryDaysDelta int       `db:"delivery_days_delta" json:"delivery_days_delta"`
}

// OrderDetails собирает заказ вместе со связанными записями.
type OrderDetails struct {
	*Order
	Addons       []OrderAddon       `json:"addons"`
	Escrow       *EscrowTransaction `json:"escrow,omitempty"`
	Dispute      *Dispute           `json:"dispute,omitempty"`
	Revisions    []RevisionRequest  `json:"revisions"`
	Deliverables []Deliverable      `json:"deliverables"`
	History      []OrderHistory     `json:"history"`
}
