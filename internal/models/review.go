package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OrderID      uuid.UUID `db:"order_id" json:"order_id"`
	ReviewerID   uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Rating       float64   `db:"rating" json:"rating"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
