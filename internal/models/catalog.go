package models

import "github.com/google/uuid"

// CatalogPackage - пакет услуги вместе с владельцем услуги.
type CatalogPackage struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ServiceID        uuid.UUID `db:"service_id" json:"service_id"`
	FreelancerID     uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Name             string    `db:"name" json:"name"`
	Price            float64   `db:"price" json:"price"`
	DeliveryDays     int       `db:"delivery_days" json:"delivery_days"`
	RevisionsAllowed int       `db:"revisions_allowed" json:"revisions_allowed"`
}

type CatalogAddon struct {
	ID                uuid.UUID `db:"id" json:"id"`
	ServiceID         uuid.UUID `db:"service_id" json:"service_id"`
	Name              string    `db:"name" json:"name"`
	Price             float64   `db:"price" json:"price"`
	DeliveryDaysDelta int       `db:"delivery_days_delta" json:"delivery_days_delta"`
}
