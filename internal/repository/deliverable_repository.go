package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

type DeliverableRepository struct {
	db *sqlx.DB
}

func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

func (r *DeliverableRepository) Create(ctx context.Context, d *models.Deliverable) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO deliverables (order_id, uploaded_by, file_name, file_path, mime_type, file_size, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, d.OrderID, d.UploadedBy, d.FileName, d.FilePath, d.MimeType, d.FileSize, d.Note).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("deliverable repository: create %w", err)
	}
	return nil
}

func (r *DeliverableRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Deliverable, error) {
	items := []models.Deliverable{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &items, `
		SELECT * FROM deliverables WHERE order_id = $1 ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: list by order %w", err)
	}
	return items, nil
}
