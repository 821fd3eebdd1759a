package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

type RevisionRepository struct {
	db *sqlx.DB
}

func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

func (r *RevisionRepository) Create(ctx context.Context, rev *models.RevisionRequest) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO revision_requests (order_id, requested_by, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rev.OrderID, rev.RequestedBy, rev.Reason, rev.Status).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return fmt.Errorf("revision repository: create %w", err)
	}
	return nil
}

// CompletePending закрывает открытые запросы правок при повторной сдаче работы.
func (r *RevisionRepository) CompletePending(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE revision_requests SET status = 'completed', resolved_at = NOW()
		WHERE order_id = $1 AND status = 'pending'
	`, orderID)
	if err != nil {
		return 0, fmt.Errorf("revision repository: complete pending %w", err)
	}
	return res.RowsAffected()
}

func (r *RevisionRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RevisionRequest, error) {
	revisions := []models.RevisionRequest{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &revisions, `
		SELECT * FROM revision_requests WHERE order_id = $1 ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("revision repository: list by order %w", err)
	}
	return revisions, nil
}
