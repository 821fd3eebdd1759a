package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var (
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeAlreadyExists = errors.New("dispute already exists for order")
	ErrDisputeStatusChanged = errors.New("dispute status changed concurrently")
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор. Уникальный индекс по order_id страхует от второго спора.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (order_id, initiator_id, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, query, d.OrderID, d.InitiatorID, d.Description, d.Status).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrDisputeAlreadyExists
		}
		return fmt.Errorf("dispute repository: create %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, common.Executor(ctx, r.db), "disputes", id, ErrDisputeNotFound)
}

func (r *DisputeRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetForUpdate[models.Dispute](ctx, common.Executor(ctx, r.db), "disputes", "id", id, ErrDisputeNotFound)
}

func (r *DisputeRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	return common.GetByField[models.Dispute](ctx, common.Executor(ctx, r.db), "disputes", "order_id", orderID, ErrDisputeNotFound)
}

// MarkUnderReview - ручной перевод спора администратором в рассмотрение.
func (r *DisputeRepository) MarkUnderReview(ctx context.Context, id uuid.UUID) error {
	res, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE disputes SET status = 'under_review', updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`, id)
	if err != nil {
		return fmt.Errorf("dispute repository: mark under review %w", err)
	}
	return common.RequireAffected(res, ErrDisputeStatusChanged)
}

// Resolve закрывает спор конечным статусом, если он ещё активен.
func (r *DisputeRepository) Resolve(ctx context.Context, id uuid.UUID, status string, resolution *string, resolvedBy uuid.UUID) error {
	res, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE disputes
		SET status = $2, resolution = $3, resolved_by = $4, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('open', 'under_review')
	`, id, status, resolution, resolvedBy)
	if err != nil {
		return fmt.Errorf("dispute repository: resolve %w", err)
	}
	return common.RequireAffected(res, ErrDisputeStatusChanged)
}

func (r *DisputeRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	disputes := []models.Dispute{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN orders o ON d.order_id = o.id
		WHERE o.client_id = $1 OR o.freelancer_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by participant %w", err)
	}
	return disputes, nil
}

// ListByStatus возвращает споры в статусе; пустой статус означает все споры.
func (r *DisputeRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	disputes := []models.Dispute{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by status %w", err)
	}
	return disputes, nil
}
