package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusChanged = errors.New("order status changed concurrently")
	ErrRevisionLimit      = errors.New("revision limit reached")
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create сохраняет заказ; ID генерируется заранее, чтобы связать escrow в той же транзакции.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (id, client_id, freelancer_id, service_id, package_id, project_brief,
			total_price, due_at, revisions_allowed, revisions_used, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10)
		RETURNING created_at, updated_at
	`
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, query,
		o.ID, o.ClientID, o.FreelancerID, o.ServiceID, o.PackageID, o.ProjectBrief,
		o.TotalPrice, o.DueAt, o.RevisionsAllowed, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}
	return nil
}

// AddAddons сохраняет снимок выбранных дополнений одним INSERT.
func (r *OrderRepository) AddAddons(ctx context.Context, orderID uuid.UUID, addons []models.OrderAddon) error {
	if len(addons) == 0 {
		return nil
	}
	inserter := common.NewBatchInserter(common.Executor(ctx, r.db),
		`INSERT INTO order_addons (order_id, addon_id, name, quantity, unit_price, delivery_days_delta)`, 6, 50)
	for _, a := range addons {
		if err := inserter.Add(ctx, orderID, a.AddonID, a.Name, a.Quantity, a.UnitPrice, a.DeliveryDaysDelta); err != nil {
			return fmt.Errorf("order repository: add addons %w", err)
		}
	}
	if err := inserter.Flush(ctx); err != nil {
		return fmt.Errorf("order repository: add addons %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, common.Executor(ctx, r.db), "orders", id, ErrOrderNotFound)
}

// GetForUpdate блокирует строку заказа до конца транзакции.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetForUpdate[models.Order](ctx, common.Executor(ctx, r.db), "orders", "id", id, ErrOrderNotFound)
}

// UpdateStatus меняет статус, только если заказ всё ещё в статусе from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.OrderStatus) error {
	res, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE orders SET status = $3,
			delivered_at = CASE WHEN $3 = 'delivered' THEN NOW() ELSE delivered_at END,
			completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("order repository: update status %w", err)
	}
	return common.RequireAffected(res, ErrOrderStatusChanged)
}

// IncrementRevisions засчитывает правку и переводит заказ в revision_requested.
// Условие на revisions_used не даёт превысить квоту даже при гонке.
func (r *OrderRepository) IncrementRevisions(ctx context.Context, id uuid.UUID) error {
	res, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE orders SET revisions_used = revisions_used + 1, status = 'revision_requested', updated_at = NOW()
		WHERE id = $1 AND status = 'delivered' AND revisions_used < revisions_allowed
	`, id)
	if err != nil {
		return fmt.Errorf("order repository: increment revisions %w", err)
	}
	return common.RequireAffected(res, ErrRevisionLimit)
}

func (r *OrderRepository) ListAddons(ctx context.Context, orderID uuid.UUID) ([]models.OrderAddon, error) {
	addons := []models.OrderAddon{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &addons, `
		SELECT order_id, addon_id, name, quantity, unit_price, delivery_days_delta
		FROM order_addons WHERE order_id = $1 ORDER BY name
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order repository: list addons %w", err)
	}
	return addons, nil
}

// ListByParticipant возвращает заказы, где пользователь клиент или фрилансер.
func (r *OrderRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	orders := []models.Order{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &orders, `
		SELECT * FROM orders WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order repository: list by participant %w", err)
	}
	return orders, nil
}
