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
	ErrEscrowNotFound   = errors.New("escrow not found")
	ErrEscrowNotPending = errors.New("escrow already settled")
)

// EscrowRepository хранит по одной escrow-транзакции на заказ.
type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Create удерживает средства по заказу в статусе pending.
func (r *EscrowRepository) Create(ctx context.Context, e *models.EscrowTransaction) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO escrow_transactions (order_id, client_id, freelancer_id, amount, payment_method, payment_reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.OrderID, e.ClientID, e.FreelancerID, e.Amount, e.PaymentMethod, e.PaymentReference, e.Status).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("escrow repository: create %w", err)
	}
	return nil
}

func (r *EscrowRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowTransaction, error) {
	return common.GetByField[models.EscrowTransaction](ctx, common.Executor(ctx, r.db), "escrow_transactions", "order_id", orderID, ErrEscrowNotFound)
}

// Settle переводит транзакцию из pending в конечный статус.
// Повторный вызов не находит pending-строку и возвращает ErrEscrowNotPending.
func (r *EscrowRepository) Settle(ctx context.Context, orderID uuid.UUID, status string) (*models.EscrowTransaction, error) {
	var e models.EscrowTransaction
	err := common.Executor(ctx, r.db).GetContext(ctx, &e, `
		UPDATE escrow_transactions SET status = $2, settled_at = NOW()
		WHERE order_id = $1 AND status = 'pending'
		RETURNING *
	`, orderID, status)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrEscrowNotPending
		}
		return nil, fmt.Errorf("escrow repository: settle %w", err)
	}
	return &e, nil
}
