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
	ErrWithdrawalNotFound       = errors.New("withdrawal not found")
	ErrWithdrawalStatusChanged  = errors.New("withdrawal status changed concurrently")
	ErrPayoutEntryAlreadyExists = errors.New("payout entry already exists")
)

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO withdrawal_requests (freelancer_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, requested_at
	`, w.FreelancerID, w.Amount, w.Status).Scan(&w.ID, &w.RequestedAt)
	if err != nil {
		return fmt.Errorf("withdrawal repository: create %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return common.GetByID[models.WithdrawalRequest](ctx, common.Executor(ctx, r.db), "withdrawal_requests", id, ErrWithdrawalNotFound)
}

func (r *WithdrawalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return common.GetForUpdate[models.WithdrawalRequest](ctx, common.Executor(ctx, r.db), "withdrawal_requests", "id", id, ErrWithdrawalNotFound)
}

// SumTotals считает выведенное (approved и completed) и ожидающее вывода.
func (r *WithdrawalRepository) SumTotals(ctx context.Context, freelancerID uuid.UUID) (*models.WithdrawalTotals, error) {
	var totals models.WithdrawalTotals
	err := common.Executor(ctx, r.db).GetContext(ctx, &totals, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status IN ('approved', 'completed')), 0) AS withdrawn,
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0) AS pending
		FROM withdrawal_requests WHERE freelancer_id = $1
	`, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: sum totals %w", err)
	}
	return &totals, nil
}

// UpdateStatus меняет статус заявки, только если она всё ещё в статусе from.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, processedBy uuid.UUID, note *string) error {
	res, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $3, processed_by = $4, note = COALESCE($5, note), processed_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to, processedBy, note)
	if err != nil {
		return fmt.Errorf("withdrawal repository: update status %w", err)
	}
	return common.RequireAffected(res, ErrWithdrawalStatusChanged)
}

// AddPayoutEntry пишет аудиторскую запись о выплате; withdrawal_id уникален.
func (r *WithdrawalRepository) AddPayoutEntry(ctx context.Context, e *models.PayoutLedgerEntry) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO payout_ledger (withdrawal_id, freelancer_id, amount, entry_type, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.WithdrawalID, e.FreelancerID, e.Amount, e.EntryType, e.CreatedBy).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrPayoutEntryAlreadyExists
		}
		return fmt.Errorf("withdrawal repository: add payout entry %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	withdrawals := []models.WithdrawalRequest{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawal_requests WHERE freelancer_id = $1
		ORDER BY requested_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by freelancer %w", err)
	}
	return withdrawals, nil
}

// ListByStatus - очередь заявок для администратора, старые первыми.
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	withdrawals := []models.WithdrawalRequest{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawal_requests WHERE status = $1
		ORDER BY requested_at ASC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by status %w", err)
	}
	return withdrawals, nil
}
