package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

// AccountRepository ведёт накопленный заработок фрилансеров.
type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreditEarnings увеличивает total_earned. Вызывается только при выплате из escrow.
func (r *AccountRepository) CreditEarnings(ctx context.Context, freelancerID uuid.UUID, amount float64) error {
	_, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO freelancer_accounts (freelancer_id, total_earned)
		VALUES ($1, $2)
		ON CONFLICT (freelancer_id) DO UPDATE
		SET total_earned = freelancer_accounts.total_earned + EXCLUDED.total_earned, updated_at = NOW()
	`, freelancerID, amount)
	if err != nil {
		return fmt.Errorf("account repository: credit earnings %w", err)
	}
	return nil
}

// LockAccount создаёт счёт при необходимости и блокирует его строку.
// Блокировка сериализует заявки на вывод одного фрилансера.
func (r *AccountRepository) LockAccount(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerAccount, error) {
	q := common.Executor(ctx, r.db)
	if _, err := q.ExecContext(ctx, `
		INSERT INTO freelancer_accounts (freelancer_id, total_earned)
		VALUES ($1, 0)
		ON CONFLICT (freelancer_id) DO NOTHING
	`, freelancerID); err != nil {
		return nil, fmt.Errorf("account repository: ensure account %w", err)
	}

	var acc models.FreelancerAccount
	if err := q.GetContext(ctx, &acc, `
		SELECT freelancer_id, total_earned, updated_at FROM freelancer_accounts
		WHERE freelancer_id = $1 FOR UPDATE
	`, freelancerID); err != nil {
		return nil, fmt.Errorf("account repository: lock account %w", err)
	}
	return &acc, nil
}

// GetAccount возвращает счёт или пустой счёт, если начислений ещё не было.
func (r *AccountRepository) GetAccount(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerAccount, error) {
	var acc models.FreelancerAccount
	err := common.Executor(ctx, r.db).GetContext(ctx, &acc, `
		SELECT freelancer_id, total_earned, updated_at FROM freelancer_accounts WHERE freelancer_id = $1
	`, freelancerID)
	if err != nil {
		if isNoRows(err) {
			return &models.FreelancerAccount{FreelancerID: freelancerID}, nil
		}
		return nil, fmt.Errorf("account repository: get account %w", err)
	}
	return &acc, nil
}
