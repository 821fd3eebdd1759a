package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// DefaultMinWithdrawalAmount используется, если минимум не задан в конфигурации.
const DefaultMinWithdrawalAmount = 10.0

const (
	WithdrawalActionApprove = "approve"
	WithdrawalActionReject  = "reject"
)

type ProcessWithdrawalInput struct {
	Action string  `json:"action"`
	Note   *string `json:"note"`
}

// WithdrawalService считает баланс фрилансера и ведёт заявки на вывод.
// Заявки одного фрилансера сериализуются блокировкой его счёта.
type WithdrawalService struct {
	tx        TxManager
	repos     Repositories
	minAmount float64
	notifier  Notifier
	now       func() time.Time
}

func NewWithdrawalService(tx TxManager, repos Repositories, minAmount float64, notifier Notifier) *WithdrawalService {
	if minAmount <= 0 {
		minAmount = DefaultMinWithdrawalAmount
	}
	return &WithdrawalService{
		tx:        tx,
		repos:     repos,
		minAmount: minAmount,
		notifier:  notifierOrNoop(notifier),
		now:       time.Now,
	}
}

// GetBalance вычисляет доступный остаток: заработано минус выведено минус ожидает вывода.
func (s *WithdrawalService) GetBalance(ctx context.Context, caller Caller) (*models.Balance, error) {
	if !caller.Clearance.AtLeast(valueobject.ClearanceFreelancer) {
		return nil, ErrFreelancerOnly
	}
	account, err := s.repos.Accounts.GetAccount(ctx, caller.ID)
	if err != nil {
		return nil, internalError("withdrawal.get_account", err)
	}
	return s.balance(ctx, account)
}

func (s *WithdrawalService) balance(ctx context.Context, account *models.FreelancerAccount) (*models.Balance, error) {
	totals, err := s.repos.Withdrawals.SumTotals(ctx, account.FreelancerID)
	if err != nil {
		return nil, internalError("withdrawal.sum_totals", err)
	}
	return &models.Balance{
		FreelancerID:       account.FreelancerID,
		TotalEarned:        valueobject.RoundMoney(account.TotalEarned),
		TotalWithdrawn:     valueobject.RoundMoney(totals.Withdrawn),
		PendingWithdrawals: valueobject.RoundMoney(totals.Pending),
		Available:          valueobject.AvailableBalance(account.TotalEarned, totals.Withdrawn, totals.Pending),
	}, nil
}

// RequestWithdrawal создаёт заявку в статусе pending, если сумма не превышает доступный остаток.
// Проверка остатка и вставка заявки выполняются под блокировкой счёта.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, caller Caller, amount float64) (*models.WithdrawalRequest, error) {
	if !caller.Clearance.AtLeast(valueobject.ClearanceFreelancer) {
		return nil, ErrFreelancerOnly
	}
	if err := validation.ValidateWithdrawalAmount(amount, s.minAmount); err != nil {
		return nil, apperror.Validation(err)
	}
	amount = valueobject.RoundMoney(amount)

	var request *models.WithdrawalRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.repos.Accounts.LockAccount(ctx, caller.ID)
		if err != nil {
			return internalError("withdrawal.lock_account", err)
		}
		bal, err := s.balance(ctx, account)
		if err != nil {
			return err
		}
		if amount > bal.Available {
			return apperror.Newf(apperror.ErrCodeConflict, "недостаточно средств: доступно %.2f", bal.Available)
		}

		w := &models.WithdrawalRequest{
			FreelancerID: caller.ID,
			Amount:       amount,
			Status:       valueobject.WithdrawalStatusPending,
		}
		if err := s.repos.Withdrawals.Create(ctx, w); err != nil {
			return internalError("withdrawal.create", err)
		}
		request = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalAction("requested")
	logger.Log.WithFields(logrus.Fields{
		"withdrawal_id": request.ID,
		"freelancer_id": caller.ID,
		"amount":        amount,
	}).Info("withdrawal requested")
	return request, nil
}

// ProcessWithdrawal одобряет или отклоняет ожидающую заявку. Одобрение пишет запись в payout_ledger.
func (s *WithdrawalService) ProcessWithdrawal(ctx context.Context, caller Caller, withdrawalID uuid.UUID, in ProcessWithdrawalInput) (*models.WithdrawalRequest, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	var target string
	switch in.Action {
	case WithdrawalActionApprove:
		target = valueobject.WithdrawalStatusApproved
	case WithdrawalActionReject:
		target = valueobject.WithdrawalStatusRejected
	default:
		return nil, ErrUnknownWithdrawalAction
	}
	if in.Note != nil {
		trimmed := strings.TrimSpace(*in.Note)
		in.Note = &trimmed
	}
	if err := validation.ValidateOptionalText("комментарий к заявке", in.Note, validation.MaxWithdrawalNoteLength); err != nil {
		return nil, apperror.Validation(err)
	}

	var request *models.WithdrawalRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.lockWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if w.Status != valueobject.WithdrawalStatusPending {
			return ErrWithdrawalProcessed
		}
		if err := s.repos.Withdrawals.UpdateStatus(ctx, w.ID, w.Status, target, caller.ID, in.Note); err != nil {
			if errors.Is(err, repository.ErrWithdrawalStatusChanged) {
				return ErrWithdrawalProcessed
			}
			return internalError("withdrawal.update_status", err)
		}

		if target == valueobject.WithdrawalStatusApproved {
			entry := &models.PayoutLedgerEntry{
				WithdrawalID: w.ID,
				FreelancerID: w.FreelancerID,
				Amount:       w.Amount,
				EntryType:    models.PayoutEntryWithdrawal,
				CreatedBy:    caller.ID,
			}
			if err := s.repos.Withdrawals.AddPayoutEntry(ctx, entry); err != nil {
				if errors.Is(err, repository.ErrPayoutEntryAlreadyExists) {
					return ErrWithdrawalProcessed
				}
				return internalError("withdrawal.payout_entry", err)
			}
		}

		s.markProcessed(w, target, caller.ID, in.Note)
		request = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalAction(target)
	logger.Log.WithFields(logrus.Fields{
		"withdrawal_id": request.ID,
		"status":        request.Status,
		"admin_id":      caller.ID,
	}).Info("withdrawal processed")
	s.notifier.Notify(request.FreelancerID, EventWithdrawalProcessed, request)
	return request, nil
}

// CompleteWithdrawal отмечает, что одобренная выплата отправлена. На баланс не влияет.
func (s *WithdrawalService) CompleteWithdrawal(ctx context.Context, caller Caller, withdrawalID uuid.UUID) (*models.WithdrawalRequest, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	var request *models.WithdrawalRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.lockWithdrawal(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if w.Status != valueobject.WithdrawalStatusApproved {
			return ErrWithdrawalNotApproved
		}
		if err := s.repos.Withdrawals.UpdateStatus(ctx, w.ID, w.Status, valueobject.WithdrawalStatusCompleted, caller.ID, nil); err != nil {
			if errors.Is(err, repository.ErrWithdrawalStatusChanged) {
				return ErrWithdrawalNotApproved
			}
			return internalError("withdrawal.complete", err)
		}
		s.markProcessed(w, valueobject.WithdrawalStatusCompleted, caller.ID, nil)
		request = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalAction(valueobject.WithdrawalStatusCompleted)
	s.notifier.Notify(request.FreelancerID, EventWithdrawalProcessed, request)
	return request, nil
}

func (s *WithdrawalService) ListMyWithdrawals(ctx context.Context, caller Caller, limit, offset int) ([]models.WithdrawalRequest, error) {
	if !caller.Clearance.AtLeast(valueobject.ClearanceFreelancer) {
		return nil, ErrFreelancerOnly
	}
	items, err := s.repos.Withdrawals.ListByFreelancer(ctx, caller.ID, limit, offset)
	if err != nil {
		return nil, internalError("withdrawal.list_my", err)
	}
	return items, nil
}

// ListWithdrawals - очередь заявок для администратора, по умолчанию ожидающие.
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, caller Caller, status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	switch status {
	case "":
		status = valueobject.WithdrawalStatusPending
	case valueobject.WithdrawalStatusPending, valueobject.WithdrawalStatusApproved,
		valueobject.WithdrawalStatusCompleted, valueobject.WithdrawalStatusRejected:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус заявки")
	}
	items, err := s.repos.Withdrawals.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, internalError("withdrawal.list", err)
	}
	return items, nil
}

func (s *WithdrawalService) lockWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	w, err := s.repos.Withdrawals.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrWithdrawalNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, internalError("withdrawal.lock", err)
	}
	return w, nil
}

func (s *WithdrawalService) markProcessed(w *models.WithdrawalRequest, status string, adminID uuid.UUID, note *string) {
	now := s.now()
	w.Status = status
	w.ProcessedAt = &now
	w.ProcessedBy = &adminID
	if note != nil {
		w.Note = note
	}
}
