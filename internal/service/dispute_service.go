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

type ResolveDisputeInput struct {
	Outcome    string  `json:"outcome"`
	Resolution *string `json:"resolution"`
}

// DisputeService ведёт споры по заказам. Решение спора распределяет средства escrow.
type DisputeService struct {
	tx       TxManager
	repos    Repositories
	escrow   *EscrowService
	notifier Notifier
	now      func() time.Time
}

func NewDisputeService(tx TxManager, repos Repositories, escrow *EscrowService, notifier Notifier) *DisputeService {
	return &DisputeService{
		tx:       tx,
		repos:    repos,
		escrow:   escrow,
		notifier: notifierOrNoop(notifier),
		now:      time.Now,
	}
}

// OpenDispute открывает спор и переводит заказ в disputed.
func (s *DisputeService) OpenDispute(ctx context.Context, caller Caller, orderID uuid.UUID, description string) (*models.Dispute, error) {
	description = strings.TrimSpace(description)
	if err := validation.ValidateDisputeDescription(description); err != nil {
		return nil, apperror.Validation(err)
	}

	var (
		order   *models.Order
		dispute *models.Dispute
		tr      transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, role, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{lock: true})
		if err != nil {
			return err
		}

		if _, err := s.repos.Disputes.GetByOrderID(ctx, o.ID); err == nil {
			return ErrDisputeAlreadyExists
		} else if !errors.Is(err, repository.ErrDisputeNotFound) {
			return internalError("dispute.get_by_order", err)
		}
		if !o.Status.IsArbitrable() {
			return ErrOrderNotArbitrable
		}

		d := &models.Dispute{
			OrderID:     o.ID,
			InitiatorID: caller.ID,
			Description: description,
			Status:      valueobject.DisputeStatusOpen,
		}
		if err := s.repos.Disputes.Create(ctx, d); err != nil {
			if errors.Is(err, repository.ErrDisputeAlreadyExists) {
				return ErrDisputeAlreadyExists
			}
			return internalError("dispute.create", err)
		}

		if tr, err = applyTransition(ctx, s.repos, o, caller.ID, role, valueobject.OrderStatusDisputed); err != nil {
			return err
		}
		if err := s.repos.History.Add(ctx, o.ID, &caller.ID, models.HistoryActionDisputeOpened, nil,
			map[string]any{"dispute_id": d.ID, "initiator_role": role},
		); err != nil {
			return internalError("dispute.history", err)
		}

		order, dispute = o, d
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputeAction("opened")
	metrics.OrderTransition(string(tr.from), string(tr.to))
	logger.Log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"dispute_id":   dispute.ID,
		"initiator_id": caller.ID,
	}).Info("dispute opened")
	s.notifier.Notify(otherParty(order, caller.ID), EventDisputeOpened, dispute)
	return dispute, nil
}

// GetOrderDispute возвращает спор по заказу сторонам и администратору.
func (s *DisputeService) GetOrderDispute(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.Dispute, error) {
	order, _, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{allowAdmin: true})
	if err != nil {
		return nil, err
	}
	dispute, err := s.repos.Disputes.GetByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, internalError("dispute.get_by_order", err)
	}
	return dispute, nil
}

func (s *DisputeService) ListMyDisputes(ctx context.Context, caller Caller, limit, offset int) ([]models.Dispute, error) {
	disputes, err := s.repos.Disputes.ListByParticipant(ctx, caller.ID, limit, offset)
	if err != nil {
		return nil, internalError("dispute.list_my", err)
	}
	return disputes, nil
}

// ListDisputes - очередь споров для администратора. Пустой статус возвращает все споры.
func (s *DisputeService) ListDisputes(ctx context.Context, caller Caller, status string, limit, offset int) ([]models.Dispute, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	switch status {
	case "", valueobject.DisputeStatusOpen, valueobject.DisputeStatusUnderReview,
		valueobject.DisputeStatusResolved, valueobject.DisputeStatusRejected:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	disputes, err := s.repos.Disputes.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, internalError("dispute.list", err)
	}
	return disputes, nil
}

// StartReview - администратор берёт открытый спор в рассмотрение.
func (s *DisputeService) StartReview(ctx context.Context, caller Caller, disputeID uuid.UUID) (*models.Dispute, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	var (
		dispute *models.Dispute
		order   *models.Order
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, d, err := s.lockOrderAndDispute(ctx, disputeID)
		if err != nil {
			return err
		}
		order = o
		if d.Status != valueobject.DisputeStatusOpen {
			return ErrDisputeNotOpen
		}
		if err := s.repos.Disputes.MarkUnderReview(ctx, d.ID); err != nil {
			if errors.Is(err, repository.ErrDisputeStatusChanged) {
				return ErrDisputeNotOpen
			}
			return internalError("dispute.mark_under_review", err)
		}
		if err := s.repos.History.Add(ctx, order.ID, &caller.ID, models.HistoryActionDisputeReview,
			map[string]string{"status": d.Status},
			map[string]string{"status": valueobject.DisputeStatusUnderReview},
		); err != nil {
			return internalError("dispute.history", err)
		}

		d.Status = valueobject.DisputeStatusUnderReview
		dispute = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputeAction("under_review")
	s.notifier.Notify(order.ClientID, EventDisputeUnderReview, dispute)
	s.notifier.Notify(order.FreelancerID, EventDisputeUnderReview, dispute)
	return dispute, nil
}

// ResolveDispute закрывает спор. resolved выплачивает escrow фрилансеру и возвращает заказ в delivered,
// rejected возвращает средства клиенту и отменяет заказ.
func (s *DisputeService) ResolveDispute(ctx context.Context, caller Caller, disputeID uuid.UUID, in ResolveDisputeInput) (*models.Dispute, error) {
	if !caller.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	var target valueobject.OrderStatus
	switch in.Outcome {
	case valueobject.DisputeStatusResolved:
		target = valueobject.OrderStatusDelivered
	case valueobject.DisputeStatusRejected:
		target = valueobject.OrderStatusCancelled
	default:
		return nil, ErrUnknownDisputeOutcome
	}
	if in.Resolution != nil {
		trimmed := strings.TrimSpace(*in.Resolution)
		in.Resolution = &trimmed
	}
	if err := validation.ValidateOptionalText("решение по спору", in.Resolution, validation.MaxResolutionLength); err != nil {
		return nil, apperror.Validation(err)
	}

	var (
		order   *models.Order
		dispute *models.Dispute
		settled *models.EscrowTransaction
		tr      transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, d, err := s.lockOrderAndDispute(ctx, disputeID)
		if err != nil {
			return err
		}
		if !valueobject.DisputeIsActive(d.Status) {
			return ErrDisputeAlreadyClosed
		}

		if in.Outcome == valueobject.DisputeStatusResolved {
			settled, err = s.escrow.Release(ctx, o.ID)
		} else {
			settled, err = s.escrow.Refund(ctx, o.ID)
		}
		if err != nil {
			return err
		}

		if tr, err = applyTransition(ctx, s.repos, o, caller.ID, valueobject.RoleArbiter, target); err != nil {
			return err
		}
		if err := s.repos.Disputes.Resolve(ctx, d.ID, in.Outcome, in.Resolution, caller.ID); err != nil {
			if errors.Is(err, repository.ErrDisputeStatusChanged) {
				return ErrDisputeAlreadyClosed
			}
			return internalError("dispute.resolve", err)
		}
		if err := s.repos.History.Add(ctx, o.ID, &caller.ID, models.HistoryActionDisputeResolved,
			map[string]string{"status": d.Status},
			map[string]any{"status": in.Outcome, "escrow_status": settled.Status, "amount": settled.Amount},
		); err != nil {
			return internalError("dispute.history", err)
		}

		now := s.now()
		resolvedBy := caller.ID
		d.Status = in.Outcome
		d.Resolution = in.Resolution
		d.ResolvedBy = &resolvedBy
		d.ResolvedAt = &now
		order, dispute = o, d
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "released"
	if settled.Status == valueobject.EscrowStatusRefunded {
		outcome = "refunded"
	}
	metrics.EscrowSettled(outcome, settled.Amount)
	metrics.DisputeAction(in.Outcome)
	metrics.OrderTransition(string(tr.from), string(tr.to))
	logger.Log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"dispute_id": dispute.ID,
		"outcome":    in.Outcome,
		"admin_id":   caller.ID,
	}).Info("dispute resolved")
	s.notifier.Notify(order.ClientID, EventDisputeResolved, dispute)
	s.notifier.Notify(order.FreelancerID, EventDisputeResolved, dispute)
	return dispute, nil
}

// lockOrderAndDispute блокирует сначала заказ, потом спор. Этот порядок общий для всех
// операций, затрагивающих обе строки.
func (s *DisputeService) lockOrderAndDispute(ctx context.Context, disputeID uuid.UUID) (*models.Order, *models.Dispute, error) {
	d, err := s.repos.Disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, nil, ErrDisputeNotFound
		}
		return nil, nil, internalError("dispute.get", err)
	}

	order, err := s.repos.Orders.GetForUpdate(ctx, d.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, internalError("dispute.lock_order", err)
	}

	locked, err := s.repos.Disputes.GetForUpdate(ctx, disputeID)
	if err != nil {
		return nil, nil, passOrInternal("dispute.lock", err)
	}
	return order, locked, nil
}
