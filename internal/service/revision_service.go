package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// RevisionService обрабатывает запросы клиента на доработку в пределах квоты пакета.
type RevisionService struct {
	tx       TxManager
	repos    Repositories
	notifier Notifier
}

func NewRevisionService(tx TxManager, repos Repositories, notifier Notifier) *RevisionService {
	return &RevisionService{tx: tx, repos: repos, notifier: notifierOrNoop(notifier)}
}

// RequestRevision возвращает сданную работу на доработку и расходует одну правку.
func (s *RevisionService) RequestRevision(ctx context.Context, caller Caller, orderID uuid.UUID, reason string) (*models.RevisionRequest, error) {
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateRevisionReason(reason); err != nil {
		return nil, apperror.Validation(err)
	}

	var (
		order    *models.Order
		revision *models.RevisionRequest
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, role, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{lock: true})
		if err != nil {
			return err
		}
		if err := valueobject.ValidateTransition(role, o.Status, valueobject.OrderStatusRevisionRequested); err != nil {
			return err
		}
		if o.RevisionsUsed >= o.RevisionsAllowed {
			return ErrRevisionLimitReached
		}

		rev := &models.RevisionRequest{
			OrderID:     o.ID,
			RequestedBy: caller.ID,
			Reason:      reason,
			Status:      valueobject.RevisionStatusPending,
		}
		if err := s.repos.Revisions.Create(ctx, rev); err != nil {
			return internalError("revision.create", err)
		}
		if err := s.repos.Orders.IncrementRevisions(ctx, o.ID); err != nil {
			if errors.Is(err, repository.ErrRevisionLimit) {
				return ErrRevisionLimitReached
			}
			return internalError("revision.increment", err)
		}
		if err := s.repos.History.Add(ctx, o.ID, &caller.ID, models.HistoryActionRevisionRequested,
			map[string]any{"status": o.Status, "revisions_used": o.RevisionsUsed},
			map[string]any{"status": valueobject.OrderStatusRevisionRequested, "revisions_used": o.RevisionsUsed + 1},
		); err != nil {
			return internalError("revision.history", err)
		}

		o.RevisionsUsed++
		o.Status = valueobject.OrderStatusRevisionRequested
		order, revision = o, rev
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransition(string(valueobject.OrderStatusDelivered), string(valueobject.OrderStatusRevisionRequested))
	s.notifier.Notify(order.FreelancerID, EventRevisionRequested, revision)
	return revision, nil
}

// ListRevisions возвращает историю правок заказа.
func (s *RevisionService) ListRevisions(ctx context.Context, caller Caller, orderID uuid.UUID) ([]models.RevisionRequest, error) {
	order, _, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{allowAdmin: true})
	if err != nil {
		return nil, err
	}
	revisions, err := s.repos.Revisions.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, internalError("revision.list", err)
	}
	return revisions, nil
}
