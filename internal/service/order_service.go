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

// AddonSelection - дополнение, выбранное клиентом при оформлении.
type AddonSelection struct {
	AddonID  uuid.UUID `json:"addon_id"`
	Quantity int       `json:"quantity"`
}

type CreateOrderInput struct {
	PackageID     uuid.UUID        `json:"package_id"`
	Addons        []AddonSelection `json:"addons"`
	ProjectBrief  string           `json:"project_brief"`
	PaymentMethod string           `json:"payment_method"`
}

// DeliverInput описывает уже сохранённый в хранилище файл результата.
type DeliverInput struct {
	FileName string
	FilePath string
	MimeType string
	FileSize int64
	Note     *string
}

// CompleteInput - отзыв клиента. Rating указатель: отсутствие оценки отличается от оценки 0.
type CompleteInput struct {
	Rating  *float64 `json:"rating"`
	Comment string   `json:"comment"`
}

// OrderService ведёт заказ по жизненному циклу от оформления до завершения.
type OrderService struct {
	tx       TxManager
	repos    Repositories
	escrow   *EscrowService
	notifier Notifier
	now      func() time.Time
}

func NewOrderService(tx TxManager, repos Repositories, escrow *EscrowService, notifier Notifier) *OrderService {
	return &OrderService{
		tx:       tx,
		repos:    repos,
		escrow:   escrow,
		notifier: notifierOrNoop(notifier),
		now:      time.Now,
	}
}

// CreateOrder оформляет заказ пакета: цена и срок фиксируются, средства удерживаются в escrow.
// Все записи создаются в одной транзакции.
func (s *OrderService) CreateOrder(ctx context.Context, caller Caller, in CreateOrderInput) (*models.OrderDetails, error) {
	if !caller.Clearance.AtLeast(valueobject.ClearanceClient) {
		return nil, apperror.ErrForbidden
	}
	in.ProjectBrief = strings.TrimSpace(in.ProjectBrief)
	if err := validation.ValidateProjectBrief(in.ProjectBrief); err != nil {
		return nil, apperror.Validation(err)
	}
	if _, ok := models.ValidPaymentMethods[in.PaymentMethod]; !ok {
		return nil, ErrUnsupportedPayment
	}
	if err := validateAddonSelections(in.Addons); err != nil {
		return nil, err
	}

	var details *models.OrderDetails
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pkg, err := s.repos.Catalog.GetPackage(ctx, in.PackageID)
		if err != nil {
			if errors.Is(err, repository.ErrPackageNotFound) {
				return ErrPackageNotFound
			}
			return internalError("order.get_package", err)
		}
		if pkg.FreelancerID == caller.ID {
			return ErrOwnService
		}

		snapshot, lines, err := s.resolveAddons(ctx, pkg, in.Addons)
		if err != nil {
			return err
		}

		terms, err := valueobject.ComputeOrderTerms(pkg.Price, pkg.DeliveryDays, lines, s.now())
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:               uuid.New(),
			ClientID:         caller.ID,
			FreelancerID:     pkg.FreelancerID,
			ServiceID:        pkg.ServiceID,
			PackageID:        pkg.ID,
			ProjectBrief:     in.ProjectBrief,
			TotalPrice:       terms.TotalPrice,
			DueAt:            terms.DueAt,
			RevisionsAllowed: pkg.RevisionsAllowed,
			Status:           valueobject.OrderStatusPending,
		}
		if err := s.repos.Orders.Create(ctx, order); err != nil {
			return internalError("order.create", err)
		}
		for i := range snapshot {
			snapshot[i].OrderID = order.ID
		}
		if err := s.repos.Orders.AddAddons(ctx, order.ID, snapshot); err != nil {
			return internalError("order.add_addons", err)
		}

		escrow, err := s.escrow.Hold(ctx, order, in.PaymentMethod)
		if err != nil {
			return err
		}
		if err := s.repos.Conversations.EnsureExists(ctx, order.ClientID, order.FreelancerID, order.ID); err != nil {
			return internalError("order.conversation", err)
		}
		if err := s.repos.History.Add(ctx, order.ID, &caller.ID, models.HistoryActionCreated, nil,
			map[string]any{"status": order.Status, "total_price": order.TotalPrice, "due_at": order.DueAt},
		); err != nil {
			return internalError("order.history", err)
		}

		details = &models.OrderDetails{
			Order:        order,
			Addons:       snapshot,
			Escrow:       escrow,
			Revisions:    []models.RevisionRequest{},
			Deliverables: []models.Deliverable{},
			History:      []models.OrderHistory{},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderCreated()
	logger.Log.WithFields(logrus.Fields{
		"order_id":    details.ID,
		"client_id":   details.ClientID,
		"total_price": details.TotalPrice,
	}).Info("order created")
	s.notifier.Notify(details.FreelancerID, EventOrderCreated, details.Order)
	return details, nil
}

func validateAddonSelections(addons []AddonSelection) error {
	if len(addons) > validation.MaxAddonsPerOrder {
		return apperror.Newf(apperror.ErrCodeValidation, "можно выбрать не более %d дополнений", validation.MaxAddonsPerOrder)
	}
	seen := make(map[uuid.UUID]struct{}, len(addons))
	for _, a := range addons {
		if a.Quantity < 1 || a.Quantity > validation.MaxAddonQuantity {
			return apperror.Newf(apperror.ErrCodeValidation, "количество дополнения должно быть от 1 до %d", validation.MaxAddonQuantity)
		}
		if _, dup := seen[a.AddonID]; dup {
			return apperror.New(apperror.ErrCodeValidation, "дополнение выбрано повторно")
		}
		seen[a.AddonID] = struct{}{}
	}
	return nil
}

// resolveAddons сверяет выбор клиента с каталогом и снимает копию цен.
func (s *OrderService) resolveAddons(ctx context.Context, pkg *models.CatalogPackage, selected []AddonSelection) ([]models.OrderAddon, []valueobject.AddonLine, error) {
	snapshot := make([]models.OrderAddon, 0, len(selected))
	lines := make([]valueobject.AddonLine, 0, len(selected))
	if len(selected) == 0 {
		return snapshot, lines, nil
	}

	ids := make([]uuid.UUID, len(selected))
	for i, a := range selected {
		ids[i] = a.AddonID
	}
	found, err := s.repos.Catalog.ListAddonsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, internalError("order.list_addons", err)
	}
	byID := make(map[uuid.UUID]models.CatalogAddon, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	for _, sel := range selected {
		addon, ok := byID[sel.AddonID]
		if !ok || addon.ServiceID != pkg.ServiceID {
			return nil, nil, apperror.Newf(apperror.ErrCodeValidation, "дополнение %s не относится к услуге", sel.AddonID)
		}
		snapshot = append(snapshot, models.OrderAddon{
			AddonID:           addon.ID,
			Name:              addon.Name,
			Quantity:          sel.Quantity,
			UnitPrice:         addon.Price,
			DeliveryDaysDelta: addon.DeliveryDaysDelta,
		})
		lines = append(lines, valueobject.AddonLine{
			UnitPrice:         addon.Price,
			Quantity:          sel.Quantity,
			DeliveryDaysDelta: addon.DeliveryDaysDelta,
		})
	}
	return snapshot, lines, nil
}

// GetOrder возвращает заказ со всеми связанными записями. Доступен сторонам и администратору.
func (s *OrderService) GetOrder(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.OrderDetails, error) {
	order, _, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{allowAdmin: true})
	if err != nil {
		return nil, err
	}

	details := &models.OrderDetails{Order: order}
	if details.Addons, err = s.repos.Orders.ListAddons(ctx, order.ID); err != nil {
		return nil, internalError("order.list_addons", err)
	}
	if details.Escrow, err = s.repos.Escrows.GetByOrderID(ctx, order.ID); err != nil && !errors.Is(err, repository.ErrEscrowNotFound) {
		return nil, internalError("order.get_escrow", err)
	}
	if details.Dispute, err = s.repos.Disputes.GetByOrderID(ctx, order.ID); err != nil && !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, internalError("order.get_dispute", err)
	}
	if details.Revisions, err = s.repos.Revisions.ListByOrder(ctx, order.ID); err != nil {
		return nil, internalError("order.list_revisions", err)
	}
	if details.Deliverables, err = s.repos.Deliverables.ListByOrder(ctx, order.ID); err != nil {
		return nil, internalError("order.list_deliverables", err)
	}
	if details.History, err = s.repos.History.ListByOrder(ctx, order.ID); err != nil {
		return nil, internalError("order.list_history", err)
	}
	return details, nil
}

// ListMyOrders возвращает заказы, где вызывающий клиент или фрилансер.
func (s *OrderService) ListMyOrders(ctx context.Context, caller Caller, limit, offset int) ([]models.Order, error) {
	orders, err := s.repos.Orders.ListByParticipant(ctx, caller.ID, limit, offset)
	if err != nil {
		return nil, internalError("order.list_my", err)
	}
	return orders, nil
}

// StartOrder - фрилансер берёт заказ в работу.
func (s *OrderService) StartOrder(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.Order, error) {
	return s.simpleTransition(ctx, caller, orderID, valueobject.OrderStatusInProgress)
}

// CancelOrder отменяет заказ по инициативе любой стороны. Средства в escrow не двигаются,
// поэтому отмена допустима только пока escrow в pending.
func (s *OrderService) CancelOrder(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.Order, error) {
	return s.simpleTransition(ctx, caller, orderID, valueobject.OrderStatusCancelled)
}

// requirePendingEscrow не даёт отменить заказ, по которому средства уже выплачены или возвращены.
func (s *OrderService) requirePendingEscrow(ctx context.Context, orderID uuid.UUID) error {
	escrow, err := s.escrow.GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if escrow.Status != valueobject.EscrowStatusPending {
		return ErrEscrowAlreadySettled
	}
	return nil
}

func (s *OrderService) simpleTransition(ctx context.Context, caller Caller, orderID uuid.UUID, to valueobject.OrderStatus) (*models.Order, error) {
	var (
		order *models.Order
		tr    transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, role, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{lock: true})
		if err != nil {
			return err
		}
		if to == valueobject.OrderStatusCancelled {
			if err := s.requirePendingEscrow(ctx, o.ID); err != nil {
				return err
			}
		}
		if tr, err = applyTransition(ctx, s.repos, o, caller.ID, role, to); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(order, caller.ID, tr)
	return order, nil
}

// AuthorizeDelivery без блокировки проверяет, что вызывающий может сдать работу по заказу.
// Хэндлер вызывает её до сохранения файла, DeliverOrder повторяет проверку под блокировкой.
func (s *OrderService) AuthorizeDelivery(ctx context.Context, caller Caller, orderID uuid.UUID) error {
	o, role, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{})
	if err != nil {
		return err
	}
	return valueobject.ValidateTransition(role, o.Status, valueobject.OrderStatusDelivered)
}

// DeliverOrder фиксирует сдачу работы. Открытые запросы правок при этом закрываются.
func (s *OrderService) DeliverOrder(ctx context.Context, caller Caller, orderID uuid.UUID, in DeliverInput) (*models.Order, *models.Deliverable, error) {
	if in.FilePath == "" {
		return nil, nil, ErrDeliverableRequired
	}
	if err := validation.ValidateOptionalText("комментарий к сдаче", in.Note, validation.MaxDeliveryNoteLength); err != nil {
		return nil, nil, apperror.Validation(err)
	}

	var (
		order       *models.Order
		deliverable *models.Deliverable
		tr          transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, role, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{lock: true})
		if err != nil {
			return err
		}
		if tr, err = applyTransition(ctx, s.repos, o, caller.ID, role, valueobject.OrderStatusDelivered); err != nil {
			return err
		}

		d := &models.Deliverable{
			OrderID:    o.ID,
			UploadedBy: caller.ID,
			FileName:   in.FileName,
			FilePath:   in.FilePath,
			MimeType:   in.MimeType,
			FileSize:   in.FileSize,
			Note:       in.Note,
		}
		if err := s.repos.Deliverables.Create(ctx, d); err != nil {
			return internalError("order.deliverable", err)
		}
		if _, err := s.repos.Revisions.CompletePending(ctx, o.ID); err != nil {
			return internalError("order.complete_revisions", err)
		}
		if err := s.repos.History.Add(ctx, o.ID, &caller.ID, models.HistoryActionDelivered, nil,
			map[string]any{"deliverable_id": d.ID, "file_name": d.FileName},
		); err != nil {
			return internalError("order.history", err)
		}

		order, deliverable = o, d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.afterTransition(order, caller.ID, tr)
	return order, deliverable, nil
}

// CompleteOrder принимает работу: отзыв, статус completed и выплата escrow в одной транзакции.
// Если средства уже выплачены решением спора, повторного начисления нет.
func (s *OrderService) CompleteOrder(ctx context.Context, caller Caller, orderID uuid.UUID, in CompleteInput) (*models.Order, *models.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if in.Rating == nil {
		return nil, nil, ErrRatingRequired
	}
	if err := validation.ValidateRating(*in.Rating); err != nil {
		return nil, nil, apperror.Validation(err)
	}
	if err := validation.ValidateReviewComment(in.Comment); err != nil {
		return nil, nil, apperror.Validation(err)
	}

	var (
		order    *models.Order
		review   *models.Review
		released *models.EscrowTransaction
		tr       transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, role, err := loadOrder(ctx, s.repos.Orders, orderID, caller, orderAccess{lock: true})
		if err != nil {
			return err
		}

		dispute, err := s.repos.Disputes.GetByOrderID(ctx, o.ID)
		switch {
		case err == nil && valueobject.DisputeIsActive(dispute.Status):
			return ErrDisputeBlocksCompletion
		case err != nil && !errors.Is(err, repository.ErrDisputeNotFound):
			return internalError("order.get_dispute", err)
		}

		if tr, err = applyTransition(ctx, s.repos, o, caller.ID, role, valueobject.OrderStatusCompleted); err != nil {
			return err
		}

		r := &models.Review{
			OrderID:      o.ID,
			ReviewerID:   caller.ID,
			FreelancerID: o.FreelancerID,
			Rating:       *in.Rating,
			Comment:      in.Comment,
		}
		if err := s.repos.Reviews.Create(ctx, r); err != nil {
			if errors.Is(err, repository.ErrReviewAlreadyExists) {
				return ErrAlreadyReviewed
			}
			return internalError("order.review", err)
		}
		if err := s.repos.History.Add(ctx, o.ID, &caller.ID, models.HistoryActionReviewed, nil,
			map[string]any{"review_id": r.ID, "rating": r.Rating},
		); err != nil {
			return internalError("order.history", err)
		}

		escrow, err := s.escrow.GetByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		switch escrow.Status {
		case valueobject.EscrowStatusPending:
			if released, err = s.escrow.Release(ctx, o.ID); err != nil {
				return err
			}
		case valueobject.EscrowStatusCompleted:
			// выплачено решением спора
		default:
			return ErrEscrowAlreadySettled
		}

		order, review = o, r
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if released != nil {
		metrics.EscrowSettled("released", released.Amount)
	}
	s.afterTransition(order, caller.ID, tr)
	return order, review, nil
}

func (s *OrderService) afterTransition(order *models.Order, actorID uuid.UUID, tr transition) {
	metrics.OrderTransition(string(tr.from), string(tr.to))
	logger.Log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     tr.from,
		"to":       tr.to,
		"actor_id": actorID,
	}).Info("order status changed")
	s.notifier.Notify(otherParty(order, actorID), EventOrderStatusChanged, order)
}
