package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/models"
)

// TxManager задаёт границу атомарной операции. Вложенные вызовы присоединяются к внешней транзакции.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	AddAddons(ctx context.Context, orderID uuid.UUID, addons []models.OrderAddon) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to valueobject.OrderStatus) error
	IncrementRevisions(ctx context.Context, id uuid.UUID) error
	ListAddons(ctx context.Context, orderID uuid.UUID) ([]models.OrderAddon, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
}

type CatalogRepository interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*models.CatalogPackage, error)
	ListAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogAddon, error)
}

type EscrowRepository interface {
	Create(ctx context.Context, e *models.EscrowTransaction) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowTransaction, error)
	Settle(ctx context.Context, orderID uuid.UUID, status string) (*models.EscrowTransaction, error)
}

type AccountRepository interface {
	CreditEarnings(ctx context.Context, freelancerID uuid.UUID, amount float64) error
	LockAccount(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerAccount, error)
	GetAccount(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerAccount, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	MarkUnderReview(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID, status string, resolution *string, resolvedBy uuid.UUID) error
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error)
}

type RevisionRepository interface {
	Create(ctx context.Context, rev *models.RevisionRequest) error
	CompletePending(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RevisionRequest, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, rev *models.Review) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error)
}

type DeliverableRepository interface {
	Create(ctx context.Context, d *models.Deliverable) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Deliverable, error)
}

type ConversationRepository interface {
	EnsureExists(ctx context.Context, clientID, freelancerID, orderID uuid.UUID) error
}

type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	SumTotals(ctx context.Context, freelancerID uuid.UUID) (*models.WithdrawalTotals, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, processedBy uuid.UUID, note *string) error
	AddPayoutEntry(ctx context.Context, e *models.PayoutLedgerEntry) error
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, error)
}

type OrderHistoryRepository interface {
	Add(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, action string, oldValue, newValue interface{}) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
}

type RoleRepository interface {
	ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// Repositories собирает хранилища, с которыми работают сервисы ядра.
type Repositories struct {
	Orders        OrderRepository
	Catalog       CatalogRepository
	Escrows       EscrowRepository
	Accounts      AccountRepository
	Disputes      DisputeRepository
	Revisions     RevisionRepository
	Reviews       ReviewRepository
	Deliverables  DeliverableRepository
	Conversations ConversationRepository
	Withdrawals   WithdrawalRepository
	History       OrderHistoryRepository
}

// Notifier доставляет событие пользователю после фиксации транзакции.
type Notifier interface {
	Notify(userID uuid.UUID, event string, data any)
}

type noopNotifier struct{}

func (noopNotifier) Notify(uuid.UUID, string, any) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// События, которые получают стороны заказа по WebSocket.
const (
	EventOrderCreated        = "order_created"
	EventOrderStatusChanged  = "order_status_changed"
	EventRevisionRequested   = "revision_requested"
	EventDisputeOpened       = "dispute_opened"
	EventDisputeUnderReview  = "dispute_under_review"
	EventDisputeResolved     = "dispute_resolved"
	EventWithdrawalProcessed = "withdrawal_processed"
)
