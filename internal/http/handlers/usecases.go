package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/storage"
)

// Интерфейсы ниже реализуются сервисами пакета service; хэндлеры зависят от них,
// чтобы тесты могли подставлять моки.

type OrderUseCase interface {
	CreateOrder(ctx context.Context, caller service.Caller, in service.CreateOrderInput) (*models.OrderDetails, error)
	GetOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.OrderDetails, error)
	ListMyOrders(ctx context.Context, caller service.Caller, limit, offset int) ([]models.Order, error)
	StartOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.Order, error)
	CancelOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.Order, error)
	AuthorizeDelivery(ctx context.Context, caller service.Caller, orderID uuid.UUID) error
	DeliverOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID, in service.DeliverInput) (*models.Order, *models.Deliverable, error)
	CompleteOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID, in service.CompleteInput) (*models.Order, *models.Review, error)
}

type RevisionUseCase interface {
	RequestRevision(ctx context.Context, caller service.Caller, orderID uuid.UUID, reason string) (*models.RevisionRequest, error)
	ListRevisions(ctx context.Context, caller service.Caller, orderID uuid.UUID) ([]models.RevisionRequest, error)
}

type DisputeUseCase interface {
	OpenDispute(ctx context.Context, caller service.Caller, orderID uuid.UUID, description string) (*models.Dispute, error)
	GetOrderDispute(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.Dispute, error)
	ListMyDisputes(ctx context.Context, caller service.Caller, limit, offset int) ([]models.Dispute, error)
	ListDisputes(ctx context.Context, caller service.Caller, status string, limit, offset int) ([]models.Dispute, error)
	StartReview(ctx context.Context, caller service.Caller, disputeID uuid.UUID) (*models.Dispute, error)
	ResolveDispute(ctx context.Context, caller service.Caller, disputeID uuid.UUID, in service.ResolveDisputeInput) (*models.Dispute, error)
}

type WithdrawalUseCase interface {
	GetBalance(ctx context.Context, caller service.Caller) (*models.Balance, error)
	RequestWithdrawal(ctx context.Context, caller service.Caller, amount float64) (*models.WithdrawalRequest, error)
	ListMyWithdrawals(ctx context.Context, caller service.Caller, limit, offset int) ([]models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, caller service.Caller, status string, limit, offset int) ([]models.WithdrawalRequest, error)
	ProcessWithdrawal(ctx context.Context, caller service.Caller, withdrawalID uuid.UUID, in service.ProcessWithdrawalInput) (*models.WithdrawalRequest, error)
	CompleteWithdrawal(ctx context.Context, caller service.Caller, withdrawalID uuid.UUID) (*models.WithdrawalRequest, error)
}

// FileStore сохраняет файлы результатов работы.
type FileStore interface {
	Save(ctx context.Context, orderID uuid.UUID, originalName string, r io.Reader) (*storage.StoredFile, error)
	Delete(ctx context.Context, relativePath string) error
	MaxUploadBytes() int64
}
