package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter собирает gin с заранее вычисленным вызывающим; nil - запрос без авторизации.
func newRouter(caller *service.Caller) *gin.Engine {
	r := gin.New()
	if caller != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextCallerKey, *caller)
			c.Next()
		})
	}
	return r
}

func clientCaller() *service.Caller {
	return &service.Caller{ID: uuid.New(), Clearance: valueobject.ClearanceClient}
}

func adminCaller() *service.Caller {
	return &service.Caller{ID: uuid.New(), Clearance: valueobject.ClearanceAdmin}
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) CreateOrder(ctx context.Context, caller service.Caller, in service.CreateOrderInput) (*models.OrderDetails, error) {
	args := m.Called(ctx, caller, in)
	d, _ := args.Get(0).(*models.OrderDetails)
	return d, args.Error(1)
}

func (m *mockOrders) GetOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.OrderDetails, error) {
	args := m.Called(ctx, caller, orderID)
	d, _ := args.Get(0).(*models.OrderDetails)
	return d, args.Error(1)
}

func (m *mockOrders) ListMyOrders(ctx context.Context, caller service.Caller, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, caller, limit, offset)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) StartOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, caller, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) CancelOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, caller, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) AuthorizeDelivery(ctx context.Context, caller service.Caller, orderID uuid.UUID) error {
	return m.Called(ctx, caller, orderID).Error(0)
}

func (m *mockOrders) DeliverOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID, in service.DeliverInput) (*models.Order, *models.Deliverable, error) {
	args := m.Called(ctx, caller, orderID, in)
	o, _ := args.Get(0).(*models.Order)
	d, _ := args.Get(1).(*models.Deliverable)
	return o, d, args.Error(2)
}

func (m *mockOrders) CompleteOrder(ctx context.Context, caller service.Caller, orderID uuid.UUID, in service.CompleteInput) (*models.Order, *models.Review, error) {
	args := m.Called(ctx, caller, orderID, in)
	o, _ := args.Get(0).(*models.Order)
	r, _ := args.Get(1).(*models.Review)
	return o, r, args.Error(2)
}

type mockRevisions struct {
	mock.Mock
}

func (m *mockRevisions) RequestRevision(ctx context.Context, caller service.Caller, orderID uuid.UUID, reason string) (*models.RevisionRequest, error) {
	args := m.Called(ctx, caller, orderID, reason)
	r, _ := args.Get(0).(*models.RevisionRequest)
	return r, args.Error(1)
}

func (m *mockRevisions) ListRevisions(ctx context.Context, caller service.Caller, orderID uuid.UUID) ([]models.RevisionRequest, error) {
	args := m.Called(ctx, caller, orderID)
	r, _ := args.Get(0).([]models.RevisionRequest)
	return r, args.Error(1)
}

type mockDisputes struct {
	mock.Mock
}

func (m *mockDisputes) OpenDispute(ctx context.Context, caller service.Caller, orderID uuid.UUID, description string) (*models.Dispute, error) {
	args := m.Called(ctx, caller, orderID, description)
	d, _ := args.Get(0).(*models.Dispute)
	return d, args.Error(1)
}

func (m *mockDisputes) GetOrderDispute(ctx context.Context, caller service.Caller, orderID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, caller, orderID)
	d, _ := args.Get(0).(*models.Dispute)
	return d, args.Error(1)
}

func (m *mockDisputes) ListMyDisputes(ctx context.Context, caller service.Caller, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, caller, limit, offset)
	d, _ := args.Get(0).([]models.Dispute)
	return d, args.Error(1)
}

func (m *mockDisputes) ListDisputes(ctx context.Context, caller service.Caller, status string, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, caller, status, limit, offset)
	d, _ := args.Get(0).([]models.Dispute)
	return d, args.Error(1)
}

func (m *mockDisputes) StartReview(ctx context.Context, caller service.Caller, disputeID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, caller, disputeID)
	d, _ := args.Get(0).(*models.Dispute)
	return d, args.Error(1)
}

func (m *mockDisputes) ResolveDispute(ctx context.Context, caller service.Caller, disputeID uuid.UUID, in service.ResolveDisputeInput) (*models.Dispute, error) {
	args := m.Called(ctx, caller, disputeID, in)
	d, _ := args.Get(0).(*models.Dispute)
	return d, args.Error(1)
}

type mockWithdrawals struct {
	mock.Mock
}

func (m *mockWithdrawals) GetBalance(ctx context.Context, caller service.Caller) (*models.Balance, error) {
	args := m.Called(ctx, caller)
	b, _ := args.Get(0).(*models.Balance)
	return b, args.Error(1)
}

func (m *mockWithdrawals) RequestWithdrawal(ctx context.Context, caller service.Caller, amount float64) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, caller, amount)
	w, _ := args.Get(0).(*models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockWithdrawals) ListMyWithdrawals(ctx context.Context, caller service.Caller, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, caller, limit, offset)
	w, _ := args.Get(0).([]models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockWithdrawals) ListWithdrawals(ctx context.Context, caller service.Caller, status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, caller, status, limit, offset)
	w, _ := args.Get(0).([]models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockWithdrawals) ProcessWithdrawal(ctx context.Context, caller service.Caller, withdrawalID uuid.UUID, in service.ProcessWithdrawalInput) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, caller, withdrawalID, in)
	w, _ := args.Get(0).(*models.WithdrawalRequest)
	return w, args.Error(1)
}

func (m *mockWithdrawals) CompleteWithdrawal(ctx context.Context, caller service.Caller, withdrawalID uuid.UUID) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, caller, withdrawalID)
	w, _ := args.Get(0).(*models.WithdrawalRequest)
	return w, args.Error(1)
}

type mockFiles struct {
	mock.Mock
}

func (m *mockFiles) Save(ctx context.Context, orderID uuid.UUID, originalName string, r io.Reader) (*storage.StoredFile, error) {
	_, _ = io.Copy(io.Discard, r)
	args := m.Called(ctx, orderID, originalName)
	f, _ := args.Get(0).(*storage.StoredFile)
	return f, args.Error(1)
}

func (m *mockFiles) Delete(ctx context.Context, relativePath string) error {
	return m.Called(ctx, relativePath).Error(0)
}

func (m *mockFiles) MaxUploadBytes() int64 {
	return 5 << 20
}
