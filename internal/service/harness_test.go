package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type harness struct {
	store       *memStore
	notifier    *recordingNotifier
	escrow      *EscrowService
	orders      *OrderService
	revisions   *RevisionService
	disputes    *DisputeService
	withdrawals *WithdrawalService

	client     Caller
	freelancer Caller
	admin      Caller
	stranger   Caller

	pkg   models.CatalogPackage
	addon models.CatalogAddon
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	notifier := &recordingNotifier{}
	repos := store.repos()
	escrow := NewEscrowService(store, repos.Escrows, repos.Accounts)

	h := &harness{
		store:       store,
		notifier:    notifier,
		escrow:      escrow,
		orders:      NewOrderService(store, repos, escrow, notifier),
		revisions:   NewRevisionService(store, repos, notifier),
		disputes:    NewDisputeService(store, repos, escrow, notifier),
		withdrawals: NewWithdrawalService(store, repos, DefaultMinWithdrawalAmount, notifier),
		client:      Caller{ID: uuid.New(), Clearance: valueobject.ClearanceClient},
		freelancer:  Caller{ID: uuid.New(), Clearance: valueobject.ClearanceFreelancer},
		admin:       Caller{ID: uuid.New(), Clearance: valueobject.ClearanceAdmin},
		stranger:    Caller{ID: uuid.New(), Clearance: valueobject.ClearanceClient},
	}
	h.orders.now = func() time.Time { return fixedNow }
	h.disputes.now = func() time.Time { return fixedNow }
	h.withdrawals.now = func() time.Time { return fixedNow }

	serviceID := uuid.New()
	h.pkg = models.CatalogPackage{
		ID:               uuid.New(),
		ServiceID:        serviceID,
		FreelancerID:     h.freelancer.ID,
		Name:             "Базовый",
		Price:            100,
		DeliveryDays:     5,
		RevisionsAllowed: 1,
	}
	h.addon = models.CatalogAddon{
		ID:                uuid.New(),
		ServiceID:         serviceID,
		Name:              "Срочно",
		Price:             20,
		DeliveryDaysDelta: 2,
	}
	store.putPackage(h.pkg)
	store.putAddon(h.addon)
	return h
}

// seedOrder кладёт заказ на 120 в нужном статусе вместе с escrow в pending.
func (h *harness) seedOrder(status valueobject.OrderStatus) models.Order {
	order := models.Order{
		ID:               uuid.New(),
		ClientID:         h.client.ID,
		FreelancerID:     h.freelancer.ID,
		ServiceID:        h.pkg.ServiceID,
		PackageID:        h.pkg.ID,
		ProjectBrief:     "Лендинг для кофейни",
		TotalPrice:       120,
		DueAt:            fixedNow.AddDate(0, 0, 7),
		RevisionsAllowed: 1,
		Status:           status,
		CreatedAt:        fixedNow,
		UpdatedAt:        fixedNow,
	}
	h.store.putOrder(order)
	h.store.putEscrow(models.EscrowTransaction{
		OrderID:       order.ID,
		ClientID:      order.ClientID,
		FreelancerID:  order.FreelancerID,
		Amount:        order.TotalPrice,
		PaymentMethod: models.PaymentMethodCard,
		Status:        valueobject.EscrowStatusPending,
	})
	return order
}

// seedDispute открывает спор по заказу без проверок сервиса.
func (h *harness) seedDispute(order models.Order, status string) models.Dispute {
	d := models.Dispute{
		ID:          uuid.New(),
		OrderID:     order.ID,
		InitiatorID: h.client.ID,
		Description: "Работа не соответствует брифу",
		Status:      status,
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}
	h.store.putDispute(d)
	return d
}

func (h *harness) orderInput() CreateOrderInput {
	return CreateOrderInput{
		PackageID:     h.pkg.ID,
		Addons:        []AddonSelection{{AddonID: h.addon.ID, Quantity: 1}},
		ProjectBrief:  "Нужен лендинг для кофейни",
		PaymentMethod: models.PaymentMethodCard,
	}
}

func validReview() CompleteInput {
	return CompleteInput{Rating: ratingOf(4.5), Comment: "Отличная работа"}
}

func ratingOf(v float64) *float64 {
	return &v
}
