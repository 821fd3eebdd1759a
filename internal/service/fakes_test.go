package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

// memState - содержимое in-memory базы. Копируется целиком при старте транзакции.
type memState struct {
	orders        map[uuid.UUID]models.Order
	orderAddons   map[uuid.UUID][]models.OrderAddon
	packages      map[uuid.UUID]models.CatalogPackage
	catalogAddons map[uuid.UUID]models.CatalogAddon
	escrows       map[uuid.UUID]models.EscrowTransaction
	accounts      map[uuid.UUID]models.FreelancerAccount
	disputes      map[uuid.UUID]models.Dispute
	revisions     []models.RevisionRequest
	reviews       map[uuid.UUID]models.Review
	deliverables  []models.Deliverable
	conversations map[[2]uuid.UUID]uuid.UUID
	withdrawals   map[uuid.UUID]models.WithdrawalRequest
	payouts       map[uuid.UUID]models.PayoutLedgerEntry
	history       []models.OrderHistory
	roles         map[uuid.UUID][]string
}

func newMemState() memState {
	return memState{
		orders:        map[uuid.UUID]models.Order{},
		orderAddons:   map[uuid.UUID][]models.OrderAddon{},
		packages:      map[uuid.UUID]models.CatalogPackage{},
		catalogAddons: map[uuid.UUID]models.CatalogAddon{},
		escrows:       map[uuid.UUID]models.EscrowTransaction{},
		accounts:      map[uuid.UUID]models.FreelancerAccount{},
		disputes:      map[uuid.UUID]models.Dispute{},
		reviews:       map[uuid.UUID]models.Review{},
		conversations: map[[2]uuid.UUID]uuid.UUID{},
		withdrawals:   map[uuid.UUID]models.WithdrawalRequest{},
		payouts:       map[uuid.UUID]models.PayoutLedgerEntry{},
		roles:         map[uuid.UUID][]string{},
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s memState) clone() memState {
	addons := make(map[uuid.UUID][]models.OrderAddon, len(s.orderAddons))
	for k, v := range s.orderAddons {
		addons[k] = append([]models.OrderAddon(nil), v...)
	}
	return memState{
		orders:        cloneMap(s.orders),
		orderAddons:   addons,
		packages:      cloneMap(s.packages),
		catalogAddons: cloneMap(s.catalogAddons),
		escrows:       cloneMap(s.escrows),
		accounts:      cloneMap(s.accounts),
		disputes:      cloneMap(s.disputes),
		revisions:     append([]models.RevisionRequest(nil), s.revisions...),
		reviews:       cloneMap(s.reviews),
		deliverables:  append([]models.Deliverable(nil), s.deliverables...),
		conversations: cloneMap(s.conversations),
		withdrawals:   cloneMap(s.withdrawals),
		payouts:       cloneMap(s.payouts),
		history:       append([]models.OrderHistory(nil), s.history...),
		roles:         cloneMap(s.roles),
	}
}

// memStore - фейковая база с семантикой транзакций: транзакции выполняются по одной,
// при ошибке состояние восстанавливается из снимка.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   memState
	fail map[string]error
}

type memTxKey struct{}

func newMemStore() *memStore {
	return &memStore{st: newMemState(), fail: map[string]error{}}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// failOn заставляет операцию вернуть ошибку.
func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

func (m *memStore) lock(op string) error {
	m.mu.Lock()
	if err, ok := m.fail[op]; ok {
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) repos() Repositories {
	return Repositories{
		Orders:        memOrders{m},
		Catalog:       memCatalog{m},
		Escrows:       memEscrows{m},
		Accounts:      memAccounts{m},
		Disputes:      memDisputes{m},
		Revisions:     memRevisions{m},
		Reviews:       memReviews{m},
		Deliverables:  memDeliverables{m},
		Conversations: memConversations{m},
		Withdrawals:   memWithdrawals{m},
		History:       memHistory{m},
	}
}

// Хелперы наполнения и чтения состояния для тестов.

func (m *memStore) putPackage(p models.CatalogPackage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.packages[p.ID] = p
}

func (m *memStore) putAddon(a models.CatalogAddon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.catalogAddons[a.ID] = a
}

func (m *memStore) putOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.orders[o.ID] = o
}

func (m *memStore) putEscrow(e models.EscrowTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.st.escrows[e.OrderID] = e
}

func (m *memStore) putDispute(d models.Dispute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.disputes[d.ID] = d
}

func (m *memStore) putEarnings(freelancerID uuid.UUID, earned float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.accounts[freelancerID] = models.FreelancerAccount{FreelancerID: freelancerID, TotalEarned: earned}
}

func (m *memStore) putWithdrawal(w models.WithdrawalRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.withdrawals[w.ID] = w
}

func (m *memStore) setRoles(userID uuid.UUID, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.roles[userID] = roles
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

func (m *memStore) order(id uuid.UUID) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.orders[id]
}

func (m *memStore) escrow(orderID uuid.UUID) models.EscrowTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.escrows[orderID]
}

func (m *memStore) earned(freelancerID uuid.UUID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.accounts[freelancerID].TotalEarned
}

type memOrders struct{ m *memStore }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	if err := r.m.lock("orders.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	r.m.st.orders[o.ID] = *o
	return nil
}

func (r memOrders) AddAddons(_ context.Context, orderID uuid.UUID, addons []models.OrderAddon) error {
	if err := r.m.lock("orders.add_addons"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	r.m.st.orderAddons[orderID] = append(r.m.st.orderAddons[orderID], addons...)
	return nil
}

func (r memOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if err := r.m.lock("orders.get"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	o, ok := r.m.st.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.GetByID(ctx, id)
}

func (r memOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to valueobject.OrderStatus) error {
	if err := r.m.lock("orders.update_status"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	o, ok := r.m.st.orders[id]
	if !ok || o.Status != from {
		return repository.ErrOrderStatusChanged
	}
	now := time.Now()
	o.Status = to
	o.UpdatedAt = now
	switch to {
	case valueobject.OrderStatusDelivered:
		o.DeliveredAt = &now
	case valueobject.OrderStatusCompleted:
		o.CompletedAt = &now
	}
	r.m.st.orders[id] = o
	return nil
}

func (r memOrders) IncrementRevisions(_ context.Context, id uuid.UUID) error {
	if err := r.m.lock("orders.increment_revisions"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	o, ok := r.m.st.orders[id]
	if !ok || o.Status != valueobject.OrderStatusDelivered || o.RevisionsUsed >= o.RevisionsAllowed {
		return repository.ErrRevisionLimit
	}
	o.RevisionsUsed++
	o.Status = valueobject.OrderStatusRevisionRequested
	r.m.st.orders[id] = o
	return nil
}

func (r memOrders) ListAddons(_ context.Context, orderID uuid.UUID) ([]models.OrderAddon, error) {
	if err := r.m.lock("orders.list_addons"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	return append([]models.OrderAddon{}, r.m.st.orderAddons[orderID]...), nil
}

func (r memOrders) ListByParticipant(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if err := r.m.lock("orders.list"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.m.st.orders {
		if o.ClientID == userID || o.FreelancerID == userID {
			out = append(out, o)
		}
	}
	return page(out, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memCatalog struct{ m *memStore }

func (r memCatalog) GetPackage(_ context.Context, id uuid.UUID) (*models.CatalogPackage, error) {
	if err := r.m.lock("catalog.get_package"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	p, ok := r.m.st.packages[id]
	if !ok {
		return nil, repository.ErrPackageNotFound
	}
	return &p, nil
}

func (r memCatalog) ListAddonsByIDs(_ context.Context, ids []uuid.UUID) ([]models.CatalogAddon, error) {
	if err := r.m.lock("catalog.list_addons"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.CatalogAddon{}
	for _, id := range ids {
		if a, ok := r.m.st.catalogAddons[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type memEscrows struct{ m *memStore }

func (r memEscrows) Create(_ context.Context, e *models.EscrowTransaction) error {
	if err := r.m.lock("escrows.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.m.st.escrows[e.OrderID] = *e
	return nil
}

func (r memEscrows) GetByOrderID(_ context.Context, orderID uuid.UUID) (*models.EscrowTransaction, error) {
	if err := r.m.lock("escrows.get"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	e, ok := r.m.st.escrows[orderID]
	if !ok {
		return nil, repository.ErrEscrowNotFound
	}
	return &e, nil
}

func (r memEscrows) Settle(_ context.Context, orderID uuid.UUID, status string) (*models.EscrowTransaction, error) {
	if err := r.m.lock("escrows.settle"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	e, ok := r.m.st.escrows[orderID]
	if !ok || e.Status != valueobject.EscrowStatusPending {
		return nil, repository.ErrEscrowNotPending
	}
	now := time.Now()
	e.Status = status
	e.SettledAt = &now
	r.m.st.escrows[orderID] = e
	return &e, nil
}

type memAccounts struct{ m *memStore }

func (r memAccounts) CreditEarnings(_ context.Context, freelancerID uuid.UUID, amount float64) error {
	if err := r.m.lock("accounts.credit"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	acc := r.m.st.accounts[freelancerID]
	acc.FreelancerID = freelancerID
	acc.TotalEarned += amount
	acc.UpdatedAt = time.Now()
	r.m.st.accounts[freelancerID] = acc
	return nil
}

func (r memAccounts) LockAccount(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerAccount, error) {
	return r.GetAccount(ctx, freelancerID)
}

func (r memAccounts) GetAccount(_ context.Context, freelancerID uuid.UUID) (*models.FreelancerAccount, error) {
	if err := r.m.lock("accounts.get"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	acc, ok := r.m.st.accounts[freelancerID]
	if !ok {
		acc = models.FreelancerAccount{FreelancerID: freelancerID}
	}
	return &acc, nil
}

type memDisputes struct{ m *memStore }

func (r memDisputes) Create(_ context.Context, d *models.Dispute) error {
	if err := r.m.lock("disputes.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	for _, existing := range r.m.st.disputes {
		if existing.OrderID == d.OrderID {
			return repository.ErrDisputeAlreadyExists
		}
	}
	now := time.Now()
	d.ID = uuid.New()
	d.CreatedAt, d.UpdatedAt = now, now
	r.m.st.disputes[d.ID] = *d
	return nil
}

func (r memDisputes) GetByID(_ context.Context, id uuid.UUID) (*models.Dispute, error) {
	if err := r.m.lock("disputes.get"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	d, ok := r.m.st.disputes[id]
	if !ok {
		return nil, repository.ErrDisputeNotFound
	}
	return &d, nil
}

func (r memDisputes) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return r.GetByID(ctx, id)
}

func (r memDisputes) GetByOrderID(_ context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	if err := r.m.lock("disputes.get_by_order"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	for _, d := range r.m.st.disputes {
		if d.OrderID == orderID {
			return &d, nil
		}
	}
	return nil, repository.ErrDisputeNotFound
}

func (r memDisputes) MarkUnderReview(_ context.Context, id uuid.UUID) error {
	if err := r.m.lock("disputes.mark_under_review"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	d, ok := r.m.st.disputes[id]
	if !ok || d.Status != valueobject.DisputeStatusOpen {
		return repository.ErrDisputeStatusChanged
	}
	d.Status = valueobject.DisputeStatusUnderReview
	r.m.st.disputes[id] = d
	return nil
}

func (r memDisputes) Resolve(_ context.Context, id uuid.UUID, status string, resolution *string, resolvedBy uuid.UUID) error {
	if err := r.m.lock("disputes.resolve"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	d, ok := r.m.st.disputes[id]
	if !ok || !valueobject.DisputeIsActive(d.Status) {
		return repository.ErrDisputeStatusChanged
	}
	now := time.Now()
	d.Status = status
	d.Resolution = resolution
	d.ResolvedBy = &resolvedBy
	d.ResolvedAt = &now
	r.m.st.disputes[id] = d
	return nil
}

func (r memDisputes) ListByParticipant(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if err := r.m.lock("disputes.list_my"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.Dispute{}
	for _, d := range r.m.st.disputes {
		if o, ok := r.m.st.orders[d.OrderID]; ok && (o.ClientID == userID || o.FreelancerID == userID) {
			out = append(out, d)
		}
	}
	return page(out, limit, offset), nil
}

func (r memDisputes) ListByStatus(_ context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	if err := r.m.lock("disputes.list"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.Dispute{}
	for _, d := range r.m.st.disputes {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return page(out, limit, offset), nil
}

type memRevisions struct{ m *memStore }

func (r memRevisions) Create(_ context.Context, rev *models.RevisionRequest) error {
	if err := r.m.lock("revisions.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	rev.ID = uuid.New()
	rev.CreatedAt = time.Now()
	r.m.st.revisions = append(r.m.st.revisions, *rev)
	return nil
}

func (r memRevisions) CompletePending(_ context.Context, orderID uuid.UUID) (int64, error) {
	if err := r.m.lock("revisions.complete_pending"); err != nil {
		return 0, err
	}
	defer r.m.mu.Unlock()
	var n int64
	now := time.Now()
	for i, rev := range r.m.st.revisions {
		if rev.OrderID == orderID && rev.Status == valueobject.RevisionStatusPending {
			r.m.st.revisions[i].Status = valueobject.RevisionStatusCompleted
			r.m.st.revisions[i].ResolvedAt = &now
			n++
		}
	}
	return n, nil
}

func (r memRevisions) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.RevisionRequest, error) {
	if err := r.m.lock("revisions.list"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.RevisionRequest{}
	for _, rev := range r.m.st.revisions {
		if rev.OrderID == orderID {
			out = append(out, rev)
		}
	}
	return out, nil
}

type memReviews struct{ m *memStore }

func (r memReviews) Create(_ context.Context, rev *models.Review) error {
	if err := r.m.lock("reviews.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.reviews[rev.OrderID]; ok {
		return repository.ErrReviewAlreadyExists
	}
	rev.ID = uuid.New()
	rev.CreatedAt = time.Now()
	r.m.st.reviews[rev.OrderID] = *rev
	return nil
}

func (r memReviews) GetByOrderID(_ context.Context, orderID uuid.UUID) (*models.Review, error) {
	if err := r.m.lock("reviews.get"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	rev, ok := r.m.st.reviews[orderID]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return &rev, nil
}

type memDeliverables struct{ m *memStore }

func (r memDeliverables) Create(_ context.Context, d *models.Deliverable) error {
	if err := r.m.lock("deliverables.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	r.m.st.deliverables = append(r.m.st.deliverables, *d)
	return nil
}

func (r memDeliverables) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.Deliverable, error) {
	if err := r.m.lock("deliverables.list"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.Deliverable{}
	for _, d := range r.m.st.deliverables {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memConversations struct{ m *memStore }

func (r memConversations) EnsureExists(_ context.Context, clientID, freelancerID, orderID uuid.UUID) error {
	if err := r.m.lock("conversations.ensure"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	key := [2]uuid.UUID{clientID, freelancerID}
	if _, ok := r.m.st.conversations[key]; !ok {
		r.m.st.conversations[key] = orderID
	}
	return nil
}

type memWithdrawals struct{ m *memStore }

func (r memWithdrawals) Create(_ context.Context, w *models.WithdrawalRequest) error {
	if err := r.m.lock("withdrawals.create"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	w.ID = uuid.New()
	w.RequestedAt = time.Now()
	r.m.st.withdrawals[w.ID] = *w
	return nil
}

func (r memWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	if err := r.m.lock("withdrawals.get"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	w, ok := r.m.st.withdrawals[id]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	return &w, nil
}

func (r memWithdrawals) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r memWithdrawals) SumTotals(_ context.Context, freelancerID uuid.UUID) (*models.WithdrawalTotals, error) {
	if err := r.m.lock("withdrawals.sum"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	var totals models.WithdrawalTotals
	for _, w := range r.m.st.withdrawals {
		if w.FreelancerID != freelancerID {
			continue
		}
		switch w.Status {
		case valueobject.WithdrawalStatusApproved, valueobject.WithdrawalStatusCompleted:
			totals.Withdrawn += w.Amount
		case valueobject.WithdrawalStatusPending:
			totals.Pending += w.Amount
		}
	}
	return &totals, nil
}

func (r memWithdrawals) UpdateStatus(_ context.Context, id uuid.UUID, from, to string, processedBy uuid.UUID, note *string) error {
	if err := r.m.lock("withdrawals.update_status"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	w, ok := r.m.st.withdrawals[id]
	if !ok || w.Status != from {
		return repository.ErrWithdrawalStatusChanged
	}
	now := time.Now()
	w.Status = to
	w.ProcessedBy = &processedBy
	w.ProcessedAt = &now
	if note != nil {
		w.Note = note
	}
	r.m.st.withdrawals[id] = w
	return nil
}

func (r memWithdrawals) AddPayoutEntry(_ context.Context, e *models.PayoutLedgerEntry) error {
	if err := r.m.lock("withdrawals.payout"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	if _, ok := r.m.st.payouts[e.WithdrawalID]; ok {
		return repository.ErrPayoutEntryAlreadyExists
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.m.st.payouts[e.WithdrawalID] = *e
	return nil
}

func (r memWithdrawals) ListByFreelancer(_ context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	if err := r.m.lock("withdrawals.list_my"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.WithdrawalRequest{}
	for _, w := range r.m.st.withdrawals {
		if w.FreelancerID == freelancerID {
			out = append(out, w)
		}
	}
	return page(out, limit, offset), nil
}

func (r memWithdrawals) ListByStatus(_ context.Context, status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	if err := r.m.lock("withdrawals.list"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.WithdrawalRequest{}
	for _, w := range r.m.st.withdrawals {
		if w.Status == status {
			out = append(out, w)
		}
	}
	return page(out, limit, offset), nil
}

type memHistory struct{ m *memStore }

func (r memHistory) Add(_ context.Context, orderID uuid.UUID, userID *uuid.UUID, action string, oldValue, newValue interface{}) error {
	if err := r.m.lock("history.add"); err != nil {
		return err
	}
	defer r.m.mu.Unlock()
	oldJSON, err := json.Marshal(oldValue)
	if err != nil {
		return err
	}
	newJSON, err := json.Marshal(newValue)
	if err != nil {
		return err
	}
	r.m.st.history = append(r.m.st.history, models.OrderHistory{
		ID:        uuid.New(),
		OrderID:   orderID,
		UserID:    userID,
		Action:    action,
		OldValue:  oldJSON,
		NewValue:  newJSON,
		CreatedAt: time.Now(),
	})
	return nil
}

func (r memHistory) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	if err := r.m.lock("history.list"); err != nil {
		return nil, err
	}
	defer r.m.mu.Unlock()
	out := []models.OrderHistory{}
	for _, h := range r.m.st.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// recordingNotifier запоминает отправленные события.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifiedEvent
}

type notifiedEvent struct {
	userID uuid.UUID
	event  string
}

func (n *recordingNotifier) Notify(userID uuid.UUID, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifiedEvent{userID: userID, event: event})
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.event == event {
			c++
		}
	}
	return c
}
