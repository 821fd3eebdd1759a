package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

func TestEscrowService_Release_CreditsOnce(t *testing.T) {
	h := newHarness(t)
	order := h.seedOrder(valueobject.OrderStatusDelivered)

	escrow, err := h.escrow.Release(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusCompleted, escrow.Status)
	assert.NotNil(t, escrow.SettledAt)
	assert.Equal(t, 120.0, h.store.earned(h.freelancer.ID))

	_, err = h.escrow.Release(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrEscrowAlreadySettled)
	assert.Equal(t, 120.0, h.store.earned(h.freelancer.ID))
}

func TestEscrowService_Refund_DoesNotCredit(t *testing.T) {
	h := newHarness(t)
	order := h.seedOrder(valueobject.OrderStatusDisputed)

	escrow, err := h.escrow.Refund(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusRefunded, escrow.Status)
	assert.Zero(t, h.store.earned(h.freelancer.ID))

	_, err = h.escrow.Release(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrEscrowAlreadySettled)
	assert.Zero(t, h.store.earned(h.freelancer.ID))
}

func TestEscrowService_MissingEscrow(t *testing.T) {
	h := newHarness(t)

	_, err := h.escrow.Release(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEscrowNotFound)

	_, err = h.escrow.GetByOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEscrowNotFound)
}

func TestEscrowService_Hold_RejectsUnknownMethod(t *testing.T) {
	h := newHarness(t)
	order := h.seedOrder(valueobject.OrderStatusPending)

	_, err := h.escrow.Hold(context.Background(), &order, "crypto")
	assert.ErrorIs(t, err, ErrUnsupportedPayment)
}
