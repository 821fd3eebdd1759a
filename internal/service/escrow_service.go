package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

// EscrowService удерживает средства клиента и распределяет их по итогам заказа.
// Кредит фрилансеру начисляется только здесь, в Release.
type EscrowService struct {
	tx       TxManager
	escrows  EscrowRepository
	accounts AccountRepository
}

func NewEscrowService(tx TxManager, escrows EscrowRepository, accounts AccountRepository) *EscrowService {
	return &EscrowService{tx: tx, escrows: escrows, accounts: accounts}
}

// Hold создаёт escrow-транзакцию в статусе pending. Реального списания нет.
func (s *EscrowService) Hold(ctx context.Context, order *models.Order, paymentMethod string) (*models.EscrowTransaction, error) {
	if _, ok := models.ValidPaymentMethods[paymentMethod]; !ok {
		return nil, ErrUnsupportedPayment
	}

	escrow := &models.EscrowTransaction{
		OrderID:          order.ID,
		ClientID:         order.ClientID,
		FreelancerID:     order.FreelancerID,
		Amount:           order.TotalPrice,
		PaymentMethod:    paymentMethod,
		PaymentReference: "mock_" + uuid.NewString(),
		Status:           valueobject.EscrowStatusPending,
	}
	if err := s.escrows.Create(ctx, escrow); err != nil {
		return nil, internalError("escrow.hold", err)
	}
	return escrow, nil
}

// Release выплачивает удержанные средства фрилансеру и увеличивает его total_earned.
func (s *EscrowService) Release(ctx context.Context, orderID uuid.UUID) (*models.EscrowTransaction, error) {
	var settled *models.EscrowTransaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		escrow, err := s.settle(ctx, orderID, valueobject.EscrowStatusCompleted)
		if err != nil {
			return err
		}
		if err := s.accounts.CreditEarnings(ctx, escrow.FreelancerID, escrow.Amount); err != nil {
			return internalError("escrow.credit", err)
		}
		settled = escrow
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id":      orderID,
		"freelancer_id": settled.FreelancerID,
		"amount":        settled.Amount,
	}).Info("escrow released")
	return settled, nil
}

// Refund возвращает средства клиенту; заработок фрилансера не меняется.
func (s *EscrowService) Refund(ctx context.Context, orderID uuid.UUID) (*models.EscrowTransaction, error) {
	escrow, err := s.settle(ctx, orderID, valueobject.EscrowStatusRefunded)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id":  orderID,
		"client_id": escrow.ClientID,
		"amount":    escrow.Amount,
	}).Info("escrow refunded")
	return escrow, nil
}

func (s *EscrowService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.EscrowTransaction, error) {
	escrow, err := s.escrows.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowNotFound) {
			return nil, ErrEscrowNotFound
		}
		return nil, internalError("escrow.get", err)
	}
	return escrow, nil
}

func (s *EscrowService) settle(ctx context.Context, orderID uuid.UUID, status string) (*models.EscrowTransaction, error) {
	escrow, err := s.escrows.Settle(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowNotPending) {
			if _, getErr := s.escrows.GetByOrderID(ctx, orderID); errors.Is(getErr, repository.ErrEscrowNotFound) {
				return nil, ErrEscrowNotFound
			}
			return nil, ErrEscrowAlreadySettled
		}
		return nil, internalError("escrow.settle", err)
	}
	return escrow, nil
}
