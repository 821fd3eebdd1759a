package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

// transition - совершённый переход, метрики по нему пишутся после фиксации транзакции.
type transition struct {
	from valueobject.OrderStatus
	to   valueobject.OrderStatus
}

// orderAccess описывает, как загрузить заказ для операции.
type orderAccess struct {
	lock       bool
	allowAdmin bool
}

// loadOrder загружает заказ и определяет роль вызывающего.
// Посторонний пользователь получает "заказ не найден", чтобы не раскрывать существование заказа.
func loadOrder(ctx context.Context, orders OrderRepository, orderID uuid.UUID, caller Caller, access orderAccess) (*models.Order, valueobject.PartyRole, error) {
	var (
		order *models.Order
		err   error
	)
	if access.lock {
		order, err = orders.GetForUpdate(ctx, orderID)
	} else {
		order, err = orders.GetByID(ctx, orderID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, valueobject.RoleNone, ErrOrderNotFound
		}
		return nil, valueobject.RoleNone, internalError("order.load", err)
	}

	role := order.PartyRole(caller.ID)
	if role == valueobject.RoleNone {
		if access.allowAdmin && caller.IsAdmin() {
			return order, valueobject.RoleArbiter, nil
		}
		return nil, valueobject.RoleNone, ErrOrderNotFound
	}
	return order, role, nil
}

// applyTransition проверяет и выполняет переход статуса в текущей транзакции.
// Обновление условное: если статус успел измениться, операция откатывается с конфликтом.
func applyTransition(ctx context.Context, repos Repositories, order *models.Order, actorID uuid.UUID, role valueobject.PartyRole, to valueobject.OrderStatus) (transition, error) {
	from := order.Status
	if err := valueobject.ValidateTransition(role, from, to); err != nil {
		return transition{}, err
	}

	if err := repos.Orders.UpdateStatus(ctx, order.ID, from, to); err != nil {
		if errors.Is(err, repository.ErrOrderStatusChanged) {
			return transition{}, ErrOrderChanged
		}
		return transition{}, internalError("order.update_status", err)
	}

	if err := repos.History.Add(ctx, order.ID, &actorID, models.HistoryActionStatusChanged,
		map[string]string{"status": string(from)},
		map[string]string{"status": string(to), "role": string(role)},
	); err != nil {
		return transition{}, internalError("order.history", err)
	}

	order.Status = to
	return transition{from: from, to: to}, nil
}

// otherParty возвращает вторую сторону заказа для уведомления.
func otherParty(order *models.Order, userID uuid.UUID) uuid.UUID {
	if userID == order.ClientID {
		return order.FreelancerID
	}
	return order.ClientID
}
