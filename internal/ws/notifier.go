package ws

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
)

// OrderNotifier доставляет события заказов через хаб. Ошибки доставки только логируются:
// уведомление не должно влиять на уже зафиксированную операцию.
type OrderNotifier struct {
	hub *Hub
}

func NewOrderNotifier(hub *Hub) *OrderNotifier {
	return &OrderNotifier{hub: hub}
}

func (n *OrderNotifier) Notify(userID uuid.UUID, event string, data any) {
	if err := n.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
		}).WithError(err).Warn("ws: событие не доставлено")
	}
}
