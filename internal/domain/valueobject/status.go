package valueobject

import (
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusInProgress        OrderStatus = "in_progress"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusRevisionRequested OrderStatus = "revision_requested"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusDisputed          OrderStatus = "disputed"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// orderTransitions описывает граф статусов без учёта роли.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:           {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress:        {OrderStatusDelivered, OrderStatusDisputed, OrderStatusCancelled},
	OrderStatusDelivered:         {OrderStatusCompleted, OrderStatusRevisionRequested, OrderStatusDisputed, OrderStatusCancelled},
	OrderStatusRevisionRequested: {OrderStatusDelivered, OrderStatusDisputed, OrderStatusCancelled},
	OrderStatusDisputed:          {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusCompleted:         {},
	OrderStatusCancelled:         {},
}

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsArbitrable сообщает, можно ли открыть спор по заказу в этом статусе.
func (s OrderStatus) IsArbitrable() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusDelivered, OrderStatusRevisionRequested:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	for _, status := range orderTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// PartyRole - роль вызывающего по отношению к конкретному заказу.
type PartyRole string

const (
	RoleNone       PartyRole = ""
	RoleClient     PartyRole = "client"
	RoleFreelancer PartyRole = "freelancer"
	RoleArbiter    PartyRole = "arbiter"
)

var roleTargets = map[PartyRole][]OrderStatus{
	RoleFreelancer: {OrderStatusInProgress, OrderStatusDelivered, OrderStatusCancelled, OrderStatusDisputed},
	RoleClient:     {OrderStatusCompleted, OrderStatusRevisionRequested, OrderStatusCancelled, OrderStatusDisputed},
	RoleArbiter:    {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTarget проверяет, входит ли статус в набор, разрешённый роли.
func (r PartyRole) CanTarget(target OrderStatus) bool {
	for _, status := range roleTargets[r] {
		if status == target {
			return true
		}
	}
	return false
}

// ValidateTransition проверяет переход заказа from -> to для роли.
// Из disputed выводит только арбитр, а арбитр работает только со спорными заказами.
func ValidateTransition(role PartyRole, from, to OrderStatus) error {
	if role == RoleNone {
		return apperror.ErrForbidden
	}
	if !role.CanTarget(to) {
		return apperror.New(apperror.ErrCodeForbidden, "действие недоступно для вашей роли в заказе")
	}
	if from == OrderStatusDisputed && role != RoleArbiter {
		return apperror.New(apperror.ErrCodeConflict, "по заказу открыт спор, действие недоступно до его решения")
	}
	if role == RoleArbiter && from != OrderStatusDisputed {
		return apperror.New(apperror.ErrCodeConflict, "заказ не находится в споре")
	}
	if !from.CanTransitionTo(to) {
		return apperror.Newf(apperror.ErrCodeConflict, "нельзя перевести заказ из статуса %s в %s", from, to)
	}
	return nil
}

const (
	EscrowStatusPending   = "pending"
	EscrowStatusCompleted = "completed"
	EscrowStatusRefunded  = "refunded"
)

const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusRejected    = "rejected"
)

// DisputeIsActive сообщает, блокирует ли спор обычное движение заказа.
func DisputeIsActive(status string) bool {
	return status == DisputeStatusOpen || status == DisputeStatusUnderReview
}

const (
	RevisionStatusPending   = "pending"
	RevisionStatusCompleted = "completed"
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
)
