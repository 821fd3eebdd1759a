package models

import (
	"time"

	"github.com/google/uuid"
)

// Поддерживаемые способы оплаты. Списание не выполняется, способ только записывается.
const (
	PaymentMethodCard         = "card"
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bank_transfer"
)

var ValidPaymentMethods = map[string]struct{}{
	PaymentMethodCard:         {},
	PaymentMethodWallet:       {},
	PaymentMethodBankTransfer: {},
}

// EscrowTransaction - удержанные по заказу средства.
type EscrowTransaction struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OrderID          uuid.UUID  `db:"order_id" json:"order_id"`
	ClientID         uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID     uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Amount           float64    `db:"amount" json:"amount"`
	PaymentMethod    string     `db:"payment_method" json:"payment_method"`
	PaymentReference string     `db:"payment_reference" json:"payment_reference"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	SettledAt        *time.Time `db:"settled_at" json:"settled_at,omitempty"`
}
