package models

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalRequest struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Amount       float64    `db:"amount" json:"amount"`
	Status       string     `db:"status" json:"status"`
	Note         *string    `db:"note" json:"note,omitempty"`
	RequestedAt  time.Time  `db:"requested_at" json:"requested_at"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy  *uuid.UUID `db:"processed_by" json:"processed_by,omitempty"`
}

const PayoutEntryWithdrawal = "withdrawal_payout"

// PayoutLedgerEntry - аудиторская запись об одобренной выплате.
type PayoutLedgerEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	WithdrawalID uuid.UUID `db:"withdrawal_id" json:"withdrawal_id"`
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Amount       float64   `db:"amount" json:"amount"`
	EntryType    string    `db:"entry_type" json:"entry_type"`
	CreatedBy    uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FreelancerAccount хранит только накопленный заработок.
type FreelancerAccount struct {
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	TotalEarned  float64   `db:"total_earned" json:"total_earned"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WithdrawalTotals - суммы заявок фрилансера по группам статусов.
type WithdrawalTotals struct {
	Withdrawn float64 `db:"withdrawn"`
	Pending   float64 `db:"pending"`
}

// Balance вычисляется на лету и нигде не хранится.
type Balance struct {
	FreelancerID       uuid.UUID `json:"freelancer_id"`
	TotalEarned        float64   `json:"total_earned"`
	TotalWithdrawn     float64   `json:"total_withdrawn"`
	PendingWithdrawals float64   `json:"pending_withdrawals"`
	Available          float64   `json:"available"`
}
