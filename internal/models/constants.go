package models

// Действия, попадающие в order_history.
const (
	HistoryActionCreated           = "created"
	HistoryActionStatusChanged     = "status_changed"
	HistoryActionDelivered         = "delivered"
	HistoryActionRevisionRequested = "revision_requested"
	HistoryActionReviewed          = "reviewed"
	HistoryActionDisputeOpened     = "dispute_opened"
	HistoryActionDisputeReview     = "dispute_under_review"
	HistoryActionDisputeResolved   = "dispute_resolved"
)
