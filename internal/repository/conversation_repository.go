package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

// ConversationRepository заводит канал переписки пары клиент-фрилансер. Сами сообщения живут вне ядра.
type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// EnsureExists создаёт беседу для пары, если её ещё нет.
func (r *ConversationRepository) EnsureExists(ctx context.Context, clientID, freelancerID, orderID uuid.UUID) error {
	_, err := common.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO conversations (client_id, freelancer_id, order_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id, freelancer_id) DO NOTHING
	`, clientID, freelancerID, orderID)
	if err != nil {
		return fmt.Errorf("conversation repository: ensure exists %w", err)
	}
	return nil
}
