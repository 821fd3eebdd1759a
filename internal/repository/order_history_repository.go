package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

type OrderHistoryRepository struct {
	db *sqlx.DB
}

func NewOrderHistoryRepository(db *sqlx.DB) *OrderHistoryRepository {
	return &OrderHistoryRepository{db: db}
}

// Add пишет запись аудита в текущей транзакции, если она открыта.
func (r *OrderHistoryRepository) Add(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, action string, oldValue, newValue interface{}) error {
	oldJSON, err := toJSONB(oldValue)
	if err != nil {
		return fmt.Errorf("order history: marshal old value %w", err)
	}
	newJSON, err := toJSONB(newValue)
	if err != nil {
		return fmt.Errorf("order history: marshal new value %w", err)
	}
	_, err = common.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO order_history (order_id, user_id, action, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, userID, action, oldJSON, newJSON)
	if err != nil {
		return fmt.Errorf("order history: add %w", err)
	}
	return nil
}

func (r *OrderHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	history := []models.OrderHistory{}
	err := common.Executor(ctx, r.db).SelectContext(ctx, &history, `
		SELECT * FROM order_history WHERE order_id = $1 ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order history: list %w", err)
	}
	return history, nil
}

// toJSONB сериализует значение для jsonb колонки; nil превращается в SQL NULL.
func toJSONB(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
