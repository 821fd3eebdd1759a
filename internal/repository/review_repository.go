package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists")
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rev *models.Review) error {
	err := common.Executor(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO reviews (order_id, reviewer_id, freelancer_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rev.OrderID, rev.ReviewerID, rev.FreelancerID, rev.Rating, rev.Comment).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrReviewAlreadyExists
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	return common.GetByField[models.Review](ctx, common.Executor(ctx, r.db), "reviews", "order_id", orderID, ErrReviewNotFound)
}
