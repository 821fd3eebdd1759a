package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var ErrPackageNotFound = errors.New("package not found")

// CatalogRepository читает пакеты и дополнения услуг. Данные берутся один раз при оформлении заказа.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetPackage возвращает пакет вместе с фрилансером, владеющим услугой.
func (r *CatalogRepository) GetPackage(ctx context.Context, id uuid.UUID) (*models.CatalogPackage, error) {
	var pkg models.CatalogPackage
	err := common.Executor(ctx, r.db).GetContext(ctx, &pkg, `
		SELECT p.id, p.service_id, s.freelancer_id, p.name, p.price, p.delivery_days, p.revisions_allowed
		FROM packages p
		JOIN services s ON s.id = p.service_id
		WHERE p.id = $1
	`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("catalog repository: get package %w", err)
	}
	return &pkg, nil
}

// ListAddonsByIDs возвращает найденные дополнения; отсутствующие ID просто не попадают в результат.
func (r *CatalogRepository) ListAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.CatalogAddon, error) {
	addons := []models.CatalogAddon{}
	if len(ids) == 0 {
		return addons, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	err := common.Executor(ctx, r.db).SelectContext(ctx, &addons, `
		SELECT id, service_id, name, price, delivery_days_delta
		FROM addons WHERE id = ANY($1::uuid[])
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list addons %w", err)
	}
	return addons, nil
}
