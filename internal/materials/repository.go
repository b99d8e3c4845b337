package materials

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siamtube/pricing-backend/pkg/db/models"
)

// Repository reads the price sources a bill-of-materials line can draw from.
// Absence of a price is a normal outcome, so lookups return (nil, nil) when
// nothing is found.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ActiveCommodityPrice loads the Active commodity price for an item-group
// code in the given customer-group scope. A nil groupID queries the global
// scope.
func (r *Repository) ActiveCommodityPrice(ctx context.Context, itemGroupCode string, groupID *uuid.UUID) (*models.CommodityPrice, error) {
	var record models.CommodityPrice
	query := r.db.WithContext(ctx).
		Where("item_group_code = ? AND status = ?", itemGroupCode, "active")
	if groupID != nil {
		query = query.Where("customer_group_id = ?", *groupID)
	} else {
		query = query.Where("customer_group_id IS NULL")
	}
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading commodity price for %q: %w", itemGroupCode, err)
	}
	return &record, nil
}

// ActiveFabricationAdjustment loads the Active surcharge for an item-group
// code in the given scope, with the same nil-groupID convention.
func (r *Repository) ActiveFabricationAdjustment(ctx context.Context, itemGroupCode string, groupID *uuid.UUID) (*models.FabricationAdjustment, error) {
	var record models.FabricationAdjustment
	query := r.db.WithContext(ctx).
		Where("item_group_code = ? AND status = ?", itemGroupCode, "active")
	if groupID != nil {
		query = query.Where("customer_group_id = ?", *groupID)
	} else {
		query = query.Where("customer_group_id IS NULL")
	}
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading fabrication adjustment for %q: %w", itemGroupCode, err)
	}
	return &record, nil
}

// StandardPrice loads the synced fallback price for a raw material.
func (r *Repository) StandardPrice(ctx context.Context, rawMaterialID uuid.UUID) (*models.StandardPrice, error) {
	var record models.StandardPrice
	err := r.db.WithContext(ctx).
		Where("raw_material_id = ?", rawMaterialID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading standard price for %s: %w", rawMaterialID, err)
	}
	return &record, nil
}
