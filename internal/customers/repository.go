package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siamtube/pricing-backend/pkg/db/models"
)

// Repository reads customer and group master data.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a repository to the shared connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Customer loads one customer by ID. Returns nil when absent.
func (r *Repository) Customer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// Group loads one customer group by ID. Returns nil when absent.
func (r *Repository) Group(ctx context.Context, id uuid.UUID) (*models.CustomerGroup, error) {
	var group models.CustomerGroup
	err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// DefaultGroup loads the group flagged as the system default. Returns nil
// when no group carries the flag.
func (r *Repository) DefaultGroup(ctx context.Context) (*models.CustomerGroup, error) {
	var group models.CustomerGroup
	err := r.db.WithContext(ctx).First(&group, "is_default = ?", true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// ListGroups returns all customer groups ordered by code.
func (r *Repository) ListGroups(ctx context.Context) ([]models.CustomerGroup, error) {
	var groups []models.CustomerGroup
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}
