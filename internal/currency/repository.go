package currency

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
)

// Repository reads versioned exchange-rate records.
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

// ActiveRate loads the Active rate record for the pair. Returns nil when no
// approved rate exists.
func (r *Repository) ActiveRate(ctx context.Context, from, to enums.Currency) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ?", from, to).
		Where("status = ?", enums.RecordStatusActive).
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}
