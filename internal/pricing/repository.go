package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	"github.com/siamtube/pricing-backend/pkg/pagination"
)

// Repository loads everything one calculation reads and persists the audit
// trail afterwards.
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

// Product loads one product by ID. Returns nil when absent.
func (r *Repository) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// BOMLines loads the bill of materials with raw-material data preloaded.
func (r *Repository) BOMLines(ctx context.Context, productID uuid.UUID) ([]models.BOMLine, error) {
	var lines []models.BOMLine
	err := r.db.WithContext(ctx).
		Preload("RawMaterial").
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// ActiveBaseFormula loads the Active default formula set. Returns nil when no
// formula set has been approved yet.
func (r *Repository) ActiveBaseFormula(ctx context.Context) (*models.BaseFormula, error) {
	var base models.BaseFormula
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Where("status = ?", enums.RecordStatusActive).
		First(&base).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &base, nil
}

// ActiveMarkupFactor loads the Active factor for a tube size. Returns nil
// when the size has no approved factor.
func (r *Repository) ActiveMarkupFactor(ctx context.Context, tubeSize string) (*models.MarkupFactor, error) {
	var factor models.MarkupFactor
	err := r.db.WithContext(ctx).
		Where("tube_size = ?", tubeSize).
		Where("status = ?", enums.RecordStatusActive).
		First(&factor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &factor, nil
}

// ActiveRules loads every Active override rule.
func (r *Repository) ActiveRules(ctx context.Context) ([]models.OverrideRule, error) {
	var rules []models.OverrideRule
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.RecordStatusActive).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateAudit persists one calculation audit row.
func (r *Repository) CreateAudit(ctx context.Context, audit *models.CalculationAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

// AuditByID loads one calculation audit row. Returns nil when absent.
func (r *Repository) AuditByID(ctx context.Context, id uuid.UUID) (*models.CalculationAudit, error) {
	var audit models.CalculationAudit
	err := r.db.WithContext(ctx).First(&audit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &audit, nil
}

// ListAudits pages through past calculations, optionally filtered by product.
func (r *Repository) ListAudits(ctx context.Context, productID *uuid.UUID, params pagination.Params) ([]models.CalculationAudit, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.CalculationAudit{}).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var audits []models.CalculationAudit
	if err := query.Find(&audits).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(audits) > limit {
		audits = audits[:limit]
		last := audits[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return audits, next, nil
}
