package versioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siamtube/pricing-backend/pkg/db"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/pagination"
)

// Record is the surface every versioned master-data model exposes to the
// lifecycle manager. PT is the pointer type carrying the methods.
type Record[T any] interface {
	*T
	RecordID() uuid.UUID
	SetRecordID(id uuid.UUID)
	Meta() *models.Versioned
	Kind() enums.RecordKind
	LogicalKey() (string, []any)
	CreatedAtValue() time.Time
	ClearTimestamps()
}

// Database is the subset of the db client the manager depends on.
type Database interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Manager drives the Draft/Active/Archived lifecycle for one record kind.
// At most one record per logical key is Active at any time; Approve swaps the
// active record atomically.
type Manager[T any, PT Record[T]] struct {
	db   Database
	logg *logger.Logger
}

// NewManager constructs a lifecycle manager for one versioned model.
func NewManager[T any, PT Record[T]](database Database, logg *logger.Logger) (*Manager[T, PT], error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Manager[T, PT]{db: database, logg: logg}, nil
}

// HistoryPage is one page of the version history for a logical key.
type HistoryPage[T any] struct {
	Records    []T
	NextCursor string
}

// CreateDraft inserts rec as a new Draft. The version number continues the
// history of the record's logical key.
func (m *Manager[T, PT]) CreateDraft(ctx context.Context, rec PT) error {
	if rec == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record payload is required")
	}

	return m.db.WithTx(ctx, func(tx *gorm.DB) error {
		next, err := m.nextVersion(tx, rec)
		if err != nil {
			return err
		}

		if rec.RecordID() == uuid.Nil {
			rec.SetRecordID(uuid.New())
		}
		meta := rec.Meta()
		meta.Version = next
		meta.Status = enums.RecordStatusDraft
		meta.IsActive = false
		meta.EffectiveFrom = nil
		meta.EffectiveTo = nil
		meta.ApprovedBy = nil
		meta.ApprovedAt = nil

		if err := tx.Create(rec).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating draft record")
		}

		ctx = m.logg.WithRecordKind(ctx, rec.Kind().String())
		m.logg.Info(ctx, fmt.Sprintf("draft created version=%d", meta.Version))
		return nil
	})
}

// Get loads one record by ID.
func (m *Manager[T, PT]) Get(ctx context.Context, id uuid.UUID) (PT, error) {
	var rec T
	err := m.db.DB().WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading record")
	}
	return PT(&rec), nil
}

// EditDraft loads the record, applies mutate while it is still a Draft, and
// persists the result. Active and Archived records are immutable.
func (m *Manager[T, PT]) EditDraft(ctx context.Context, id uuid.UUID, mutate func(PT) error) (PT, error) {
	if mutate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mutation callback is required")
	}

	var out PT
	err := m.db.WithTx(ctx, func(tx *gorm.DB) error {
		rec, err := m.lockByID(tx, id)
		if err != nil {
			return err
		}
		meta := rec.Meta()
		if meta.Status != enums.RecordStatusDraft {
			return pkgerrors.New(pkgerrors.CodeImmutableStatus,
				fmt.Sprintf("only drafts can be edited, record is %s", meta.Status))
		}

		version, status := meta.Version, meta.Status
		if err := mutate(rec); err != nil {
			return err
		}
		// lifecycle fields are not editable through mutate
		meta = rec.Meta()
		meta.Version = version
		meta.Status = status
		meta.IsActive = false

		if err := tx.Save(rec).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving draft record")
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve promotes a Draft to Active and archives whichever record was Active
// for the same logical key. The swap happens in one transaction so readers
// never observe two active records or none mid-swap.
func (m *Manager[T, PT]) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (PT, error) {
	var out PT
	err := m.db.WithTx(ctx, func(tx *gorm.DB) error {
		rec, err := m.lockByID(tx, id)
		if err != nil {
			return err
		}
		meta := rec.Meta()
		switch meta.Status {
		case enums.RecordStatusDraft:
		case enums.RecordStatusActive:
			return pkgerrors.New(pkgerrors.CodeAlreadyActive, "record is already active")
		default:
			return pkgerrors.New(pkgerrors.CodeNotDraft, "only drafts can be approved")
		}

		now := time.Now().UTC()
		keyQuery, keyArgs := rec.LogicalKey()

		archive := tx.Model(new(T)).
			Where(keyQuery, keyArgs...).
			Where("status = ?", enums.RecordStatusActive).
			Updates(map[string]any{
				"status":       enums.RecordStatusArchived,
				"is_active":    false,
				"effective_to": now,
			})
		if archive.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, archive.Error, "archiving active record")
		}

		meta.Status = enums.RecordStatusActive
		meta.IsActive = true
		meta.EffectiveFrom = &now
		meta.EffectiveTo = nil
		meta.ApprovedBy = &approvedBy
		meta.ApprovedAt = &now

		if err := tx.Save(rec).Error; err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "another record was activated concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activating record")
		}

		ctx = m.logg.WithRecordKind(ctx, rec.Kind().String())
		m.logg.Info(ctx, fmt.Sprintf("record approved version=%d archived_previous=%d", meta.Version, archive.RowsAffected))
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Rollback creates a fresh Draft copied from an Archived record, so the old
// values can be reviewed and re-approved without mutating history. Drafts and
// the current Active record are not rollback sources.
func (m *Manager[T, PT]) Rollback(ctx context.Context, id uuid.UUID, reason string) (PT, error) {
	var out PT
	err := m.db.WithTx(ctx, func(tx *gorm.DB) error {
		var source T
		if err := tx.First(&source, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading rollback source")
		}

		draft := PT(&source)
		if status := draft.Meta().Status; status != enums.RecordStatusArchived {
			return pkgerrors.New(pkgerrors.CodeImmutableStatus,
				fmt.Sprintf("only archived records can be rolled back, record is %s", status))
		}
		next, err := m.nextVersion(tx, draft)
		if err != nil {
			return err
		}

		draft.SetRecordID(uuid.New())
		// zero timestamps so the insert stamps the clone with now
		draft.ClearTimestamps()
		meta := draft.Meta()
		meta.Version = next
		meta.Status = enums.RecordStatusDraft
		meta.IsActive = false
		meta.EffectiveFrom = nil
		meta.EffectiveTo = nil
		meta.ApprovedBy = nil
		meta.ApprovedAt = nil
		meta.ChangeReason = reason

		if err := tx.Create(draft).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating rollback draft")
		}
		out = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a Draft. Active and Archived records are part of the audit
// trail and can never be deleted.
func (m *Manager[T, PT]) Delete(ctx context.Context, id uuid.UUID) error {
	return m.db.WithTx(ctx, func(tx *gorm.DB) error {
		rec, err := m.lockByID(tx, id)
		if err != nil {
			return err
		}
		if rec.Meta().Status != enums.RecordStatusDraft {
			return pkgerrors.New(pkgerrors.CodeImmutableStatus, "only drafts can be deleted")
		}
		if err := tx.Delete(new(T), "id = ?", id).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting draft record")
		}
		return nil
	})
}

// ListHistory returns the full version history sharing the logical key of the
// given record, newest first, with cursor pagination.
func (m *Manager[T, PT]) ListHistory(ctx context.Context, id uuid.UUID, params pagination.Params) (*HistoryPage[T], error) {
	anchor, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	keyQuery, keyArgs := anchor.LogicalKey()
	query := m.db.DB().WithContext(ctx).
		Model(new(T)).
		Where(keyQuery, keyArgs...).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing record history")
	}

	page := &HistoryPage[T]{Records: rows}
	if len(rows) > limit {
		page.Records = rows[:limit]
		last := PT(&page.Records[limit-1])
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAtValue(),
			ID:        last.RecordID(),
		})
	}
	return page, nil
}

// ActiveForKey returns the single Active record for rec's logical key, or nil.
func (m *Manager[T, PT]) ActiveForKey(ctx context.Context, rec PT) (PT, error) {
	keyQuery, keyArgs := rec.LogicalKey()
	var found T
	err := m.db.DB().WithContext(ctx).
		Where(keyQuery, keyArgs...).
		Where("status = ?", enums.RecordStatusActive).
		First(&found).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active record")
	}
	return PT(&found), nil
}

func (m *Manager[T, PT]) lockByID(tx *gorm.DB, id uuid.UUID) (PT, error) {
	var rec T
	query := tx.Model(new(T))
	// sqlite has no FOR UPDATE
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading record")
	}
	return PT(&rec), nil
}

func (m *Manager[T, PT]) nextVersion(tx *gorm.DB, rec PT) (int, error) {
	keyQuery, keyArgs := rec.LogicalKey()
	var current int
	err := tx.Model(new(T)).
		Where(keyQuery, keyArgs...).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving next version")
	}
	return current + 1, nil
}
