package versioning

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/pagination"
)

// priceRow is a minimal versioned record for exercising the manager against a
// real database.
type priceRow struct {
	ID      uuid.UUID `gorm:"column:id;primaryKey"`
	KeyCode string    `gorm:"column:key_code;not null"`
	Amount  float64   `gorm:"column:amount;not null"`
	models.Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *priceRow) RecordID() uuid.UUID       { return p.ID }
func (p *priceRow) SetRecordID(id uuid.UUID)  { p.ID = id }
func (p *priceRow) Meta() *models.Versioned   { return &p.Versioned }
func (p *priceRow) Kind() enums.RecordKind    { return enums.RecordKindCommodityPrice }
func (p *priceRow) CreatedAtValue() time.Time { return p.CreatedAt }
func (p *priceRow) ClearTimestamps()          { p.CreatedAt = time.Time{} }

func (p *priceRow) LogicalKey() (string, []any) {
	return "key_code = ?", []any{p.KeyCode}
}

type testDatabase struct {
	conn *gorm.DB
}

func (d *testDatabase) DB() *gorm.DB { return d.conn }

func (d *testDatabase) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.conn.WithContext(ctx).Transaction(fn)
}

func newManager(t *testing.T) (*Manager[priceRow, *priceRow], *gorm.DB) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&priceRow{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	manager, err := NewManager[priceRow, *priceRow](&testDatabase{conn: conn}, logg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager, conn
}

func TestCreateDraftAssignsSequentialVersions(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	first := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, first); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if first.Version != 1 || first.Status != enums.RecordStatusDraft || first.IsActive {
		t.Fatalf("unexpected first draft state: %+v", first.Versioned)
	}

	second := &priceRow{KeyCode: "STEEL-304", Amount: 110}
	if err := manager.CreateDraft(ctx, second); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("expected version 2, got %d", second.Version)
	}

	// a different logical key starts its own history
	other := &priceRow{KeyCode: "COPPER-110", Amount: 50}
	if err := manager.CreateDraft(ctx, other); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if other.Version != 1 {
		t.Fatalf("expected version 1 for new key, got %d", other.Version)
	}
}

func TestApproveSwapsActiveRecordAtomically(t *testing.T) {
	manager, conn := newManager(t)
	ctx := context.Background()

	v1 := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, v1); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := manager.Approve(ctx, v1.ID, "planner"); err != nil {
		t.Fatalf("Approve v1: %v", err)
	}

	v2 := &priceRow{KeyCode: "STEEL-304", Amount: 120}
	if err := manager.CreateDraft(ctx, v2); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	approved, err := manager.Approve(ctx, v2.ID, "planner")
	if err != nil {
		t.Fatalf("Approve v2: %v", err)
	}
	if approved.Status != enums.RecordStatusActive || !approved.IsActive {
		t.Fatalf("expected v2 active, got %+v", approved.Versioned)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != "planner" {
		t.Fatal("expected approver to be recorded")
	}

	var activeCount int64
	if err := conn.Model(&priceRow{}).
		Where("key_code = ? AND status = ?", "STEEL-304", enums.RecordStatusActive).
		Count(&activeCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active record, got %d", activeCount)
	}

	prior, err := manager.Get(ctx, v1.ID)
	if err != nil {
		t.Fatalf("Get v1: %v", err)
	}
	if prior.Status != enums.RecordStatusArchived || prior.IsActive {
		t.Fatalf("expected v1 archived, got %+v", prior.Versioned)
	}
	if prior.EffectiveTo == nil {
		t.Fatal("expected archived record to carry an effective-to timestamp")
	}
}

func TestApproveRejectsNonDrafts(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	rec := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, rec); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := manager.Approve(ctx, rec.ID, "planner"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := manager.Approve(ctx, rec.ID, "planner"); !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyActive) {
		t.Fatalf("expected already-active error, got %v", err)
	}

	next := &priceRow{KeyCode: "STEEL-304", Amount: 110}
	if err := manager.CreateDraft(ctx, next); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := manager.Approve(ctx, next.ID, "planner"); err != nil {
		t.Fatalf("Approve next: %v", err)
	}

	// rec is archived now
	if _, err := manager.Approve(ctx, rec.ID, "planner"); !pkgerrors.HasCode(err, pkgerrors.CodeNotDraft) {
		t.Fatalf("expected not-draft error, got %v", err)
	}
}

func TestEditDraftOnlyTouchesDrafts(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	rec := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, rec); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	edited, err := manager.EditDraft(ctx, rec.ID, func(r *priceRow) error {
		r.Amount = 105
		return nil
	})
	if err != nil {
		t.Fatalf("EditDraft: %v", err)
	}
	if edited.Amount != 105 {
		t.Fatalf("expected amount 105, got %v", edited.Amount)
	}
	if edited.Version != 1 || edited.Status != enums.RecordStatusDraft {
		t.Fatalf("lifecycle fields must not change on edit: %+v", edited.Versioned)
	}

	if _, err := manager.Approve(ctx, rec.ID, "planner"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	_, err = manager.EditDraft(ctx, rec.ID, func(r *priceRow) error {
		r.Amount = 999
		return nil
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeImmutableStatus) {
		t.Fatalf("expected immutable-status error, got %v", err)
	}
}

func TestDeleteOnlyRemovesDrafts(t *testing.T) {
	manager, conn := newManager(t)
	ctx := context.Background()

	draft := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, draft); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if err := manager.Delete(ctx, draft.ID); err != nil {
		t.Fatalf("Delete draft: %v", err)
	}
	var count int64
	if err := conn.Model(&priceRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}

	active := &priceRow{KeyCode: "STEEL-304", Amount: 110}
	if err := manager.CreateDraft(ctx, active); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if _, err := manager.Approve(ctx, active.ID, "planner"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := manager.Delete(ctx, active.ID); !pkgerrors.HasCode(err, pkgerrors.CodeImmutableStatus) {
		t.Fatalf("expected immutable-status error, got %v", err)
	}
}

func TestRollbackCreatesDraftFromHistory(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	v1 := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, v1); err != nil {
		t.Fatalf("CreateDraft v1: %v", err)
	}
	if _, err := manager.Approve(ctx, v1.ID, "planner"); err != nil {
		t.Fatalf("Approve v1: %v", err)
	}

	v2 := &priceRow{KeyCode: "STEEL-304", Amount: 130}
	if err := manager.CreateDraft(ctx, v2); err != nil {
		t.Fatalf("CreateDraft v2: %v", err)
	}
	if _, err := manager.Approve(ctx, v2.ID, "planner"); err != nil {
		t.Fatalf("Approve v2: %v", err)
	}

	draft, err := manager.Rollback(ctx, v1.ID, "restore pre-increase price")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if draft.ID == v1.ID {
		t.Fatal("rollback must mint a new record, not mutate history")
	}
	if draft.Amount != 100 {
		t.Fatalf("expected copied amount 100, got %v", draft.Amount)
	}
	if draft.Version != 3 || draft.Status != enums.RecordStatusDraft {
		t.Fatalf("expected draft version 3, got %+v", draft.Versioned)
	}
	if draft.ChangeReason != "restore pre-increase price" {
		t.Fatalf("expected change reason to be recorded, got %q", draft.ChangeReason)
	}

	// re-approving the rollback draft makes the old values active again
	if _, err := manager.Approve(ctx, draft.ID, "planner"); err != nil {
		t.Fatalf("Approve rollback draft: %v", err)
	}
	current, err := manager.ActiveForKey(ctx, &priceRow{KeyCode: "STEEL-304"})
	if err != nil {
		t.Fatalf("ActiveForKey: %v", err)
	}
	if current == nil || current.Amount != 100 {
		t.Fatalf("expected restored amount active, got %+v", current)
	}
}

func TestRollbackRequiresArchivedSource(t *testing.T) {
	manager, conn := newManager(t)
	ctx := context.Background()

	draft := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, draft); err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}

	if _, err := manager.Rollback(ctx, draft.ID, "oops"); !pkgerrors.HasCode(err, pkgerrors.CodeImmutableStatus) {
		t.Fatalf("expected IMMUTABLE_STATUS for draft source, got %v", err)
	}

	if _, err := manager.Approve(ctx, draft.ID, "planner"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := manager.Rollback(ctx, draft.ID, "oops"); !pkgerrors.HasCode(err, pkgerrors.CodeImmutableStatus) {
		t.Fatalf("expected IMMUTABLE_STATUS for active source, got %v", err)
	}

	// a refused rollback must not mint any new version
	var count int64
	if err := conn.Model(&priceRow{}).Where("key_code = ?", "STEEL-304").Count(&count).Error; err != nil {
		t.Fatalf("counting versions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the single original record, got %d", count)
	}
}

func TestRollbackDraftGetsFreshTimestamp(t *testing.T) {
	manager, conn := newManager(t)
	ctx := context.Background()

	v1 := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	if err := manager.CreateDraft(ctx, v1); err != nil {
		t.Fatalf("CreateDraft v1: %v", err)
	}
	if _, err := manager.Approve(ctx, v1.ID, "planner"); err != nil {
		t.Fatalf("Approve v1: %v", err)
	}
	v2 := &priceRow{KeyCode: "STEEL-304", Amount: 120}
	if err := manager.CreateDraft(ctx, v2); err != nil {
		t.Fatalf("CreateDraft v2: %v", err)
	}
	if _, err := manager.Approve(ctx, v2.ID, "planner"); err != nil {
		t.Fatalf("Approve v2: %v", err)
	}

	backdated := time.Now().Add(-time.Hour).UTC()
	if err := conn.Model(&priceRow{}).Where("id = ?", v1.ID).Update("created_at", backdated).Error; err != nil {
		t.Fatalf("backdating v1: %v", err)
	}

	draft, err := manager.Rollback(ctx, v1.ID, "restore pre-increase price")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if !draft.CreatedAt.After(backdated.Add(30 * time.Minute)) {
		t.Fatalf("rollback draft inherited the source timestamp: %v", draft.CreatedAt)
	}

	// the fresh draft must lead the history, not sort into the past
	page, err := manager.ListHistory(ctx, draft.ID, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(page.Records) != 3 || page.Records[0].Version != 3 {
		t.Fatalf("expected the rollback draft first, got %+v", page.Records)
	}
}

func TestApproveConcurrentDraftsLeavesOneActive(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "race.db") + "?_busy_timeout=5000&_txlock=immediate"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&priceRow{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	// same single-Active backstop the real schema carries
	if err := conn.Exec("CREATE UNIQUE INDEX idx_price_rows_single_active ON price_rows(key_code) WHERE is_active").Error; err != nil {
		t.Fatalf("creating partial index: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	manager, err := NewManager[priceRow, *priceRow](&testDatabase{conn: conn}, logg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	ctx := context.Background()

	d1 := &priceRow{KeyCode: "STEEL-304", Amount: 100}
	d2 := &priceRow{KeyCode: "STEEL-304", Amount: 120}
	for _, rec := range []*priceRow{d1, d2} {
		if err := manager.CreateDraft(ctx, rec); err != nil {
			t.Fatalf("CreateDraft: %v", err)
		}
	}

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []uuid.UUID{d1.ID, d2.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = manager.Approve(ctx, id, "planner")
		}(i, id)
	}
	close(start)
	wg.Wait()

	// either both approvals serialize cleanly or the loser reports the conflict
	for _, err := range errs {
		if err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("unexpected approval error: %v", err)
		}
	}

	var active int64
	err = conn.Model(&priceRow{}).
		Where("key_code = ? AND status = ?", "STEEL-304", enums.RecordStatusActive).
		Count(&active).Error
	if err != nil {
		t.Fatalf("counting active records: %v", err)
	}
	if active != 1 {
		t.Fatalf("expected exactly one active record, got %d", active)
	}
}

func TestListHistoryPaginates(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	var lastID uuid.UUID
	for i := 0; i < 5; i++ {
		rec := &priceRow{KeyCode: "STEEL-304", Amount: float64(100 + i)}
		if err := manager.CreateDraft(ctx, rec); err != nil {
			t.Fatalf("CreateDraft %d: %v", i, err)
		}
		lastID = rec.ID
		time.Sleep(2 * time.Millisecond)
	}

	page, err := manager.ListHistory(ctx, lastID, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(page.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(page.Records))
	}
	if page.Records[0].Version != 5 {
		t.Fatalf("expected newest first, got version %d", page.Records[0].Version)
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	rest, err := manager.ListHistory(ctx, lastID, pagination.Params{Limit: 3, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("ListHistory page 2: %v", err)
	}
	if len(rest.Records) != 2 {
		t.Fatalf("expected 2 remaining records, got %d", len(rest.Records))
	}
	if rest.NextCursor != "" {
		t.Fatalf("expected no further pages, got cursor %q", rest.NextCursor)
	}
}
