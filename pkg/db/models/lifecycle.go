package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/siamtube/pricing-backend/pkg/enums"
)

// Lifecycle methods for the versioned master-data records. Each record exposes
// its identity, its lifecycle metadata, and the logical key that the
// single-Active invariant is enforced over.

func (p *CommodityPrice) RecordID() uuid.UUID       { return p.ID }
func (p *CommodityPrice) SetRecordID(id uuid.UUID)  { p.ID = id }
func (p *CommodityPrice) Meta() *Versioned          { return &p.Versioned }
func (p *CommodityPrice) Kind() enums.RecordKind    { return enums.RecordKindCommodityPrice }
func (p *CommodityPrice) CreatedAtValue() time.Time { return p.CreatedAt }
func (p *CommodityPrice) ClearTimestamps()          { p.CreatedAt, p.UpdatedAt = time.Time{}, time.Time{} }

// LogicalKey scopes the single-Active invariant to one item-group code within
// one customer-group scope. The global (unscoped) price is its own key.
func (p *CommodityPrice) LogicalKey() (string, []any) {
	if p.CustomerGroupID == nil {
		return "item_group_code = ? AND customer_group_id IS NULL", []any{p.ItemGroupCode}
	}
	return "item_group_code = ? AND customer_group_id = ?", []any{p.ItemGroupCode, *p.CustomerGroupID}
}

func (f *FabricationAdjustment) RecordID() uuid.UUID      { return f.ID }
func (f *FabricationAdjustment) SetRecordID(id uuid.UUID) { f.ID = id }
func (f *FabricationAdjustment) Meta() *Versioned         { return &f.Versioned }
func (f *FabricationAdjustment) Kind() enums.RecordKind {
	return enums.RecordKindFabricationAdjustment
}
func (f *FabricationAdjustment) CreatedAtValue() time.Time { return f.CreatedAt }
func (f *FabricationAdjustment) ClearTimestamps() {
	f.CreatedAt, f.UpdatedAt = time.Time{}, time.Time{}
}

func (f *FabricationAdjustment) LogicalKey() (string, []any) {
	if f.CustomerGroupID == nil {
		return "item_group_code = ? AND customer_group_id IS NULL", []any{f.ItemGroupCode}
	}
	return "item_group_code = ? AND customer_group_id = ?", []any{f.ItemGroupCode, *f.CustomerGroupID}
}

func (m *MarkupFactor) RecordID() uuid.UUID       { return m.ID }
func (m *MarkupFactor) SetRecordID(id uuid.UUID)  { m.ID = id }
func (m *MarkupFactor) Meta() *Versioned          { return &m.Versioned }
func (m *MarkupFactor) Kind() enums.RecordKind    { return enums.RecordKindMarkupFactor }
func (m *MarkupFactor) CreatedAtValue() time.Time { return m.CreatedAt }
func (m *MarkupFactor) ClearTimestamps()          { m.CreatedAt, m.UpdatedAt = time.Time{}, time.Time{} }

func (m *MarkupFactor) LogicalKey() (string, []any) {
	return "tube_size = ?", []any{m.TubeSize}
}

func (e *ExchangeRate) RecordID() uuid.UUID       { return e.ID }
func (e *ExchangeRate) SetRecordID(id uuid.UUID)  { e.ID = id }
func (e *ExchangeRate) Meta() *Versioned          { return &e.Versioned }
func (e *ExchangeRate) Kind() enums.RecordKind    { return enums.RecordKindExchangeRate }
func (e *ExchangeRate) CreatedAtValue() time.Time { return e.CreatedAt }
func (e *ExchangeRate) ClearTimestamps()          { e.CreatedAt, e.UpdatedAt = time.Time{}, time.Time{} }

func (e *ExchangeRate) LogicalKey() (string, []any) {
	return "from_currency = ? AND to_currency = ?", []any{e.FromCurrency, e.ToCurrency}
}

func (b *BaseFormula) RecordID() uuid.UUID       { return b.ID }
func (b *BaseFormula) SetRecordID(id uuid.UUID)  { b.ID = id }
func (b *BaseFormula) Meta() *Versioned          { return &b.Versioned }
func (b *BaseFormula) Kind() enums.RecordKind    { return enums.RecordKindBaseFormula }
func (b *BaseFormula) CreatedAtValue() time.Time { return b.CreatedAt }
func (b *BaseFormula) ClearTimestamps()          { b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{} }

func (b *BaseFormula) LogicalKey() (string, []any) {
	return "name = ?", []any{b.Name}
}

func (r *OverrideRule) RecordID() uuid.UUID       { return r.ID }
func (r *OverrideRule) SetRecordID(id uuid.UUID)  { r.ID = id }
func (r *OverrideRule) Meta() *Versioned          { return &r.Versioned }
func (r *OverrideRule) Kind() enums.RecordKind    { return enums.RecordKindOverrideRule }
func (r *OverrideRule) CreatedAtValue() time.Time { return r.CreatedAt }
func (r *OverrideRule) ClearTimestamps()          { r.CreatedAt, r.UpdatedAt = time.Time{}, time.Time{} }

// LogicalKey keys each rule by name, so many distinct rules can be active at
// once while versions of the same rule still swap atomically.
func (r *OverrideRule) LogicalKey() (string, []any) {
	return "name = ?", []any{r.Name}
}
