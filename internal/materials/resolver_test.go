package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
)

type stubPriceReader struct {
	scopedCommodity map[string]*models.CommodityPrice
	globalCommodity map[string]*models.CommodityPrice
	scopedAdjust    map[string]*models.FabricationAdjustment
	globalAdjust    map[string]*models.FabricationAdjustment
	standard        map[uuid.UUID]*models.StandardPrice
}

func (s *stubPriceReader) ActiveCommodityPrice(_ context.Context, code string, groupID *uuid.UUID) (*models.CommodityPrice, error) {
	if groupID != nil {
		return s.scopedCommodity[code], nil
	}
	return s.globalCommodity[code], nil
}

func (s *stubPriceReader) ActiveFabricationAdjustment(_ context.Context, code string, groupID *uuid.UUID) (*models.FabricationAdjustment, error) {
	if groupID != nil {
		return s.scopedAdjust[code], nil
	}
	return s.globalAdjust[code], nil
}

func (s *stubPriceReader) StandardPrice(_ context.Context, id uuid.UUID) (*models.StandardPrice, error) {
	return s.standard[id], nil
}

func testLine(itemGroupCode string, qty string) models.BOMLine {
	materialID := uuid.New()
	return models.BOMLine{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		RawMaterialID: materialID,
		Quantity:      decimal.RequireFromString(qty),
		Unit:          "kg",
		RawMaterial: &models.RawMaterial{
			ID:            materialID,
			Code:          "M1",
			Name:          "Steel strip",
			ItemGroupCode: itemGroupCode,
		},
	}
}

// Scenario: commodity 100 + adjustment 20, bom qty 2.5, order qty 10.
func TestResolveCommodityWithAdjustment(t *testing.T) {
	t.Parallel()

	line := testLine("STEEL-304", "2.5")
	reader := &stubPriceReader{
		globalCommodity: map[string]*models.CommodityPrice{
			"STEEL-304": {ID: uuid.New(), ItemGroupCode: "STEEL-304", Price: decimal.NewFromInt(100), Versioned: models.Versioned{Version: 3}},
		},
		globalAdjust: map[string]*models.FabricationAdjustment{
			"STEEL-304": {ID: uuid.New(), ItemGroupCode: "STEEL-304", Amount: decimal.NewFromInt(20), Versioned: models.Versioned{Version: 1}},
		},
	}
	resolver, err := NewResolver(reader)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	detail, err := resolver.Resolve(context.Background(), line, decimal.NewFromInt(10), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if detail.PriceSource != enums.PriceSourceCommodity {
		t.Fatalf("expected commodity source, got %s", detail.PriceSource)
	}
	if !detail.UnitPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected unit price 120, got %s", detail.UnitPrice)
	}
	if !detail.CostPerUnit.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected cost per unit 300, got %s", detail.CostPerUnit)
	}
	if !detail.TotalCost.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected total cost 3000, got %s", detail.TotalCost)
	}
	if len(detail.UsedRecords) != 2 {
		t.Fatalf("expected commodity and adjustment refs in snapshot, got %d", len(detail.UsedRecords))
	}
}

// Commodity beats standard even when both exist.
func TestResolvePrecedenceCommodityOverStandard(t *testing.T) {
	t.Parallel()

	line := testLine("STEEL-304", "2.5")
	reader := &stubPriceReader{
		globalCommodity: map[string]*models.CommodityPrice{
			"STEEL-304": {ID: uuid.New(), Price: decimal.NewFromInt(100)},
		},
		standard: map[uuid.UUID]*models.StandardPrice{
			line.RawMaterialID: {ID: uuid.New(), Price: decimal.NewFromInt(80)},
		},
	}
	resolver, _ := NewResolver(reader)

	detail, err := resolver.Resolve(context.Background(), line, decimal.NewFromInt(10), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if detail.PriceSource != enums.PriceSourceCommodity {
		t.Fatalf("commodity must win over standard, got %s", detail.PriceSource)
	}
	if !detail.UnitPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected unit price 100 (no adjustment), got %s", detail.UnitPrice)
	}
}

// Scenario: no commodity price, standard 80, bom qty 2.5, order qty 10.
func TestResolveStandardFallback(t *testing.T) {
	t.Parallel()

	line := testLine("STEEL-304", "2.5")
	reader := &stubPriceReader{
		standard: map[uuid.UUID]*models.StandardPrice{
			line.RawMaterialID: {ID: uuid.New(), Price: decimal.NewFromInt(80)},
		},
	}
	resolver, _ := NewResolver(reader)

	detail, err := resolver.Resolve(context.Background(), line, decimal.NewFromInt(10), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if detail.PriceSource != enums.PriceSourceStandard {
		t.Fatalf("expected standard source, got %s", detail.PriceSource)
	}
	if !detail.TotalCost.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected total cost 2000, got %s", detail.TotalCost)
	}
}

func TestResolveUnpricedMaterialIsVisibleNotFatal(t *testing.T) {
	t.Parallel()

	line := testLine("UNPRICED", "2.5")
	resolver, _ := NewResolver(&stubPriceReader{})

	detail, err := resolver.Resolve(context.Background(), line, decimal.NewFromInt(10), nil)
	if err != nil {
		t.Fatalf("an unpriced material must not error: %v", err)
	}
	if detail.PriceSource != enums.PriceSourceNone {
		t.Fatalf("expected none source, got %s", detail.PriceSource)
	}
	if !detail.TotalCost.IsZero() {
		t.Fatalf("expected zero cost, got %s", detail.TotalCost)
	}
}

func TestResolveScopedPriceBeatsGlobal(t *testing.T) {
	t.Parallel()

	groupID := uuid.New()
	line := testLine("STEEL-304", "1")
	reader := &stubPriceReader{
		scopedCommodity: map[string]*models.CommodityPrice{
			"STEEL-304": {ID: uuid.New(), CustomerGroupID: &groupID, Price: decimal.NewFromInt(95)},
		},
		globalCommodity: map[string]*models.CommodityPrice{
			"STEEL-304": {ID: uuid.New(), Price: decimal.NewFromInt(100)},
		},
	}
	resolver, _ := NewResolver(reader)

	detail, err := resolver.Resolve(context.Background(), line, decimal.NewFromInt(1), &groupID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !detail.UnitPrice.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("scoped price must win, got %s", detail.UnitPrice)
	}

	// without a group the global price applies
	detail, err = resolver.Resolve(context.Background(), line, decimal.NewFromInt(1), nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !detail.UnitPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("global price expected without scope, got %s", detail.UnitPrice)
	}
}
