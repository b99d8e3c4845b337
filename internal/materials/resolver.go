// Package materials resolves the unit price of each bill-of-materials line
// from the competing price sources, under a fixed precedence: scoped
// commodity price, global commodity price, standard price, then none.
package materials

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// priceSourceReader is the lookup surface the resolver needs; *Repository
// satisfies it.
type priceSourceReader interface {
	ActiveCommodityPrice(ctx context.Context, itemGroupCode string, groupID *uuid.UUID) (*models.CommodityPrice, error)
	ActiveFabricationAdjustment(ctx context.Context, itemGroupCode string, groupID *uuid.UUID) (*models.FabricationAdjustment, error)
	StandardPrice(ctx context.Context, rawMaterialID uuid.UUID) (*models.StandardPrice, error)
}

// MaterialCostDetail is the priced view of one bill-of-materials line.
// A None source yields zero cost and stays visible in results so an unpriced
// material is noticed, not hidden.
type MaterialCostDetail struct {
	LineID        uuid.UUID
	RawMaterialID uuid.UUID
	MaterialCode  string
	MaterialName  string
	ItemGroupCode string
	Unit          string
	BOMQuantity   decimal.Decimal
	UnitPrice     decimal.Decimal
	CostPerUnit   decimal.Decimal
	TotalCost     decimal.Decimal
	PriceSource   enums.PriceSource
	UsedRecords   types.VersionSnapshot
}

// Resolver prices bill-of-materials lines.
type Resolver struct {
	repo priceSourceReader
}

// NewResolver builds a resolver over the given price-source reader.
func NewResolver(repo priceSourceReader) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("price source reader required")
	}
	return &Resolver{repo: repo}, nil
}

// Resolve prices one line for the given order quantity and customer-group
// scope. Commodity lookups try the scoped price first and fall back to the
// global scope; the fabrication adjustment follows the same two-step lookup
// and defaults to zero when absent.
func (r *Resolver) Resolve(ctx context.Context, line models.BOMLine, orderQuantity decimal.Decimal, customerGroupID *uuid.UUID) (MaterialCostDetail, error) {
	detail := MaterialCostDetail{
		LineID:        line.ID,
		RawMaterialID: line.RawMaterialID,
		Unit:          line.Unit,
		BOMQuantity:   line.Quantity,
		PriceSource:   enums.PriceSourceNone,
	}
	if line.RawMaterial != nil {
		detail.MaterialCode = line.RawMaterial.Code
		detail.MaterialName = line.RawMaterial.Name
		detail.ItemGroupCode = line.RawMaterial.ItemGroupCode
	}

	unitPrice, source, used, err := r.resolveUnitPrice(ctx, detail.ItemGroupCode, line.RawMaterialID, customerGroupID)
	if err != nil {
		return MaterialCostDetail{}, err
	}

	detail.PriceSource = source
	detail.UnitPrice = unitPrice
	detail.UsedRecords = used
	detail.CostPerUnit = line.Quantity.Mul(unitPrice)
	detail.TotalCost = detail.CostPerUnit.Mul(orderQuantity)
	return detail, nil
}

func (r *Resolver) resolveUnitPrice(ctx context.Context, itemGroupCode string, rawMaterialID uuid.UUID, customerGroupID *uuid.UUID) (decimal.Decimal, enums.PriceSource, types.VersionSnapshot, error) {
	var used types.VersionSnapshot

	commodity, err := r.lookupCommodityPrice(ctx, itemGroupCode, customerGroupID)
	if err != nil {
		return decimal.Zero, enums.PriceSourceNone, nil, err
	}
	if commodity != nil {
		used = used.Add(types.RecordRef{
			Kind:    enums.RecordKindCommodityPrice.String(),
			ID:      commodity.ID,
			Version: commodity.Version,
		})

		price := commodity.Price
		adjustment, err := r.lookupFabricationAdjustment(ctx, itemGroupCode, customerGroupID)
		if err != nil {
			return decimal.Zero, enums.PriceSourceNone, nil, err
		}
		if adjustment != nil {
			price = price.Add(adjustment.Amount)
			used = used.Add(types.RecordRef{
				Kind:    enums.RecordKindFabricationAdjustment.String(),
				ID:      adjustment.ID,
				Version: adjustment.Version,
			})
		}
		return price, enums.PriceSourceCommodity, used, nil
	}

	standard, err := r.repo.StandardPrice(ctx, rawMaterialID)
	if err != nil {
		return decimal.Zero, enums.PriceSourceNone, nil, err
	}
	if standard != nil {
		return standard.Price, enums.PriceSourceStandard, used, nil
	}

	return decimal.Zero, enums.PriceSourceNone, used, nil
}

func (r *Resolver) lookupCommodityPrice(ctx context.Context, itemGroupCode string, customerGroupID *uuid.UUID) (*models.CommodityPrice, error) {
	if itemGroupCode == "" {
		return nil, nil
	}
	if customerGroupID != nil {
		scoped, err := r.repo.ActiveCommodityPrice(ctx, itemGroupCode, customerGroupID)
		if err != nil {
			return nil, err
		}
		if scoped != nil {
			return scoped, nil
		}
	}
	return r.repo.ActiveCommodityPrice(ctx, itemGroupCode, nil)
}

func (r *Resolver) lookupFabricationAdjustment(ctx context.Context, itemGroupCode string, customerGroupID *uuid.UUID) (*models.FabricationAdjustment, error) {
	if customerGroupID != nil {
		scoped, err := r.repo.ActiveFabricationAdjustment(ctx, itemGroupCode, customerGroupID)
		if err != nil {
			return nil, err
		}
		if scoped != nil {
			return scoped, nil
		}
	}
	return r.repo.ActiveFabricationAdjustment(ctx, itemGroupCode, nil)
}
