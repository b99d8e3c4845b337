package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/types"
)

// RateSource tells where a resolved rate came from.
type RateSource string

const (
	RateSourceIdentity RateSource = "identity"
	RateSourceRecord   RateSource = "record"
	RateSourceCached   RateSource = "cached"
	RateSourceStatic   RateSource = "static"
)

// staticRates are last-resort conversion defaults against the THB base.
// They exist so a calculation can still answer when no approved rate record
// covers the pair; the result carries a warning.
var staticRates = map[string]decimal.Decimal{
	"THB/USD": decimal.RequireFromString("0.0275"),
	"USD/THB": decimal.RequireFromString("36.36"),
	"THB/EUR": decimal.RequireFromString("0.0254"),
	"EUR/THB": decimal.RequireFromString("39.37"),
	"THB/JPY": decimal.RequireFromString("4.12"),
	"JPY/THB": decimal.RequireFromString("0.2427"),
	"THB/CNY": decimal.RequireFromString("0.1988"),
	"CNY/THB": decimal.RequireFromString("5.03"),
}

// RateResult is one resolved conversion rate plus its provenance.
type RateResult struct {
	Rate     decimal.Decimal
	Source   RateSource
	Record   *models.ExchangeRate
	Warnings []string
}

// Service resolves currency conversion rates and converts amounts.
type Service interface {
	Rate(ctx context.Context, from, to enums.Currency) (*RateResult, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to enums.Currency) (decimal.Decimal, *RateResult, error)
}

// rateReader is the repository surface the service needs.
type rateReader interface {
	ActiveRate(ctx context.Context, from, to enums.Currency) (*models.ExchangeRate, error)
}

// rateCache is the optional read-through cache. A nil cache disables caching.
type rateCache interface {
	GetExchangeRate(ctx context.Context, from, to string) (string, error)
	StoreExchangeRate(ctx context.Context, from, to, rate string, ttl time.Duration) error
}

type service struct {
	repo     rateReader
	cache    rateCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the exchange-rate service. cache may be nil.
func NewService(repo rateReader, cache rateCache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

// Rate resolves the conversion rate for a pair: identity, then cache, then the
// Active rate record, then the static default table.
func (s *service) Rate(ctx context.Context, from, to enums.Currency) (*RateResult, error) {
	if !from.IsValid() || !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown currency")
	}
	if from == to {
		return &RateResult{Rate: decimal.NewFromInt(1), Source: RateSourceIdentity}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetExchangeRate(ctx, from.String(), to.String())
		if err == nil && cached != "" {
			rate, parseErr := decimal.NewFromString(cached)
			if parseErr == nil {
				return &RateResult{Rate: rate, Source: RateSourceCached}, nil
			}
		}
	}

	record, err := s.repo.ActiveRate(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading exchange rate")
	}
	if record != nil {
		if s.cache != nil {
			// cache failures never fail the calculation
			if err := s.cache.StoreExchangeRate(ctx, from.String(), to.String(), record.Rate.String(), s.cacheTTL); err != nil {
				s.logg.Warn(ctx, fmt.Sprintf("caching exchange rate failed: %v", err))
			}
		}
		return &RateResult{Rate: record.Rate, Source: RateSourceRecord, Record: record}, nil
	}

	pair := from.String() + "/" + to.String()
	if rate, ok := staticRates[pair]; ok {
		warning := fmt.Sprintf("no approved exchange rate for %s, using static default", pair)
		s.logg.Warn(ctx, warning)
		return &RateResult{Rate: rate, Source: RateSourceStatic, Warnings: []string{warning}}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no exchange rate available for %s", pair))
}

// Convert applies the resolved rate to amount.
func (s *service) Convert(ctx context.Context, amount decimal.Decimal, from, to enums.Currency) (decimal.Decimal, *RateResult, error) {
	result, err := s.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return amount.Mul(result.Rate), result, nil
}

// SnapshotRef returns the version reference for an audited record-based rate.
func (r *RateResult) SnapshotRef() *types.RecordRef {
	if r.Record == nil {
		return nil
	}
	return &types.RecordRef{
		Kind:    enums.RecordKindExchangeRate.String(),
		ID:      r.Record.ID,
		Version: r.Record.Version,
	}
}
