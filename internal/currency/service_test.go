package currency

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/pkg/db/models"
	"github.com/siamtube/pricing-backend/pkg/enums"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
)

type stubRateReader struct {
	rates map[string]*models.ExchangeRate
	calls int
}

func (s *stubRateReader) ActiveRate(_ context.Context, from, to enums.Currency) (*models.ExchangeRate, error) {
	s.calls++
	return s.rates[from.String()+"/"+to.String()], nil
}

type stubRateCache struct {
	entries map[string]string
	stores  int
}

func (s *stubRateCache) GetExchangeRate(_ context.Context, from, to string) (string, error) {
	return s.entries[from+"/"+to], nil
}

func (s *stubRateCache) StoreExchangeRate(_ context.Context, from, to, rate string, _ time.Duration) error {
	if s.entries == nil {
		s.entries = map[string]string{}
	}
	s.entries[from+"/"+to] = rate
	s.stores++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRateIdentity(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubRateReader{}, nil, time.Minute, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.Rate(context.Background(), enums.CurrencyTHB, enums.CurrencyTHB)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if result.Source != RateSourceIdentity || !result.Rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected identity rate, got %+v", result)
	}
}

func TestRatePrefersActiveRecord(t *testing.T) {
	t.Parallel()

	record := &models.ExchangeRate{
		FromCurrency: enums.CurrencyTHB,
		ToCurrency:   enums.CurrencyUSD,
		Rate:         decimal.RequireFromString("0.0280"),
		Versioned:    models.Versioned{Version: 4},
	}
	repo := &stubRateReader{rates: map[string]*models.ExchangeRate{"THB/USD": record}}
	svc, _ := NewService(repo, nil, time.Minute, testLogger())

	result, err := svc.Rate(context.Background(), enums.CurrencyTHB, enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if result.Source != RateSourceRecord {
		t.Fatalf("expected record source, got %s", result.Source)
	}
	if ref := result.SnapshotRef(); ref == nil || ref.Version != 4 {
		t.Fatalf("expected snapshot ref with version 4, got %+v", ref)
	}
}

func TestRateStaticFallbackWarns(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubRateReader{}, nil, time.Minute, testLogger())

	result, err := svc.Rate(context.Background(), enums.CurrencyTHB, enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if result.Source != RateSourceStatic {
		t.Fatalf("expected static source, got %s", result.Source)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected a warning for static fallback, got %v", result.Warnings)
	}
	if result.SnapshotRef() != nil {
		t.Fatal("static rates have no record to snapshot")
	}
}

func TestRateUnknownPairFails(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubRateReader{}, nil, time.Minute, testLogger())

	_, err := svc.Rate(context.Background(), enums.CurrencyUSD, enums.CurrencyJPY)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found for unknown pair, got %v", err)
	}
}

func TestRateReadThroughCache(t *testing.T) {
	t.Parallel()

	record := &models.ExchangeRate{
		FromCurrency: enums.CurrencyTHB,
		ToCurrency:   enums.CurrencyUSD,
		Rate:         decimal.RequireFromString("0.0280"),
	}
	repo := &stubRateReader{rates: map[string]*models.ExchangeRate{"THB/USD": record}}
	cache := &stubRateCache{}
	svc, _ := NewService(repo, cache, time.Minute, testLogger())

	if _, err := svc.Rate(context.Background(), enums.CurrencyTHB, enums.CurrencyUSD); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if cache.stores != 1 {
		t.Fatalf("expected one cache write, got %d", cache.stores)
	}

	result, err := svc.Rate(context.Background(), enums.CurrencyTHB, enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("Rate cached: %v", err)
	}
	if result.Source != RateSourceCached {
		t.Fatalf("expected cached source, got %s", result.Source)
	}
	if repo.calls != 1 {
		t.Fatalf("expected a single repository read, got %d", repo.calls)
	}
}

func TestConvertMultipliesAmount(t *testing.T) {
	t.Parallel()

	record := &models.ExchangeRate{
		FromCurrency: enums.CurrencyTHB,
		ToCurrency:   enums.CurrencyUSD,
		Rate:         decimal.RequireFromString("0.025"),
	}
	repo := &stubRateReader{rates: map[string]*models.ExchangeRate{"THB/USD": record}}
	svc, _ := NewService(repo, nil, time.Minute, testLogger())

	amount, result, err := svc.Convert(context.Background(), decimal.NewFromInt(4000), enums.CurrencyTHB, enums.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100, got %s", amount)
	}
	if result.Source != RateSourceRecord {
		t.Fatalf("unexpected source %s", result.Source)
	}
}
