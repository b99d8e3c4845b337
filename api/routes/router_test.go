package routes_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/siamtube/pricing-backend/api/routes"
	"github.com/siamtube/pricing-backend/internal/customers"
	pricingsvc "github.com/siamtube/pricing-backend/internal/pricing"
	"github.com/siamtube/pricing-backend/pkg/config"
	"github.com/siamtube/pricing-backend/pkg/db/models"
	pkgerrors "github.com/siamtube/pricing-backend/pkg/errors"
	"github.com/siamtube/pricing-backend/pkg/logger"
	"github.com/siamtube/pricing-backend/pkg/metrics"
	"github.com/siamtube/pricing-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubPricingService struct {
	result *pricingsvc.CalculationResult
	list   *pricingsvc.AuditList
	audit  *pricingsvc.AuditSummary
}

func (s stubPricingService) Calculate(_ context.Context, _ pricingsvc.CalculateInput) (*pricingsvc.CalculationResult, error) {
	return s.result, nil
}

func (s stubPricingService) History(_ context.Context, _ *uuid.UUID, _ pagination.Params) (*pricingsvc.AuditList, error) {
	return s.list, nil
}

func (s stubPricingService) Audit(_ context.Context, _ uuid.UUID) (*pricingsvc.AuditSummary, error) {
	if s.audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "calculation not found")
	}
	return s.audit, nil
}

type stubCustomersService struct {
	groups []models.CustomerGroup
}

func (s stubCustomersService) ResolveGroup(_ context.Context, _, _ *uuid.UUID) (*customers.Resolution, error) {
	return &customers.Resolution{}, nil
}

func (s stubCustomersService) ListGroups(_ context.Context) ([]models.CustomerGroup, error) {
	return s.groups, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	registry := prometheus.NewRegistry()
	metrics.NewCalculationMetrics(registry)

	return routes.NewRouter(routes.Deps{
		Config:   testConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DBPinger: stubPinger{},
		Registry: registry,
		Pricing: stubPricingService{
			result: &pricingsvc.CalculationResult{
				CalculationID: uuid.New(),
				SellingPrice:  decimal.NewFromInt(3750),
			},
			list: &pricingsvc.AuditList{},
		},
		Customers: stubCustomersService{
			groups: []models.CustomerGroup{{ID: uuid.New(), Code: "DOMESTIC"}},
		},
	})
}

func TestHealthLiveReportsEnvironment(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Pricing-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestHealthReadySkipsUnwiredRedis(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"redis":"skipped"`) {
		t.Fatalf("expected redis skipped, body: %s", resp.Body.String())
	}
}

func TestCalculateRouteReturnsResult(t *testing.T) {
	router := newTestRouter(t)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			SellingPrice string `json:"selling_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SellingPrice != "3750" {
		t.Fatalf("expected selling price 3750 got %q", envelope.Data.SellingPrice)
	}
}

func TestCalculateRouteRejectsBadPayload(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/calculate", strings.NewReader(`{"quantity":-1}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestFormulaValidateRoute(t *testing.T) {
	router := newTestRouter(t)

	ok := httptest.NewRequest(http.MethodPost, "/api/v1/formulas/validate", strings.NewReader(`{"expression":"materialCost * 1.25"}`))
	ok.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, ok)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid expression got %d", resp.Code)
	}

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/formulas/validate", strings.NewReader(`{"expression":"materialCost *"}`))
	bad.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, bad)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken expression got %d", resp.Code)
	}
}

func TestFormulaEvaluateRoute(t *testing.T) {
	router := newTestRouter(t)

	body := `{"expression":"totalCost * 1.25","variables":{"totalCost":3000}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/formulas/evaluate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "3750") {
		t.Fatalf("expected evaluated value in body: %s", resp.Body.String())
	}
}

func TestCustomerGroupsRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customer-groups", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "DOMESTIC") {
		t.Fatalf("expected group code in body: %s", resp.Body.String())
	}
}

func TestRecordRouteRejectsMalformedID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/commodity-prices/not-a-uuid", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCalculationLookupRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/history/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown calculation got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/pricing/history/not-a-uuid", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed calculation id got %d", resp.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
