/*
handlers_test.go - HTTP-level tests for the API layer

Exercises the full stack below the router: JSON decoding, handler
validation, ledger semantics, and error-to-status mapping, against the
in-memory store.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wholesale-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testClock struct {
	at time.Time
}

func (c *testClock) Now() time.Time  { return c.at }
func (c *testClock) Set(t time.Time) { c.at = t }

func newTestServer(t *testing.T) (*chiServer, *testClock) {
	t.Helper()
	clock := &testClock{at: time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)}
	h := NewHandler(store.NewMemory(), clock)
	return &chiServer{router: NewRouter(h)}, clock
}

type chiServer struct {
	router http.Handler
}

func (s *chiServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func (s *chiServer) createProduct(t *testing.T, name, purchase, selling, stock string) ProductDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/products", CreateProductRequest{
		Name:          name,
		PurchasePrice: purchase,
		SellingPrice:  selling,
		InitialStock:  stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeBody[ProductDTO](t, rec)
}

// =============================================================================
// PRODUCTS
// =============================================================================

func TestAPI_CreateAndListProducts(t *testing.T) {
	srv, _ := newTestServer(t)

	created := srv.createProduct(t, "Beras Premium", "12000", "14500", "100")
	assert.Equal(t, "12000.00", created.PurchasePrice)
	assert.Equal(t, "100", created.Stock)

	rec := srv.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]ProductDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestAPI_CreateProduct_BadDecimal(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/products", CreateProductRequest{
		Name:          "Beras",
		PurchasePrice: "twelve",
		SellingPrice:  "14500",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CreateProduct_DomainValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/products", CreateProductRequest{
		Name:          "",
		PurchasePrice: "12000",
		SellingPrice:  "14500",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation", resp.Code)
}

func TestAPI_GetProduct_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/products/prod-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_AdjustStock(t *testing.T) {
	srv, _ := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "90")

	rec := srv.do(t, http.MethodPost, "/api/products/"+p.ID+"/stock",
		AdjustStockRequest{Delta: "5.5", Reason: "recount"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[AdjustStockResponse](t, rec)
	assert.Equal(t, "95.5", resp.Stock)

	// Driving stock negative is unprocessable, not a 500
	rec = srv.do(t, http.MethodPost, "/api/products/"+p.ID+"/stock",
		AdjustStockRequest{Delta: "-200"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errResp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_adjustment", errResp.Code)
}

func TestAPI_RetireProduct(t *testing.T) {
	srv, _ := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "10")

	rec := srv.do(t, http.MethodDelete, "/api/products/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Hidden from the list, still fetchable by ID
	list := decodeBody[[]ProductDTO](t, srv.do(t, http.MethodGet, "/api/products", nil))
	assert.Empty(t, list)

	rec = srv.do(t, http.MethodGet, "/api/products/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[ProductDTO](t, rec)
	assert.True(t, got.Retired)
}

// =============================================================================
// SALES
// =============================================================================

func TestAPI_RecordSale(t *testing.T) {
	srv, _ := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "100")

	rec := srv.do(t, http.MethodPost, "/api/sales", CreateSaleRequest{
		ProductID:  p.ID,
		Quantity:   "10",
		PricePerKg: "3.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	sale := decodeBody[SaleDTO](t, rec)
	assert.Equal(t, "30.00", sale.TotalAmount)
	assert.Equal(t, "10.00", sale.Profit)

	got := decodeBody[ProductDTO](t, srv.do(t, http.MethodGet, "/api/products/"+p.ID, nil))
	assert.Equal(t, "90", got.Stock)
}

func TestAPI_RecordSale_InsufficientStock(t *testing.T) {
	srv, _ := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "90")

	rec := srv.do(t, http.MethodPost, "/api/sales", CreateSaleRequest{
		ProductID:  p.ID,
		Quantity:   "150",
		PricePerKg: "3.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "insufficient_stock", resp.Code)
}

func TestAPI_ListSales_DateFilters(t *testing.T) {
	srv, clock := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "100")

	record := func(quantity string) {
		rec := srv.do(t, http.MethodPost, "/api/sales", CreateSaleRequest{
			ProductID: p.ID, Quantity: quantity, PricePerKg: "3.00",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	record("1")
	clock.Set(time.Date(2025, time.June, 11, 10, 0, 0, 0, time.UTC))
	record("2")

	day1 := decodeBody[[]SaleDTO](t, srv.do(t, http.MethodGet, "/api/sales?date=2025-06-10", nil))
	require.Len(t, day1, 1)
	assert.Equal(t, "1", day1[0].Quantity)

	both := decodeBody[[]SaleDTO](t, srv.do(t, http.MethodGet, "/api/sales?from=2025-06-10&to=2025-06-11", nil))
	assert.Len(t, both, 2)

	rec := srv.do(t, http.MethodGet, "/api/sales?date=junk", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestAPI_Dashboard(t *testing.T) {
	srv, _ := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "100")

	rec := srv.do(t, http.MethodPost, "/api/sales", CreateSaleRequest{
		ProductID: p.ID, Quantity: "10", PricePerKg: "3.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	stats := decodeBody[DashboardDTO](t, srv.do(t, http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, "30.00", stats.DailySales)
	assert.Equal(t, "10.00", stats.DailyProfit)
	assert.Equal(t, "33.33", stats.DailyMargin)
	assert.Equal(t, 1, stats.ProductCount)

	week := decodeBody[[]WeeklyPointDTO](t, srv.do(t, http.MethodGet, "/api/dashboard/weekly", nil))
	require.Len(t, week, 7)
	assert.Equal(t, "2025-06-10", week[6].Date)
	assert.Equal(t, "30.00", week[6].Sales)
	assert.Equal(t, "0.00", week[0].Sales)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestAPI_SubmitReport_GateAndResubmission(t *testing.T) {
	srv, clock := newTestServer(t)
	p := srv.createProduct(t, "Beras", "2.00", "3.00", "100")

	rec := srv.do(t, http.MethodPost, "/api/sales", CreateSaleRequest{
		ProductID: p.ID, Quantity: "10", PricePerKg: "3.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Before the gate
	rec = srv.do(t, http.MethodPost, "/api/reports/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "early_submission", resp.Code)

	// At the gate
	clock.Set(time.Date(2025, time.June, 10, 18, 0, 0, 0, time.UTC))
	rec = srv.do(t, http.MethodPost, "/api/reports/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	report := decodeBody[DailyReportDTO](t, rec)
	assert.Equal(t, "2025-06-10", report.Date)
	assert.Equal(t, "30.00", report.TotalSales)
	assert.True(t, report.IsSubmitted)
	require.NotNil(t, report.SubmittedAt)
	firstClose := *report.SubmittedAt

	// Late sale then resubmit: totals refresh, timestamp stays
	clock.Set(time.Date(2025, time.June, 10, 19, 0, 0, 0, time.UTC))
	rec = srv.do(t, http.MethodPost, "/api/sales", CreateSaleRequest{
		ProductID: p.ID, Quantity: "5", PricePerKg: "3.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/reports/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report = decodeBody[DailyReportDTO](t, rec)
	assert.Equal(t, "45.00", report.TotalSales)
	require.NotNil(t, report.SubmittedAt)
	assert.Equal(t, firstClose, *report.SubmittedAt)

	// Readable by date
	rec = srv.do(t, http.MethodGet, "/api/reports/2025-06-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/reports/2024-01-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestAPI_Scenarios(t *testing.T) {
	srv, _ := newTestServer(t)

	list := decodeBody[[]ScenarioDTO](t, srv.do(t, http.MethodGet, "/api/scenarios", nil))
	require.NotEmpty(t, list)

	for _, s := range list {
		rec := srv.do(t, http.MethodPost, "/api/scenarios/load",
			map[string]string{"scenario_id": s.ID})
		require.Equal(t, http.StatusOK, rec.Code,
			fmt.Sprintf("scenario %s: %s", s.ID, rec.Body.String()))
	}

	// stocked-week leaves a full week of data behind
	week := decodeBody[[]WeeklyPointDTO](t, srv.do(t, http.MethodGet, "/api/dashboard/weekly", nil))
	require.Len(t, week, 7)
	nonZero := 0
	for _, pt := range week {
		if pt.Sales != "0.00" {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 3)

	rec := srv.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decodeBody[[]ProductDTO](t, srv.do(t, http.MethodGet, "/api/products", nil))
	assert.Empty(t, products)

	rec = srv.do(t, http.MethodPost, "/api/scenarios/load",
		map[string]string{"scenario_id": "no-such"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
