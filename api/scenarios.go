/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates products and sales
	that demonstrate specific features.

AVAILABLE SCENARIOS:

	fresh-shop:   Stocked products, no trading yet
	trading-day:  A day of sales against three products
	stocked-week: A full trailing week of trading with a closed-out day

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create products through ProductLedger
 3. Record sales through SaleLedger (backdated via a shifted clock, so
    stock decrements and profit computation run exactly as in production)
 4. Optionally close out a past day through ReportLedger

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "stocked-week"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared response helpers
  - ledger/sale.go: The recording path scenarios exercise
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wholesale-ledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-shop",
		Name:        "Fresh Shop",
		Description: "Stocked products, no sales recorded yet",
	},
	{
		ID:          "trading-day",
		Name:        "Trading Day",
		Description: "Several sales against three products, all today",
	},
	{
		ID:          "stocked-week",
		Name:        "Stocked Week",
		Description: "A trailing week of trading with yesterday closed out",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-shop":
		err = loadFreshShop(ctx, h)
	case "trading-day":
		err = loadTradingDay(ctx, h)
	case "stocked-week":
		err = loadStockedWeek(ctx, h)
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase wipes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// shiftedClock offsets the handler's clock so scenario sales land on
// past calendar days while still flowing through the normal recording
// path (stock checks, profit computation, atomic decrement).
type shiftedClock struct {
	base   ledger.Clock
	offset time.Duration
}

func (c shiftedClock) Now() time.Time { return c.base.Now().Add(c.offset) }

func (h *Handler) salesAt(daysAgo int) *ledger.SaleLedger {
	offset := -time.Duration(daysAgo) * 24 * time.Hour
	return ledger.NewSaleLedger(h.store, shiftedClock{base: h.clock, offset: offset})
}

func seedProducts(ctx context.Context, h *Handler) ([]ledger.Product, error) {
	type seed struct {
		name              string
		purchase, selling string
		stock             string
	}
	seeds := []seed{
		{"Beras Premium", "12000", "14500", "500"},
		{"Gula Pasir", "13500", "16000", "250"},
		{"Minyak Goreng", "15000", "17500", "300"},
	}

	products := make([]ledger.Product, 0, len(seeds))
	for _, s := range seeds {
		p, err := h.Products.Create(ctx, s.name,
			decimal.RequireFromString(s.purchase),
			decimal.RequireFromString(s.selling),
			decimal.RequireFromString(s.stock))
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// loadFreshShop creates products with stock and nothing else.
func loadFreshShop(ctx context.Context, h *Handler) error {
	_, err := seedProducts(ctx, h)
	return err
}

// loadTradingDay creates products and records a handful of today's sales.
func loadTradingDay(ctx context.Context, h *Handler) error {
	products, err := seedProducts(ctx, h)
	if err != nil {
		return err
	}

	sales := []struct {
		product  int
		quantity string
		price    string
	}{
		{0, "25", "14500"},
		{1, "10", "16000"},
		{0, "12.5", "14000"}, // bulk discount below list price
		{2, "8", "17500"},
	}
	for _, s := range sales {
		_, err := h.Sales.RecordSale(ctx, products[s.product].ID,
			decimal.RequireFromString(s.quantity),
			decimal.RequireFromString(s.price))
		if err != nil {
			return err
		}
	}
	return nil
}

// loadStockedWeek records sales across the trailing 7 days so the weekly
// chart has shape, then closes out yesterday's report.
func loadStockedWeek(ctx context.Context, h *Handler) error {
	products, err := seedProducts(ctx, h)
	if err != nil {
		return err
	}

	week := []struct {
		daysAgo  int
		product  int
		quantity string
		price    string
	}{
		{6, 0, "20", "14500"},
		{6, 1, "5", "16000"},
		{5, 0, "15", "14500"},
		{4, 2, "10", "17500"},
		{3, 1, "8", "16000"},
		{3, 0, "30", "14000"},
		{2, 2, "12", "17500"},
		{1, 0, "18", "14500"},
		{1, 1, "6", "16000"},
		{0, 0, "10", "14500"},
		{0, 2, "4", "17500"},
	}
	for _, s := range week {
		_, err := h.salesAt(s.daysAgo).RecordSale(ctx, products[s.product].ID,
			decimal.RequireFromString(s.quantity),
			decimal.RequireFromString(s.price))
		if err != nil {
			return err
		}
	}

	// Close out yesterday: submit with a clock pinned past the gate on
	// yesterday's date.
	now := h.clock.Now()
	yesterdayEvening := time.Date(now.Year(), now.Month(), now.Day()-1,
		ledger.SubmitGateHour+1, 0, 0, 0, now.Location())
	reports := ledger.NewReportLedger(h.store, fixedClock{at: yesterdayEvening})
	_, err = reports.Submit(ctx)
	return err
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }
