/*
handlers.go - HTTP API handlers for the wholesale ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Products:
    GET    /api/products               List active products
    POST   /api/products               Register product
    GET    /api/products/{id}          Get product (retired included)
    POST   /api/products/{id}/stock    Adjust stock by signed delta
    DELETE /api/products/{id}          Retire product

  Sales:
    GET    /api/sales                  List sales (?date=, ?from=&to=)
    POST   /api/sales                  Record sale

  Dashboard:
    GET    /api/dashboard              Today's stats + weekly profit
    GET    /api/dashboard/weekly       Trailing 7-day series

  Reports:
    POST   /api/reports/submit         Close out today (18:00 gate)
    GET    /api/reports/{date}         Get a day's report

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario
    POST   /api/scenarios/reset        Wipe all data

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input shape (decimal parsing, date format)
  3. Call domain logic (ledgers, aggregator)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Domain errors map to HTTP status via the error taxonomy:
  - 400: Malformed input, validation failures
  - 404: Unknown product or missing report
  - 409: Conflict (duplicate identifier)
  - 422: Insufficient stock, invalid adjustment, early submission
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/wholesale-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Products   *ledger.ProductLedger
	Sales      *ledger.SaleLedger
	Reports    *ledger.ReportLedger
	Aggregator *ledger.Aggregator

	store ledger.TxStore
	clock ledger.Clock

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler wires the ledgers around one shared store and clock.
func NewHandler(store ledger.TxStore, clock ledger.Clock) *Handler {
	return &Handler{
		Products:   ledger.NewProductLedger(store, clock),
		Sales:      ledger.NewSaleLedger(store, clock),
		Reports:    ledger.NewReportLedger(store, clock),
		Aggregator: ledger.NewAggregator(store, clock),
		store:      store,
		clock:      clock,
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all active products, newest first.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.List(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// GetProduct returns a single product, retired ones included.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := ledger.ProductID(chi.URLParam(r, "id"))

	p, err := h.Products.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// CreateProduct registers a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	purchase, err := decimal.NewFromString(req.PurchasePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid purchase_price", err)
		return
	}
	selling, err := decimal.NewFromString(req.SellingPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid selling_price", err)
		return
	}
	stock := decimal.Zero
	if req.InitialStock != "" {
		stock, err = decimal.NewFromString(req.InitialStock)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid initial_stock", err)
			return
		}
	}

	p, err := h.Products.Create(r.Context(), req.Name, purchase, selling, stock)
	if err != nil {
		writeDomainError(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// AdjustStock applies a signed correction to a product's stock.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := ledger.ProductID(chi.URLParam(r, "id"))

	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	delta, err := decimal.NewFromString(req.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delta", err)
		return
	}

	stock, err := h.Products.AdjustStock(r.Context(), id, delta, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to adjust stock", err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustStockResponse{
		ProductID: string(id),
		Stock:     stock.String(),
	})
}

// RetireProduct tombstones a product. Its sale history stays readable;
// new sales and adjustments are rejected.
func (h *Handler) RetireProduct(w http.ResponseWriter, r *http.Request) {
	id := ledger.ProductID(chi.URLParam(r, "id"))

	if _, err := h.Products.Retire(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to retire product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns sales, most recent first. Supports ?date=YYYY-MM-DD
// for a single day and ?from=&to= for an inclusive day range.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		sales []ledger.Sale
		err   error
	)
	switch {
	case q.Get("date") != "":
		var date ledger.Date
		date, err = ledger.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		sales, err = h.Sales.ListSalesByDate(r.Context(), date)
	case q.Get("from") != "" || q.Get("to") != "":
		var from, to ledger.Date
		from, err = ledger.ParseDate(q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		to, err = ledger.ParseDate(q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		sales, err = h.Sales.ListSalesByDateRange(r.Context(), from, to)
	default:
		sales, err = h.Sales.ListSales(r.Context())
	}
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTOs(sales))
}

// CreateSale records a sale. Totals and profit are computed server-side;
// any client-supplied figures are ignored.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity", err)
		return
	}
	price, err := decimal.NewFromString(req.PricePerKg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid price_per_kg", err)
		return
	}

	sale, err := h.Sales.RecordSale(r.Context(), ledger.ProductID(req.ProductID), quantity, price)
	if err != nil {
		writeDomainError(w, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetDashboard returns today's totals, margin, trailing-week profit, and
// the active product count. Recomputed on every call.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Aggregator.DashboardStats(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to compute dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		DailySales:   stats.DailySales.StringFixed(2),
		DailyProfit:  stats.DailyProfit.StringFixed(2),
		DailyCost:    stats.DailyCost.StringFixed(2),
		DailyMargin:  stats.DailyMargin.StringFixed(2),
		WeeklyProfit: stats.WeeklyProfit.StringFixed(2),
		ProductCount: stats.ProductCount,
	})
}

// GetWeeklySeries returns the trailing 7-day sales/profit series,
// oldest day first, zero-filled.
func (h *Handler) GetWeeklySeries(w http.ResponseWriter, r *http.Request) {
	points, err := h.Aggregator.WeeklySeries(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to compute weekly series", err)
		return
	}

	dtos := make([]WeeklyPointDTO, len(points))
	for i, p := range points {
		dtos[i] = WeeklyPointDTO{
			Date:   p.Day.String(),
			Label:  p.Day.Weekday().String()[:3],
			Sales:  p.Sales.StringFixed(2),
			Profit: p.Profit.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// SubmitReport closes out today. Rejected before 18:00 local time.
func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Submit(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to submit report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// GetReport returns the daily report for a date.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	date, err := ledger.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	report, err := h.Reports.GetReport(r.Context(), date)
	if err != nil {
		writeDomainError(w, "Failed to get report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	code := ""

	switch {
	case ledger.IsNotFound(err):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, ledger.ErrInsufficientStock):
		status = http.StatusUnprocessableEntity
		code = "insufficient_stock"
	case errors.Is(err, ledger.ErrInvalidAdjustment):
		status = http.StatusUnprocessableEntity
		code = "invalid_adjustment"
	case errors.Is(err, ledger.ErrEarlySubmission):
		status = http.StatusUnprocessableEntity
		code = "early_submission"
	case errors.Is(err, ledger.ErrValidation):
		status = http.StatusBadRequest
		code = "validation"
	case ledger.IsRetryable(err):
		status = http.StatusConflict
		code = "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: err.Error(),
	})
}
