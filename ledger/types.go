/*
Package ledger is the core storage/ledger engine for a single-tenant
wholesale operation.

PURPOSE:
  This package owns canonical state for products, sales, and daily reports.
  It enforces the stock-never-negative invariant under concurrent mutation
  and derives dashboard/report aggregates on demand from current state.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product:     Identity, pricing, and stock level
  - Sale:        Immutable transaction record with derived totals
  - DailyReport: Per-calendar-date aggregate with a submission flag
  - DashboardStats / WeeklyPoint: Read-only derived metrics

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal everywhere - no floating-point money
  2. Derived totals: Sale.TotalAmount and Sale.Profit are computed by the
     ledger at sale time, never accepted from callers
  3. Rounding at persistence: monetary values are rounded to 2 decimal
     places (half away from zero) before they are stored, so stored profit
     is always consistent with stored total
  4. Immutability: Sales are never updated or deleted once recorded

SEE ALSO:
  - store.go: Persistence contract the records flow through
  - sale.go:  The atomic stock-decrement + sale-insert critical section
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type SaleID string
type ReportID string

// =============================================================================
// PRODUCT - Identity, pricing, stock
// =============================================================================

// Product is a tracked item with its current stock level.
//
// INVARIANT: Stock >= 0 at every externally observable point.
// Stock is mutated only by explicit adjustments and sale-driven decrements.
type Product struct {
	ID            ProductID
	Name          string
	PurchasePrice decimal.Decimal // cost per kg, > 0
	SellingPrice  decimal.Decimal // list price per kg, > 0
	Stock         decimal.Decimal // kg on hand, >= 0, 1-decimal granularity
	CreatedAt     time.Time
	RetiredAt     *time.Time // tombstone; retired products take no new sales
}

// Retired reports whether the product has been tombstoned.
// Retired products stay readable so historical sales remain resolvable.
func (p Product) Retired() bool { return p.RetiredAt != nil }

// =============================================================================
// SALE - Immutable transaction record
// =============================================================================

// Sale records one transaction. TotalAmount and Profit are derived by the
// ledger from quantity, price and the product's purchase price at sale
// time; caller-supplied totals are never trusted.
type Sale struct {
	ID          SaleID
	ProductID   ProductID
	Quantity    decimal.Decimal // kg, > 0
	PricePerKg  decimal.Decimal // actual transacted price, > 0
	TotalAmount decimal.Decimal // round2(Quantity * PricePerKg)
	Profit      decimal.Decimal // round2(TotalAmount - Quantity * PurchasePrice)
	SaleDate    time.Time
}

// =============================================================================
// DAILY REPORT - Close-of-day aggregate snapshot
// =============================================================================

// DailyReport is the per-calendar-date aggregate record.
//
// INVARIANTS:
//   - Date is unique across reports.
//   - SubmittedAt is set exactly once, at first submission, and is never
//     overwritten by later resubmission (totals may refresh).
type DailyReport struct {
	ID          ReportID
	Date        Date
	TotalSales  decimal.Decimal
	TotalProfit decimal.Decimal
	TotalCost   decimal.Decimal
	IsSubmitted bool
	SubmittedAt *time.Time
}

// =============================================================================
// DERIVED AGGREGATES (never stored, always recomputed)
// =============================================================================

// DaySummary holds the monetary totals for one calendar day.
type DaySummary struct {
	Date        Date
	TotalSales  decimal.Decimal
	TotalProfit decimal.Decimal
	TotalCost   decimal.Decimal
}

// DashboardStats is the on-demand dashboard view over current ledger state.
type DashboardStats struct {
	DailySales   decimal.Decimal
	DailyProfit  decimal.Decimal
	DailyCost    decimal.Decimal
	DailyMargin  decimal.Decimal // percent; 0 when there are no sales today
	WeeklyProfit decimal.Decimal // trailing 7-day window, inclusive
	ProductCount int             // active (non-retired) products
}

// WeeklyPoint is one day of the trailing 7-day series.
type WeeklyPoint struct {
	Day    Date
	Sales  decimal.Decimal
	Profit decimal.Decimal
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// RoundMoney rounds to 2 decimal places, half away from zero. Applied at
// the point of persistence only - stored values are never re-derived.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustDecimal parses a decimal literal, returning zero on malformed input.
// For trusted in-process literals (tests, scenario seeds, DB round-trips).
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
