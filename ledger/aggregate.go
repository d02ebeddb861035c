/*
aggregate.go - Stateless dashboard and weekly aggregation

PURPOSE:
  The Aggregator computes dashboard statistics and the weekly series by
  reducing over current product and sale records on demand. Nothing is
  cached or invalidated - every call recomputes from ledger contents, so
  two calls with no intervening mutation return identical values.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Aggregator derives read-only metrics from current ledger contents.
type Aggregator struct {
	store Store
	clock Clock
}

func NewAggregator(store Store, clock Clock) *Aggregator {
	return &Aggregator{store: store, clock: clock}
}

// SummarizeDay totals sales, profit, and cost for one calendar day.
func (a *Aggregator) SummarizeDay(ctx context.Context, date Date) (DaySummary, error) {
	return summarizeDay(ctx, a.store, date)
}

// summarizeDay is shared with ReportLedger, which reduces over a
// transactional store view at submission time.
func summarizeDay(ctx context.Context, s Store, date Date) (DaySummary, error) {
	sales, err := s.ListSalesInRange(ctx, date, date)
	if err != nil {
		return DaySummary{}, err
	}

	totalSales := decimal.Zero
	totalProfit := decimal.Zero
	for _, sale := range sales {
		totalSales = totalSales.Add(sale.TotalAmount)
		totalProfit = totalProfit.Add(sale.Profit)
	}

	return DaySummary{
		Date:        date,
		TotalSales:  totalSales,
		TotalProfit: totalProfit,
		TotalCost:   totalSales.Sub(totalProfit),
	}, nil
}

// DashboardStats computes today's totals, the trailing-week profit, and
// the active product count.
func (a *Aggregator) DashboardStats(ctx context.Context) (DashboardStats, error) {
	today := Today(a.clock)

	day, err := summarizeDay(ctx, a.store, today)
	if err != nil {
		return DashboardStats{}, err
	}

	// Margin is profit as a percentage of sales; zero sales means zero
	// margin, not a division by zero.
	margin := decimal.Zero
	if !day.TotalSales.IsZero() {
		margin = day.TotalProfit.Div(day.TotalSales).Mul(oneHundred).Round(2)
	}

	weekSales, err := a.store.ListSalesInRange(ctx, today.AddDays(-6), today)
	if err != nil {
		return DashboardStats{}, err
	}
	weeklyProfit := decimal.Zero
	for _, s := range weekSales {
		weeklyProfit = weeklyProfit.Add(s.Profit)
	}

	count, err := a.store.CountProducts(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	return DashboardStats{
		DailySales:   day.TotalSales,
		DailyProfit:  day.TotalProfit,
		DailyCost:    day.TotalCost,
		DailyMargin:  margin,
		WeeklyProfit: weeklyProfit,
		ProductCount: count,
	}, nil
}

// WeeklySeries emits one point per calendar day of the trailing 7-day
// window [today-6, today], oldest to newest. Always exactly 7 entries;
// days with no sales report zero, not omitted.
func (a *Aggregator) WeeklySeries(ctx context.Context) ([]WeeklyPoint, error) {
	today := Today(a.clock)
	start := today.AddDays(-6)

	sales, err := a.store.ListSalesInRange(ctx, start, today)
	if err != nil {
		return nil, err
	}

	byDay := make(map[Date]*WeeklyPoint, 7)
	points := make([]WeeklyPoint, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDays(i)
		points[i] = WeeklyPoint{Day: day, Sales: decimal.Zero, Profit: decimal.Zero}
		byDay[day] = &points[i]
	}

	for _, s := range sales {
		p, ok := byDay[DateOf(s.SaleDate)]
		if !ok {
			continue
		}
		p.Sales = p.Sales.Add(s.TotalAmount)
		p.Profit = p.Profit.Add(s.Profit)
	}

	return points, nil
}
