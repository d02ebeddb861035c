package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wholesale-ledger/ledger"
	"github.com/warp/wholesale-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleProduct(id string, stock string) ledger.Product {
	return ledger.Product{
		ID:            ledger.ProductID(id),
		Name:          "Beras Premium",
		PurchasePrice: dec("12000.00"),
		SellingPrice:  dec("14500.00"),
		Stock:         dec(stock),
		CreatedAt:     time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC),
	}
}

func sampleSale(id, productID string, at time.Time, quantity string) ledger.Sale {
	q := dec(quantity)
	return ledger.Sale{
		ID:          ledger.SaleID(id),
		ProductID:   ledger.ProductID(productID),
		Quantity:    q,
		PricePerKg:  dec("14500.00"),
		TotalAmount: ledger.RoundMoney(q.Mul(dec("14500.00"))),
		Profit:      ledger.RoundMoney(q.Mul(dec("2500.00"))),
		SaleDate:    at,
	}
}

// =============================================================================
// PRODUCT PERSISTENCE
// =============================================================================

func TestSQLite_ProductRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := sampleProduct("prod-1", "100")
	require.NoError(t, store.InsertProduct(ctx, p))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, got.PurchasePrice.Equal(p.PurchasePrice))
	assert.True(t, got.Stock.Equal(p.Stock))
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
	assert.Nil(t, got.RetiredAt)
}

func TestSQLite_GetProduct_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetProduct(context.Background(), "prod-missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSQLite_InsertProduct_DuplicateIsConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := sampleProduct("prod-1", "100")
	require.NoError(t, store.InsertProduct(ctx, p))
	assert.ErrorIs(t, store.InsertProduct(ctx, p), ledger.ErrConflict)
}

func TestSQLite_UpdateProduct_PersistsRetirement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := sampleProduct("prod-1", "100")
	require.NoError(t, store.InsertProduct(ctx, p))

	retiredAt := time.Date(2025, time.June, 11, 10, 0, 0, 0, time.UTC)
	p.Stock = dec("80")
	p.RetiredAt = &retiredAt
	require.NoError(t, store.UpdateProduct(ctx, p))

	got, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(dec("80")))
	require.NotNil(t, got.RetiredAt)
	assert.True(t, got.RetiredAt.Equal(retiredAt))

	count, err := store.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "retired products are excluded from the count")
}

func TestSQLite_UpdateProduct_UnknownIsNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateProduct(context.Background(), sampleProduct("prod-missing", "1"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSQLite_ListProducts_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleProduct("prod-1", "10")
	older.CreatedAt = time.Date(2025, time.June, 9, 9, 0, 0, 0, time.UTC)
	newer := sampleProduct("prod-2", "10")
	newer.CreatedAt = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertProduct(ctx, older))
	require.NoError(t, store.InsertProduct(ctx, newer))

	list, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ledger.ProductID("prod-2"), list[0].ID)
}

// =============================================================================
// SALE PERSISTENCE AND DAY BUCKETING
// =============================================================================

func TestSQLite_SalesRangeQueryBucketsByLocalDay(t *testing.T) {
	// GIVEN: Sales just before and after local midnight
	// WHEN: Querying each calendar day
	// THEN: Each sale lands in the day of its local timestamp
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertProduct(ctx, sampleProduct("prod-1", "100")))

	lateNight := time.Date(2025, time.June, 10, 23, 59, 0, 0, time.UTC)
	earlyMorning := time.Date(2025, time.June, 11, 0, 1, 0, 0, time.UTC)
	require.NoError(t, store.InsertSale(ctx, sampleSale("sale-1", "prod-1", lateNight, "5")))
	require.NoError(t, store.InsertSale(ctx, sampleSale("sale-2", "prod-1", earlyMorning, "3")))

	day1 := ledger.NewDate(2025, time.June, 10)
	day2 := ledger.NewDate(2025, time.June, 11)

	got, err := store.ListSalesInRange(ctx, day1, day1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ledger.SaleID("sale-1"), got[0].ID)

	got, err = store.ListSalesInRange(ctx, day2, day2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ledger.SaleID("sale-2"), got[0].ID)

	both, err := store.ListSalesInRange(ctx, day1, day2)
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, ledger.SaleID("sale-1"), both[0].ID, "range results are oldest first")
}

func TestSQLite_ListSales_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertProduct(ctx, sampleProduct("prod-1", "100")))

	base := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertSale(ctx, sampleSale("sale-1", "prod-1", base, "1")))
	require.NoError(t, store.InsertSale(ctx, sampleSale("sale-2", "prod-1", base.Add(time.Hour), "2")))

	got, err := store.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ledger.SaleID("sale-2"), got[0].ID)
	assert.True(t, got[0].TotalAmount.Equal(dec("29000.00")))
}

// =============================================================================
// REPORT PERSISTENCE
// =============================================================================

func TestSQLite_ReportUpsertRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := ledger.NewDate(2025, time.June, 10)

	_, err := store.GetReport(ctx, date)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	submittedAt := time.Date(2025, time.June, 10, 18, 5, 0, 0, time.UTC)
	report := ledger.DailyReport{
		ID:          "report-2025-06-10",
		Date:        date,
		TotalSales:  dec("45.00"),
		TotalProfit: dec("15.00"),
		TotalCost:   dec("30.00"),
		IsSubmitted: true,
		SubmittedAt: &submittedAt,
	}
	require.NoError(t, store.UpsertReport(ctx, report))

	got, err := store.GetReport(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, date, got.Date)
	assert.True(t, got.TotalSales.Equal(dec("45.00")))
	assert.True(t, got.IsSubmitted)
	require.NotNil(t, got.SubmittedAt)
	assert.True(t, got.SubmittedAt.Equal(submittedAt))

	// Second upsert on the same date updates in place.
	report.TotalSales = dec("60.00")
	require.NoError(t, store.UpsertReport(ctx, report))

	got, err = store.GetReport(ctx, date)
	require.NoError(t, err)
	assert.True(t, got.TotalSales.Equal(dec("60.00")))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_CommitsUnit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertProduct(ctx, sampleProduct("prod-1", "100")))

	at := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	err := store.WithTx(ctx, func(tx ledger.Store) error {
		p, err := tx.GetProduct(ctx, "prod-1")
		if err != nil {
			return err
		}
		p.Stock = p.Stock.Sub(dec("10"))
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		return tx.InsertSale(ctx, sampleSale("sale-1", "prod-1", at, "10"))
	})
	require.NoError(t, err)

	p, err := store.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(dec("90")))

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transactional unit that mutates then fails
	// WHEN: The callback returns an error
	// THEN: Neither the stock write nor the sale insert survives
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertProduct(ctx, sampleProduct("prod-1", "100")))

	boom := errors.New("boom")
	at := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	err := store.WithTx(ctx, func(tx ledger.Store) error {
		p, err := tx.GetProduct(ctx, "prod-1")
		if err != nil {
			return err
		}
		p.Stock = p.Stock.Sub(dec("10"))
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		if err := tx.InsertSale(ctx, sampleSale("sale-1", "prod-1", at, "10")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := store.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, p.Stock.Equal(dec("100")), "stock write rolled back")

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales, "sale insert rolled back")
}

// =============================================================================
// LEDGERS ON SQLITE
// =============================================================================

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func TestSQLite_FullSaleFlowThroughLedgers(t *testing.T) {
	// The same recording path the server runs, against the SQL backend.
	store := newTestStore(t)
	ctx := context.Background()
	clock := fixedClock{at: time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)}

	products := ledger.NewProductLedger(store, clock)
	sales := ledger.NewSaleLedger(store, clock)

	p, err := products.Create(ctx, "Beras", dec("2.00"), dec("3.00"), dec("100"))
	require.NoError(t, err)

	sale, err := sales.RecordSale(ctx, p.ID, dec("10"), dec("3.00"))
	require.NoError(t, err)
	assert.True(t, sale.Profit.Equal(dec("10.00")))

	_, err = sales.RecordSale(ctx, p.ID, dec("500"), dec("3.00"))
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	after, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, after.Stock.Equal(dec("90")), "only the fitting sale decremented stock")
}

// =============================================================================
// RESET
// =============================================================================

func TestSQLite_ResetClearsAllTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertProduct(ctx, sampleProduct("prod-1", "100")))
	at := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertSale(ctx, sampleSale("sale-1", "prod-1", at, "5")))
	require.NoError(t, store.UpsertReport(ctx, ledger.DailyReport{
		ID:   "report-2025-06-10",
		Date: ledger.NewDate(2025, time.June, 10),
	}))

	require.NoError(t, store.Reset(ctx))

	list, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	_, err = store.GetReport(ctx, ledger.NewDate(2025, time.June, 10))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
