/*
Package sqlite provides the SQLite-backed implementation of the storage
contract.

PURPOSE:
  Implements ledger.TxStore using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  products:      Current product records (mutable stock, tombstone retire)
  sales:         Append-only sale transactions
  daily_reports: One row per calendar date, upserted

DAY BUCKETING:
  Each sale row stores both its full timestamp and its local calendar day
  (sale_day, YYYY-MM-DD), derived at insert time. Range queries compare
  day keys, so "sales on June 5th" means the local calendar day, not a
  24-hour timestamp window.

CONCURRENCY:
  A sync.Mutex serializes writers; WithTx wraps the whole unit in one SQL
  transaction, so a sale insert and its stock decrement commit together
  or not at all. SQLite is opened in WAL mode.

USAGE:
  store, err := sqlite.New("./data/shop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Contract definition
  - ledger/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/wholesale-ledger/ledger"
)

// timeFormat keeps fixed-width fractional seconds so timestamp columns
// sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A second pooled connection to ":memory:" would see its own empty
	// database, and writers are serialized by the mutex anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		purchase_price TEXT NOT NULL,
		selling_price TEXT NOT NULL,
		stock TEXT NOT NULL,
		created_at TEXT NOT NULL,
		retired_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_products_created
		ON products(created_at DESC);

	-- Sales are append-only: no UPDATE or DELETE is ever issued.
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price_per_kg TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		profit TEXT NOT NULL,
		sale_date TEXT NOT NULL,
		sale_day TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_day ON sales(sale_day);
	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date DESC);
	CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_id);

	CREATE TABLE IF NOT EXISTS daily_reports (
		id TEXT PRIMARY KEY,
		report_date TEXT NOT NULL UNIQUE,
		total_sales TEXT NOT NULL,
		total_profit TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		is_submitted BOOLEAN NOT NULL DEFAULT FALSE,
		submitted_at TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx abstracts *sql.DB and *sql.Tx so every query helper runs both
// standalone and inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) InsertProduct(ctx context.Context, p ledger.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertProduct(ctx, s.db, p)
}

func insertProduct(ctx context.Context, db dbtx, p ledger.Product) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, name, purchase_price, selling_price, stock, created_at, retired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name,
		p.PurchasePrice.String(), p.SellingPrice.String(), p.Stock.String(),
		p.CreatedAt.Format(timeFormat),
		nullTime(p.RetiredAt),
	)
	if isUniqueConstraintError(err) {
		return ledger.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id ledger.ProductID) (ledger.Product, error) {
	return getProduct(ctx, s.db, id)
}

func getProduct(ctx context.Context, db dbtx, id ledger.ProductID) (ledger.Product, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, purchase_price, selling_price, stock, created_at, retired_at
		FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (s *Store) UpdateProduct(ctx context.Context, p ledger.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateProduct(ctx, s.db, p)
}

func updateProduct(ctx context.Context, db dbtx, p ledger.Product) error {
	res, err := db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, purchase_price = ?, selling_price = ?, stock = ?, retired_at = ?
		WHERE id = ?`,
		p.Name, p.PurchasePrice.String(), p.SellingPrice.String(), p.Stock.String(),
		nullTime(p.RetiredAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]ledger.Product, error) {
	return listProducts(ctx, s.db)
}

func listProducts(ctx context.Context, db dbtx) ([]ledger.Product, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, purchase_price, selling_price, stock, created_at, retired_at
		FROM products
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []ledger.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	return countProducts(ctx, s.db)
}

func countProducts(ctx context.Context, db dbtx) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE retired_at IS NULL").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (ledger.Product, error) {
	var (
		p                 ledger.Product
		purchase, selling string
		stock             string
		createdAt         string
		retiredAt         sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &purchase, &selling, &stock, &createdAt, &retiredAt)
	if err == sql.ErrNoRows {
		return ledger.Product{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}

	p.PurchasePrice = ledger.MustDecimal(purchase)
	p.SellingPrice = ledger.MustDecimal(selling)
	p.Stock = ledger.MustDecimal(stock)
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if retiredAt.Valid {
		t, _ := time.Parse(timeFormat, retiredAt.String)
		p.RetiredAt = &t
	}
	return p, nil
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) InsertSale(ctx context.Context, sale ledger.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertSale(ctx, s.db, sale)
}

func insertSale(ctx context.Context, db dbtx, sale ledger.Sale) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sales (id, product_id, quantity, price_per_kg, total_amount, profit, sale_date, sale_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.ProductID,
		sale.Quantity.String(), sale.PricePerKg.String(),
		sale.TotalAmount.String(), sale.Profit.String(),
		sale.SaleDate.Format(timeFormat),
		ledger.DateOf(sale.SaleDate).String(),
	)
	if isUniqueConstraintError(err) {
		return ledger.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context) ([]ledger.Sale, error) {
	return querySales(ctx, s.db, `
		SELECT id, product_id, quantity, price_per_kg, total_amount, profit, sale_date
		FROM sales
		ORDER BY sale_date DESC, rowid DESC`)
}

func (s *Store) ListSalesInRange(ctx context.Context, from, to ledger.Date) ([]ledger.Sale, error) {
	return listSalesInRange(ctx, s.db, from, to)
}

func listSalesInRange(ctx context.Context, db dbtx, from, to ledger.Date) ([]ledger.Sale, error) {
	return querySales(ctx, db, `
		SELECT id, product_id, quantity, price_per_kg, total_amount, profit, sale_date
		FROM sales
		WHERE sale_day >= ? AND sale_day <= ?
		ORDER BY sale_date ASC, rowid ASC`,
		from.String(), to.String())
}

func querySales(ctx context.Context, db dbtx, query string, args ...any) ([]ledger.Sale, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []ledger.Sale
	for rows.Next() {
		var (
			sale                           ledger.Sale
			quantity, price, total, profit string
			saleDate                       string
		)
		if err := rows.Scan(&sale.ID, &sale.ProductID, &quantity, &price, &total, &profit, &saleDate); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sale.Quantity = ledger.MustDecimal(quantity)
		sale.PricePerKg = ledger.MustDecimal(price)
		sale.TotalAmount = ledger.MustDecimal(total)
		sale.Profit = ledger.MustDecimal(profit)
		sale.SaleDate, _ = time.Parse(timeFormat, saleDate)
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// =============================================================================
// DAILY REPORTS
// =============================================================================

func (s *Store) GetReport(ctx context.Context, date ledger.Date) (ledger.DailyReport, error) {
	return getReport(ctx, s.db, date)
}

func getReport(ctx context.Context, db dbtx, date ledger.Date) (ledger.DailyReport, error) {
	var (
		r                        ledger.DailyReport
		day, sales, profit, cost string
		submittedAt              sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, report_date, total_sales, total_profit, total_cost, is_submitted, submitted_at
		FROM daily_reports WHERE report_date = ?`, date.String(),
	).Scan(&r.ID, &day, &sales, &profit, &cost, &r.IsSubmitted, &submittedAt)
	if err == sql.ErrNoRows {
		return ledger.DailyReport{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.DailyReport{}, fmt.Errorf("failed to scan report: %w", err)
	}

	r.Date, _ = ledger.ParseDate(day)
	r.TotalSales = ledger.MustDecimal(sales)
	r.TotalProfit = ledger.MustDecimal(profit)
	r.TotalCost = ledger.MustDecimal(cost)
	if submittedAt.Valid {
		t, _ := time.Parse(timeFormat, submittedAt.String)
		r.SubmittedAt = &t
	}
	return r, nil
}

func (s *Store) UpsertReport(ctx context.Context, r ledger.DailyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertReport(ctx, s.db, r)
}

func upsertReport(ctx context.Context, db dbtx, r ledger.DailyReport) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO daily_reports (id, report_date, total_sales, total_profit, total_cost, is_submitted, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_date) DO UPDATE SET
			total_sales = excluded.total_sales,
			total_profit = excluded.total_profit,
			total_cost = excluded.total_cost,
			is_submitted = excluded.is_submitted,
			submitted_at = excluded.submitted_at`,
		r.ID, r.Date.String(),
		r.TotalSales.String(), r.TotalProfit.String(), r.TotalCost.String(),
		r.IsSubmitted, nullTime(r.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert report: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within one SQL transaction. The mutex serializes
// units of work so a read-validate-write sequence never races another
// writer between its read and its commit.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) InsertProduct(ctx context.Context, p ledger.Product) error {
	return insertProduct(ctx, ts.tx, p)
}

func (ts *txStore) GetProduct(ctx context.Context, id ledger.ProductID) (ledger.Product, error) {
	return getProduct(ctx, ts.tx, id)
}

func (ts *txStore) UpdateProduct(ctx context.Context, p ledger.Product) error {
	return updateProduct(ctx, ts.tx, p)
}

func (ts *txStore) ListProducts(ctx context.Context) ([]ledger.Product, error) {
	return listProducts(ctx, ts.tx)
}

func (ts *txStore) CountProducts(ctx context.Context) (int, error) {
	return countProducts(ctx, ts.tx)
}

func (ts *txStore) InsertSale(ctx context.Context, sale ledger.Sale) error {
	return insertSale(ctx, ts.tx, sale)
}

func (ts *txStore) ListSales(ctx context.Context) ([]ledger.Sale, error) {
	return querySales(ctx, ts.tx, `
		SELECT id, product_id, quantity, price_per_kg, total_amount, profit, sale_date
		FROM sales
		ORDER BY sale_date DESC, rowid DESC`)
}

func (ts *txStore) ListSalesInRange(ctx context.Context, from, to ledger.Date) ([]ledger.Sale, error) {
	return listSalesInRange(ctx, ts.tx, from, to)
}

func (ts *txStore) GetReport(ctx context.Context, date ledger.Date) (ledger.DailyReport, error) {
	return getReport(ctx, ts.tx, date)
}

func (ts *txStore) UpsertReport(ctx context.Context, r ledger.DailyReport) error {
	return upsertReport(ctx, ts.tx, r)
}

func (ts *txStore) Reset(ctx context.Context) error {
	return reset(ctx, ts.tx)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (demo/scenario support).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reset(ctx, s.db)
}

func reset(ctx context.Context, db dbtx) error {
	for _, table := range []string{"sales", "daily_reports", "products"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeFormat), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
