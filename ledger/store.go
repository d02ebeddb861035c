/*
store.go - Persistence contract between the ledgers and the database

PURPOSE:
  Defines the interface the ledgers talk to. The contract is deliberately
  backend-neutral: an in-memory map, an embedded database, or a relational
  server can all satisfy it identically.

KEY INTERFACES:
  Store:   Record-level reads and writes
  TxStore: Store plus WithTx for all-or-nothing units of work

ATOMIC UNITS:
  WithTx() gives the caller a Store view whose writes commit together or
  not at all. RecordSale runs its read-validate-write sequence inside
  WithTx so a sale insert and its paired stock decrement are one
  indivisible step - no torn state is ever externally visible.

ORDERING CONTRACT:
  ListProducts:     newest-created first
  ListSales:        most recent first
  ListSalesInRange: oldest first (aggregation order)

IMPLEMENTATIONS:
  - ledger/store/memory.go: Mutex-guarded in-memory store (tests/dev/demo)
  - store/sqlite/sqlite.go: SQLite with one SQL transaction per WithTx
*/
package ledger

import "context"

// Store handles persistence of products, sales, and daily reports.
//
// Sales are append-only: no update or delete methods exist for them.
// Products carry mutable stock; reports are upserted, never deleted.
type Store interface {
	// InsertProduct persists a new product. Fails Conflict on duplicate ID.
	InsertProduct(ctx context.Context, p Product) error

	// GetProduct returns a product by ID, or ErrNotFound.
	// Retired products are still returned.
	GetProduct(ctx context.Context, id ProductID) (Product, error)

	// UpdateProduct overwrites an existing product record (stock mutation,
	// retirement). Fails ErrNotFound if the ID is unknown.
	UpdateProduct(ctx context.Context, p Product) error

	// ListProducts returns every product, retired included,
	// newest-created first.
	ListProducts(ctx context.Context) ([]Product, error)

	// CountProducts returns the number of active (non-retired) products.
	CountProducts(ctx context.Context) (int, error)

	// InsertSale appends a sale record. Fails Conflict on duplicate ID.
	InsertSale(ctx context.Context, s Sale) error

	// ListSales returns all sales, most recent first.
	ListSales(ctx context.Context) ([]Sale, error)

	// ListSalesInRange returns sales whose local calendar day falls within
	// [from, to] inclusive, oldest first.
	ListSalesInRange(ctx context.Context, from, to Date) ([]Sale, error)

	// GetReport returns the daily report for a date, or ErrNotFound.
	GetReport(ctx context.Context, date Date) (DailyReport, error)

	// UpsertReport creates or replaces the report keyed by its date.
	UpsertReport(ctx context.Context, r DailyReport) error

	// Reset clears all records (demo/scenario support).
	Reset(ctx context.Context) error
}

// TxStore wraps Store with transaction support.
//
// WithTx executes fn against a transactional Store view. If fn returns an
// error the unit is rolled back and the caller observes no change; if fn
// returns nil every write in the unit commits together. Mutations that
// touch a product's stock are serialized with respect to each other.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
