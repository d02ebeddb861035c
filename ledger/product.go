/*
product.go - Product identity, pricing, and stock ownership

PURPOSE:
  ProductLedger owns product records. It validates creation input, serves
  reads, and serializes stock adjustments so the stock >= 0 invariant
  holds under concurrent mutation.

STOCK ADJUSTMENTS:
  AdjustStock applies a signed delta inside a WithTx critical section: the
  current stock is read, the resulting level validated, and the write
  committed as one unit. No history of adjustments is retained here; the
  caller records the reason if it needs an audit trail.

RETIREMENT:
  Products are never hard-deleted. Retire tombstones a product: it drops
  out of List and the dashboard product count, and rejects new sales and
  adjustments, but stays readable by ID so historical sales keep their
  cost basis.
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// idSeq disambiguates IDs minted within the same clock tick.
var idSeq atomic.Int64

func newID(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%d", prefix, at.UnixNano(), idSeq.Add(1))
}

// ProductLedger owns product identity, pricing, and stock level.
type ProductLedger struct {
	store TxStore
	clock Clock
}

func NewProductLedger(store TxStore, clock Clock) *ProductLedger {
	return &ProductLedger{store: store, clock: clock}
}

// Create adds a new product.
// Fails ErrValidation if the name is empty, either price is not positive,
// or the initial stock is negative.
func (l *ProductLedger) Create(ctx context.Context, name string, purchasePrice, sellingPrice, initialStock decimal.Decimal) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if !purchasePrice.IsPositive() {
		return Product{}, &ValidationError{Field: "purchasePrice", Message: "must be positive"}
	}
	if !sellingPrice.IsPositive() {
		return Product{}, &ValidationError{Field: "sellingPrice", Message: "must be positive"}
	}
	if initialStock.IsNegative() {
		return Product{}, &ValidationError{Field: "initialStock", Message: "must not be negative"}
	}

	now := l.clock.Now()
	p := Product{
		ID:            ProductID(newID("prod", now)),
		Name:          name,
		PurchasePrice: RoundMoney(purchasePrice),
		SellingPrice:  RoundMoney(sellingPrice),
		Stock:         initialStock,
		CreatedAt:     now,
	}
	if err := l.store.InsertProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Get returns a product by ID, retired or not. Fails ErrNotFound.
func (l *ProductLedger) Get(ctx context.Context, id ProductID) (Product, error) {
	return l.store.GetProduct(ctx, id)
}

// List returns active products, newest-created first. Recomputed per call.
func (l *ProductLedger) List(ctx context.Context) ([]Product, error) {
	all, err := l.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]Product, 0, len(all))
	for _, p := range all {
		if !p.Retired() {
			active = append(active, p)
		}
	}
	return active, nil
}

// AdjustStock applies a signed delta to a product's stock and returns the
// new level. Fails ErrNotFound for an unknown ID, ErrValidation for a
// retired product, and ErrInvalidAdjustment if the result would be
// negative - in which case stock is left untouched.
//
// The reason is accepted for the caller's bookkeeping; this core keeps no
// adjustment history.
func (l *ProductLedger) AdjustStock(ctx context.Context, id ProductID, delta decimal.Decimal, reason string) (decimal.Decimal, error) {
	_ = reason

	var newStock decimal.Decimal
	err := l.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if p.Retired() {
			return &ValidationError{Field: "productId", Message: "product is retired"}
		}
		next := p.Stock.Add(delta)
		if next.IsNegative() {
			return &AdjustmentError{ProductID: id, Stock: p.Stock, Delta: delta}
		}
		p.Stock = next
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		newStock = next
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return newStock, nil
}

// Retire tombstones a product. Idempotent: retiring an already-retired
// product returns it unchanged. Fails ErrNotFound for an unknown ID.
func (l *ProductLedger) Retire(ctx context.Context, id ProductID) (Product, error) {
	var retired Product
	err := l.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if p.Retired() {
			retired = p
			return nil
		}
		now := l.clock.Now()
		p.RetiredAt = &now
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		retired = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return retired, nil
}
