/*
sale.go - Sale recording with the atomic stock decrement

PURPOSE:
  SaleLedger owns sale transactions. Recording a sale validates the
  quantity against the product's CURRENT stock and performs the stock
  decrement and sale insert as one indivisible unit.

CRITICAL SECTION:
  The read-validate-write sequence runs inside Store.WithTx. Two
  concurrent sales against the same product can never both pass the stock
  check against the same stale snapshot: given stock S and concurrent
  sales summing to more than S, exactly the subset that fits within S
  succeeds and the rest fail InsufficientStock.

DERIVED TOTALS:
  TotalAmount = round2(quantity * pricePerKg)
  Profit      = round2(TotalAmount - quantity * purchasePrice at sale time)
  Both are computed here and rounded half-away-from-zero before
  persistence. Client-supplied totals are untrusted input and are never
  accepted.

IMMUTABILITY:
  Sales are never updated or deleted. On any failure partway through, the
  caller observes no change to either stock or sale history.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// SaleLedger owns sale transactions. Depends on the product records in
// the same store for stock validation and cost basis.
type SaleLedger struct {
	store TxStore
	clock Clock
}

func NewSaleLedger(store TxStore, clock Clock) *SaleLedger {
	return &SaleLedger{store: store, clock: clock}
}

// RecordSale validates and records one sale, decrementing the product's
// stock by quantity in the same atomic step.
//
// Fails ErrValidation for a non-positive quantity or price or a retired
// product, ErrNotFound for an unknown product, and InsufficientStock if
// quantity exceeds the product's current stock.
func (l *SaleLedger) RecordSale(ctx context.Context, productID ProductID, quantity, pricePerKg decimal.Decimal) (Sale, error) {
	if !quantity.IsPositive() {
		return Sale{}, &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if !pricePerKg.IsPositive() {
		return Sale{}, &ValidationError{Field: "pricePerKg", Message: "must be positive"}
	}

	var sale Sale
	err := l.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if p.Retired() {
			return &ValidationError{Field: "productId", Message: "product is retired"}
		}
		if quantity.GreaterThan(p.Stock) {
			return &InsufficientStockError{
				ProductID: productID,
				Available: p.Stock,
				Requested: quantity,
			}
		}

		now := l.clock.Now()
		total := RoundMoney(quantity.Mul(pricePerKg))
		profit := RoundMoney(total.Sub(quantity.Mul(p.PurchasePrice)))

		sale = Sale{
			ID:          SaleID(newID("sale", now)),
			ProductID:   productID,
			Quantity:    quantity,
			PricePerKg:  pricePerKg,
			TotalAmount: total,
			Profit:      profit,
			SaleDate:    now,
		}

		p.Stock = p.Stock.Sub(quantity)
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// ListSales returns all sales, most recent first. Recomputed per call.
func (l *SaleLedger) ListSales(ctx context.Context) ([]Sale, error) {
	return l.store.ListSales(ctx)
}

// ListSalesByDate returns sales whose local calendar day equals date.
func (l *SaleLedger) ListSalesByDate(ctx context.Context, date Date) ([]Sale, error) {
	return l.store.ListSalesInRange(ctx, date, date)
}

// ListSalesByDateRange returns sales whose local calendar day falls within
// [start, end] inclusive. Fails ErrValidation if end precedes start.
func (l *SaleLedger) ListSalesByDateRange(ctx context.Context, start, end Date) ([]Sale, error) {
	if end.Before(start) {
		return nil, &ValidationError{Field: "dateRange", Message: "end precedes start"}
	}
	return l.store.ListSalesInRange(ctx, start, end)
}
