// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/wholesale-ledger/ledger"
)

// =============================================================================
// MEMORY STORE - Mutex-guarded in-memory implementation (tests/dev/demo)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	products     map[ledger.ProductID]ledger.Product
	productOrder []ledger.ProductID // insertion order; newest last
	sales        []ledger.Sale      // insertion order
	saleIDs      map[ledger.SaleID]bool
	reports      map[string]ledger.DailyReport // keyed by Date.String()
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[ledger.ProductID]ledger.Product),
		saleIDs:  make(map[ledger.SaleID]bool),
		reports:  make(map[string]ledger.DailyReport),
	}
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (m *Memory) InsertProduct(_ context.Context, p ledger.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertProductLocked(p)
}

func (m *Memory) insertProductLocked(p ledger.Product) error {
	if _, exists := m.products[p.ID]; exists {
		return ledger.ErrConflict
	}
	m.products[p.ID] = p
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id ledger.ProductID) (ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProductLocked(id)
}

func (m *Memory) getProductLocked(id ledger.ProductID) (ledger.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return ledger.Product{}, ledger.ErrNotFound
	}
	return p, nil
}

func (m *Memory) UpdateProduct(_ context.Context, p ledger.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateProductLocked(p)
}

func (m *Memory) updateProductLocked(p ledger.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return ledger.ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *Memory) ListProducts(_ context.Context) ([]ledger.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listProductsLocked(), nil
}

func (m *Memory) listProductsLocked() []ledger.Product {
	// Insertion order reversed = newest-created first, deterministic even
	// when creation timestamps collide.
	result := make([]ledger.Product, 0, len(m.productOrder))
	for i := len(m.productOrder) - 1; i >= 0; i-- {
		result = append(result, m.products[m.productOrder[i]])
	}
	return result
}

func (m *Memory) CountProducts(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countProductsLocked(), nil
}

func (m *Memory) countProductsLocked() int {
	count := 0
	for _, p := range m.products {
		if !p.Retired() {
			count++
		}
	}
	return count
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) InsertSale(_ context.Context, s ledger.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertSaleLocked(s)
}

func (m *Memory) insertSaleLocked(s ledger.Sale) error {
	if m.saleIDs[s.ID] {
		return ledger.ErrConflict
	}
	m.saleIDs[s.ID] = true
	m.sales = append(m.sales, s)
	return nil
}

func (m *Memory) ListSales(_ context.Context) ([]ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSalesLocked(), nil
}

func (m *Memory) listSalesLocked() []ledger.Sale {
	result := make([]ledger.Sale, len(m.sales))
	copy(result, m.sales)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SaleDate.After(result[j].SaleDate)
	})
	return result
}

func (m *Memory) ListSalesInRange(_ context.Context, from, to ledger.Date) ([]ledger.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSalesInRangeLocked(from, to), nil
}

func (m *Memory) listSalesInRangeLocked(from, to ledger.Date) []ledger.Sale {
	var result []ledger.Sale
	for _, s := range m.sales {
		day := ledger.DateOf(s.SaleDate)
		if !day.Before(from) && !day.After(to) {
			result = append(result, s)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SaleDate.Before(result[j].SaleDate)
	})
	return result
}

// =============================================================================
// DAILY REPORTS
// =============================================================================

func (m *Memory) GetReport(_ context.Context, date ledger.Date) (ledger.DailyReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getReportLocked(date)
}

func (m *Memory) getReportLocked(date ledger.Date) (ledger.DailyReport, error) {
	r, ok := m.reports[date.String()]
	if !ok {
		return ledger.DailyReport{}, ledger.ErrNotFound
	}
	return r, nil
}

func (m *Memory) UpsertReport(_ context.Context, r ledger.DailyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertReportLocked(r)
}

func (m *Memory) upsertReportLocked(r ledger.DailyReport) error {
	m.reports[r.Date.String()] = r
	return nil
}

// Reset clears all records (scenario/demo support).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = make(map[ledger.ProductID]ledger.Product)
	m.productOrder = nil
	m.sales = nil
	m.saleIDs = make(map[ledger.SaleID]bool)
	m.reports = make(map[string]ledger.DailyReport)
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn while holding the write lock, simulating a
// transaction with a snapshot + rollback on error. Holding the lock for
// the whole unit is what serializes concurrent read-validate-write
// sequences against the same product.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()

	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	products     map[ledger.ProductID]ledger.Product
	productOrder []ledger.ProductID
	sales        []ledger.Sale
	saleIDs      map[ledger.SaleID]bool
	reports      map[string]ledger.DailyReport
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		products:     make(map[ledger.ProductID]ledger.Product, len(m.products)),
		productOrder: append([]ledger.ProductID(nil), m.productOrder...),
		sales:        append([]ledger.Sale(nil), m.sales...),
		saleIDs:      make(map[ledger.SaleID]bool, len(m.saleIDs)),
		reports:      make(map[string]ledger.DailyReport, len(m.reports)),
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.saleIDs {
		s.saleIDs[k] = v
	}
	for k, v := range m.reports {
		s.reports[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.products = s.products
	m.productOrder = s.productOrder
	m.sales = s.sales
	m.saleIDs = s.saleIDs
	m.reports = s.reports
}

// txView gives WithTx callbacks store access without re-acquiring the
// lock the transaction already holds.
type txView struct {
	parent *Memory
}

func (tv *txView) InsertProduct(_ context.Context, p ledger.Product) error {
	return tv.parent.insertProductLocked(p)
}

func (tv *txView) GetProduct(_ context.Context, id ledger.ProductID) (ledger.Product, error) {
	return tv.parent.getProductLocked(id)
}

func (tv *txView) UpdateProduct(_ context.Context, p ledger.Product) error {
	return tv.parent.updateProductLocked(p)
}

func (tv *txView) ListProducts(_ context.Context) ([]ledger.Product, error) {
	return tv.parent.listProductsLocked(), nil
}

func (tv *txView) CountProducts(_ context.Context) (int, error) {
	return tv.parent.countProductsLocked(), nil
}

func (tv *txView) InsertSale(_ context.Context, s ledger.Sale) error {
	return tv.parent.insertSaleLocked(s)
}

func (tv *txView) ListSales(_ context.Context) ([]ledger.Sale, error) {
	return tv.parent.listSalesLocked(), nil
}

func (tv *txView) ListSalesInRange(_ context.Context, from, to ledger.Date) ([]ledger.Sale, error) {
	return tv.parent.listSalesInRangeLocked(from, to), nil
}

func (tv *txView) GetReport(_ context.Context, date ledger.Date) (ledger.DailyReport, error) {
	return tv.parent.getReportLocked(date)
}

func (tv *txView) UpsertReport(_ context.Context, r ledger.DailyReport) error {
	return tv.parent.upsertReportLocked(r)
}

func (tv *txView) Reset(_ context.Context) error {
	tv.parent.products = make(map[ledger.ProductID]ledger.Product)
	tv.parent.productOrder = nil
	tv.parent.sales = nil
	tv.parent.saleIDs = make(map[ledger.SaleID]bool)
	tv.parent.reports = make(map[string]ledger.DailyReport)
	return nil
}
