package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	productModel "nutrifarm-backend/internal/domains/product/model"
	"nutrifarm-backend/internal/domains/promotion/model"
	"nutrifarm-backend/internal/domains/promotion/repository"
)

var errInjected = errors.New("injected failure")

type pivotKey struct {
	sale    uuid.UUID
	product uuid.UUID
}

// memoryLedger emulates row locks with one mutex and commits a copy of the
// state only when fn succeeds.
type memoryLedger struct {
	mu        sync.Mutex
	sales     map[uuid.UUID]model.FlashSale
	pivots    map[pivotKey]int
	discounts map[uuid.UUID]model.Discount

	txCount        int
	failSoldUpdate bool
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		sales:     map[uuid.UUID]model.FlashSale{},
		pivots:    map[pivotKey]int{},
		discounts: map[uuid.UUID]model.Discount{},
	}
}

func (l *memoryLedger) addSale(fs model.FlashSale, products ...uuid.UUID) {
	l.sales[fs.ID] = fs
	for _, p := range products {
		l.pivots[pivotKey{fs.ID, p}] = 0
	}
}

func (l *memoryLedger) sale(id uuid.UUID) model.FlashSale {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sales[id]
}

func (l *memoryLedger) pivot(sale, product uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pivots[pivotKey{sale, product}]
}

func (l *memoryLedger) transactions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.txCount
}

func (l *memoryLedger) RunInTx(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txCount++

	tx := &memoryTx{
		ledger:    l,
		sales:     map[uuid.UUID]model.FlashSale{},
		pivots:    map[pivotKey]int{},
		discounts: map[uuid.UUID]model.Discount{},
	}
	for k, v := range l.sales {
		tx.sales[k] = v
	}
	for k, v := range l.pivots {
		tx.pivots[k] = v
	}
	for k, v := range l.discounts {
		tx.discounts[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	l.sales, l.pivots, l.discounts = tx.sales, tx.pivots, tx.discounts
	return nil
}

type memoryTx struct {
	ledger    *memoryLedger
	sales     map[uuid.UUID]model.FlashSale
	pivots    map[pivotKey]int
	discounts map[uuid.UUID]model.Discount
}

func (t *memoryTx) GetFlashSaleForUpdate(ctx context.Context, id uuid.UUID) (*model.FlashSale, error) {
	fs, ok := t.sales[id]
	if !ok {
		return nil, model.ErrFlashSaleNotFound
	}
	return &fs, nil
}

func (t *memoryTx) IncrementProductSaleQuantity(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	key := pivotKey{flashSaleID, productID}
	if _, ok := t.pivots[key]; !ok {
		return model.ErrProductNotInFlashSale
	}
	t.pivots[key] += quantity
	return nil
}

func (t *memoryTx) IncrementSoldQuantity(ctx context.Context, flashSaleID uuid.UUID, quantity int) error {
	if t.ledger.failSoldUpdate {
		return errInjected
	}
	fs := t.sales[flashSaleID]
	fs.SoldQuantity += quantity
	t.sales[flashSaleID] = fs
	return nil
}

func (t *memoryTx) DecrementProductSaleQuantity(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	key := pivotKey{flashSaleID, productID}
	if _, ok := t.pivots[key]; !ok {
		return model.ErrProductNotInFlashSale
	}
	t.pivots[key] = max(t.pivots[key]-quantity, 0)
	return nil
}

func (t *memoryTx) DecrementSoldQuantity(ctx context.Context, flashSaleID uuid.UUID, quantity int) error {
	fs := t.sales[flashSaleID]
	fs.SoldQuantity = max(fs.SoldQuantity-quantity, 0)
	t.sales[flashSaleID] = fs
	return nil
}

func (t *memoryTx) GetDiscountForUpdate(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	d, ok := t.discounts[id]
	if !ok {
		return nil, model.ErrDiscountNotFound
	}
	return &d, nil
}

func (t *memoryTx) IncrementDiscountUsage(ctx context.Context, id uuid.UUID) error {
	d := t.discounts[id]
	d.UsedCount++
	t.discounts[id] = d
	return nil
}

type stubProducts struct {
	products map[uuid.UUID]*productModel.Product
}

func (s *stubProducts) FindByID(ctx context.Context, id uuid.UUID) (*productModel.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, productModel.ErrProductNotFound
	}
	return p, nil
}

type stubPromotions struct {
	discounts []*model.Discount
	sales     []*model.FlashSale
	err       error
}

func (s *stubPromotions) ListDiscountsForProduct(ctx context.Context, productID uuid.UUID) ([]*model.Discount, error) {
	return s.discounts, s.err
}

func (s *stubPromotions) ListFlashSalesForProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]*model.FlashSale, error) {
	return s.sales, s.err
}
