package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"nutrifarm-backend/internal/domains/order/model"
	"nutrifarm-backend/internal/domains/payment/gateway"
	paymentModel "nutrifarm-backend/internal/domains/payment/model"
	promoModel "nutrifarm-backend/internal/domains/promotion/model"
	promo "nutrifarm-backend/internal/domains/promotion/service"
	"nutrifarm-backend/pkg/clock"
)

var errInjected = errors.New("injected failure")

// memoryOrders mirrors the SQL guards of the postgres repository.
type memoryOrders struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]model.Order
	history   []model.OrderHistory
	seq       int64
	checkedAt map[uuid.UUID]time.Time
	createErr error
	findErr   error
	markErr   error
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: map[uuid.UUID]model.Order{}, checkedAt: map[uuid.UUID]time.Time{}}
}

func (m *memoryOrders) add(o model.Order) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = model.StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = model.PaymentPending
	}
	m.orders[o.ID] = o
	return o.ID
}

func (m *memoryOrders) get(id uuid.UUID) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

func (m *memoryOrders) historyFor(id uuid.UUID) []model.OrderHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OrderHistory
	for _, h := range m.history {
		if h.OrderID == id {
			out = append(out, h)
		}
	}
	return out
}

func (m *memoryOrders) CreateOrder(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if len(order.Items) == 0 {
		return model.ErrEmptyOrder
	}

	m.seq++
	order.ID = uuid.New()
	order.InvoiceNo = model.FormatInvoiceNumber(m.seq)
	order.ExternalID = order.InvoiceNo
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = *order
	m.history = append(m.history, model.OrderHistory{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  string(model.StatusPending),
		Note:    "order created",
	})
	return nil
}

func (m *memoryOrders) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return &o, nil
}

func (m *memoryOrders) ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderHistory, error) {
	return m.historyFor(orderID), nil
}

func (m *memoryOrders) FindReconcileCandidates(ctx context.Context, since time.Time, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}

	var out []*model.Order
	for _, o := range m.orders {
		o := o
		if o.PaymentStatus != model.PaymentPending || o.GatewayInvoiceID == nil || o.CreatedAt.Before(since) {
			continue
		}
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, iChecked := m.checkedAt[out[i].ID]
		cj, jChecked := m.checkedAt[out[j].ID]
		switch {
		case iChecked != jChecked:
			return !iChecked
		case iChecked && !ci.Equal(cj):
			return ci.Before(cj)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryOrders) MarkReconcileChecked(ctx context.Context, orderIDs []uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, id := range orderIDs {
		m.checkedAt[id] = at
	}
	return nil
}

func (m *memoryOrders) ApplyPaymentTransition(ctx context.Context, orderID uuid.UUID, t model.PaymentTransition, at time.Time, history *model.OrderHistory) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	if t.PaymentStatus == model.PaymentPaid {
		if o.PaymentStatus == model.PaymentPaid {
			return false, nil
		}
		o.PaidAt = &at
	} else if o.PaymentStatus != model.PaymentPending {
		return false, nil
	}

	o.PaymentStatus = t.PaymentStatus
	if t.OrderStatus != nil {
		o.Status = *t.OrderStatus
	}
	m.orders[orderID] = o

	if history != nil {
		h := *history
		h.ID = uuid.New()
		h.OrderID = orderID
		h.CreatedAt = at
		m.history = append(m.history, h)
	}
	return true, nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	acquired int
	released int
	lastTTL  time.Duration
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	l.acquired++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.released++
		return nil
	}, true, nil
}

// panicGateway blows up for one invoice, standing in for a malformed payload.
type panicGateway struct {
	inner   gateway.InvoiceGateway
	panicOn string
}

func (g *panicGateway) GetInvoice(ctx context.Context, id string) (*paymentModel.Invoice, error) {
	if id == g.panicOn {
		panic("unexpected invoice payload")
	}
	return g.inner.GetInvoice(ctx, id)
}

type mockPricing struct {
	mock.Mock
}

func (m *mockPricing) GetFinalPrice(ctx context.Context, productID uuid.UUID, quantity int) (*promoModel.PriceQuote, error) {
	args := m.Called(ctx, productID, quantity)
	if q := args.Get(0); q != nil {
		return q.(*promoModel.PriceQuote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPricing) GetRegularPrice(ctx context.Context, productID uuid.UUID, quantity int) (*promoModel.PriceQuote, error) {
	args := m.Called(ctx, productID, quantity)
	if q := args.Get(0); q != nil {
		return q.(*promoModel.PriceQuote), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) RecordSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) (int, error) {
	args := m.Called(ctx, flashSaleID, productID, quantity)
	return args.Int(0), args.Error(1)
}

func (m *mockLedger) ReleaseSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	return m.Called(ctx, flashSaleID, productID, quantity).Error(0)
}

func (m *mockLedger) ClaimFlashSale(ctx context.Context, flashSaleID uuid.UUID, req promoModel.ClaimFlashSaleRequest) (*promoModel.ClaimResult, error) {
	args := m.Called(ctx, flashSaleID, req)
	if r := args.Get(0); r != nil {
		return r.(*promoModel.ClaimResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) RecordDiscountUsage(ctx context.Context, discountID uuid.UUID) (bool, error) {
	args := m.Called(ctx, discountID)
	return args.Bool(0), args.Error(1)
}

// catalogPricing quotes through the real calculator.
type catalogPricing struct {
	calc     *promo.DiscountCalculator
	products map[uuid.UUID]catalogEntry
}

type catalogEntry struct {
	variantID uuid.UUID
	base      decimal.Decimal
	discounts []*promoModel.Discount
	sales     []*promoModel.FlashSale
}

func newCatalogPricing(now time.Time) *catalogPricing {
	return &catalogPricing{
		calc:     promo.NewDiscountCalculator(clock.NewFakeClock(now), false),
		products: map[uuid.UUID]catalogEntry{},
	}
}

func (p *catalogPricing) add(base string, discounts []*promoModel.Discount, sales ...*promoModel.FlashSale) uuid.UUID {
	id := uuid.New()
	p.products[id] = catalogEntry{
		variantID: uuid.New(),
		base:      decimal.RequireFromString(base),
		discounts: discounts,
		sales:     sales,
	}
	return id
}

func (p *catalogPricing) evaluate(productID uuid.UUID, quantity int, withSales bool) (*promoModel.PriceQuote, error) {
	entry, ok := p.products[productID]
	if !ok {
		return nil, promoModel.ErrNotFound(promoModel.ErrCodeProductNotFound, "product not found", nil)
	}
	var sales []*promoModel.FlashSale
	if withSales {
		sales = entry.sales
	}
	quote := p.calc.Evaluate(entry.base, quantity, entry.discounts, sales)
	quote.ProductID = productID
	quote.VariantID = entry.variantID
	return quote, nil
}

func (p *catalogPricing) GetFinalPrice(ctx context.Context, productID uuid.UUID, quantity int) (*promoModel.PriceQuote, error) {
	return p.evaluate(productID, quantity, true)
}

func (p *catalogPricing) GetRegularPrice(ctx context.Context, productID uuid.UUID, quantity int) (*promoModel.PriceQuote, error) {
	return p.evaluate(productID, quantity, false)
}

// memoryFlashLedger keeps sold counts per sale with an optional cap.
type memoryFlashLedger struct {
	mu    sync.Mutex
	caps  map[uuid.UUID]int
	sold  map[uuid.UUID]int
	usage map[uuid.UUID]int
}

func newMemoryFlashLedger() *memoryFlashLedger {
	return &memoryFlashLedger{caps: map[uuid.UUID]int{}, sold: map[uuid.UUID]int{}, usage: map[uuid.UUID]int{}}
}

func (l *memoryFlashLedger) soldFor(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sold[id]
}

func (l *memoryFlashLedger) RecordSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := quantity
	if limit, ok := l.caps[flashSaleID]; ok {
		n = min(quantity, max(limit-l.sold[flashSaleID], 0))
	}
	l.sold[flashSaleID] += n
	return n, nil
}

func (l *memoryFlashLedger) ReleaseSale(ctx context.Context, flashSaleID, productID uuid.UUID, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sold[flashSaleID] = max(l.sold[flashSaleID]-quantity, 0)
	return nil
}

func (l *memoryFlashLedger) ClaimFlashSale(ctx context.Context, flashSaleID uuid.UUID, req promoModel.ClaimFlashSaleRequest) (*promoModel.ClaimResult, error) {
	productID := uuid.MustParse(req.ProductID)
	applied, err := l.RecordSale(ctx, flashSaleID, productID, req.Quantity)
	if err != nil {
		return nil, err
	}
	return promoModel.NewClaimResult(flashSaleID, productID, req.Quantity, applied), nil
}

func (l *memoryFlashLedger) RecordDiscountUsage(ctx context.Context, discountID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.usage[discountID]++
	return true, nil
}
