package sale

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/security"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/customer"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/domain/registers/stock"
)

// repoMock keeps sales, lines and payments in maps.
type repoMock struct {
	sales    map[id.ID]*Sale
	items    map[id.ID][]Item
	payments map[id.ID][]Payment
}

func newRepoMock() *repoMock {
	return &repoMock{
		sales:    make(map[id.ID]*Sale),
		items:    make(map[id.ID][]Item),
		payments: make(map[id.ID][]Payment),
	}
}

func (m *repoMock) Create(ctx context.Context, s *Sale) error {
	cp := *s
	cp.Items = nil
	m.sales[s.ID] = &cp
	return nil
}

func (m *repoMock) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	s, ok := m.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	cp := *s
	return &cp, nil
}

func (m *repoMock) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	for _, s := range m.sales {
		if s.Number == number {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (m *repoMock) GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error) {
	return m.GetByID(ctx, saleID)
}

func (m *repoMock) Update(ctx context.Context, s *Sale) error {
	if _, ok := m.sales[s.ID]; !ok {
		return apperror.NewNotFound("sale", s.ID.String())
	}
	cp := *s
	cp.Items = nil
	m.sales[s.ID] = &cp
	return nil
}

func (m *repoMock) Delete(ctx context.Context, saleID id.ID) error {
	if _, ok := m.sales[saleID]; !ok {
		return apperror.NewNotFound("sale", saleID.String())
	}
	delete(m.sales, saleID)
	delete(m.items, saleID)
	delete(m.payments, saleID)
	return nil
}

func (m *repoMock) GetItems(ctx context.Context, saleID id.ID) ([]Item, error) {
	return append([]Item(nil), m.items[saleID]...), nil
}

func (m *repoMock) SaveItems(ctx context.Context, saleID id.ID, items []Item) error {
	m.items[saleID] = append([]Item(nil), items...)
	return nil
}

func (m *repoMock) GetPayments(ctx context.Context, saleID id.ID) ([]Payment, error) {
	return append([]Payment(nil), m.payments[saleID]...), nil
}

func (m *repoMock) CreatePayment(ctx context.Context, p *Payment) error {
	m.payments[p.SaleID] = append(m.payments[p.SaleID], *p)
	return nil
}

func (m *repoMock) SumPayments(ctx context.Context, saleID id.ID) (types.Money, error) {
	total := types.Zero()
	for _, p := range m.payments[saleID] {
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (m *repoMock) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	result := domain.ListResult[*Sale]{Limit: filter.Limit, Offset: filter.Offset}
	for _, s := range m.sales {
		cp := *s
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

type customersMock struct {
	byID map[id.ID]*customer.Customer
}

func (m *customersMock) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	c, ok := m.byID[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	return c, nil
}

type productsMock struct {
	byID map[id.ID]*product.Product
}

func (m *productsMock) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := m.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

// ledgerMock records posted movements without touching alert state.
type ledgerMock struct {
	movements []stock.MovementInput
}

func (m *ledgerMock) RecordMovement(ctx context.Context, input stock.MovementInput) (entity.StockMovement, error) {
	m.movements = append(m.movements, input)
	return entity.NewStockMovement(input.ProductID, input.MovementType, input.Quantity, input.Reason), nil
}

func (m *ledgerMock) RecordMovements(ctx context.Context, inputs []stock.MovementInput) ([]entity.StockMovement, error) {
	out := make([]entity.StockMovement, 0, len(inputs))
	for _, input := range inputs {
		mv, _ := m.RecordMovement(ctx, input)
		out = append(out, mv)
	}
	return out, nil
}

type eventsMock struct {
	published []domain.Event
}

func (m *eventsMock) Publish(ctx context.Context, event domain.Event) error {
	m.published = append(m.published, event)
	return nil
}

// txStub runs the function without a database.
type txStub struct{}

func (txStub) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *repoMock
	ledger   *ledgerMock
	events   *eventsMock
	now      time.Time
	customer *customer.Customer
	product  *product.Product
	product2 *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	cust := customer.New("CUS-000001", "Kofi Mensah")
	p1 := product.New("PKG-001", "Brown Carrier Bag", id.New(), id.New())
	p1.CostPrice = types.MustMoney("4.50")
	p1.SellingPrice = types.MustMoney("6.00")
	p2 := product.New("PKG-002", "Clear Food Wrap", id.New(), id.New())
	p2.CostPrice = types.MustMoney("8.00")
	p2.SellingPrice = types.MustMoney("12.50")

	repo := newRepoMock()
	ledger := &ledgerMock{}
	events := &eventsMock{}

	svc := NewService(ServiceConfig{
		Repo:      repo,
		Customers: &customersMock{byID: map[id.ID]*customer.Customer{cust.ID: cust}},
		Products:  &productsMock{byID: map[id.ID]*product.Product{p1.ID: p1, p2.ID: p2}},
		Ledger:    ledger,
		Numerator: &numerator.MockGenerator{},
		Policy:    security.NewSameDayPolicyAt(func() time.Time { return now }),
		TxManager: txStub{},
		Events:    events,
	})

	return &fixture{
		svc:      svc,
		repo:     repo,
		ledger:   ledger,
		events:   events,
		now:      now,
		customer: cust,
		product:  p1,
		product2: p2,
	}
}

func (f *fixture) newSale(t *testing.T, quantities map[id.ID]types.Quantity) *Sale {
	t.Helper()

	s := NewSale(f.customer.ID)
	s.Date = f.now
	for productID, qty := range quantities {
		price := f.product.SellingPrice
		if productID == f.product2.ID {
			price = f.product2.SellingPrice
		}
		s.AddItem(productID, qty, price)
	}
	return s
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := security.WithUserID(context.Background(), "user-7")

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))

	assert.Equal(t, "INV-000001", s.Number)
	assert.True(t, s.TotalAmount.Equal(types.MustMoney("60.00")))
	assert.Equal(t, StatusPending, s.PaymentStatus)
	assert.Equal(t, "user-7", s.CreatedBy)

	stored, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", stored.Number)
	require.Len(t, stored.Items, 1)

	require.Len(t, f.ledger.movements, 1)
	mv := f.ledger.movements[0]
	assert.Equal(t, entity.MovementOut, mv.MovementType)
	assert.Equal(t, entity.ReasonSale, mv.Reason)
	assert.Equal(t, types.Quantity(10), mv.Quantity)
	assert.Equal(t, "INV-000001", mv.Reference)
	assert.Equal(t, "Sale to Kofi Mensah", mv.Notes)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, domain.EventSaleCreated, f.events.published[0].EventType)
	assert.Equal(t, s.ID, f.events.published[0].AggregateID)
}

func TestCreate_SequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 1})
	second := f.newSale(t, map[id.ID]types.Quantity{f.product2.ID: 1})

	require.NoError(t, f.svc.Create(ctx, first))
	require.NoError(t, f.svc.Create(ctx, second))

	assert.Equal(t, "INV-000001", first.Number)
	assert.Equal(t, "INV-000002", second.Number)
}

func TestCreate_EmptySale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, nil)
	require.NoError(t, f.svc.Create(ctx, s))

	// No lines means nothing owed and nothing moved.
	assert.Equal(t, StatusPaid, s.PaymentStatus)
	assert.Empty(t, f.ledger.movements)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	f := newFixture(t)

	s := NewSale(id.New())
	s.Date = f.now
	s.AddItem(f.product.ID, 1, f.product.SellingPrice)

	err := f.svc.Create(context.Background(), s)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, f.repo.sales)
}

func TestCreate_BackdatedRejected(t *testing.T) {
	f := newFixture(t)

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 1})
	s.Date = f.now.Add(-24 * time.Hour)

	err := f.svc.Create(context.Background(), s)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "created for today")
	assert.Empty(t, f.ledger.movements)
}

func TestAddItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))
	f.ledger.movements = nil

	updated, err := f.svc.AddItem(ctx, s.ID, ItemInput{ProductID: f.product2.ID, Quantity: 4})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	line, ok := updated.ItemByProduct(f.product2.ID)
	require.True(t, ok)
	// No explicit price: the product's selling price applies.
	assert.True(t, line.UnitPrice.Equal(types.MustMoney("12.50")))
	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("110.00")))

	require.Len(t, f.ledger.movements, 1)
	assert.Equal(t, entity.MovementOut, f.ledger.movements[0].MovementType)
	assert.Equal(t, "Sale to Kofi Mensah", f.ledger.movements[0].Notes)
}

func TestAddItem_ExplicitPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, nil)
	require.NoError(t, f.svc.Create(ctx, s))

	price := types.MustMoney("5.00")
	updated, err := f.svc.AddItem(ctx, s.ID, ItemInput{ProductID: f.product.ID, Quantity: 2, UnitPrice: &price})
	require.NoError(t, err)

	assert.True(t, updated.Items[0].UnitPrice.Equal(price))
	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("10.00")))
}

func TestAddItem_DuplicateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))
	f.ledger.movements = nil

	_, err := f.svc.AddItem(ctx, s.ID, ItemInput{ProductID: f.product.ID, Quantity: 1})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "already on this invoice")
	assert.Empty(t, f.ledger.movements)
}

func TestUpdateItem_IncreasePostsSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))
	itemID := s.Items[0].ID
	f.ledger.movements = nil

	updated, err := f.svc.UpdateItem(ctx, s.ID, itemID, ItemInput{Quantity: 13})
	require.NoError(t, err)

	line, _ := updated.ItemByID(itemID)
	assert.Equal(t, types.Quantity(13), line.Quantity)
	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("78.00")))

	require.Len(t, f.ledger.movements, 1)
	mv := f.ledger.movements[0]
	assert.Equal(t, entity.MovementOut, mv.MovementType)
	assert.Equal(t, entity.ReasonSale, mv.Reason)
	assert.Equal(t, types.Quantity(3), mv.Quantity)
	assert.Equal(t, "Sale adjustment to Kofi Mensah", mv.Notes)
}

func TestUpdateItem_DecreasePostsReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))
	itemID := s.Items[0].ID
	f.ledger.movements = nil

	_, err := f.svc.UpdateItem(ctx, s.ID, itemID, ItemInput{Quantity: 6})
	require.NoError(t, err)

	require.Len(t, f.ledger.movements, 1)
	mv := f.ledger.movements[0]
	assert.Equal(t, entity.MovementIn, mv.MovementType)
	assert.Equal(t, entity.ReasonReturn, mv.Reason)
	assert.Equal(t, types.Quantity(4), mv.Quantity)
	assert.Equal(t, "Sale return from Kofi Mensah", mv.Notes)
}

func TestUpdateItem_PriceOnlyMovesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))
	itemID := s.Items[0].ID
	f.ledger.movements = nil

	price := types.MustMoney("5.50")
	updated, err := f.svc.UpdateItem(ctx, s.ID, itemID, ItemInput{Quantity: 10, UnitPrice: &price})
	require.NoError(t, err)

	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("55.00")))
	assert.Empty(t, f.ledger.movements)
}

func TestUpdateItem_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))

	_, err := f.svc.UpdateItem(ctx, s.ID, id.New(), ItemInput{Quantity: 5})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10, f.product2.ID: 2})
	require.NoError(t, f.svc.Create(ctx, s))
	line, ok := s.ItemByProduct(f.product2.ID)
	require.True(t, ok)
	itemID := line.ID
	f.ledger.movements = nil

	updated, err := f.svc.RemoveItem(ctx, s.ID, itemID)
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.True(t, updated.TotalAmount.Equal(types.MustMoney("60.00")))

	require.Len(t, f.ledger.movements, 1)
	mv := f.ledger.movements[0]
	assert.Equal(t, entity.MovementIn, mv.MovementType)
	assert.Equal(t, entity.ReasonReturn, mv.Reason)
	assert.Equal(t, types.Quantity(2), mv.Quantity)
	assert.Equal(t, "Sale item deleted - return to stock", mv.Notes)
}

func TestItemOps_LockedAfterBusinessDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))
	itemID := s.Items[0].ID

	// Age the stored sale by a day.
	stored := f.repo.sales[s.ID]
	stored.Date = f.now.Add(-24 * time.Hour)
	f.ledger.movements = nil

	_, err := f.svc.AddItem(ctx, s.ID, ItemInput{ProductID: f.product2.ID, Quantity: 1})
	requireSaleLocked(t, err)

	_, err = f.svc.UpdateItem(ctx, s.ID, itemID, ItemInput{Quantity: 5})
	requireSaleLocked(t, err)

	_, err = f.svc.RemoveItem(ctx, s.ID, itemID)
	requireSaleLocked(t, err)

	err = f.svc.Delete(ctx, s.ID)
	requireSaleLocked(t, err)

	assert.Empty(t, f.ledger.movements)
}

func requireSaleLocked(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleLocked, appErr.Code)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := security.WithUserID(context.Background(), "user-7")

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s)) // total 60.00

	p1, err := f.svc.RecordPayment(ctx, s.ID, PaymentInput{Amount: types.MustMoney("25"), Method: MethodCash})
	require.NoError(t, err)
	assert.Equal(t, "user-7", p1.ReceivedBy)

	stored, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.AmountPaid.Equal(types.MustMoney("25")))
	assert.Equal(t, StatusPartial, stored.PaymentStatus)

	_, err = f.svc.RecordPayment(ctx, s.ID, PaymentInput{Amount: types.MustMoney("35"), Method: MethodMobileMoney})
	require.NoError(t, err)

	stored, err = f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.AmountPaid.Equal(types.MustMoney("60")))
	assert.Equal(t, StatusPaid, stored.PaymentStatus)

	payments, err := f.svc.GetPayments(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRecordPayment_AllowedOnOldSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))

	stored := f.repo.sales[s.ID]
	stored.Date = f.now.Add(-72 * time.Hour)

	_, err := f.svc.RecordPayment(ctx, s.ID, PaymentInput{Amount: types.MustMoney("60"), Method: MethodBankTransfer})
	require.NoError(t, err)

	after, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, after.PaymentStatus)
}

func TestRecordPayment_CreditRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))

	_, err := f.svc.RecordPayment(ctx, s.ID, PaymentInput{Amount: types.MustMoney("10"), Method: MethodCredit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit is not a payment method")
	assert.Empty(t, f.repo.payments[s.ID])
}

func TestDelete_ReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10, f.product2.ID: 2})
	require.NoError(t, f.svc.Create(ctx, s))
	f.ledger.movements = nil

	require.NoError(t, f.svc.Delete(ctx, s.ID))

	_, err := f.svc.GetByID(ctx, s.ID)
	assert.True(t, apperror.IsNotFound(err))

	require.Len(t, f.ledger.movements, 2)
	total := types.Quantity(0)
	for _, mv := range f.ledger.movements {
		assert.Equal(t, entity.MovementIn, mv.MovementType)
		assert.Equal(t, entity.ReasonReturn, mv.Reason)
		assert.Equal(t, "Sale item deleted - return to stock", mv.Notes)
		total += mv.Quantity
	}
	assert.Equal(t, types.Quantity(12), total)
}

func TestUpdate_HeaderLockedExceptPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))

	stored := f.repo.sales[s.ID]
	stored.Date = f.now.Add(-24 * time.Hour)

	// Changing the discount on a frozen invoice is rejected.
	edit, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	edit.DiscountAmount = types.MustMoney("5")
	requireSaleLocked(t, f.svc.Update(ctx, edit))

	// A pure payment update passes.
	edit, err = f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	edit.AmountPaid = types.MustMoney("60")
	require.NoError(t, f.svc.Update(ctx, edit))

	after, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, after.PaymentStatus)
}

func TestUpdate_RecalculatesFromStoredLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10})
	require.NoError(t, f.svc.Create(ctx, s))

	edit, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	edit.DiscountAmount = types.MustMoney("10")
	edit.TaxAmount = types.MustMoney("3")
	// Hand-tampered totals are recomputed, not trusted.
	edit.TotalAmount = types.MustMoney("9999")
	require.NoError(t, f.svc.Update(ctx, edit))

	after, err := f.svc.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, after.TotalAmount.Equal(types.MustMoney("53.00")))
}

func TestTotalProfit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.newSale(t, map[id.ID]types.Quantity{f.product.ID: 10, f.product2.ID: 2})
	require.NoError(t, f.svc.Create(ctx, s))

	// (6.00-4.50)*10 + (12.50-8.00)*2 = 15.00 + 9.00
	profit, err := f.svc.TotalProfit(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, profit.Equal(types.MustMoney("24.00")))
}
