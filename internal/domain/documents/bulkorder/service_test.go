package bulkorder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/numerator"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/domain/documents"
	"everpack/internal/domain/documents/sale"
)

type repoMock struct {
	orders map[id.ID]*BulkOrder
	items  map[id.ID][]Item
}

func newRepoMock() *repoMock {
	return &repoMock{
		orders: make(map[id.ID]*BulkOrder),
		items:  make(map[id.ID][]Item),
	}
}

func (m *repoMock) Create(ctx context.Context, b *BulkOrder) error {
	cp := *b
	cp.Items = nil
	m.orders[b.ID] = &cp
	return nil
}

func (m *repoMock) GetByID(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	b, ok := m.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("bulk order", orderID.String())
	}
	cp := *b
	return &cp, nil
}

func (m *repoMock) GetByNumber(ctx context.Context, number string) (*BulkOrder, error) {
	for _, b := range m.orders {
		if b.Number == number {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("bulk order", number)
}

func (m *repoMock) GetForUpdate(ctx context.Context, orderID id.ID) (*BulkOrder, error) {
	return m.GetByID(ctx, orderID)
}

func (m *repoMock) Update(ctx context.Context, b *BulkOrder) error {
	if _, ok := m.orders[b.ID]; !ok {
		return apperror.NewNotFound("bulk order", b.ID.String())
	}
	cp := *b
	cp.Items = nil
	m.orders[b.ID] = &cp
	return nil
}

func (m *repoMock) Delete(ctx context.Context, orderID id.ID) error {
	if _, ok := m.orders[orderID]; !ok {
		return apperror.NewNotFound("bulk order", orderID.String())
	}
	delete(m.orders, orderID)
	delete(m.items, orderID)
	return nil
}

func (m *repoMock) GetItems(ctx context.Context, orderID id.ID) ([]Item, error) {
	return append([]Item(nil), m.items[orderID]...), nil
}

func (m *repoMock) SaveItems(ctx context.Context, orderID id.ID, items []Item) error {
	m.items[orderID] = append([]Item(nil), items...)
	return nil
}

func (m *repoMock) List(ctx context.Context, filter ListFilter) (domain.ListResult[*BulkOrder], error) {
	result := domain.ListResult[*BulkOrder]{Limit: filter.Limit, Offset: filter.Offset}
	for _, b := range m.orders {
		cp := *b
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
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

// saleCreatorMock stands in for the sale service: it numbers the sale and
// remembers it.
type saleCreatorMock struct {
	created []*sale.Sale
	fail    error
}

func (m *saleCreatorMock) Create(ctx context.Context, s *sale.Sale) error {
	if m.fail != nil {
		return m.fail
	}
	s.Recalculate()
	if err := s.Validate(ctx); err != nil {
		return err
	}
	s.Number = fmt.Sprintf("INV-%06d", len(m.created)+1)
	m.created = append(m.created, s)
	return nil
}

type eventsMock struct {
	published []domain.Event
}

func (m *eventsMock) Publish(ctx context.Context, event domain.Event) error {
	m.published = append(m.published, event)
	return nil
}

type txStub struct{}

func (txStub) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *repoMock
	sales    *saleCreatorMock
	events   *eventsMock
	product  *product.Product
	product2 *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	p1 := product.New("PKG-001", "Brown Carrier Bag", id.New(), id.New())
	p1.SellingPrice = types.MustMoney("10.00")
	p2 := product.New("PKG-002", "Clear Food Wrap", id.New(), id.New())
	p2.SellingPrice = types.MustMoney("5.00")

	repo := newRepoMock()
	sales := &saleCreatorMock{}
	events := &eventsMock{}

	svc := NewService(ServiceConfig{
		Repo:      repo,
		Pricing:   documents.NewPriceResolver(&productsMock{byID: map[id.ID]*product.Product{p1.ID: p1, p2.ID: p2}}),
		Sales:     sales,
		Numerator: &numerator.MockGenerator{},
		TxManager: txStub{},
		Events:    events,
	})

	return &fixture{
		svc:      svc,
		repo:     repo,
		sales:    sales,
		events:   events,
		product:  p1,
		product2: p2,
	}
}

// newOrder creates and persists a draft with 3x product1 and 1x product2
// (the 35.00 fixture).
func (f *fixture) newOrder(t *testing.T) *BulkOrder {
	t.Helper()

	b := New(id.New())
	b.AddItem(f.product.ID, 3, types.MustMoney("10.00"), "")
	b.AddItem(f.product2.ID, 1, types.MustMoney("5.00"), "")
	require.NoError(t, f.svc.Create(context.Background(), b))
	return b
}

func (f *fixture) submitted(t *testing.T) *BulkOrder {
	t.Helper()

	b := f.newOrder(t)
	submitted, err := f.svc.Submit(context.Background(), b.ID)
	require.NoError(t, err)
	return submitted
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)

	b := f.newOrder(t)

	assert.Equal(t, "BULK-000001", b.Number)
	assert.Equal(t, StatusDraft, b.Status)
	assert.True(t, b.TotalAmount().Equal(types.MustMoney("35.00")))
}

func TestCreate_ResolvesZeroPrices(t *testing.T) {
	f := newFixture(t)

	b := New(id.New())
	b.AddItem(f.product.ID, 2, types.Zero(), "")
	require.NoError(t, f.svc.Create(context.Background(), b))

	// Omitted price falls back to the product's selling price.
	assert.True(t, b.Items[0].UnitPrice.Equal(types.MustMoney("10.00")))
	assert.True(t, b.TotalAmount().Equal(types.MustMoney("20.00")))
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.newOrder(t)
	submitted, err := f.svc.Submit(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.WithinDuration(t, time.Now().UTC(), *submitted.SubmittedAt, time.Minute)

	// Submitting twice is an illegal transition.
	_, err = f.svc.Submit(ctx, b.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStateTransition, appErr.Code)
}

func TestSubmit_EmptyOrder(t *testing.T) {
	f := newFixture(t)

	b := New(id.New())
	require.NoError(t, f.svc.Create(context.Background(), b))

	_, err := f.svc.Submit(context.Background(), b.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot submit an empty order")
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("from draft", func(t *testing.T) {
		b := f.newOrder(t)
		cancelled, err := f.svc.Cancel(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	})

	t.Run("from submitted", func(t *testing.T) {
		b := f.submitted(t)
		cancelled, err := f.svc.Cancel(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	})

	t.Run("from processing", func(t *testing.T) {
		b := f.submitted(t)
		_, err := f.svc.MarkProcessing(ctx, b.ID)
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	})

	t.Run("completed is final", func(t *testing.T) {
		b := f.submitted(t)
		_, err := f.svc.Convert(ctx, b.ID)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, b.ID)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidStateTransition, appErr.Code)
	})
}

func TestMarkProcessing_RequiresSubmitted(t *testing.T) {
	f := newFixture(t)

	b := f.newOrder(t)
	_, err := f.svc.MarkProcessing(context.Background(), b.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStateTransition, appErr.Code)
}

func TestConvert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.submitted(t)
	f.repo.orders[b.ID].Notes = "Deliver before Friday"

	s, err := f.svc.Convert(ctx, b.ID)
	require.NoError(t, err)

	assert.True(t, s.Subtotal.Equal(types.MustMoney("35.00")))
	assert.True(t, s.TotalAmount.Equal(types.MustMoney("35.00")))
	assert.Equal(t, sale.MethodCash, s.PaymentMethod)
	assert.Equal(t, sale.StatusPending, s.PaymentStatus)
	assert.Equal(t, b.CustomerID, s.CustomerID)
	assert.Equal(t, "Converted from bulk order BULK-000001. Deliver before Friday", s.Notes)
	require.Len(t, s.Items, 2)
	assert.Equal(t, "INV-000001", s.Number)

	after, err := f.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, after.Status)

	require.Len(t, f.events.published, 1)
	assert.Equal(t, domain.EventBulkOrderConverted, f.events.published[0].EventType)

	// Conversion is one-way.
	_, err = f.svc.Convert(ctx, b.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "only submitted orders can be converted")
	assert.Len(t, f.sales.created, 1)
}

func TestConvert_CopiesQuantitiesAndPrices(t *testing.T) {
	f := newFixture(t)

	b := f.submitted(t)
	s, err := f.svc.Convert(context.Background(), b.ID)
	require.NoError(t, err)

	line, ok := s.ItemByProduct(f.product.ID)
	require.True(t, ok)
	assert.Equal(t, types.Quantity(3), line.Quantity)
	assert.True(t, line.UnitPrice.Equal(types.MustMoney("10.00")))
}

func TestConvert_DraftRejected(t *testing.T) {
	f := newFixture(t)

	b := f.newOrder(t)
	_, err := f.svc.Convert(context.Background(), b.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only submitted orders can be converted")
	assert.Empty(t, f.sales.created)
}

func TestConvert_EmptySubmittedRejected(t *testing.T) {
	f := newFixture(t)

	// Plant a submitted order whose items vanished (imported data).
	b := New(id.New())
	b.Number = "BULK-000099"
	b.Status = StatusSubmitted
	f.repo.orders[b.ID] = b

	_, err := f.svc.Convert(context.Background(), b.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot convert an empty order")
}

func TestConvert_SaleFailureKeepsOrderSubmitted(t *testing.T) {
	f := newFixture(t)
	f.sales.fail = apperror.NewInternal(assert.AnError)

	b := f.submitted(t)
	_, err := f.svc.Convert(context.Background(), b.ID)
	require.Error(t, err)

	// The transaction would roll the status back; the mock never wrote it.
	after, err := f.svc.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, after.Status)
	assert.Empty(t, f.events.published)
}

func TestAddItem_DefaultPrice(t *testing.T) {
	f := newFixture(t)

	b := New(id.New())
	require.NoError(t, f.svc.Create(context.Background(), b))

	updated, err := f.svc.AddItem(context.Background(), b.ID, ItemInput{ProductID: f.product2.ID, Quantity: 4})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.True(t, updated.Items[0].UnitPrice.Equal(types.MustMoney("5.00")))
	assert.True(t, updated.TotalAmount().Equal(types.MustMoney("20.00")))
}

func TestItemOps_DraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.submitted(t)
	itemID := b.Items[0].ID

	_, err := f.svc.AddItem(ctx, b.ID, ItemInput{ProductID: id.New(), Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only draft orders can be modified")

	_, err = f.svc.UpdateItem(ctx, b.ID, itemID, ItemInput{Quantity: 9})
	require.Error(t, err)

	_, err = f.svc.RemoveItem(ctx, b.ID, itemID)
	require.Error(t, err)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)

	b := f.newOrder(t)
	itemID := b.Items[0].ID

	price := types.MustMoney("9.00")
	updated, err := f.svc.UpdateItem(context.Background(), b.ID, itemID, ItemInput{Quantity: 5, UnitPrice: &price})
	require.NoError(t, err)

	line, _ := updated.ItemByID(itemID)
	assert.Equal(t, types.Quantity(5), line.Quantity)
	assert.True(t, line.TotalPrice.Equal(types.MustMoney("45.00")))
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)

	b := f.newOrder(t)
	itemID := b.Items[1].ID

	updated, err := f.svc.RemoveItem(context.Background(), b.ID, itemID)
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.True(t, updated.TotalAmount().Equal(types.MustMoney("30.00")))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("draft", func(t *testing.T) {
		b := f.newOrder(t)
		require.NoError(t, f.svc.Delete(ctx, b.ID))

		_, err := f.svc.GetByID(ctx, b.ID)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("submitted kept", func(t *testing.T) {
		b := f.submitted(t)
		err := f.svc.Delete(ctx, b.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only draft or cancelled orders can be deleted")
	})

	t.Run("cancelled", func(t *testing.T) {
		b := f.newOrder(t)
		_, err := f.svc.Cancel(ctx, b.ID)
		require.NoError(t, err)
		require.NoError(t, f.svc.Delete(ctx, b.ID))
	})
}
