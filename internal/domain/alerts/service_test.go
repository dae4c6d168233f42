package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/product"
)

// --- Mocks ---

type mockRepo struct {
	created  []entity.StockAlert
	open     map[entity.AlertType]bool // unresolved alerts by type
	resolved int64
	alerts   map[id.ID]entity.StockAlert
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		open:   make(map[entity.AlertType]bool),
		alerts: make(map[id.ID]entity.StockAlert),
	}
}

func (m *mockRepo) Create(ctx context.Context, alert *entity.StockAlert) error {
	m.created = append(m.created, *alert)
	m.open[alert.AlertType] = true
	m.alerts[alert.ID] = *alert
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, alertID id.ID) (entity.StockAlert, error) {
	a, ok := m.alerts[alertID]
	if !ok {
		return entity.StockAlert{}, apperror.NewNotFound("alert", alertID.String())
	}
	return a, nil
}

func (m *mockRepo) ExistsUnresolved(ctx context.Context, productID id.ID, alertType entity.AlertType) (bool, error) {
	return m.open[alertType], nil
}

func (m *mockRepo) ResolveForProduct(ctx context.Context, productID id.ID, alertTypes []entity.AlertType, at time.Time) (int64, error) {
	var n int64
	for _, t := range alertTypes {
		if m.open[t] {
			m.open[t] = false
			n++
		}
	}
	m.resolved += n
	return n, nil
}

func (m *mockRepo) Resolve(ctx context.Context, alertID id.ID, at time.Time) (bool, error) {
	a, ok := m.alerts[alertID]
	if !ok || a.IsResolved {
		return false, nil
	}
	a.Resolve(at)
	m.alerts[alertID] = a
	return true, nil
}

func (m *mockRepo) List(ctx context.Context, filter Filter) (domain.ListResult[entity.StockAlert], error) {
	out := domain.ListResult[entity.StockAlert]{}
	for _, a := range m.alerts {
		out.Items = append(out.Items, a)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

type mockProducts struct {
	byID map[id.ID]*product.Product
}

func (m *mockProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := m.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (m *mockProducts) ListActive(ctx context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range m.byID {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockStocks struct {
	levels map[id.ID]types.Quantity
}

func (m *mockStocks) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return m.levels[productID], nil
}

func setup(stock int64, minimum int64) (*Service, *mockRepo, *product.Product, *mockStocks) {
	p := product.New("PKG-001", "Brown Carrier Bag", id.New(), id.New())
	p.MinimumStock = minimum

	repo := newMockRepo()
	stocks := &mockStocks{levels: map[id.ID]types.Quantity{p.ID: types.Quantity(stock)}}
	products := &mockProducts{byID: map[id.ID]*product.Product{p.ID: p}}

	svc := NewService(repo, products, stocks, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }

	return svc, repo, p, stocks
}

// --- Tests ---

func TestEvaluate_LowStockCreatesAlert(t *testing.T) {
	svc, repo, p, _ := setup(5, 10)

	created, resolved, err := svc.Evaluate(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, entity.AlertLowStock, created.AlertType)
	assert.Equal(t,
		"Brown Carrier Bag is running low on stock. Current stock: 5, Minimum required: 10",
		created.Message)
	assert.False(t, created.IsResolved)
	assert.Zero(t, resolved)
	assert.Len(t, repo.created, 1)
}

func TestEvaluate_ZeroStockCreatesOutOfStock(t *testing.T) {
	svc, _, p, _ := setup(0, 10)

	created, _, err := svc.Evaluate(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, entity.AlertOutOfStock, created.AlertType)
	assert.Equal(t,
		"Brown Carrier Bag is out of stock. Current stock: 0, Minimum required: 10",
		created.Message)
}

func TestEvaluate_AtThresholdCountsAsLow(t *testing.T) {
	svc, _, p, _ := setup(10, 10)

	created, _, err := svc.Evaluate(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, entity.AlertLowStock, created.AlertType)
}

func TestEvaluate_IdempotentWhileOpen(t *testing.T) {
	svc, repo, p, _ := setup(5, 10)
	ctx := context.Background()

	first, _, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Same stock again: nothing new
	second, resolved, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Zero(t, resolved)
	assert.Len(t, repo.created, 1)
}

func TestEvaluate_RecoveryResolvesOpenAlerts(t *testing.T) {
	svc, repo, p, stocks := setup(0, 10)
	ctx := context.Background()

	_, _, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)

	// Restock above the minimum
	stocks.levels[p.ID] = 25

	created, resolved, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, created)
	assert.Equal(t, int64(1), resolved)

	// Nothing left to resolve on the next pass
	_, resolved, err = svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, resolved)
	assert.Len(t, repo.created, 1)
}

func TestEvaluate_TypeChangeOpensSecondAlert(t *testing.T) {
	svc, repo, p, stocks := setup(5, 10)
	ctx := context.Background()

	_, _, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)

	// Stock drains completely: the open LOW_STOCK does not block OUT_OF_STOCK
	stocks.levels[p.ID] = 0

	created, _, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, entity.AlertOutOfStock, created.AlertType)
	assert.Len(t, repo.created, 2)
}

func TestEvaluate_UnknownProduct(t *testing.T) {
	svc, _, _, _ := setup(5, 10)

	_, _, err := svc.Evaluate(context.Background(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSweep(t *testing.T) {
	svc, repo, p, stocks := setup(5, 10)

	// Second product, healthy stock
	healthy := product.New("PKG-002", "Clear Tape Roll", id.New(), id.New())
	healthy.MinimumStock = 10
	productsSource := &mockProducts{byID: map[id.ID]*product.Product{p.ID: p, healthy.ID: healthy}}
	stocks.levels[healthy.ID] = 100
	svc.products = productsSource

	result, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Created)
	assert.Len(t, repo.created, 1)
}

func TestResolveAlert(t *testing.T) {
	svc, _, p, _ := setup(0, 10)
	ctx := context.Background()

	created, _, err := svc.Evaluate(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, created)

	resolved, err := svc.ResolveAlert(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolving twice is a no-op
	again, err := svc.ResolveAlert(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, again.IsResolved)
}

func TestResolveAlert_NotFound(t *testing.T) {
	svc, _, _, _ := setup(0, 10)

	_, err := svc.ResolveAlert(context.Background(), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
