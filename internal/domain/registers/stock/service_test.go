package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/security"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/product"
)

// --- Mocks ---

type ledgerMock struct {
	rows []entity.StockMovement
}

func (m *ledgerMock) CreateMovement(ctx context.Context, mv *entity.StockMovement) error {
	m.rows = append(m.rows, *mv)
	return nil
}

func (m *ledgerMock) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	m.rows = append(m.rows, movements...)
	return nil
}

func (m *ledgerMock) stockOf(productID id.ID) types.Quantity {
	var total types.Quantity
	for i := range m.rows {
		if m.rows[i].ProductID == productID {
			total += m.rows[i].SignedQuantity()
		}
	}
	return total
}

func (m *ledgerMock) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return m.stockOf(productID), nil
}

func (m *ledgerMock) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return m.stockOf(productID), nil
}

func (m *ledgerMock) GetStocksBulk(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(productIDs))
	for _, pid := range productIDs {
		out[pid] = m.stockOf(pid)
	}
	return out, nil
}

func (m *ledgerMock) GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error) {
	return nil, nil
}

func (m *ledgerMock) GetMovementHistory(ctx context.Context, filter MovementFilter) (domain.ListResult[entity.StockMovement], error) {
	return domain.ListResult[entity.StockMovement]{Items: m.rows, TotalCount: int64(len(m.rows))}, nil
}

func (m *ledgerMock) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return Turnover{}, nil
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

type alertsMock struct {
	evaluated []id.ID
}

func (m *alertsMock) Evaluate(ctx context.Context, productID id.ID) (*entity.StockAlert, int64, error) {
	m.evaluated = append(m.evaluated, productID)
	return nil, 0, nil
}

// txStub runs the function without a database.
type txStub struct{}

func (txStub) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *ledgerMock, *alertsMock, *product.Product) {
	p := product.New("PKG-001", "Brown Carrier Bag", id.New(), id.New())
	repo := &ledgerMock{}
	al := &alertsMock{}
	svc := NewService(repo, &productsMock{byID: map[id.ID]*product.Product{p.ID: p}}, al, txStub{})
	return svc, repo, al, p
}

// --- Tests ---

func TestRecordMovement(t *testing.T) {
	svc, repo, al, p := newTestService()
	ctx := security.WithUserID(context.Background(), "user-7")

	m, err := svc.RecordMovement(ctx, MovementInput{
		ProductID:    p.ID,
		MovementType: entity.MovementIn,
		Quantity:     50,
		Reason:       entity.ReasonPurchase,
		Reference:    "PO-1001",
	})
	require.NoError(t, err)

	assert.Equal(t, p.ID, m.ProductID)
	assert.Equal(t, types.Quantity(50), m.Quantity)
	assert.Equal(t, "user-7", m.CreatedBy)
	assert.Equal(t, "PO-1001", m.Reference)
	require.Len(t, repo.rows, 1)

	// Alerts evaluated inside the same call
	assert.Equal(t, []id.ID{p.ID}, al.evaluated)
}

func TestRecordMovement_Validation(t *testing.T) {
	svc, _, _, p := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input MovementInput
	}{
		{"zero quantity", MovementInput{ProductID: p.ID, MovementType: entity.MovementIn, Quantity: 0, Reason: entity.ReasonPurchase}},
		{"negative quantity", MovementInput{ProductID: p.ID, MovementType: entity.MovementOut, Quantity: -5, Reason: entity.ReasonSale}},
		{"bad type", MovementInput{ProductID: p.ID, MovementType: "SIDEWAYS", Quantity: 1, Reason: entity.ReasonSale}},
		{"bad reason", MovementInput{ProductID: p.ID, MovementType: entity.MovementIn, Quantity: 1, Reason: "GIFT"}},
		{"nil product", MovementInput{MovementType: entity.MovementIn, Quantity: 1, Reason: entity.ReasonPurchase}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordMovement(ctx, tc.input)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestRecordMovement_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		ProductID:    id.New(),
		MovementType: entity.MovementIn,
		Quantity:     1,
		Reason:       entity.ReasonPurchase,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordMovement_InactiveProduct(t *testing.T) {
	svc, _, _, p := newTestService()
	p.IsActive = false

	_, err := svc.RecordMovement(context.Background(), MovementInput{
		ProductID:    p.ID,
		MovementType: entity.MovementIn,
		Quantity:     1,
		Reason:       entity.ReasonPurchase,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not active")
}

func TestStockDerivation(t *testing.T) {
	svc, _, _, p := newTestService()
	ctx := context.Background()

	record := func(mt entity.MovementType, qty types.Quantity, reason entity.MovementReason) {
		t.Helper()
		_, err := svc.RecordMovement(ctx, MovementInput{
			ProductID: p.ID, MovementType: mt, Quantity: qty, Reason: reason,
		})
		require.NoError(t, err)
	}

	record(entity.MovementIn, 100, entity.ReasonPurchase)
	record(entity.MovementOut, 30, entity.ReasonSale)
	record(entity.MovementIn, 5, entity.ReasonReturn)
	// Adjustments are notes in the ledger, they do not move the balance
	record(entity.MovementAdjustment, 999, entity.ReasonAdjustment)

	got, err := svc.GetStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.Quantity(75), got)
}

func TestGetStockValue(t *testing.T) {
	svc, _, _, p := newTestService()
	ctx := context.Background()
	p.CostPrice = types.MustMoney("2.50")

	_, err := svc.RecordMovement(ctx, MovementInput{
		ProductID: p.ID, MovementType: entity.MovementIn, Quantity: 40, Reason: entity.ReasonPurchase,
	})
	require.NoError(t, err)

	value, err := svc.GetStockValue(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, value.Equal(types.MustMoney("100.00")), "got %s", value)
}

func TestCheckAvailability(t *testing.T) {
	svc, _, _, p := newTestService()
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{
		ProductID: p.ID, MovementType: entity.MovementIn, Quantity: 10, Reason: entity.ReasonPurchase,
	})
	require.NoError(t, err)

	assert.NoError(t, svc.CheckAvailability(ctx, p.ID, 10))

	err = svc.CheckAvailability(ctx, p.ID, 11)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(10), appErr.Details["available"])
}

func TestRecordMovements_EvaluatesOncePerProduct(t *testing.T) {
	svc, repo, al, p := newTestService()
	ctx := context.Background()

	_, err := svc.RecordMovements(ctx, []MovementInput{
		{ProductID: p.ID, MovementType: entity.MovementOut, Quantity: 3, Reason: entity.ReasonSale},
		{ProductID: p.ID, MovementType: entity.MovementOut, Quantity: 2, Reason: entity.ReasonSale},
	})
	require.NoError(t, err)

	assert.Len(t, repo.rows, 2)
	assert.Equal(t, []id.ID{p.ID}, al.evaluated)
}

func TestRecordMovements_RejectsBadEntry(t *testing.T) {
	svc, repo, _, p := newTestService()

	_, err := svc.RecordMovements(context.Background(), []MovementInput{
		{ProductID: p.ID, MovementType: entity.MovementOut, Quantity: 3, Reason: entity.ReasonSale},
		{ProductID: p.ID, MovementType: entity.MovementOut, Quantity: 0, Reason: entity.ReasonSale},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "movement 1")
	assert.Empty(t, repo.rows)
}
