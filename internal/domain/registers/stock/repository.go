// Package stock provides the stock movement ledger.
//
// The ledger is append-only: stock is never stored, it is derived as
// sum(IN) - sum(OUT) over a product's movements. Corrections are new
// movements, never updates.
package stock

import (
	"context"
	"time"

	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
)

// Repository defines operations for the movement ledger.
type Repository interface {
	// Movement operations

	// CreateMovement appends one ledger row.
	CreateMovement(ctx context.Context, m *entity.StockMovement) error

	// CreateMovements batch inserts movements (document posting).
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// Balance operations

	// GetStock derives the current stock for a product.
	GetStock(ctx context.Context, productID id.ID) (types.Quantity, error)

	// GetStockForUpdate locks the product row before deriving stock,
	// serializing concurrent writers for that product.
	GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error)

	// GetStocksBulk derives stock for many products in one query.
	// Products without movements map to zero.
	GetStocksBulk(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error)

	// GetBalances returns per-product balances with last movement time.
	GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error)

	// Reporting

	// GetMovementHistory returns ledger rows matching the filter, newest first.
	GetMovementHistory(ctx context.Context, filter MovementFilter) (domain.ListResult[entity.StockMovement], error)

	// GetTurnover totals receipts and expenses over a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []id.ID
	ExcludeZero bool
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	ProductID    *id.ID
	MovementType *entity.MovementType
	Reason       *entity.MovementReason
	Reference    string
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	ProductID *id.ID
	FromDate  time.Time
	ToDate    time.Time
}

// Turnover represents receipt/expense totals for a period.
type Turnover struct {
	ProductID      id.ID          `json:"productId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
