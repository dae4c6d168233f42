// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/registers/stock"
	"everpack/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "reg_stock_movements"

// signedQuantityExpr is the balance contribution of a ledger row.
// ADJUSTMENT rows document corrections but do not move the balance.
const signedQuantityExpr = "CASE movement_type WHEN 'IN' THEN quantity WHEN 'OUT' THEN -quantity ELSE 0 END"

var movementColumns = []string{
	"id", "product_id", "movement_type", "quantity",
	"reason", "reference", "notes", "created_by", "created_at",
}

// StockRepo implements stock.Repository over the append-only movement ledger.
// Balances are never stored; every read derives them from the ledger.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovement appends one ledger row.
func (r *StockRepo) CreateMovement(ctx context.Context, m *entity.StockMovement) error {
	q := r.builder.Insert(stockMovementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.ProductID, m.MovementType, m.Quantity,
			m.Reason, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// CreateMovements batch inserts movements.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.ProductID, m.MovementType, m.Quantity,
				m.Reason, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: non-transactional insert (slower). Prefer calling CreateMovements within tx.
	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.ID, m.ProductID, m.MovementType, m.Quantity,
			m.Reason, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// GetStock derives the current stock for a product.
func (r *StockRepo) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT COALESCE(SUM(%s), 0)
		FROM %s
		WHERE product_id = $1
	`, signedQuantityExpr, stockMovementsTable)

	var balance int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID).Scan(&balance)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("derive stock: %w", err)
	}

	return types.Quantity(balance), nil
}

// GetStockForUpdate locks the product row, then derives its stock.
// Concurrent writers for the same product queue on the row lock, so the
// availability check and the movement insert see a stable balance.
func (r *StockRepo) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	querier := r.txManager.GetQuerier(ctx)

	var lockedID id.ID
	err := querier.QueryRow(ctx,
		`SELECT id FROM cat_products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&lockedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("lock product: %w", err)
	}

	return r.GetStock(ctx, productID)
}

// GetStocksBulk derives stock for many products in one query.
// Products without movements map to zero.
func (r *StockRepo) GetStocksBulk(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Quantity, error) {
	result := make(map[id.ID]types.Quantity, len(productIDs))
	for _, pid := range productIDs {
		result[pid] = 0
	}
	if len(productIDs) == 0 {
		return result, nil
	}

	q := r.builder.Select(
		"product_id",
		fmt.Sprintf("COALESCE(SUM(%s), 0) AS quantity", signedQuantityExpr),
	).From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productIDs}).
		GroupBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("derive stocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pid id.ID
		var quantity int64
		if err := rows.Scan(&pid, &quantity); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		result[pid] = types.Quantity(quantity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock rows: %w", err)
	}

	return result, nil
}

// GetBalances returns per-product balances with last movement time.
func (r *StockRepo) GetBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder.Select(
		"product_id",
		fmt.Sprintf("COALESCE(SUM(%s), 0) AS quantity", signedQuantityExpr),
		"MAX(created_at) AS last_movement_at",
	).From(stockMovementsTable).
		GroupBy("product_id")

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	if filter.ExcludeZero {
		q = q.Having(fmt.Sprintf("COALESCE(SUM(%s), 0) <> 0", signedQuantityExpr))
	}

	q = q.OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// GetMovementHistory returns ledger rows matching the filter, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, filter stock.MovementFilter) (domain.ListResult[entity.StockMovement], error) {
	result := domain.ListResult[entity.StockMovement]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := applyMovementFilter(
		r.builder.Select(movementColumns...).From(stockMovementsTable),
		filter,
	).OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var movements []entity.StockMovement
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return result, fmt.Errorf("select history: %w", err)
	}
	result.Items = movements

	countQ := applyMovementFilter(
		r.builder.Select("COUNT(*)").From(stockMovementsTable),
		filter,
	)
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count history: %w", err)
	}

	return result, nil
}

func applyMovementFilter(q squirrel.SelectBuilder, filter stock.MovementFilter) squirrel.SelectBuilder {
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.MovementType})
	}
	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.Reference != "" {
		q = q.Where(squirrel.Eq{"reference": filter.Reference})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}
	return q
}

// GetTurnover totals receipts and expenses over a period.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	var result stock.Turnover

	args := []any{filter.FromDate, filter.ToDate}
	conditions := "created_at >= $1 AND created_at < $2"

	if filter.ProductID != nil {
		conditions += " AND product_id = $3"
		args = append(args, *filter.ProductID)
		result.ProductID = *filter.ProductID
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN movement_type = 'IN' THEN quantity ELSE 0 END), 0) AS receipt,
			COALESCE(SUM(CASE WHEN movement_type = 'OUT' THEN quantity ELSE 0 END), 0) AS expense
		FROM %s
		WHERE %s
	`, stockMovementsTable, conditions)

	querier := r.txManager.GetQuerier(ctx)
	var receipt, expense int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&receipt, &expense)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Receipt = types.Quantity(receipt)
	result.Expense = types.Quantity(expense)

	// Opening balance: everything before the period start.
	openingArgs := []any{filter.FromDate}
	openingConditions := "created_at < $1"

	if filter.ProductID != nil {
		openingConditions += " AND product_id = $2"
		openingArgs = append(openingArgs, *filter.ProductID)
	}

	openingSQL := fmt.Sprintf(`
		SELECT COALESCE(SUM(%s), 0)
		FROM %s
		WHERE %s
	`, signedQuantityExpr, stockMovementsTable, openingConditions)

	var opening int64
	err = querier.QueryRow(ctx, openingSQL, openingArgs...).Scan(&opening)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.Quantity(opening)

	result.ClosingBalance = result.OpeningBalance + result.Receipt - result.Expense

	return result, nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
