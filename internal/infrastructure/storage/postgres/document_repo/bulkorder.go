package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/domain"
	"everpack/internal/domain/documents/bulkorder"
	"everpack/internal/infrastructure/storage/postgres"
)

const (
	bulkOrdersTable     = "doc_bulk_orders"
	bulkOrderItemsTable = "doc_bulk_order_items"
)

// BulkOrderRepo implements bulkorder.Repository.
type BulkOrderRepo struct {
	*BaseDocumentRepo[*bulkorder.BulkOrder]
}

// NewBulkOrderRepo creates a new bulk order repository.
func NewBulkOrderRepo(txm *postgres.TxManager) *BulkOrderRepo {
	return &BulkOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*bulkorder.BulkOrder](
			txm,
			bulkOrdersTable,
			postgres.ExtractDBColumns[bulkorder.BulkOrder](),
			func() *bulkorder.BulkOrder { return &bulkorder.BulkOrder{} },
		),
	}
}

// Delete removes the order and its items.
func (r *BulkOrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+bulkOrderItemsTable+" WHERE order_id = $1", orderID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	result, err := querier.Exec(ctx, "DELETE FROM "+bulkOrdersTable+" WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("bulk order", orderID.String())
	}

	return nil
}

// GetItems retrieves the order's lines in insert order.
func (r *BulkOrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]bulkorder.Item, error) {
	q := r.Builder().
		Select("id", "product_id", "quantity", "unit_price", "total_price", "notes").
		From(bulkOrderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []bulkorder.Item
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems replaces the order's lines (delete existing + insert new).
func (r *BulkOrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []bulkorder.Item) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + bulkOrderItemsTable + " WHERE order_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(bulkOrderItemsTable).
		Columns("id", "order_id", "product_id", "quantity", "unit_price", "total_price", "notes")

	for _, item := range items {
		q = q.Values(item.ID, orderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.Notes)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// List retrieves bulk orders with filtering.
func (r *BulkOrderRepo) List(ctx context.Context, filter bulkorder.ListFilter) (domain.ListResult[*bulkorder.BulkOrder], error) {
	result := domain.ListResult[*bulkorder.BulkOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.CreatedBy != "" {
		q = q.Where(squirrel.Eq{"created_by": filter.CreatedBy})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.Lt{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.Expr(
				"customer_id IN (SELECT id FROM cat_customers WHERE name ILIKE ?)",
				searchPattern,
			),
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

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

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ bulkorder.Repository = (*BulkOrderRepo)(nil)
