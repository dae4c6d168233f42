package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/documents/sale"
	"everpack/internal/infrastructure/storage/postgres"
)

const (
	salesTable        = "doc_sales"
	saleItemsTable    = "doc_sale_items"
	salePaymentsTable = "doc_sale_payments"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*sale.Sale](
			txm,
			salesTable,
			postgres.ExtractDBColumns[sale.Sale](),
			func() *sale.Sale { return &sale.Sale{} },
		),
	}
}

// Delete removes the sale with its items and payments.
// Ledger rows referencing the invoice stay untouched.
func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+salePaymentsTable+" WHERE sale_id = $1", saleID); err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}
	if _, err := querier.Exec(ctx, "DELETE FROM "+saleItemsTable+" WHERE sale_id = $1", saleID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	result, err := querier.Exec(ctx, "DELETE FROM "+salesTable+" WHERE id = $1", saleID)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}

	return nil
}

// GetItems retrieves items for a sale in insert order.
func (r *SaleRepo) GetItems(ctx context.Context, saleID id.ID) ([]sale.Item, error) {
	q := r.Builder().
		Select("id", "product_id", "quantity", "unit_price", "total_price").
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []sale.Item
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems saves items for a sale (delete existing + insert new).
func (r *SaleRepo) SaveItems(ctx context.Context, saleID id.ID, items []sale.Item) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + saleItemsTable + " WHERE sale_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, saleID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(saleItemsTable).
		Columns("id", "sale_id", "product_id", "quantity", "unit_price", "total_price")

	for _, item := range items {
		q = q.Values(item.ID, saleID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
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

// GetPayments retrieves payments for a sale, oldest first.
func (r *SaleRepo) GetPayments(ctx context.Context, saleID id.ID) ([]sale.Payment, error) {
	q := r.Builder().
		Select(
			"id", "sale_id", "amount", "payment_method",
			"payment_date", "reference", "notes", "received_by", "created_at",
		).
		From(salePaymentsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("payment_date", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []sale.Payment
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}

	return payments, nil
}

// CreatePayment inserts one payment row.
func (r *SaleRepo) CreatePayment(ctx context.Context, p *sale.Payment) error {
	q := r.Builder().
		Insert(salePaymentsTable).
		Columns(
			"id", "sale_id", "amount", "payment_method",
			"payment_date", "reference", "notes", "received_by", "created_at",
		).
		Values(
			p.ID, p.SaleID, p.Amount, p.Method,
			p.PaymentDate, p.Reference, p.Notes, p.ReceivedBy, p.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

// SumPayments totals all payments recorded against the sale.
func (r *SaleRepo) SumPayments(ctx context.Context, saleID id.ID) (types.Money, error) {
	sql := "SELECT COALESCE(SUM(amount), 0) FROM " + salePaymentsTable + " WHERE sale_id = $1"

	var total types.Money
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, saleID).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return types.Zero(), fmt.Errorf("sum payments: %w", err)
	}

	return total, nil
}

// SumPaidSales sums total_amount of PAID sales created by a user in [from, to).
// Feeds sales target achievement.
func (r *SaleRepo) SumPaidSales(ctx context.Context, createdBy string, from, to time.Time) (types.Money, error) {
	sql := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM ` + salesTable + `
		WHERE created_by = $1
		  AND payment_status = $2
		  AND date >= $3 AND date < $4
		  AND deletion_mark = false
	`

	var total types.Money
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, createdBy, sale.StatusPaid, from, to).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return types.Zero(), fmt.Errorf("sum paid sales: %w", err)
	}

	return total, nil
}

// List retrieves sales with filtering.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	result := domain.ListResult[*sale.Sale]{
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

	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
	}

	if filter.PaymentMethod != nil {
		q = q.Where(squirrel.Eq{"payment_method": *filter.PaymentMethod})
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
var _ sale.Repository = (*SaleRepo)(nil)
