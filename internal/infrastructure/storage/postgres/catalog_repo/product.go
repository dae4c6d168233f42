package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"everpack/internal/core/apperror"
	"everpack/internal/domain"
	"everpack/internal/domain/catalogs/product"
	"everpack/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// derivedStockExpr computes the ledger stock for the products row "p".
// ADJUSTMENT rows document corrections but do not move the balance.
const derivedStockExpr = `COALESCE((
	SELECT SUM(CASE m.movement_type WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity ELSE 0 END)
	FROM reg_stock_movements m
	WHERE m.product_id = p.id
), 0)`

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			txm,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// FindBySKU retrieves a product by SKU (the catalog code).
func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"code": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return item, nil
}

// FindByBarcode retrieves a product by barcode.
func (r *ProductRepo) FindByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"barcode": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, err
	}
	return item, nil
}

// FindLowStock retrieves active products whose derived stock is at or
// below their minimum stock level.
func (r *ProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	cols := make([]string, len(r.selectCols))
	for i, c := range r.selectCols {
		cols[i] = "p." + c
	}

	q := r.Builder().
		Select(cols...).
		From(productTable + " p").
		Where(squirrel.Eq{"p.deletion_mark": false}).
		Where(squirrel.Eq{"p.is_active": true}).
		Where(derivedStockExpr + " <= p.minimum_stock").
		OrderBy("p.name ASC")

	countQ := r.Builder().
		Select("COUNT(*)").
		From(productTable + " p").
		Where(squirrel.Eq{"p.deletion_mark": false}).
		Where(squirrel.Eq{"p.is_active": true}).
		Where(derivedStockExpr + " <= p.minimum_stock")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build low stock count: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count low stock: %w", err)
	}

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build low stock query: %w", err)
	}

	var items []*product.Product
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("find low stock: %w", err)
	}
	result.Items = items

	return result, nil
}

// ListActive retrieves every active, non-deleted product.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active: %w", err)
	}

	var items []*product.Product
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}

	return items, nil
}
