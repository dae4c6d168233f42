package catalog_repo

import (
	"context"
	"fmt"

	"everpack/internal/core/id"
	"everpack/internal/domain/catalogs/customer"
	"everpack/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*customer.Customer](
			txm,
			customerTable,
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// GetBalances derives the customer's financial position from the sales
// table: outstanding sums PENDING invoice totals, total purchases sums
// every invoice.
func (r *CustomerRepo) GetBalances(ctx context.Context, customerID id.ID) (customer.Balances, error) {
	const sql = `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'PENDING'), 0) AS outstanding,
			COALESCE(SUM(total_amount), 0) AS total_purchases
		FROM doc_sales
		WHERE customer_id = $1 AND deletion_mark = false`

	var b customer.Balances
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, customerID).Scan(&b.Outstanding, &b.TotalPurchases); err != nil {
		return customer.Balances{}, fmt.Errorf("customer balances: %w", err)
	}

	return b, nil
}
