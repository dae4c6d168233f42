package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/domain"
	"everpack/internal/domain/targets"
	"everpack/internal/infrastructure/storage/postgres"
)

const salesTargetsTable = "doc_sales_targets"

// TargetRepo implements targets.Repository.
// Targets have no table part and no document number, so it does not
// embed BaseDocumentRepo.
type TargetRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewTargetRepo creates a new sales target repository.
func NewTargetRepo(txManager *postgres.TxManager) *TargetRepo {
	return &TargetRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[targets.SalesTarget](),
	}
}

// Create inserts a new target.
func (r *TargetRepo) Create(ctx context.Context, t *targets.SalesTarget) error {
	data := postgres.StructToMap(t)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	q := r.builder.Insert(salesTargetsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert target: %w", err)
	}

	return nil
}

// GetByID retrieves a target.
func (r *TargetRepo) GetByID(ctx context.Context, targetID id.ID) (*targets.SalesTarget, error) {
	q := r.builder.Select(r.selectCols...).
		From(salesTargetsTable).
		Where(squirrel.Eq{"id": targetID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t targets.SalesTarget
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sales target", targetID.String())
		}
		return nil, fmt.Errorf("get target: %w", err)
	}

	return &t, nil
}

// Update modifies a target with optimistic locking.
func (r *TargetRepo) Update(ctx context.Context, t *targets.SalesTarget) error {
	data := postgres.StructToMap(t)

	filteredData := make(map[string]any, len(data))
	for col, val := range data {
		switch col {
		case "id", "created_at", "created_by", "version", "updated_at":
			continue
		}
		filteredData[col] = val
	}

	q := r.builder.Update(salesTargetsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": t.ID}).
		Where(squirrel.Eq{"version": t.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update target: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("sales target", t.ID)
	}

	return nil
}

// Delete removes a target row.
func (r *TargetRepo) Delete(ctx context.Context, targetID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	result, err := querier.Exec(ctx, "DELETE FROM "+salesTargetsTable+" WHERE id = $1", targetID)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sales target", targetID.String())
	}

	return nil
}

// List retrieves targets matching the filter, newest range first.
func (r *TargetRepo) List(ctx context.Context, filter targets.Filter) (domain.ListResult[*targets.SalesTarget], error) {
	result := domain.ListResult[*targets.SalesTarget]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(r.selectCols...).
		From(salesTargetsTable).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.AssignedTo != "" {
		q = q.Where(squirrel.Eq{"assigned_to": filter.AssignedTo})
	}
	if filter.Period != nil {
		q = q.Where(squirrel.Eq{"period": *filter.Period})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("start_date DESC", "created_at DESC")

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
var _ targets.Repository = (*TargetRepo)(nil)
