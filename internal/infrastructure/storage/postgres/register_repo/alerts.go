package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/id"
	"everpack/internal/domain"
	"everpack/internal/domain/alerts"
	"everpack/internal/infrastructure/storage/postgres"
)

const inventoryAlertsTable = "reg_inventory_alerts"

var alertColumns = []string{
	"id", "product_id", "alert_type", "message",
	"is_resolved", "resolved_at", "created_at",
}

// AlertRepo implements alerts.Repository over the alert register.
type AlertRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewAlertRepo creates a new inventory alert repository.
func NewAlertRepo(txManager *postgres.TxManager) *AlertRepo {
	return &AlertRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new alert.
func (r *AlertRepo) Create(ctx context.Context, alert *entity.StockAlert) error {
	q := r.builder.Insert(inventoryAlertsTable).
		Columns(alertColumns...).
		Values(
			alert.ID, alert.ProductID, alert.AlertType, alert.Message,
			alert.IsResolved, alert.ResolvedAt, alert.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	return nil
}

// GetByID retrieves an alert.
func (r *AlertRepo) GetByID(ctx context.Context, alertID id.ID) (entity.StockAlert, error) {
	var alert entity.StockAlert

	q := r.builder.Select(alertColumns...).
		From(inventoryAlertsTable).
		Where(squirrel.Eq{"id": alertID})

	sql, args, err := q.ToSql()
	if err != nil {
		return alert, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &alert, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return alert, apperror.NewNotFound("alert", alertID.String())
		}
		return alert, fmt.Errorf("get alert: %w", err)
	}

	return alert, nil
}

// ExistsUnresolved reports whether the product has an open alert of the given type.
func (r *AlertRepo) ExistsUnresolved(ctx context.Context, productID id.ID, alertType entity.AlertType) (bool, error) {
	sql := `
		SELECT EXISTS(
			SELECT 1 FROM ` + inventoryAlertsTable + `
			WHERE product_id = $1 AND alert_type = $2 AND is_resolved = false
		)
	`

	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, productID, alertType).Scan(&exists); err != nil {
		return false, fmt.Errorf("check unresolved alert: %w", err)
	}

	return exists, nil
}

// ResolveForProduct marks every unresolved alert of the given types resolved.
func (r *AlertRepo) ResolveForProduct(ctx context.Context, productID id.ID, alertTypes []entity.AlertType, at time.Time) (int64, error) {
	if len(alertTypes) == 0 {
		return 0, nil
	}

	q := r.builder.Update(inventoryAlertsTable).
		Set("is_resolved", true).
		Set("resolved_at", at).
		Where(squirrel.Eq{
			"product_id":  productID,
			"alert_type":  alertTypes,
			"is_resolved": false,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("resolve alerts: %w", err)
	}

	return result.RowsAffected(), nil
}

// Resolve marks a single alert resolved. Reports false when the alert
// was already resolved.
func (r *AlertRepo) Resolve(ctx context.Context, alertID id.ID, at time.Time) (bool, error) {
	q := r.builder.Update(inventoryAlertsTable).
		Set("is_resolved", true).
		Set("resolved_at", at).
		Where(squirrel.Eq{"id": alertID, "is_resolved": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("resolve alert: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// List retrieves alerts matching the filter, newest first.
func (r *AlertRepo) List(ctx context.Context, filter alerts.Filter) (domain.ListResult[entity.StockAlert], error) {
	result := domain.ListResult[entity.StockAlert]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := applyAlertFilter(
		r.builder.Select(alertColumns...).From(inventoryAlertsTable),
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
	var items []entity.StockAlert
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("select alerts: %w", err)
	}
	result.Items = items

	countQ := applyAlertFilter(
		r.builder.Select("COUNT(*)").From(inventoryAlertsTable),
		filter,
	)
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count alerts: %w", err)
	}

	return result, nil
}

func applyAlertFilter(q squirrel.SelectBuilder, filter alerts.Filter) squirrel.SelectBuilder {
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.AlertType != nil {
		q = q.Where(squirrel.Eq{"alert_type": *filter.AlertType})
	}
	if filter.Resolved != nil {
		q = q.Where(squirrel.Eq{"is_resolved": *filter.Resolved})
	}
	return q
}

// Ensure interface compliance.
var _ alerts.Repository = (*AlertRepo)(nil)
