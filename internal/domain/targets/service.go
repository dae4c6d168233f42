package targets

import (
	"context"
	"time"

	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
	"everpack/internal/domain/audit"
	"everpack/pkg/logger"
)

// SalesSource sums settled revenue for achievement computation.
// Satisfied by the sale repository.
type SalesSource interface {
	// SumPaidSales returns the summed total_amount of PAID sales created
	// by the given user with sale dates in [from, to].
	SumPaidSales(ctx context.Context, createdBy string, from, to time.Time) (types.Money, error)
}

// TargetProgress pairs a target with its computed achievement.
type TargetProgress struct {
	Target   *SalesTarget `json:"target"`
	Progress Progress     `json:"progress"`
}

// Service provides business operations for sales targets.
type Service struct {
	repo  Repository
	sales SalesSource
}

// NewService creates a new target service.
func NewService(repo Repository, sales SalesSource) *Service {
	return &Service{repo: repo, sales: sales}
}

// Create validates and persists a new target.
func (svc *Service) Create(ctx context.Context, t *SalesTarget) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}

	if err := audit.EnrichCreatedBy(ctx, t); err != nil {
		return err
	}

	if err := svc.repo.Create(ctx, t); err != nil {
		return err
	}

	logger.Info(ctx, "sales target created",
		"id", t.ID,
		"period", t.Period,
		"assigned_to", t.AssignedTo,
	)

	return nil
}

// GetByID retrieves a target.
func (svc *Service) GetByID(ctx context.Context, targetID id.ID) (*SalesTarget, error) {
	return svc.repo.GetByID(ctx, targetID)
}

// Update validates and persists target changes.
func (svc *Service) Update(ctx context.Context, t *SalesTarget) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	if err := audit.EnrichUpdatedBy(ctx, t); err != nil {
		return err
	}
	return svc.repo.Update(ctx, t)
}

// Delete removes a target. Targets own nothing, so removal is physical.
func (svc *Service) Delete(ctx context.Context, targetID id.ID) error {
	return svc.repo.Delete(ctx, targetID)
}

// List retrieves targets matching the filter.
func (svc *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*SalesTarget], error) {
	return svc.repo.List(ctx, filter)
}

// GetProgress computes a target's achievement from settled sales.
func (svc *Service) GetProgress(ctx context.Context, targetID id.ID) (*TargetProgress, error) {
	t, err := svc.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	achieved, err := svc.sales.SumPaidSales(ctx, t.AssignedTo, t.StartDate, t.EndDate)
	if err != nil {
		return nil, err
	}

	return &TargetProgress{Target: t, Progress: t.ProgressFor(achieved)}, nil
}

// ListWithProgress retrieves targets with achievement attached, for the
// targets dashboard.
func (svc *Service) ListWithProgress(ctx context.Context, filter Filter) ([]TargetProgress, error) {
	result, err := svc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]TargetProgress, 0, len(result.Items))
	for _, t := range result.Items {
		achieved, err := svc.sales.SumPaidSales(ctx, t.AssignedTo, t.StartDate, t.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, TargetProgress{Target: t, Progress: t.ProgressFor(achieved)})
	}

	return out, nil
}
