package targets

import (
	"context"

	"everpack/internal/core/id"
	"everpack/internal/domain"
)

// Filter narrows target listings.
type Filter struct {
	AssignedTo string
	Period     *Period
	IsActive   *bool

	Limit  int
	Offset int
}

// Repository defines persistence operations for sales targets.
type Repository interface {
	Create(ctx context.Context, t *SalesTarget) error
	GetByID(ctx context.Context, targetID id.ID) (*SalesTarget, error)
	Update(ctx context.Context, t *SalesTarget) error
	Delete(ctx context.Context, targetID id.ID) error
	List(ctx context.Context, filter Filter) (domain.ListResult[*SalesTarget], error)
}
