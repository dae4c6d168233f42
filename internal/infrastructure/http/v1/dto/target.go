package dto

import (
	"time"

	"everpack/internal/core/types"
	"everpack/internal/domain/targets"
)

// --- Request DTOs ---

// CreateTargetRequest is the request body for creating a sales target.
type CreateTargetRequest struct {
	Period       targets.Period `json:"period" binding:"required"`
	TargetAmount types.Money    `json:"targetAmount" binding:"required"`
	StartDate    time.Time      `json:"startDate" binding:"required"`
	EndDate      time.Time      `json:"endDate" binding:"required"`
	AssignedTo   string         `json:"assignedTo" binding:"required"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateTargetRequest) ToEntity() *targets.SalesTarget {
	return targets.New(r.Period, r.TargetAmount, r.StartDate, r.EndDate, r.AssignedTo)
}

// UpdateTargetRequest is the request body for updating a sales target.
type UpdateTargetRequest struct {
	Period       *targets.Period `json:"period"`
	TargetAmount *types.Money    `json:"targetAmount"`
	StartDate    *time.Time      `json:"startDate"`
	EndDate      *time.Time      `json:"endDate"`
	AssignedTo   *string         `json:"assignedTo"`
	IsActive     *bool           `json:"isActive"`
	Version      int             `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateTargetRequest) ApplyTo(t *targets.SalesTarget) {
	if r.Period != nil {
		t.Period = *r.Period
	}
	if r.TargetAmount != nil {
		t.TargetAmount = *r.TargetAmount
	}
	if r.StartDate != nil {
		t.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		t.EndDate = *r.EndDate
	}
	if r.AssignedTo != nil {
		t.AssignedTo = *r.AssignedTo
	}
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
	t.Version = r.Version
}
