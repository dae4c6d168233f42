// Package targets provides sales targets and their achievement tracking.
package targets

import (
	"context"
	"time"

	"everpack/internal/core/apperror"
	"everpack/internal/core/entity"
	"everpack/internal/core/types"
)

// Period is the time span a target covers.
type Period string

const (
	PeriodDaily     Period = "DAILY"
	PeriodWeekly    Period = "WEEKLY"
	PeriodMonthly   Period = "MONTHLY"
	PeriodQuarterly Period = "QUARTERLY"
	PeriodYearly    Period = "YEARLY"
)

// ValidPeriod reports whether p is a known period.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// SalesTarget sets a revenue goal for one sales rep over a date range.
// Achievement is computed from PAID sales, never stored.
type SalesTarget struct {
	entity.BaseDocument

	// Period labels the target span (the dates define the actual range)
	Period Period `db:"period" json:"period"`

	// TargetAmount is the revenue goal
	TargetAmount types.Money `db:"target_amount" json:"targetAmount"`

	// StartDate and EndDate bound the sales that count (inclusive)
	StartDate time.Time `db:"start_date" json:"startDate"`
	EndDate   time.Time `db:"end_date" json:"endDate"`

	// AssignedTo is the user whose sales count toward the target
	AssignedTo string `db:"assigned_to" json:"assignedTo"`

	// IsActive controls whether the target shows on dashboards
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates an active target.
func New(period Period, amount types.Money, start, end time.Time, assignedTo string) *SalesTarget {
	return &SalesTarget{
		BaseDocument: entity.NewBaseDocument(),
		Period:       period,
		TargetAmount: amount,
		StartDate:    start,
		EndDate:      end,
		AssignedTo:   assignedTo,
		IsActive:     true,
	}
}

// Progress is the computed achievement for a target.
type Progress struct {
	// Achieved is the summed total of PAID sales in range
	Achieved types.Money `json:"achieved"`

	// Percentage = achieved / target * 100; zero when the target is zero
	Percentage types.Money `json:"percentage"`
}

// ProgressFor computes achievement against the target amount.
func (t *SalesTarget) ProgressFor(achieved types.Money) Progress {
	return Progress{
		Achieved:   achieved,
		Percentage: types.Percentage(achieved, t.TargetAmount),
	}
}

// Validate implements entity.Validatable.
func (t *SalesTarget) Validate(ctx context.Context) error {
	if !ValidPeriod(t.Period) {
		return apperror.NewValidation("invalid period").
			WithDetail("field", "period").
			WithDetail("value", string(t.Period))
	}

	if t.TargetAmount.IsNegative() {
		return apperror.NewValidation("target amount cannot be negative").
			WithDetail("field", "targetAmount")
	}

	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return apperror.NewValidation("start and end dates are required").
			WithDetail("field", "startDate")
	}

	if t.EndDate.Before(t.StartDate) {
		return apperror.NewValidation("end date cannot precede start date").
			WithDetail("startDate", t.StartDate.Format("2006-01-02")).
			WithDetail("endDate", t.EndDate.Format("2006-01-02"))
	}

	if t.AssignedTo == "" {
		return apperror.NewValidation("assigned user is required").
			WithDetail("field", "assignedTo")
	}

	return nil
}
