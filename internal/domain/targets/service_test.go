package targets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everpack/internal/core/apperror"
	"everpack/internal/core/id"
	"everpack/internal/core/types"
	"everpack/internal/domain"
)

type repoMock struct {
	targets map[id.ID]*SalesTarget
}

func newRepoMock() *repoMock {
	return &repoMock{targets: make(map[id.ID]*SalesTarget)}
}

func (m *repoMock) Create(ctx context.Context, t *SalesTarget) error {
	cp := *t
	m.targets[t.ID] = &cp
	return nil
}

func (m *repoMock) GetByID(ctx context.Context, targetID id.ID) (*SalesTarget, error) {
	t, ok := m.targets[targetID]
	if !ok {
		return nil, apperror.NewNotFound("sales target", targetID.String())
	}
	cp := *t
	return &cp, nil
}

func (m *repoMock) Update(ctx context.Context, t *SalesTarget) error {
	if _, ok := m.targets[t.ID]; !ok {
		return apperror.NewNotFound("sales target", t.ID.String())
	}
	cp := *t
	m.targets[t.ID] = &cp
	return nil
}

func (m *repoMock) Delete(ctx context.Context, targetID id.ID) error {
	delete(m.targets, targetID)
	return nil
}

func (m *repoMock) List(ctx context.Context, filter Filter) (domain.ListResult[*SalesTarget], error) {
	result := domain.ListResult[*SalesTarget]{Limit: filter.Limit, Offset: filter.Offset}
	for _, t := range m.targets {
		if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		cp := *t
		result.Items = append(result.Items, &cp)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

// salesMock returns a fixed paid-sales sum per user.
type salesMock struct {
	paidByUser map[string]types.Money
}

func (m *salesMock) SumPaidSales(ctx context.Context, createdBy string, from, to time.Time) (types.Money, error) {
	if total, ok := m.paidByUser[createdBy]; ok {
		return total, nil
	}
	return types.Zero(), nil
}

func monthTarget(amount string, assignedTo string) *SalesTarget {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	return New(PeriodMonthly, types.MustMoney(amount), start, end, assignedTo)
}

func TestSalesTarget_Validate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(st *SalesTarget)
		wantErr string
	}{
		{"valid", func(st *SalesTarget) {}, ""},
		{"zero amount allowed", func(st *SalesTarget) { st.TargetAmount = types.Zero() }, ""},
		{"invalid period", func(st *SalesTarget) { st.Period = "HOURLY" }, "invalid period"},
		{"negative amount", func(st *SalesTarget) { st.TargetAmount = types.MustMoney("-1") }, "target amount cannot be negative"},
		{"missing dates", func(st *SalesTarget) { st.StartDate = time.Time{} }, "start and end dates are required"},
		{"end before start", func(st *SalesTarget) { st.EndDate = st.StartDate.AddDate(0, 0, -1) }, "end date cannot precede start date"},
		{"missing assignee", func(st *SalesTarget) { st.AssignedTo = "" }, "assigned user is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := monthTarget("5000", "user-7")
			tt.mutate(st)

			err := st.Validate(ctx)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetProgress(t *testing.T) {
	repo := newRepoMock()
	svc := NewService(repo, &salesMock{paidByUser: map[string]types.Money{
		"user-7": types.MustMoney("2500"),
	}})
	ctx := context.Background()

	st := monthTarget("5000", "user-7")
	require.NoError(t, svc.Create(ctx, st))

	progress, err := svc.GetProgress(ctx, st.ID)
	require.NoError(t, err)

	assert.True(t, progress.Progress.Achieved.Equal(types.MustMoney("2500")))
	assert.True(t, progress.Progress.Percentage.Equal(types.MustMoney("50")))
}

func TestGetProgress_ZeroTarget(t *testing.T) {
	repo := newRepoMock()
	svc := NewService(repo, &salesMock{paidByUser: map[string]types.Money{
		"user-7": types.MustMoney("1000"),
	}})
	ctx := context.Background()

	st := monthTarget("0", "user-7")
	require.NoError(t, svc.Create(ctx, st))

	progress, err := svc.GetProgress(ctx, st.ID)
	require.NoError(t, err)

	// A zero target reports zero achievement percentage, not an error.
	assert.True(t, progress.Progress.Achieved.Equal(types.MustMoney("1000")))
	assert.True(t, progress.Progress.Percentage.IsZero())
}

func TestGetProgress_NoSales(t *testing.T) {
	repo := newRepoMock()
	svc := NewService(repo, &salesMock{})
	ctx := context.Background()

	st := monthTarget("5000", "user-9")
	require.NoError(t, svc.Create(ctx, st))

	progress, err := svc.GetProgress(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, progress.Progress.Achieved.IsZero())
	assert.True(t, progress.Progress.Percentage.IsZero())
}

func TestListWithProgress(t *testing.T) {
	repo := newRepoMock()
	svc := NewService(repo, &salesMock{paidByUser: map[string]types.Money{
		"user-7": types.MustMoney("6000"),
		"user-9": types.MustMoney("300"),
	}})
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, monthTarget("5000", "user-7")))
	require.NoError(t, svc.Create(ctx, monthTarget("1000", "user-9")))

	out, err := svc.ListWithProgress(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	byUser := make(map[string]TargetProgress, len(out))
	for _, tp := range out {
		byUser[tp.Target.AssignedTo] = tp
	}

	// Over-achievement reads above 100 percent.
	assert.True(t, byUser["user-7"].Progress.Percentage.Equal(types.MustMoney("120")))
	assert.True(t, byUser["user-9"].Progress.Percentage.Equal(types.MustMoney("30")))
}

func TestCreate_Invalid(t *testing.T) {
	svc := NewService(newRepoMock(), &salesMock{})

	st := monthTarget("5000", "user-7")
	st.Period = "SOMETIMES"

	err := svc.Create(context.Background(), st)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
