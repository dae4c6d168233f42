package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	corenumerator "everpack/internal/core/numerator"
)

func TestFormatNumber(t *testing.T) {
	svc := New(nil)
	period := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{"invoice first", corenumerator.InvoiceConfig(), 1, "INV-000001"},
		{"invoice large", corenumerator.InvoiceConfig(), 123456, "INV-123456"},
		{"bulk order", corenumerator.BulkOrderConfig(), 7, "BULK-000007"},
		{"default pad width", corenumerator.Config{Prefix: "X"}, 3, "X-000003"},
		{
			"year included",
			corenumerator.Config{Prefix: "DOC", PadWidth: 4, IncludeYear: true},
			42,
			"DOC-2026-0042",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.formatNumber(tt.cfg, period, tt.num))
		})
	}
}

func TestBuildKey(t *testing.T) {
	svc := New(nil)
	period := time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)

	// Invoice and bulk order counters never reset, so the key is the bare
	// prefix regardless of period.
	assert.Equal(t, "INV", svc.buildKey(corenumerator.InvoiceConfig(), period))
	assert.Equal(t, "BULK", svc.buildKey(corenumerator.BulkOrderConfig(), period))

	assert.Equal(t, "DOC_2026",
		svc.buildKey(corenumerator.Config{Prefix: "DOC", ResetPeriod: "year"}, period))
	assert.Equal(t, "DOC_2026_08",
		svc.buildKey(corenumerator.Config{Prefix: "DOC", ResetPeriod: "month"}, period))
}
