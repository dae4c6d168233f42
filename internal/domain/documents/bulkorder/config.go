package bulkorder

import "everpack/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for bulk orders.
	// Orders are internal staging documents, so we use Cached strategy;
	// gaps after a restart are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
