package sale

import "everpack/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for invoices.
	// Invoices are accounting documents, so we use Strict strategy.
	NumeratorStrategy = numerator.StrategyStrict
)
