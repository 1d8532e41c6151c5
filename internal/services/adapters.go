package services

import (
	"context"

	"github.com/DuckDHD/costshare/internal/domain"
)

// BenefitAdapter is the contract the Orchestrator consumes to fetch a
// member's benefit catalog. Implemented by an HTTP client in
// internal/adapters; declared here, where it is consumed, per this
// codebase's convention of consumer-defined interfaces.
type BenefitAdapter interface {
	GetBenefits(ctx context.Context, query domain.BenefitQuery) ([]domain.Benefit, error)
}

// AccumulatorAdapter is the contract the Orchestrator consumes to fetch a
// member's accumulator bundle.
type AccumulatorAdapter interface {
	GetAccumulators(ctx context.Context, membershipID string) (domain.AccumulatorBundle, error)
}

// RateAdapter is the contract the Orchestrator consumes to fetch the
// negotiated rate for one provider/service combination.
type RateAdapter interface {
	GetRate(ctx context.Context, criteria domain.RateCriteria) (domain.NegotiatedRate, error)
}

// PCPSpecialtySetProvider exposes the process-wide cached PCP specialty
// set the Matcher consults to derive a provider's PCP designation.
type PCPSpecialtySetProvider interface {
	PCPSpecialtySet() map[string]bool
}
