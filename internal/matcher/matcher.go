// Package matcher filters a member's benefit catalog down to the benefits
// that apply to one candidate provider, and binds each surviving benefit to
// the member accumulators it references.
package matcher

import (
	"go.uber.org/zap"

	"github.com/DuckDHD/costshare/internal/domain"
	"github.com/DuckDHD/costshare/internal/logging"
)

// Match runs the three filter predicates (network, tier, designation
// parity) against every benefit, then binds accumulators to each survivor.
// Order of predicate application is immaterial; all three must pass.
func Match(benefits []domain.Benefit, bundle domain.AccumulatorBundle, provider domain.Provider, outOfNetwork bool, pcpSpecialtySet map[string]bool) []domain.SelectedBenefit {
	selected := make([]domain.SelectedBenefit, 0, len(benefits))
	providerDesignation := provider.PCPDesignation(pcpSpecialtySet)

	for _, b := range benefits {
		if !networkParity(b, outOfNetwork) {
			continue
		}
		if !tierParity(b, provider) {
			if provider.Tier == "" && b.Tier != "" {
				if logger := logging.MatcherLogger(); logger != nil {
					logger.Warn("dropping tiered benefit for untiered provider",
						logging.WithEntityID("provider", provider.ID),
						zap.String("benefit_tier", b.Tier),
					)
				}
			}
			continue
		}
		if !designationParity(b, providerDesignation) {
			continue
		}
		selected = append(selected, domain.SelectedBenefit{
			Benefit:             b,
			MatchedAccumulators: bindAccumulators(b, bundle),
		})
	}
	return selected
}

// networkParity requires an in-network provider to pass only in-network
// benefits, and vice versa.
func networkParity(b domain.Benefit, outOfNetwork bool) bool {
	benefitInNetwork := b.NetworkCategory == domain.NetworkCategoryInNetwork
	return benefitInNetwork == !outOfNetwork
}

// tierParity drops a benefit outright if the provider has no tier but the
// benefit specifies one; otherwise requires exact string equality.
func tierParity(b domain.Benefit, provider domain.Provider) bool {
	if provider.Tier == "" && b.Tier != "" {
		return false
	}
	return b.Tier == provider.Tier
}

// designationParity survives iff the provider has no PCP designation, or
// both the provider and the benefit have one and they match.
func designationParity(b domain.Benefit, providerDesignation string) bool {
	if providerDesignation == "" {
		return true
	}
	if b.ServiceProviderDesignation == "" {
		return false
	}
	return b.ServiceProviderDesignation == providerDesignation
}

// bindAccumulators finds, for each of the benefit's relatedAccumulator
// references, the first member accumulator matching all five identifying
// fields. Each reference binds at most one accumulator; a benefit with no
// matches is kept and the engine runs with defaulted (null) accumulators.
func bindAccumulators(b domain.Benefit, bundle domain.AccumulatorBundle) []domain.Accumulator {
	matched := make([]domain.Accumulator, 0, len(b.RelatedAccumulators))
	for _, ref := range b.RelatedAccumulators {
		code := ref.Code
		if code == "" {
			code = string(domain.AccumulatorCodeLimit)
		}
		for _, a := range bundle.Accumulators {
			if string(a.Code) != code {
				continue
			}
			if string(a.Level) != ref.Level {
				continue
			}
			if a.NetworkIndicatorCode != ref.NetworkIndicatorCode {
				continue
			}
			if !(a.AccumExCode == ref.AccumExCode || (ref.AccumExCode == "" && a.AccumExCode == "")) {
				continue
			}
			if a.DeductibleCode != ref.DeductibleCode {
				continue
			}
			matched = append(matched, a)
			break
		}
	}
	return matched
}
