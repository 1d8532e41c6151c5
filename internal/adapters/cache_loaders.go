package adapters

import (
	"context"
	"time"

	"github.com/DuckDHD/costshare/internal/cache"
)

// NewPCPSpecialtySetLoader builds a cache.PCPSpecialtySetLoader that fetches
// the PCP specialty set from the Benefit source, per spec.md §3.2's "PCP
// designation is derived... specialty code ∈ the cached PCP specialty set".
func NewPCPSpecialtySetLoader(benefitClient *BenefitClient, timeout time.Duration) cache.PCPSpecialtySetLoader {
	return func(ctx context.Context) (map[string]bool, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var codes []string
		if err := benefitClient.client.doJSON(ctx, "GET", "/pcp-specialties", nil, &codes); err != nil {
			return nil, err
		}

		set := make(map[string]bool, len(codes))
		for _, code := range codes {
			set[code] = true
		}
		return set, nil
	}
}

// NewPaymentMethodHierarchyLoader builds a cache.PaymentMethodHierarchyLoader
// that fetches the payment-method preference ordering from the Rate source,
// per spec.md §3.3's claim-based -> provider-specific -> contract-standard
// -> default hierarchy.
func NewPaymentMethodHierarchyLoader(rateClient *RateClient, timeout time.Duration) cache.PaymentMethodHierarchyLoader {
	return func(ctx context.Context) ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var hierarchy []string
		if err := rateClient.client.doJSON(ctx, "GET", "/payment-method-hierarchy", nil, &hierarchy); err != nil {
			return nil, err
		}
		return hierarchy, nil
	}
}
