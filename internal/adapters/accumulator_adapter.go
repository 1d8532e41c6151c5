package adapters

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/cache"
	"github.com/DuckDHD/costshare/internal/domain"
)

type accumulatorWire struct {
	Code                 string `json:"code"`
	Level                string `json:"level"`
	DeductibleCode       string `json:"deductibleCode"`
	AccumExCode          string `json:"accumExCode"`
	NetworkIndicatorCode string `json:"networkIndicatorCode"`
	LimitValue           string `json:"limitValue"`
	CurrentValue         string `json:"currentValue"`
}

// AccumulatorClient implements services.AccumulatorAdapter over HTTP.
type AccumulatorClient struct {
	client *resilientClient
}

// NewAccumulatorClient builds an AccumulatorClient against baseURL.
func NewAccumulatorClient(baseURL string, bearer *cache.BearerCache, timeout time.Duration) *AccumulatorClient {
	return &AccumulatorClient{client: newResilientClient("accumulator", baseURL, bearer, timeout)}
}

// GetAccumulators fetches the full accumulator bundle for a member. A
// membership id the source can't locate (doJSON's 404 handling) is
// returned as a KindMemberNotFound error, which fails the whole request per
// spec.md §4.3's failure-isolation exception.
func (c *AccumulatorClient) GetAccumulators(ctx context.Context, membershipID string) (domain.AccumulatorBundle, error) {
	var wire []accumulatorWire
	if err := c.client.doJSON(ctx, "GET", "/members/"+membershipID+"/accumulators", nil, &wire); err != nil {
		if ee, ok := err.(*domain.EstimateError); ok && ee.Kind == domain.KindBenefitsNotFound {
			return domain.AccumulatorBundle{}, domain.NewSourceError(domain.KindMemberNotFound, ee.Source, ee.Err)
		}
		return domain.AccumulatorBundle{}, err
	}

	accumulators := make([]domain.Accumulator, 0, len(wire))
	for _, w := range wire {
		limit, _ := decimal.NewFromString(w.LimitValue)
		current, _ := decimal.NewFromString(w.CurrentValue)
		acc := domain.NewAccumulator(domain.AccumulatorCode(w.Code), domain.AccumulatorLevel(w.Level), limit, current)
		acc.DeductibleCode = w.DeductibleCode
		acc.AccumExCode = w.AccumExCode
		acc.NetworkIndicatorCode = w.NetworkIndicatorCode
		accumulators = append(accumulators, acc)
	}

	return domain.AccumulatorBundle{MembershipID: membershipID, Accumulators: accumulators}, nil
}
