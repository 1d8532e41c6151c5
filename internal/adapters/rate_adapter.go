package adapters

import (
	"context"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/cache"
	"github.com/DuckDHD/costshare/internal/domain"
)

type rateWire struct {
	Amount            string `json:"amount"`
	RateType          string `json:"rateType"`
	PaymentMethodCode string `json:"paymentMethodCode"`
	Found             bool   `json:"found"`
}

// RateClient implements services.RateAdapter over HTTP. The Spanner-backed
// hierarchy lookup (claim-based -> provider-specific -> contract-standard
// -> default) is enforced server-side; this client is a thin transport
// shim, per spec.md §1's explicit scoping of SQL/row-mapping as out of
// scope. It forwards the cached payment-method preference ordering as a
// query hint so the server-side lookup can short-circuit to the caller's
// preferred tier first.
type RateClient struct {
	client    *resilientClient
	hierarchy func() []string
}

// NewRateClient builds a RateClient against baseURL. The Rate source does
// not share the Benefit/Accumulator bearer per spec.md §4.3 (only Benefit
// and Accumulator adapters are named as consulting the cached bearer), so
// bearer is nil here unless the deployment's Rate source also requires it.
// hierarchy, if non-nil, supplies the cached payment-method ordering
// (spec.md §3.3); pass nil to omit the query hint entirely.
func NewRateClient(baseURL string, bearer *cache.BearerCache, timeout time.Duration, hierarchy func() []string) *RateClient {
	return &RateClient{client: newResilientClient("rate", baseURL, bearer, timeout), hierarchy: hierarchy}
}

// SetHierarchyFunc wires the payment-method hierarchy source after
// construction, breaking the construction-order cycle between RateClient
// (which forwards the hierarchy as a query hint) and the cache's loader
// (which itself calls through this same client to fetch the hierarchy).
func (c *RateClient) SetHierarchyFunc(hierarchy func() []string) {
	c.hierarchy = hierarchy
}

// GetRate fetches the negotiated rate for one provider/service
// combination. A missing rate is an in-band Found=false condition, not an
// error (spec.md §6.3).
func (c *RateClient) GetRate(ctx context.Context, criteria domain.RateCriteria) (domain.NegotiatedRate, error) {
	values := url.Values{
		"providerId":  {criteria.ProviderID},
		"serviceCode": {criteria.ServiceCode},
		"networkId":   {criteria.NetworkID},
		"zip":         {criteria.Zip},
	}
	if c.hierarchy != nil {
		if order := c.hierarchy(); len(order) > 0 {
			values["paymentMethodPreference"] = order
		}
	}
	path := "/rates?" + values.Encode()

	var wire rateWire
	if err := c.client.doJSON(ctx, "GET", path, nil, &wire); err != nil {
		if ee, ok := err.(*domain.EstimateError); ok && ee.Kind == domain.KindBenefitsNotFound {
			return domain.NegotiatedRate{Found: false}, nil
		}
		return domain.NegotiatedRate{}, err
	}

	amount, _ := decimal.NewFromString(wire.Amount)
	return domain.NegotiatedRate{
		Amount:            amount,
		RateType:          domain.RateType(wire.RateType),
		PaymentMethodCode: wire.PaymentMethodCode,
		Found:             wire.Found,
	}, nil
}
