package domain

import "github.com/shopspring/decimal"

// RateType distinguishes a flat negotiated amount from a percentage of
// billed charges.
type RateType string

const (
	RateTypeAmount     RateType = "Amount"
	RateTypePercentage RateType = "Percentage"
)

// NegotiatedRate is the plan-negotiated rate for one provider/service
// combination, as returned by the Rate source. A missing rate is an
// in-band condition (Found = false), not an error.
type NegotiatedRate struct {
	Amount            decimal.Decimal
	RateType          RateType
	PaymentMethodCode string
	Found             bool
}

// EffectiveAmount resolves the rate against a billed charge: for
// RateTypePercentage the effective service amount is billed * amount/100,
// otherwise it is the flat amount.
func (r NegotiatedRate) EffectiveAmount(billed decimal.Decimal) decimal.Decimal {
	if r.RateType == RateTypePercentage {
		return billed.Mul(r.Amount).Div(decimal.NewFromInt(100))
	}
	return r.Amount
}

// RateCriteria identifies the provider/service combination a Rate source
// query resolves against the claim-based -> provider-specific ->
// contract-standard -> default hierarchy (enforced by the adapter, out of
// scope here).
type RateCriteria struct {
	ProviderID    string
	ServiceCode   string
	NetworkID     string
	Zip           string
}
