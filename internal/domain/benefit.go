package domain

import "github.com/shopspring/decimal"

// NetworkCategory is a benefit's network designation, checked against a
// provider's in/out-of-network status by the Matcher's network-parity rule.
type NetworkCategory string

const (
	NetworkCategoryInNetwork    NetworkCategory = "InNetwork"
	NetworkCategoryOutOfNetwork NetworkCategory = "OutOfNetwork"
)

// RelatedAccumulatorRef is a benefit's reference to the member accumulator
// it must consult, resolved by the Matcher against the member's
// AccumulatorBundle.
type RelatedAccumulatorRef struct {
	Code                 string
	Level                string
	DeductibleCode       string
	AccumExCode          string
	NetworkIndicatorCode string
}

// Benefit is a candidate coverage rule as returned by the Benefit source,
// keyed by (NetworkCategory, Tier, ProviderDesignation).
type Benefit struct {
	NetworkCategory     NetworkCategory
	Tier                string
	ProviderDesignation string

	IsServiceCovered        bool
	IsDeductibleBeforeCopay bool

	CostShareCopay       decimal.Decimal
	CostShareCoinsurance int

	CopayAppliesOOP      bool
	CoinsAppliesOOP      bool
	DeductibleAppliesOOP bool

	CopayCountToDeductible          bool
	CopayContinueWhenDeductibleMet  bool
	CopayContinueWhenOOPMet         bool

	LimitType LimitType

	AccumCode  []AccumKind
	AccumLevel []AccumLevel

	IndividualsMet    *int
	IndividualsNeeded *int

	RelatedAccumulators []RelatedAccumulatorRef

	// ServiceProviderDesignation is the benefit's own
	// serviceProvider.providerDesignation field, consulted by the Matcher's
	// designation-parity rule independently of ProviderDesignation above
	// (which is the catalog key, not the parity-check field).
	ServiceProviderDesignation string
}

// AccumulatorCode names the accumulator kind a member-side Accumulator
// tracks, e.g. Deductible, OOP Max, Limit.
type AccumulatorCode string

const (
	AccumulatorCodeDeductible AccumulatorCode = "Deductible"
	AccumulatorCodeOOPMax     AccumulatorCode = "OOP Max"
	AccumulatorCodeLimit      AccumulatorCode = "Limit"
)

// AccumulatorLevel is the scope an Accumulator applies at.
type AccumulatorLevel string

const (
	AccumulatorLevelIndividual AccumulatorLevel = "Individual"
	AccumulatorLevelFamily     AccumulatorLevel = "Family"
)

// Accumulator is a member-side running total, identified by the same five
// fields a RelatedAccumulatorRef names, plus its limit/current/calculated
// values.
type Accumulator struct {
	Code                 AccumulatorCode
	Level                AccumulatorLevel
	DeductibleCode       string
	AccumExCode          string
	NetworkIndicatorCode string

	LimitValue   decimal.Decimal
	CurrentValue decimal.Decimal
	// CalculatedValue is LimitValue - CurrentValue, clamped at 0.
	CalculatedValue decimal.Decimal
}

// NewAccumulator computes CalculatedValue from LimitValue/CurrentValue,
// clamping at zero per the record-invariant ban on negative state.
func NewAccumulator(code AccumulatorCode, level AccumulatorLevel, limit, current decimal.Decimal) Accumulator {
	calc := limit.Sub(current)
	if calc.IsNegative() {
		calc = decimal.Zero
	}
	return Accumulator{
		Code:            code,
		Level:           level,
		LimitValue:      limit,
		CurrentValue:    current,
		CalculatedValue: calc,
	}
}

// Provider identifies a candidate service location the estimate runs
// against.
type Provider struct {
	ID              string
	SpecialtyCode   string
	Tier            string
	NetworkID       string
	ServiceLocation string
	OutOfNetwork    bool
}

// PCPDesignation returns "PCP" when the provider's specialty code is in the
// supplied cached PCP specialty set, else "".
func (p Provider) PCPDesignation(pcpSpecialtySet map[string]bool) string {
	if pcpSpecialtySet[p.SpecialtyCode] {
		return "PCP"
	}
	return ""
}

// AccumulatorBundle is the full set of a member's accumulators as returned
// by the Accumulator source.
type AccumulatorBundle struct {
	MembershipID string
	Accumulators []Accumulator
}

// SelectedBenefit is a benefit that survived the Matcher's filters, bound
// to the member accumulators it references.
type SelectedBenefit struct {
	Benefit            Benefit
	MatchedAccumulators []Accumulator
}
