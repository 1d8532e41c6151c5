package domain

import "github.com/shopspring/decimal"

// TraceEntry is one append-only step in a Record's decision trace, recording
// which node ran, what it decided, and the value it settled (if any).
type TraceEntry struct {
	Node     string
	Decision string
	Value    decimal.Decimal
}

// AccumKind names one of the accumulator kinds a benefit may carry in
// accum_code. Stored lowercased, matching the source's set semantics.
type AccumKind string

const (
	AccumKindOOPMax      AccumKind = "oopmax"
	AccumKindDeductible  AccumKind = "deductible"
	AccumKindLimit       AccumKind = "limit"
)

// AccumLevel names one of the accumulator levels a benefit may carry in
// accum_level.
type AccumLevel string

const (
	AccumLevelOOPMaxFamily          AccumLevel = "oopmax_family"
	AccumLevelOOPMaxIndividual      AccumLevel = "oopmax_individual"
	AccumLevelDeductibleIndividual  AccumLevel = "deductible_individual"
	AccumLevelDeductibleFamily      AccumLevel = "deductible_family"
)

// LimitType is the kind of cap a "limit" accumulator enforces.
type LimitType string

const (
	LimitTypeNone    LimitType = ""
	LimitTypeDollar  LimitType = "dollar"
	LimitTypeCounter LimitType = "counter"
)

// Record is the mutable per-benefit calculation state a single engine run
// carries through the node graph. One Record is constructed per candidate
// benefit per provider per request; it is never shared across goroutines.
type Record struct {
	// ServiceAmount is the remaining service dollars not yet assigned to
	// any party. Starts at the negotiated (effective) rate.
	ServiceAmount decimal.Decimal
	// MemberPays is the running total the member owes. Monotonically
	// non-decreasing except for the N11 OOPM-met re-anchor (§3.1.3).
	MemberPays decimal.Decimal

	AmountCopay       decimal.Decimal
	AmountCoinsurance decimal.Decimal

	// CostShareCopay is the remaining copay obligation under this benefit.
	CostShareCopay decimal.Decimal
	// CostShareCoinsurance is the coinsurance percentage, integer in 0..100.
	CostShareCoinsurance int

	IsServiceCovered        bool
	IsDeductibleBeforeCopay bool

	CopayAppliesOOP      bool
	CoinsAppliesOOP      bool
	DeductibleAppliesOOP bool

	CopayCountToDeductible bool

	CopayContinueWhenDeductibleMet bool
	CopayContinueWhenOOPMet        bool

	// Deductible*Calculated is remaining deductible dollars; nil means the
	// benefit has no deductible accumulator at that level.
	DeductibleIndividualCalculated *decimal.Decimal
	DeductibleFamilyCalculated     *decimal.Decimal

	// OOPMax*Calculated is remaining OOPM dollars; nil means not applicable.
	OOPMaxIndividualCalculated *decimal.Decimal
	OOPMaxFamilyCalculated     *decimal.Decimal

	LimitType LimitType
	// LimitCalculated is remaining dollars (dollar limit) or remaining
	// count (counter limit); nil means no limit accumulator.
	LimitCalculated *decimal.Decimal

	// AccumCode is the lowercased set of accumulator kinds present and
	// meaningful for this benefit.
	AccumCode map[AccumKind]bool
	// AccumLevel is the lowercased set of accumulator levels present.
	AccumLevel map[AccumLevel]bool

	// IndividualsMet/IndividualsNeeded model embedded-deductible progress;
	// nil when the benefit has no embedded-deductible rule.
	IndividualsMet    *int
	IndividualsNeeded *int

	// CalculationComplete is the terminal sentinel. Once true, no further
	// node may mutate arithmetic fields.
	CalculationComplete bool

	Trace []TraceEntry
}

// NewRecord builds a zero-valued Record with all money fields at Decimal
// zero and empty accumulator sets, ready for a caller to populate from a
// matched benefit before handing it to the engine.
func NewRecord() *Record {
	return &Record{
		ServiceAmount:        decimal.Zero,
		MemberPays:           decimal.Zero,
		AmountCopay:          decimal.Zero,
		AmountCoinsurance:    decimal.Zero,
		CostShareCopay:       decimal.Zero,
		CostShareCoinsurance: 0,
		AccumCode:            make(map[AccumKind]bool),
		AccumLevel:           make(map[AccumLevel]bool),
		Trace:                nil,
	}
}

// HasAccumKind reports whether the named accumulator kind is present in
// accum_code.
func (r *Record) HasAccumKind(k AccumKind) bool {
	return r.AccumCode[k]
}

// HasAccumLevel reports whether the named accumulator level is present in
// accum_level.
func (r *Record) HasAccumLevel(l AccumLevel) bool {
	return r.AccumLevel[l]
}

// Trail appends one trace entry. Every node calls this, terminal or not.
func (r *Record) Trail(node, decision string, value decimal.Decimal) {
	r.Trace = append(r.Trace, TraceEntry{Node: node, Decision: decision, Value: value})
}

// Complete marks the record terminal. Per invariant 4 (§3.1), every later
// node must treat the record as a no-op once this is true.
func (r *Record) Complete() {
	r.CalculationComplete = true
}

// ClampNonNegative returns d if it is >= 0, else Zero. Invariant 2 requires
// every subtraction to clamp at construction time, never after the fact.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Settle moves amount from ServiceAmount to MemberPays, clamping both to
// non-negative per invariant 2. It does not touch accumulators; callers
// decrement those separately per the node's own contract.
func (r *Record) Settle(amount decimal.Decimal) {
	r.MemberPays = r.MemberPays.Add(amount)
	r.ServiceAmount = ClampNonNegative(r.ServiceAmount.Sub(amount))
}

// DecrementDeductibles lowers both deductible levels by amount, clamping
// each at zero, and is a no-op for a nil (not-applicable) level.
func (r *Record) DecrementDeductibles(amount decimal.Decimal) {
	if r.DeductibleIndividualCalculated != nil {
		v := ClampNonNegative(r.DeductibleIndividualCalculated.Sub(amount))
		r.DeductibleIndividualCalculated = &v
	}
	if r.DeductibleFamilyCalculated != nil {
		v := ClampNonNegative(r.DeductibleFamilyCalculated.Sub(amount))
		r.DeductibleFamilyCalculated = &v
	}
}

// DecrementOOPMax lowers both OOPM levels by amount, clamping each at zero,
// and is a no-op for a nil (not-applicable) level.
func (r *Record) DecrementOOPMax(amount decimal.Decimal) {
	if r.OOPMaxIndividualCalculated != nil {
		v := ClampNonNegative(r.OOPMaxIndividualCalculated.Sub(amount))
		r.OOPMaxIndividualCalculated = &v
	}
	if r.OOPMaxFamilyCalculated != nil {
		v := ClampNonNegative(r.OOPMaxFamilyCalculated.Sub(amount))
		r.OOPMaxFamilyCalculated = &v
	}
}

// MinApplicableOOPMax returns the lesser of the two OOPM levels that are
// actually applicable (non-nil). ok is false when neither applies.
func (r *Record) MinApplicableOOPMax() (min decimal.Decimal, ok bool) {
	switch {
	case r.OOPMaxIndividualCalculated != nil && r.OOPMaxFamilyCalculated != nil:
		if r.OOPMaxIndividualCalculated.LessThan(*r.OOPMaxFamilyCalculated) {
			return *r.OOPMaxIndividualCalculated, true
		}
		return *r.OOPMaxFamilyCalculated, true
	case r.OOPMaxIndividualCalculated != nil:
		return *r.OOPMaxIndividualCalculated, true
	case r.OOPMaxFamilyCalculated != nil:
		return *r.OOPMaxFamilyCalculated, true
	default:
		return decimal.Zero, false
	}
}

// MaxApplicableOOPMax returns the greater of the two OOPM levels that are
// actually applicable (non-nil). ok is false when neither applies.
func (r *Record) MaxApplicableOOPMax() (max decimal.Decimal, ok bool) {
	switch {
	case r.OOPMaxIndividualCalculated != nil && r.OOPMaxFamilyCalculated != nil:
		if r.OOPMaxIndividualCalculated.GreaterThan(*r.OOPMaxFamilyCalculated) {
			return *r.OOPMaxIndividualCalculated, true
		}
		return *r.OOPMaxFamilyCalculated, true
	case r.OOPMaxIndividualCalculated != nil:
		return *r.OOPMaxIndividualCalculated, true
	case r.OOPMaxFamilyCalculated != nil:
		return *r.OOPMaxFamilyCalculated, true
	default:
		return decimal.Zero, false
	}
}

// AnyApplicableOOPMaxExhausted reports whether a non-nil OOPM level is at
// zero — the "OOPM already met" condition nodes N3/N8 branch on.
func (r *Record) AnyApplicableOOPMaxExhausted() bool {
	if r.OOPMaxFamilyCalculated != nil && r.OOPMaxFamilyCalculated.IsZero() {
		return true
	}
	if r.OOPMaxIndividualCalculated != nil && r.OOPMaxIndividualCalculated.IsZero() {
		return true
	}
	return false
}
