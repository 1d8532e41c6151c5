// Package engine implements the deterministic insurance cost-share
// calculation engine: eleven decision nodes wired into a fixed, cycle-free
// directed graph that each consume and hand off a *domain.Record.
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/domain"
)

// node is the shape every decision node satisfies: it may read and mutate
// the record, and either terminates it or hands off to exactly one
// successor by returning that successor's result.
type node func(*domain.Record) (*domain.Record, error)

// n1Coverage is N1: an uncovered service settles the full remaining amount
// to the member and terminates; a covered service proceeds to N2.
func n1Coverage(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if !r.IsServiceCovered {
		r.Trail("N1", "not_covered", r.ServiceAmount)
		r.Settle(r.ServiceAmount)
		r.Complete()
		return r, nil
	}
	r.Trail("N1", "covered", decimal.Zero)
	return n2Limit(r)
}

// n2Limit is N2: a visit/dollar limit, when present, is enforced before any
// other cost-share rule runs.
func n2Limit(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if !r.HasAccumKind(domain.AccumKindLimit) {
		return n3OOPMGate(r)
	}
	if r.LimitCalculated == nil || r.LimitCalculated.IsZero() {
		r.Trail("N2", "limit_exhausted", r.ServiceAmount)
		r.Settle(r.ServiceAmount)
		r.Complete()
		return r, nil
	}
	switch r.LimitType {
	case domain.LimitTypeDollar:
		// N3's pathway is only invoked for its OOPM-already-met branch (N4's
		// continuing copay): if OOPM is exhausted, that copay is still owed
		// before the limit's own settlement runs. N3's not-met branch instead
		// forwards into the full N5..N11 deductible/copay/coinsurance chain;
		// running that here would double-charge the member, once via that
		// chain's normal cost-share and again via the dollar-limit excess
		// below, so it is deliberately not invoked from N2.
		if r.HasAccumKind(domain.AccumKindOOPMax) && oopmAlreadyMet(r) {
			rr, err := n4OOPMCopay(r)
			if err != nil {
				return rr, err
			}
			r = rr
			r.CalculationComplete = false
		}
		if r.ServiceAmount.GreaterThan(*r.LimitCalculated) {
			excess := r.ServiceAmount.Sub(*r.LimitCalculated)
			r.Trail("N2", "dollar_limit_excess", excess)
			r.MemberPays = r.MemberPays.Add(excess)
			zero := decimal.Zero
			r.LimitCalculated = &zero
			r.ServiceAmount = decimal.Zero
			r.Complete()
			return r, nil
		}
		remaining := r.LimitCalculated.Sub(r.ServiceAmount)
		r.Trail("N2", "dollar_limit_decrement", r.ServiceAmount)
		r.LimitCalculated = &remaining
		r.Complete()
		return r, nil
	case domain.LimitTypeCounter:
		remaining := domain.ClampNonNegative(r.LimitCalculated.Sub(decimal.NewFromInt(1)))
		r.Trail("N2", "counter_decrement", decimal.NewFromInt(1))
		r.LimitCalculated = &remaining
		// Counter mode represents "visit used": the reference implementation
		// terminates here without running copay/coinsurance.
		r.Complete()
		return r, nil
	default:
		return r, domain.NewEngineError("N2", domain.ErrUnknownLimitType)
	}
}

// n3OOPMGate is N3: routes to the OOPM-copay settlement when an applicable
// out-of-pocket maximum has already been exhausted, else to the deductible
// gate.
func n3OOPMGate(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if !r.HasAccumKind(domain.AccumKindOOPMax) {
		return n5DeductibleGate(r)
	}
	if oopmAlreadyMet(r) {
		r.Trail("N3", "oopm_met", decimal.Zero)
		return n4OOPMCopay(r)
	}
	r.Trail("N3", "oopm_not_met", decimal.Zero)
	return n5DeductibleGate(r)
}

// oopmAlreadyMet reports whether an applicable OOPM level (per accum_level)
// is already exhausted — the condition N3's gate and N2's narrow OOPM
// settlement pathway both branch on.
func oopmAlreadyMet(r *domain.Record) bool {
	familyApplies := r.HasAccumLevel(domain.AccumLevelOOPMaxFamily) && r.OOPMaxFamilyCalculated != nil
	individualApplies := r.HasAccumLevel(domain.AccumLevelOOPMaxIndividual) && r.OOPMaxIndividualCalculated != nil
	return (familyApplies && r.OOPMaxFamilyCalculated.IsZero()) || (individualApplies && r.OOPMaxIndividualCalculated.IsZero())
}

// n4OOPMCopay is N4: the member has already met OOPM; only a
// continue-after-OOPM copay, if any, is still owed.
func n4OOPMCopay(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if r.CostShareCopay.LessThanOrEqual(decimal.Zero) || !r.CopayContinueWhenOOPMet {
		r.Trail("N4", "no_further_charge", decimal.Zero)
		r.Complete()
		return r, nil
	}
	c := decimal.Min(r.CostShareCopay, r.ServiceAmount)
	r.Trail("N4", "oopm_copay", c)
	r.MemberPays = r.MemberPays.Add(c)
	r.AmountCopay = r.AmountCopay.Add(c)
	r.ServiceAmount = r.ServiceAmount.Sub(c)
	r.CostShareCopay = r.CostShareCopay.Sub(c)
	r.Complete()
	return r, nil
}

// n5DeductibleGate is N5: routes based on whether deductible applies at
// all, whether it is already met (including the embedded-deductible
// individuals_met/individuals_needed rule), and copay ordering.
func n5DeductibleGate(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if !r.HasAccumKind(domain.AccumKindDeductible) {
		return n10PreDeductibleCostShare(r)
	}
	familyMet := r.HasAccumLevel(domain.AccumLevelDeductibleFamily) && r.DeductibleFamilyCalculated != nil && r.DeductibleFamilyCalculated.IsZero()
	embeddedMet := r.IndividualsMet != nil && r.IndividualsNeeded != nil && *r.IndividualsMet == *r.IndividualsNeeded
	individualMet := r.HasAccumLevel(domain.AccumLevelDeductibleIndividual) && r.DeductibleIndividualCalculated != nil && r.DeductibleIndividualCalculated.IsZero()
	if familyMet || embeddedMet || individualMet {
		r.Trail("N5", "deductible_met", decimal.Zero)
		return n7CostShareRouter(r)
	}
	if !r.IsDeductibleBeforeCopay && r.CostShareCopay.GreaterThan(decimal.Zero) {
		r.Trail("N5", "copay_first", decimal.Zero)
		return n8DeductibleCopay(r)
	}
	r.Trail("N5", "deductible_not_met", decimal.Zero)
	return n6DeductibleOOPM(r)
}

// n6DeductibleOOPM is N6: settles the deductible, partially or in full,
// also reducing OOPM when the deductible contributes to it.
func n6DeductibleOOPM(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	s := r.ServiceAmount
	var d decimal.Decimal
	if r.DeductibleIndividualCalculated != nil {
		d = *r.DeductibleIndividualCalculated
	}
	if s.LessThan(d) {
		r.Trail("N6", "deductible_partial", s)
		r.MemberPays = r.MemberPays.Add(s)
		r.DecrementDeductibles(s)
		if r.DeductibleAppliesOOP {
			r.DecrementOOPMax(s)
		}
		r.ServiceAmount = decimal.Zero
		r.Complete()
		return r, nil
	}
	r.Trail("N6", "deductible_met_now", d)
	r.MemberPays = r.MemberPays.Add(d)
	zero := decimal.Zero
	r.DeductibleIndividualCalculated = &zero
	if r.DeductibleFamilyCalculated != nil {
		remaining := domain.ClampNonNegative(r.DeductibleFamilyCalculated.Sub(d))
		r.DeductibleFamilyCalculated = &remaining
	}
	if r.DeductibleAppliesOOP {
		r.DecrementOOPMax(d)
	}
	r.ServiceAmount = r.ServiceAmount.Sub(d)
	if r.IsDeductibleBeforeCopay {
		return n7CostShareRouter(r)
	}
	return n11Coinsurance(r)
}

// n7CostShareRouter is N7: deductible is met; routes to a continuing copay
// or straight to coinsurance.
func n7CostShareRouter(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if r.CopayContinueWhenDeductibleMet && r.CostShareCopay.GreaterThan(decimal.Zero) {
		r.Trail("N7", "copay_continues", decimal.Zero)
		return n8DeductibleCopay(r)
	}
	r.Trail("N7", "to_coinsurance", decimal.Zero)
	return n11Coinsurance(r)
}

// n8DeductibleCopay is N8: copay applied while deductible is still in
// view, either not-yet-met with copay-first ordering or just-met with
// copay-continues. The most intricate node in the graph.
func n8DeductibleCopay(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	copay := r.CostShareCopay
	s := r.ServiceAmount
	minOOP, minOK := r.MinApplicableOOPMax()

	familyZero := r.OOPMaxFamilyCalculated != nil && r.OOPMaxFamilyCalculated.IsZero()
	individualZero := r.OOPMaxIndividualCalculated != nil && r.OOPMaxIndividualCalculated.IsZero()
	if familyZero || individualZero {
		r.Trail("N8", "oopm_already_met", decimal.Zero)
		r.Complete()
		return r, nil
	}

	if !r.CopayAppliesOOP {
		if copay.GreaterThan(s) {
			r.Trail("N8", "copay_exceeds_service", s)
			r.MemberPays = r.MemberPays.Add(s)
			r.AmountCopay = r.AmountCopay.Add(s)
			r.ServiceAmount = decimal.Zero
			r.Complete()
			return r, nil
		}
		r.Trail("N8", "copay_settled_no_oop", copay)
		r.MemberPays = r.MemberPays.Add(copay)
		r.AmountCopay = r.AmountCopay.Add(copay)
		r.ServiceAmount = r.ServiceAmount.Sub(copay)
		r.CostShareCopay = decimal.Zero
		if r.IsDeductibleBeforeCopay {
			return n11Coinsurance(r)
		}
		if r.CopayCountToDeductible {
			// The source re-consumes this same copay dollar amount against
			// deductible in N6 immediately afterwards; replicated as specified
			// (spec.md §9, open question 3), not silently fixed.
			r.DecrementDeductibles(copay)
		}
		return n6DeductibleOOPM(r)
	}

	if copay.GreaterThan(s) {
		if !minOK || s.LessThan(minOOP) {
			r.Trail("N8", "copay_gt_service_under_oop", s)
			r.MemberPays = r.MemberPays.Add(s)
			r.AmountCopay = r.AmountCopay.Add(s)
			r.DecrementOOPMax(s)
			r.ServiceAmount = decimal.Zero
			r.Complete()
			return r, nil
		}
		r.Trail("N8", "copay_gt_service_oop_cap", minOOP)
		r.MemberPays = r.MemberPays.Add(minOOP)
		r.AmountCopay = r.AmountCopay.Add(minOOP)
		zeroBothOOPMax(r)
		r.CostShareCopay = r.CostShareCopay.Sub(minOOP)
		r.ServiceAmount = r.ServiceAmount.Sub(minOOP)
		return n4OOPMCopay(r)
	}

	maxOOP, maxOK := r.MaxApplicableOOPMax()
	if maxOK && copay.GreaterThanOrEqual(maxOOP) {
		r.Trail("N8", "copay_meets_oop", minOOP)
		r.MemberPays = r.MemberPays.Add(minOOP)
		r.AmountCopay = r.AmountCopay.Add(minOOP)
		zeroBothOOPMax(r)
		r.CostShareCopay = r.CostShareCopay.Sub(minOOP)
		r.ServiceAmount = r.ServiceAmount.Sub(minOOP)
		return n4OOPMCopay(r)
	}

	r.Trail("N8", "copay_settled_under_oop", copay)
	r.MemberPays = r.MemberPays.Add(copay)
	r.AmountCopay = r.AmountCopay.Add(copay)
	r.DecrementOOPMax(copay)
	r.ServiceAmount = r.ServiceAmount.Sub(copay)
	r.CostShareCopay = decimal.Zero
	if r.IsDeductibleBeforeCopay {
		return n11Coinsurance(r)
	}
	if r.CopayCountToDeductible {
		r.DecrementDeductibles(copay)
	}
	return n6DeductibleOOPM(r)
}

// zeroBothOOPMax sets every applicable OOPM level to exactly zero. Used by
// N8's OOPM-cap branches, which settle at the lesser applicable OOPM and
// treat both levels as exhausted rather than merely decrementing each by
// the settled amount.
func zeroBothOOPMax(r *domain.Record) {
	if r.OOPMaxIndividualCalculated != nil {
		zero := decimal.Zero
		r.OOPMaxIndividualCalculated = &zero
	}
	if r.OOPMaxFamilyCalculated != nil {
		zero := decimal.Zero
		r.OOPMaxFamilyCalculated = &zero
	}
}

// n9OutOfPocketCopay is N9: the simple pre-deductible copay split, with no
// deductible mutation. Only reached from N10, which owns terminal marking
// so that coinsurance can still run on the residual service amount.
func n9OutOfPocketCopay(r *domain.Record) (*domain.Record, error) {
	copay := r.CostShareCopay
	s := r.ServiceAmount
	if copay.GreaterThan(s) {
		r.Trail("N9", "copay_exceeds_service", s)
		r.MemberPays = r.MemberPays.Add(s)
		r.AmountCopay = r.AmountCopay.Add(s)
		if r.CopayAppliesOOP {
			r.DecrementOOPMax(s)
		}
		r.ServiceAmount = decimal.Zero
		return r, nil
	}
	r.Trail("N9", "copay_settled", copay)
	r.MemberPays = r.MemberPays.Add(copay)
	r.AmountCopay = r.AmountCopay.Add(copay)
	if r.CopayAppliesOOP {
		r.DecrementOOPMax(copay)
	}
	r.ServiceAmount = r.ServiceAmount.Sub(copay)
	r.CostShareCopay = decimal.Zero
	return r, nil
}

// n10PreDeductibleCostShare is N10: the composite node used when the
// benefit has no deductible accumulator at all.
func n10PreDeductibleCostShare(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	if r.CostShareCopay.GreaterThan(decimal.Zero) {
		rr, err := n9OutOfPocketCopay(r)
		if err != nil {
			return rr, err
		}
		r = rr
	}
	if r.CostShareCoinsurance > 0 {
		r.Trail("N10", "to_coinsurance_residual", decimal.Zero)
		return n11Coinsurance(r)
	}
	r.Trail("N10", "no_charge", decimal.Zero)
	r.Complete()
	return r, nil
}

// n11Coinsurance is N11: the final coinsurance settlement, including the
// OOPM-already-met re-anchor that is the one sanctioned exception to
// member_pays monotonicity (spec.md §9, open question 1).
func n11Coinsurance(r *domain.Record) (*domain.Record, error) {
	if r.CalculationComplete {
		return r, nil
	}
	p := r.CostShareCoinsurance
	if p <= 0 {
		r.Trail("N11", "no_coinsurance", decimal.Zero)
		r.Complete()
		return r, nil
	}
	c := r.ServiceAmount.Mul(decimal.NewFromInt(int64(p))).Div(decimal.NewFromInt(100))
	if !r.CoinsAppliesOOP {
		r.Trail("N11", "coinsurance_flat", c)
		r.MemberPays = r.MemberPays.Add(c)
		r.ServiceAmount = r.ServiceAmount.Sub(c)
		r.AmountCoinsurance = c
		r.Complete()
		return r, nil
	}
	if r.AnyApplicableOOPMaxExhausted() {
		r.Trail("N11", "oopm_met_reanchor", r.MemberPays)
		r.MemberPays = decimal.Zero
		r.Complete()
		return r, nil
	}
	minOOP, ok := r.MinApplicableOOPMax()
	if ok && c.LessThan(minOOP) {
		r.Trail("N11", "coinsurance_under_oop", c)
		r.MemberPays = r.MemberPays.Add(c)
		r.DecrementOOPMax(c)
		r.ServiceAmount = r.ServiceAmount.Sub(c)
		r.AmountCoinsurance = c
		r.Complete()
		return r, nil
	}
	capped := c
	if ok {
		capped = minOOP
	}
	r.Trail("N11", "coinsurance_capped_oop", capped)
	r.MemberPays = r.MemberPays.Add(capped)
	zeroBothOOPMax(r)
	r.ServiceAmount = r.ServiceAmount.Sub(capped)
	r.AmountCoinsurance = capped
	r.Complete()
	return r, nil
}
