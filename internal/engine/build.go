package engine

import (
	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/domain"
)

// BuildRecord defaults a fresh Record from a matched benefit's fields and
// its bound accumulators, applying invariant 5 (§3.1): fields absent from
// the benefit default to zero/false/null rather than being left unset.
func BuildRecord(serviceAmount decimal.Decimal, sel domain.SelectedBenefit) *domain.Record {
	b := sel.Benefit
	r := domain.NewRecord()
	r.ServiceAmount = serviceAmount
	r.IsServiceCovered = b.IsServiceCovered
	r.IsDeductibleBeforeCopay = b.IsDeductibleBeforeCopay
	r.CostShareCopay = b.CostShareCopay
	r.CostShareCoinsurance = b.CostShareCoinsurance
	r.CopayAppliesOOP = b.CopayAppliesOOP
	r.CoinsAppliesOOP = b.CoinsAppliesOOP
	r.DeductibleAppliesOOP = b.DeductibleAppliesOOP
	r.CopayCountToDeductible = b.CopayCountToDeductible
	r.CopayContinueWhenDeductibleMet = b.CopayContinueWhenDeductibleMet
	r.CopayContinueWhenOOPMet = b.CopayContinueWhenOOPMet
	r.LimitType = b.LimitType
	r.IndividualsMet = b.IndividualsMet
	r.IndividualsNeeded = b.IndividualsNeeded

	for _, k := range b.AccumCode {
		r.AccumCode[k] = true
	}
	for _, l := range b.AccumLevel {
		r.AccumLevel[l] = true
	}

	for _, a := range sel.MatchedAccumulators {
		v := a.CalculatedValue
		switch {
		case a.Code == domain.AccumulatorCodeDeductible && a.Level == domain.AccumulatorLevelIndividual:
			r.DeductibleIndividualCalculated = &v
		case a.Code == domain.AccumulatorCodeDeductible && a.Level == domain.AccumulatorLevelFamily:
			r.DeductibleFamilyCalculated = &v
		case a.Code == domain.AccumulatorCodeOOPMax && a.Level == domain.AccumulatorLevelIndividual:
			r.OOPMaxIndividualCalculated = &v
		case a.Code == domain.AccumulatorCodeOOPMax && a.Level == domain.AccumulatorLevelFamily:
			r.OOPMaxFamilyCalculated = &v
		case a.Code == domain.AccumulatorCodeLimit:
			r.LimitCalculated = &v
		}
	}
	return r
}
