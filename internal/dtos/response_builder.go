package dtos

import (
	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/domain"
)

// BuildSuccessEntry projects an evaluated Record, the rate that produced
// its starting service_amount, and the matched accumulators into one
// costEstimate[] entry, per spec.md §6.2:
// amountPayable = rate - amountResponsibility;
// percentResponsibility = amountResponsibility / rate * 100, rounded to 1dp.
func BuildSuccessEntry(providerInfo ProviderInfoDTO, sel domain.SelectedBenefit, effectiveRate decimal.Decimal, rec *domain.Record) CostEstimateEntryDTO {
	b := sel.Benefit
	amountResponsibility := rec.MemberPays
	amountPayable := effectiveRate.Sub(amountResponsibility)

	percent := decimal.Zero
	if !effectiveRate.IsZero() {
		percent = amountResponsibility.Div(effectiveRate).Mul(decimal.NewFromInt(100)).Round(1)
	}

	accEntries := make([]AccumulatorEntryDTO, 0, len(sel.MatchedAccumulators))
	for _, a := range sel.MatchedAccumulators {
		remaining := remainingFor(rec, a)
		applied := domain.ClampNonNegative(a.CalculatedValue.Sub(remaining))
		accEntries = append(accEntries, AccumulatorEntryDTO{
			Accumulator: AccumulatorDTO{Code: string(a.Code), Level: string(a.Level)},
			AccumulatorCalculation: AccumulatorCalculationDTO{
				RemainingValue: moneyString(remaining),
				AppliedValue:   moneyString(applied),
			},
		})
	}

	return CostEstimateEntryDTO{
		ProviderInfo: providerInfo,
		Coverage: &CoverageDTO{
			IsServiceCovered:     b.IsServiceCovered,
			CostShareCopay:       moneyString(b.CostShareCopay),
			CostShareCoinsurance: b.CostShareCoinsurance,
		},
		Cost: &CostDTO{
			InNetworkCosts:     moneyString(effectiveRate),
			InNetworkCostsType: string(b.NetworkCategory),
		},
		HealthClaimLine: &HealthClaimLineDTO{
			AmountCopay:           moneyString(rec.AmountCopay),
			AmountCoinsurance:     moneyString(rec.AmountCoinsurance),
			AmountResponsibility:  moneyString(amountResponsibility),
			PercentResponsibility: percent.StringFixed(1),
			AmountPayable:         moneyString(amountPayable),
		},
		Accumulators: accEntries,
	}
}

// BuildErrorEntry projects a provider-scoped failure into an exception
// entry, per spec.md §6.2 and the error taxonomy in §7.
func BuildErrorEntry(providerInfo ProviderInfoDTO, kind domain.ErrorKind, message string) CostEstimateEntryDTO {
	return CostEstimateEntryDTO{
		ProviderInfo: providerInfo,
		Exception: &ExceptionDTO{
			Code:    string(kind),
			Message: message,
		},
	}
}

// remainingFor looks up the post-settlement remaining value the Record
// tracked for an accumulator's code/level, falling back to the
// pre-settlement value when the Record held no corresponding field (e.g. an
// accumulator kind the benefit never referenced).
func remainingFor(rec *domain.Record, a domain.Accumulator) decimal.Decimal {
	switch {
	case a.Code == domain.AccumulatorCodeDeductible && a.Level == domain.AccumulatorLevelIndividual && rec.DeductibleIndividualCalculated != nil:
		return *rec.DeductibleIndividualCalculated
	case a.Code == domain.AccumulatorCodeDeductible && a.Level == domain.AccumulatorLevelFamily && rec.DeductibleFamilyCalculated != nil:
		return *rec.DeductibleFamilyCalculated
	case a.Code == domain.AccumulatorCodeOOPMax && a.Level == domain.AccumulatorLevelIndividual && rec.OOPMaxIndividualCalculated != nil:
		return *rec.OOPMaxIndividualCalculated
	case a.Code == domain.AccumulatorCodeOOPMax && a.Level == domain.AccumulatorLevelFamily && rec.OOPMaxFamilyCalculated != nil:
		return *rec.OOPMaxFamilyCalculated
	case a.Code == domain.AccumulatorCodeLimit && rec.LimitCalculated != nil:
		return *rec.LimitCalculated
	default:
		return a.CalculatedValue
	}
}
