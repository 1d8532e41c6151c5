package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DuckDHD/costshare/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func baseBenefit() domain.Benefit {
	return domain.Benefit{
		IsServiceCovered: true,
		AccumCode:        nil,
		AccumLevel:       nil,
	}
}

func TestN1Coverage_NotCoveredSettlesFullAmount(t *testing.T) {
	sel := domain.SelectedBenefit{Benefit: domain.Benefit{IsServiceCovered: false}}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.Equal(dec("100.00")))
	assert.True(t, out.ServiceAmount.IsZero())
	assert.Equal(t, "N1", out.Trace[0].Node)
}

func TestN2Limit_DollarLimitExcessSettlesOverage(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindLimit}
	b.LimitType = domain.LimitTypeDollar
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, CalculatedValue: dec("50.00")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.Equal(dec("50.00")))
	assert.True(t, out.LimitCalculated.IsZero())
}

func TestN2Limit_CounterDecrementsAndTerminates(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindLimit}
	b.LimitType = domain.LimitTypeCounter
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, CalculatedValue: dec("3")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.LimitCalculated.Equal(dec("2")))
	assert.True(t, out.MemberPays.IsZero(), "counter mode stops before copay/coinsurance")
}

func TestN2Limit_ExhaustedSettlesFullRemaining(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindLimit}
	b.LimitType = domain.LimitTypeCounter
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, CalculatedValue: dec("0")},
		},
	}
	r := BuildRecord(dec("75.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.Equal(dec("75.00")))
}

func TestN2Limit_DollarLimitWithOOPMExhaustedAppliesContinuingCopayThenExcess(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindLimit, domain.AccumKindOOPMax}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelOOPMaxIndividual}
	b.LimitType = domain.LimitTypeDollar
	b.CostShareCopay = dec("10.00")
	b.CopayContinueWhenOOPMet = true
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, CalculatedValue: dec("50.00")},
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("0.00")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	// N4's continuing copay (10) applies first since OOPM is already
	// exhausted, leaving 90 service dollars; the dollar limit (50) then
	// settles the excess of that 90, not of the original 100.
	assert.True(t, out.MemberPays.Equal(dec("50.00")), "got %s", out.MemberPays)
	assert.True(t, out.LimitCalculated.IsZero())
}

func TestN2Limit_DollarLimitWithOOPMNotMetSkipsFullCostShareChain(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindLimit, domain.AccumKindOOPMax}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelOOPMaxIndividual}
	b.LimitType = domain.LimitTypeDollar
	b.CostShareCoinsurance = 50 // would double-charge if the full N5..N11 chain ran here
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, CalculatedValue: dec("200.00")},
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("500.00")},
		},
	}
	r := BuildRecord(dec("1000.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	// Only the dollar-limit excess (1000-200) is charged; the 50%
	// coinsurance never runs because OOPM is not exhausted.
	assert.True(t, out.MemberPays.Equal(dec("800.00")), "got %s", out.MemberPays)
	assert.True(t, out.LimitCalculated.IsZero())
}

func TestN2Limit_UnknownLimitTypeErrors(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindLimit}
	b.LimitType = "bogus"
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, CalculatedValue: dec("10")},
		},
	}
	r := BuildRecord(dec("50.00"), sel)

	_, err := n1Coverage(r)

	require.Error(t, err)
	ee, ok := err.(*domain.EstimateError)
	require.True(t, ok)
	assert.Equal(t, domain.KindEngineConfig, ee.Kind)
}

func TestN3N4_OOPMAlreadyMetSettlesOnlyContinuingCopay(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindOOPMax}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelOOPMaxIndividual}
	b.CostShareCopay = dec("20.00")
	b.CopayContinueWhenOOPMet = true
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("0")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.Equal(dec("20.00")))
	assert.True(t, out.AmountCopay.Equal(dec("20.00")))
}

func TestN3N4_OOPMMetNoContinuingCopayChargesNothing(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindOOPMax}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelOOPMaxIndividual}
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("0")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.IsZero())
}

func TestN5N6_DeductiblePartialSettlesFullServiceToDeductible(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindDeductible}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelDeductibleIndividual}
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeDeductible, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("500.00")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.Equal(dec("100.00")))
	assert.True(t, out.DeductibleIndividualCalculated.Equal(dec("400.00")))
}

func TestN5N6N11_DeductibleMetNowThenCoinsuranceOnResidual(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindDeductible}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelDeductibleIndividual}
	b.IsDeductibleBeforeCopay = true
	b.CostShareCoinsurance = 20
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeDeductible, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("40.00")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	// 40 to deductible, then 20% of the remaining 60 = 12
	assert.True(t, out.MemberPays.Equal(dec("52.00")), "got %s", out.MemberPays)
	assert.True(t, out.DeductibleIndividualCalculated.IsZero())
}

func TestN10_NoDeductibleCopayThenCoinsurance(t *testing.T) {
	b := baseBenefit()
	b.CostShareCopay = dec("25.00")
	b.CostShareCoinsurance = 10
	sel := domain.SelectedBenefit{Benefit: b}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	// 25 copay, then 10% of remaining 75 = 7.50
	assert.True(t, out.MemberPays.Equal(dec("32.50")), "got %s", out.MemberPays)
}

func TestN10_NoDeductibleNoCopayNoCoinsuranceChargesNothing(t *testing.T) {
	sel := domain.SelectedBenefit{Benefit: baseBenefit()}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.CalculationComplete)
	assert.True(t, out.MemberPays.IsZero())
}

func TestN11_CoinsuranceUnderOOPCap(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindOOPMax}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelOOPMaxIndividual}
	b.CostShareCoinsurance = 20
	b.CoinsAppliesOOP = true
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("1000.00")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.MemberPays.Equal(dec("20.00")))
	assert.True(t, out.OOPMaxIndividualCalculated.Equal(dec("980.00")))
}

func TestN11_CoinsuranceCappedAtOOPMax(t *testing.T) {
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindOOPMax}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelOOPMaxIndividual}
	b.CostShareCoinsurance = 50
	b.CoinsAppliesOOP = true
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("10.00")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	// 50% of 100 = 50, but capped at the remaining 10 OOPM
	assert.True(t, out.MemberPays.Equal(dec("10.00")))
	assert.True(t, out.OOPMaxIndividualCalculated.IsZero())
}

func TestN11_OOPMAlreadyMetReanchorsMemberPaysToZero(t *testing.T) {
	// accum_code deliberately omits "oopmax" so N3's early-exit never fires,
	// reaching N11 with an already-exhausted OOPM bound on the record — the
	// one sanctioned exception to member_pays monotonicity.
	b := baseBenefit()
	b.AccumCode = []domain.AccumKind{domain.AccumKindDeductible}
	b.AccumLevel = []domain.AccumLevel{domain.AccumLevelDeductibleIndividual}
	b.CostShareCoinsurance = 20
	b.CoinsAppliesOOP = true
	sel := domain.SelectedBenefit{
		Benefit: b,
		MatchedAccumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeDeductible, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("0")},
			{Code: domain.AccumulatorCodeOOPMax, Level: domain.AccumulatorLevelIndividual, CalculatedValue: dec("0")},
		},
	}
	r := BuildRecord(dec("100.00"), sel)

	out, err := n1Coverage(r)

	require.NoError(t, err)
	assert.True(t, out.MemberPays.IsZero(), "OOPM-met coinsurance re-anchors member_pays to zero")
}

func TestRecord_AlreadyCompleteIsNoOpThroughEveryNode(t *testing.T) {
	r := domain.NewRecord()
	r.Complete()
	r.MemberPays = dec("5.00")

	for _, n := range []node{n1Coverage, n2Limit, n3OOPMGate, n4OOPMCopay, n5DeductibleGate, n6DeductibleOOPM, n7CostShareRouter, n8DeductibleCopay, n10PreDeductibleCostShare, n11Coinsurance} {
		out, err := n(r)
		require.NoError(t, err)
		assert.True(t, out.MemberPays.Equal(dec("5.00")), "node must not mutate a completed record")
	}
}
