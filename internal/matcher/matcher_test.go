package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/DuckDHD/costshare/internal/domain"
)

func TestMatch_NetworkParityFiltersOutMismatch(t *testing.T) {
	benefits := []domain.Benefit{
		{NetworkCategory: domain.NetworkCategoryInNetwork},
		{NetworkCategory: domain.NetworkCategoryOutOfNetwork},
	}
	provider := domain.Provider{}

	inNetwork := Match(benefits, domain.AccumulatorBundle{}, provider, false, nil)
	outOfNetwork := Match(benefits, domain.AccumulatorBundle{}, provider, true, nil)

	assert.Len(t, inNetwork, 1)
	assert.Equal(t, domain.NetworkCategoryInNetwork, inNetwork[0].Benefit.NetworkCategory)
	assert.Len(t, outOfNetwork, 1)
	assert.Equal(t, domain.NetworkCategoryOutOfNetwork, outOfNetwork[0].Benefit.NetworkCategory)
}

func TestMatch_TierParityDropsBenefitWithTierWhenProviderHasNone(t *testing.T) {
	benefits := []domain.Benefit{
		{NetworkCategory: domain.NetworkCategoryInNetwork, Tier: "gold"},
		{NetworkCategory: domain.NetworkCategoryInNetwork, Tier: ""},
	}
	provider := domain.Provider{Tier: ""}

	selected := Match(benefits, domain.AccumulatorBundle{}, provider, false, nil)

	assert.Len(t, selected, 1)
	assert.Equal(t, "", selected[0].Benefit.Tier)
}

func TestMatch_TierParityRequiresExactMatchWhenProviderHasTier(t *testing.T) {
	benefits := []domain.Benefit{
		{NetworkCategory: domain.NetworkCategoryInNetwork, Tier: "gold"},
		{NetworkCategory: domain.NetworkCategoryInNetwork, Tier: "silver"},
	}
	provider := domain.Provider{Tier: "gold"}

	selected := Match(benefits, domain.AccumulatorBundle{}, provider, false, nil)

	assert.Len(t, selected, 1)
	assert.Equal(t, "gold", selected[0].Benefit.Tier)
}

func TestMatch_DesignationParityRequiresPCPBenefitForPCPProvider(t *testing.T) {
	benefits := []domain.Benefit{
		{NetworkCategory: domain.NetworkCategoryInNetwork, ServiceProviderDesignation: "PCP"},
		{NetworkCategory: domain.NetworkCategoryInNetwork, ServiceProviderDesignation: ""},
	}
	provider := domain.Provider{SpecialtyCode: "FM"}
	pcpSet := map[string]bool{"FM": true}

	selected := Match(benefits, domain.AccumulatorBundle{}, provider, false, pcpSet)

	assert.Len(t, selected, 1)
	assert.Equal(t, "PCP", selected[0].Benefit.ServiceProviderDesignation)
}

func TestMatch_NonPCPProviderMatchesAnyDesignation(t *testing.T) {
	benefits := []domain.Benefit{
		{NetworkCategory: domain.NetworkCategoryInNetwork, ServiceProviderDesignation: "PCP"},
		{NetworkCategory: domain.NetworkCategoryInNetwork, ServiceProviderDesignation: ""},
	}
	provider := domain.Provider{SpecialtyCode: "CARD"}

	selected := Match(benefits, domain.AccumulatorBundle{}, provider, false, map[string]bool{"FM": true})

	assert.Len(t, selected, 2)
}

func TestMatch_BindsFirstMatchingAccumulatorPerReference(t *testing.T) {
	benefit := domain.Benefit{
		NetworkCategory: domain.NetworkCategoryInNetwork,
		RelatedAccumulators: []domain.RelatedAccumulatorRef{
			{Code: "Deductible", Level: "Individual"},
		},
	}
	bundle := domain.AccumulatorBundle{
		Accumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeDeductible, Level: domain.AccumulatorLevelIndividual, CalculatedValue: decimal.NewFromInt(100)},
			{Code: domain.AccumulatorCodeDeductible, Level: domain.AccumulatorLevelFamily, CalculatedValue: decimal.NewFromInt(500)},
		},
	}
	provider := domain.Provider{}

	selected := Match([]domain.Benefit{benefit}, bundle, provider, false, nil)

	if assert.Len(t, selected, 1) {
		if assert.Len(t, selected[0].MatchedAccumulators, 1) {
			assert.True(t, selected[0].MatchedAccumulators[0].CalculatedValue.Equal(decimal.NewFromInt(100)))
		}
	}
}

func TestMatch_NoAccumulatorMatchStillKeepsBenefit(t *testing.T) {
	benefit := domain.Benefit{
		NetworkCategory: domain.NetworkCategoryInNetwork,
		RelatedAccumulators: []domain.RelatedAccumulatorRef{
			{Code: "Deductible", Level: "Individual"},
		},
	}
	provider := domain.Provider{}

	selected := Match([]domain.Benefit{benefit}, domain.AccumulatorBundle{}, provider, false, nil)

	if assert.Len(t, selected, 1) {
		assert.Empty(t, selected[0].MatchedAccumulators)
	}
}

func TestMatch_EmptyAccumCodeDefaultsToLimit(t *testing.T) {
	benefit := domain.Benefit{
		NetworkCategory: domain.NetworkCategoryInNetwork,
		RelatedAccumulators: []domain.RelatedAccumulatorRef{
			{Code: "", Level: "Individual"},
		},
	}
	bundle := domain.AccumulatorBundle{
		Accumulators: []domain.Accumulator{
			{Code: domain.AccumulatorCodeLimit, Level: "Individual", CalculatedValue: decimal.NewFromInt(3)},
		},
	}

	selected := Match([]domain.Benefit{benefit}, bundle, domain.Provider{}, false, nil)

	if assert.Len(t, selected, 1) {
		if assert.Len(t, selected[0].MatchedAccumulators, 1) {
			assert.Equal(t, domain.AccumulatorCodeLimit, selected[0].MatchedAccumulators[0].Code)
		}
	}
}
