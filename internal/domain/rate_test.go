package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveAmount_PercentageRateAppliesPercentOfBilled(t *testing.T) {
	r := NegotiatedRate{Amount: decimal.NewFromInt(50), RateType: RateTypePercentage}

	assert.True(t, r.EffectiveAmount(decimal.NewFromInt(200)).Equal(decimal.NewFromInt(100)))
}

func TestEffectiveAmount_FlatAmountRateIgnoresBilled(t *testing.T) {
	r := NegotiatedRate{Amount: decimal.NewFromInt(75), RateType: RateTypeAmount}

	assert.True(t, r.EffectiveAmount(decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(75)))
}
