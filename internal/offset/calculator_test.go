package offset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_RefundableUnder20M(t *testing.T) {
	result := Calculate(Input{
		NotionalDeductions: 500_000,
		AggregatedTurnover: 5_000_000,
		TotalExpenditure:   2_000_000,
	})

	assert.Equal(t, TypeRefundable, result.OffsetType)
	assert.Equal(t, 0.25, result.CompanyTaxRate, "under $50M turnover defaults to base rate entity")
	assert.InDelta(t, 0.435, result.EffectiveRate, 1e-9)
	assert.InDelta(t, 217_500, result.TotalOffset, 0.01)
	assert.InDelta(t, result.TotalOffset, result.Breakdown.BaseAmount, 0.01)
	assert.Zero(t, result.Breakdown.PremiumAmount)
}

func TestCalculate_NonRefundableLowIntensity(t *testing.T) {
	// 1M notional over 100M expenditure = 1% intensity, under the 2% tier.
	result := Calculate(Input{
		NotionalDeductions: 1_000_000,
		AggregatedTurnover: 80_000_000,
		TotalExpenditure:   100_000_000,
	})

	assert.Equal(t, TypeNonRefundable, result.OffsetType)
	assert.Equal(t, 0.30, result.CompanyTaxRate)
	assert.InDelta(t, 0.385, result.EffectiveRate, 1e-9)
	assert.InDelta(t, 385_000, result.TotalOffset, 0.01)
	assert.InDelta(t, 0.01, result.Breakdown.RDIntensity, 1e-9)
	assert.Zero(t, result.Breakdown.PremiumAmount)
}

func TestCalculate_NonRefundableTwoTier(t *testing.T) {
	// 5M notional over 50M expenditure = 10% intensity. The first 1M
	// (2% of expenditure) earns the base premium, the remaining 4M the
	// high premium.
	result := Calculate(Input{
		NotionalDeductions: 5_000_000,
		AggregatedTurnover: 120_000_000,
		TotalExpenditure:   50_000_000,
	})

	require.Equal(t, TypeNonRefundable, result.OffsetType)
	assert.InDelta(t, 0.10, result.Breakdown.RDIntensity, 1e-9)

	wantBase := 1_000_000 * (0.30 + 0.085)
	wantPremium := 4_000_000 * (0.30 + 0.165)
	assert.InDelta(t, wantBase, result.Breakdown.BaseAmount, 0.01)
	assert.InDelta(t, wantPremium, result.Breakdown.PremiumAmount, 0.01)
	assert.InDelta(t, wantBase+wantPremium, result.TotalOffset, 0.01)

	// Blended rate sits strictly between the two tier rates.
	assert.Greater(t, result.EffectiveRate, 0.385)
	assert.Less(t, result.EffectiveRate, 0.465)
	assert.InDelta(t, result.TotalOffset/5_000_000, result.EffectiveRate, 1e-9)
}

func TestCalculate_ExplicitTaxRateOverrides(t *testing.T) {
	result := Calculate(Input{
		NotionalDeductions: 100_000,
		AggregatedTurnover: 1_000_000,
		CompanyTaxRate:     0.30,
	})

	assert.Equal(t, 0.30, result.CompanyTaxRate)
	assert.InDelta(t, 0.485, result.EffectiveRate, 1e-9)
}

func TestCalculate_BaseRateEntityFlag(t *testing.T) {
	// Turnover alone would imply 30%, but the flag forces 25%.
	result := Calculate(Input{
		NotionalDeductions: 100_000,
		AggregatedTurnover: 60_000_000,
		TotalExpenditure:   60_000_000,
		IsBaseRateEntity:   true,
	})

	assert.Equal(t, 0.25, result.CompanyTaxRate)
}

func TestCalculate_ZeroDeductions(t *testing.T) {
	result := Calculate(Input{
		NotionalDeductions: 0,
		AggregatedTurnover: 120_000_000,
		TotalExpenditure:   1_000_000,
	})

	assert.Zero(t, result.TotalOffset)
	assert.InDelta(t, 0.385, result.EffectiveRate, 1e-9, "zero deductions report the nominal base premium rate")
}

func TestCalculate_ZeroExpenditureIntensity(t *testing.T) {
	// No expenditure means intensity is treated as zero, not a division error.
	result := Calculate(Input{
		NotionalDeductions: 100_000,
		AggregatedTurnover: 30_000_000,
		TotalExpenditure:   0,
	})

	assert.Equal(t, TypeNonRefundable, result.OffsetType)
	assert.Zero(t, result.Breakdown.RDIntensity)
	assert.InDelta(t, 0.335, result.EffectiveRate, 1e-9)
}

func TestCalculate_OffsetInvariant(t *testing.T) {
	inputs := []Input{
		{NotionalDeductions: 500_000, AggregatedTurnover: 5_000_000, TotalExpenditure: 2_000_000},
		{NotionalDeductions: 1_000_000, AggregatedTurnover: 80_000_000, TotalExpenditure: 100_000_000},
		{NotionalDeductions: 5_000_000, AggregatedTurnover: 120_000_000, TotalExpenditure: 50_000_000},
		{NotionalDeductions: 20_000, AggregatedTurnover: 25_000_000, TotalExpenditure: 19_000},
	}
	for _, in := range inputs {
		result := Calculate(in)
		assert.InDelta(t, result.Breakdown.BaseAmount+result.Breakdown.PremiumAmount,
			result.TotalOffset, 0.02, "total must equal the sum of the breakdown")
	}
}

func TestMeetsMinimumThreshold(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		rsp      float64
		crc      float64
		eligible bool
	}{
		{"above minimum, no exemptions", 25_000, 0, 0, true},
		{"below minimum, no exemptions", 15_000, 0, 0, false},
		{"wholly RSP", 15_000, 15_000, 0, true},
		{"wholly CRC", 10_000, 0, 10_000, true},
		{"mixed, remainder below minimum", 25_000, 10_000, 0, false},
		{"mixed, remainder meets minimum", 45_000, 10_000, 15_000, true},
		{"exactly at minimum", 20_000, 0, 0, true},
		{"zero deductions", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeetsMinimumThreshold(tt.notional, tt.rsp, tt.crc)
			assert.Equal(t, tt.eligible, got.Eligible)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestRegistrationDeadline(t *testing.T) {
	yearEnd := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	deadline := RegistrationDeadline(yearEnd)
	assert.Equal(t, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), deadline)

	// December year end rolls into the following October.
	decEnd := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC), RegistrationDeadline(decEnd))
}
