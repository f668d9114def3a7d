// Package offset implements the R&D tax offset calculation rules for the
// Australian R&D Tax Incentive: offset type selection, the two-tier
// intensity premium, the $20,000 minimum expenditure threshold, and the
// registration deadline.
package offset

import (
	"math"
	"time"
)

// Offset type determined by aggregated turnover.
const (
	TypeRefundable    = "REFUNDABLE"
	TypeNonRefundable = "NON_REFUNDABLE"
)

// Published rates for the covered income year.
const (
	baseRateEntityTaxRate = 0.25
	standardTaxRate       = 0.30

	refundablePremium  = 0.185
	basePremium        = 0.085
	highPremium        = 0.165
	refundableTurnover = 20_000_000
	baseRateTurnover   = 50_000_000

	intensityThreshold = 0.02
	minimumExpenditure = 20_000
)

// Input holds everything the calculator needs for one application.
// Monetary figures are whole AUD.
type Input struct {
	NotionalDeductions float64 `json:"notional_deductions"`
	AggregatedTurnover float64 `json:"aggregated_turnover"`
	TotalExpenditure   float64 `json:"total_expenditure"`
	// CompanyTaxRate overrides the derived rate when > 0.
	CompanyTaxRate     float64 `json:"company_tax_rate,omitempty"`
	IsBaseRateEntity   bool    `json:"is_base_rate_entity,omitempty"`
}

// Breakdown itemizes the offset amount per premium tier.
type Breakdown struct {
	BaseAmount    float64 `json:"base_amount"`
	PremiumAmount float64 `json:"premium_amount,omitempty"`
	RDIntensity   float64 `json:"rd_intensity,omitempty"`
}

// Result is the computed offset for one application.
type Result struct {
	OffsetType     string    `json:"offset_type"`
	TotalOffset    float64   `json:"total_offset"`
	EffectiveRate  float64   `json:"effective_rate"`
	Breakdown      Breakdown `json:"breakdown"`
	CompanyTaxRate float64   `json:"company_tax_rate"`
}

// Calculate computes the tax offset for the given input. It is total over
// all non-negative inputs: zero deductions or expenditure never divide by
// zero, and no branch returns an error.
func Calculate(in Input) Result {
	taxRate := companyTaxRate(in)

	if in.AggregatedTurnover < refundableTurnover {
		rate := taxRate + refundablePremium
		total := round2(in.NotionalDeductions * rate)
		return Result{
			OffsetType:     TypeRefundable,
			TotalOffset:    total,
			EffectiveRate:  rate,
			Breakdown:      Breakdown{BaseAmount: total},
			CompanyTaxRate: taxRate,
		}
	}

	intensity := 0.0
	if in.TotalExpenditure > 0 {
		intensity = in.NotionalDeductions / in.TotalExpenditure
	}

	if intensity <= intensityThreshold {
		rate := taxRate + basePremium
		total := round2(in.NotionalDeductions * rate)
		return Result{
			OffsetType:    TypeNonRefundable,
			TotalOffset:   total,
			EffectiveRate: rate,
			Breakdown: Breakdown{
				BaseAmount:  total,
				RDIntensity: intensity,
			},
			CompanyTaxRate: taxRate,
		}
	}

	// Above the 2% intensity threshold the deduction splits at 2% of total
	// expenditure: the portion below earns the base premium, the remainder
	// the high premium.
	baseThreshold := in.TotalExpenditure * intensityThreshold
	baseAmount := round2(baseThreshold * (taxRate + basePremium))
	premiumAmount := round2((in.NotionalDeductions - baseThreshold) * (taxRate + highPremium))
	total := round2(baseAmount + premiumAmount)

	// Blended rate. With zero deductions the division is undefined; report
	// the base premium rate alongside the zero offset.
	rate := taxRate + basePremium
	if in.NotionalDeductions > 0 {
		rate = total / in.NotionalDeductions
	}

	return Result{
		OffsetType:    TypeNonRefundable,
		TotalOffset:   total,
		EffectiveRate: rate,
		Breakdown: Breakdown{
			BaseAmount:    baseAmount,
			PremiumAmount: premiumAmount,
			RDIntensity:   intensity,
		},
		CompanyTaxRate: taxRate,
	}
}

// companyTaxRate resolves the applicable company tax rate: an explicit rate
// wins, otherwise 25% for base rate entities (or turnover under $50M), else 30%.
func companyTaxRate(in Input) float64 {
	if in.CompanyTaxRate > 0 {
		return in.CompanyTaxRate
	}
	if in.IsBaseRateEntity || in.AggregatedTurnover < baseRateTurnover {
		return baseRateEntityTaxRate
	}
	return standardTaxRate
}

// Eligibility is the outcome of the minimum expenditure threshold test.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Message  string `json:"message"`
}

// MeetsMinimumThreshold tests the $20,000 minimum notional deduction rule.
// RSP and CRC contribution expenditure are exempt from the minimum: if the
// whole deduction is RSP/CRC the entity is eligible regardless of size,
// otherwise the non-exempt portion must reach $20,000.
func MeetsMinimumThreshold(notionalDeductions, rspAmount, crcAmount float64) Eligibility {
	exempt := rspAmount + crcAmount
	if notionalDeductions <= exempt {
		return Eligibility{
			Eligible: true,
			Message:  "Eligible: expenditure is wholly RSP/CRC, which is exempt from the $20,000 minimum",
		}
	}

	remainder := notionalDeductions - exempt
	if remainder >= minimumExpenditure {
		return Eligibility{
			Eligible: true,
			Message:  "Eligible: non-RSP/CRC notional deductions meet the $20,000 minimum",
		}
	}

	return Eligibility{
		Eligible: false,
		Message:  "Not eligible: non-RSP/CRC notional deductions are below the $20,000 minimum",
	}
}

// RegistrationDeadline returns the ATO registration deadline for an income
// year: exactly ten calendar months after the income year end.
func RegistrationDeadline(incomeYearEnd time.Time) time.Time {
	return incomeYearEnd.AddDate(0, 10, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
