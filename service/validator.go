package service

import (
	"fmt"

	"pledg/domain"
)

// Bounds is the product policy applied to user input before Compute. Compute
// itself accepts any non-negative value.
type Bounds struct {
	MinLoanAmount   float64
	MaxLoanAmount   float64
	MinInterestRate float64
	MinTermMonths   int
	MaxTermMonths   int
	// MaxCapitalGains caps the gains field when positive.
	MaxCapitalGains float64
}

func DefaultBounds() Bounds {
	return Bounds{
		MinLoanAmount:   MinLoanAmount,
		MaxLoanAmount:   MaxLoanAmount,
		MinInterestRate: MinInterestRate,
		MinTermMonths:   MinTermMonths,
		MaxTermMonths:   MaxTermMonths,
	}
}

type Validator struct {
	bounds Bounds
}

func NewValidator(bounds Bounds) *Validator {
	return &Validator{bounds: bounds}
}

// Normalize rejects values no policy can repair (negative, non-finite, a
// term below one month) and clamps the rest to the configured bounds.
func (v *Validator) Normalize(raw domain.RawCalculatorInput) (domain.CalculatorInput, error) {
	if !isFinite(raw.LoanAmount, raw.AnnualInterestRatePercent, raw.CapitalGainsAmount, raw.CurrentAssetPrice) {
		return domain.CalculatorInput{}, fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	}
	if raw.LoanAmount < 0 {
		return domain.CalculatorInput{}, fmt.Errorf("%w: loan amount: %w", ErrInvalidInput, ErrNegativeAmount)
	}
	if raw.CapitalGainsAmount < 0 {
		return domain.CalculatorInput{}, fmt.Errorf("%w: capital gains: %w", ErrInvalidInput, ErrNegativeAmount)
	}
	if raw.AnnualInterestRatePercent < 0 {
		return domain.CalculatorInput{}, fmt.Errorf("%w: interest rate: %w", ErrInvalidInput, ErrNegativeAmount)
	}
	if raw.LoanTermMonths <= 0 {
		return domain.CalculatorInput{}, fmt.Errorf("%w: %w", ErrInvalidInput, ErrInvalidTerm)
	}

	out := domain.CalculatorInput{
		LoanAmount:                clamp(raw.LoanAmount, v.bounds.MinLoanAmount, v.bounds.MaxLoanAmount),
		LoanTermMonths:            raw.LoanTermMonths,
		AnnualInterestRatePercent: raw.AnnualInterestRatePercent,
		CapitalGainsAmount:        raw.CapitalGainsAmount,
		CurrentAssetPrice:         raw.CurrentAssetPrice,
	}

	if out.AnnualInterestRatePercent < v.bounds.MinInterestRate {
		out.AnnualInterestRatePercent = v.bounds.MinInterestRate
	}
	if v.bounds.MinTermMonths > 0 && out.LoanTermMonths < v.bounds.MinTermMonths {
		out.LoanTermMonths = v.bounds.MinTermMonths
	}
	if v.bounds.MaxTermMonths > 0 && out.LoanTermMonths > v.bounds.MaxTermMonths {
		out.LoanTermMonths = v.bounds.MaxTermMonths
	}
	if v.bounds.MaxCapitalGains > 0 && out.CapitalGainsAmount > v.bounds.MaxCapitalGains {
		out.CapitalGainsAmount = v.bounds.MaxCapitalGains
	}
	if out.CurrentAssetPrice < 0 {
		out.CurrentAssetPrice = 0
	}

	return out, nil
}

// clamp ignores a bound that is zero.
func clamp(value, lo, hi float64) float64 {
	if lo > 0 && value < lo {
		return lo
	}
	if hi > 0 && value > hi {
		return hi
	}
	return value
}
