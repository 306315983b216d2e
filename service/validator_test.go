package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pledg/domain"
)

func TestValidator_Normalize(t *testing.T) {
	v := NewValidator(DefaultBounds())

	tests := []struct {
		name string
		raw  domain.RawCalculatorInput
		want domain.CalculatorInput
	}{
		{
			name: "within bounds",
			raw:  domain.RawCalculatorInput{LoanAmount: 500_000, LoanTermMonths: 6, AnnualInterestRatePercent: 15, CapitalGainsAmount: 10},
			want: domain.CalculatorInput{LoanAmount: 500_000, LoanTermMonths: 6, AnnualInterestRatePercent: 15, CapitalGainsAmount: 10},
		},
		{
			name: "amount below minimum",
			raw:  domain.RawCalculatorInput{LoanAmount: 1_000, LoanTermMonths: 6, AnnualInterestRatePercent: 15},
			want: domain.CalculatorInput{LoanAmount: MinLoanAmount, LoanTermMonths: 6, AnnualInterestRatePercent: 15},
		},
		{
			name: "amount above maximum",
			raw:  domain.RawCalculatorInput{LoanAmount: 9_000_000, LoanTermMonths: 6, AnnualInterestRatePercent: 15},
			want: domain.CalculatorInput{LoanAmount: MaxLoanAmount, LoanTermMonths: 6, AnnualInterestRatePercent: 15},
		},
		{
			name: "rate below floor",
			raw:  domain.RawCalculatorInput{LoanAmount: 500_000, LoanTermMonths: 6, AnnualInterestRatePercent: 0},
			want: domain.CalculatorInput{LoanAmount: 500_000, LoanTermMonths: 6, AnnualInterestRatePercent: MinInterestRate},
		},
		{
			name: "term above maximum",
			raw:  domain.RawCalculatorInput{LoanAmount: 500_000, LoanTermMonths: 36, AnnualInterestRatePercent: 15},
			want: domain.CalculatorInput{LoanAmount: 500_000, LoanTermMonths: MaxTermMonths, AnnualInterestRatePercent: 15},
		},
		{
			name: "price kept",
			raw:  domain.RawCalculatorInput{LoanAmount: 500_000, LoanTermMonths: 6, AnnualInterestRatePercent: 15, CurrentAssetPrice: 9_000_000},
			want: domain.CalculatorInput{LoanAmount: 500_000, LoanTermMonths: 6, AnnualInterestRatePercent: 15, CurrentAssetPrice: 9_000_000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidator_Rejects(t *testing.T) {
	v := NewValidator(DefaultBounds())

	tests := []struct {
		name string
		raw  domain.RawCalculatorInput
		want error
	}{
		{"negative amount", domain.RawCalculatorInput{LoanAmount: -1, LoanTermMonths: 6}, ErrNegativeAmount},
		{"negative gains", domain.RawCalculatorInput{LoanAmount: 1, LoanTermMonths: 6, CapitalGainsAmount: -1}, ErrNegativeAmount},
		{"negative rate", domain.RawCalculatorInput{LoanAmount: 1, LoanTermMonths: 6, AnnualInterestRatePercent: -2}, ErrNegativeAmount},
		{"zero term", domain.RawCalculatorInput{LoanAmount: 1, LoanTermMonths: 0}, ErrInvalidTerm},
		{"infinite amount", domain.RawCalculatorInput{LoanAmount: math.Inf(1), LoanTermMonths: 6}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Normalize(tt.raw)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestValidator_CapsGainsWhenConfigured(t *testing.T) {
	bounds := DefaultBounds()
	bounds.MaxCapitalGains = 1_000_000
	v := NewValidator(bounds)

	got, err := v.Normalize(domain.RawCalculatorInput{
		LoanAmount:         500_000,
		LoanTermMonths:     6,
		CapitalGainsAmount: 5_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, got.CapitalGainsAmount)
}

func TestValidator_NormalizeIsPure(t *testing.T) {
	v := NewValidator(DefaultBounds())
	raw := domain.RawCalculatorInput{LoanAmount: 10, LoanTermMonths: 99, AnnualInterestRatePercent: 1}

	first, err := v.Normalize(raw)
	require.NoError(t, err)
	second, err := v.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 10.0, raw.LoanAmount)
}
