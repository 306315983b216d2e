package service

import (
	"fmt"
	"math"

	"pledg/domain"
)

// roundTo2Decimals rounds to paise. Only used for schedule rows and scores;
// Compute never rounds.
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Compute derives every figure of a calculation from a single input. It is
// pure: identical input yields bit-identical output.
//
// A non-positive or non-finite CurrentAssetPrice only blocks the
// price-denominated outputs; PriceAvailable reports whether they were
// computed.
func Compute(input domain.CalculatorInput) (domain.CalculatorResult, error) {
	if !isFinite(input.LoanAmount, input.AnnualInterestRatePercent, input.CapitalGainsAmount) {
		return domain.CalculatorResult{}, fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	}
	if input.LoanAmount < 0 || input.CapitalGainsAmount < 0 || input.AnnualInterestRatePercent < 0 {
		return domain.CalculatorResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, ErrNegativeAmount)
	}

	installment, totalInterest, err := amortize(input.LoanAmount, input.AnnualInterestRatePercent, input.LoanTermMonths)
	if err != nil {
		return domain.CalculatorResult{}, err
	}

	taxPayable := input.CapitalGainsAmount * TaxRate

	result := domain.CalculatorResult{
		CollateralRequired: input.LoanAmount / OriginationLTV,
		MonthlyInstallment: installment,
		TotalInterest:      totalInterest,
		TotalRepayment:     input.LoanAmount + totalInterest,
		TaxPayable:         taxPayable,
		NetBenefit:         taxPayable - totalInterest,
		MarginCallValue:    input.LoanAmount / MarginCallLTV,
		LiquidationValue:   input.LoanAmount / LiquidationLTV,
		LoanToValuePercent: OriginationLTV * 100,
		LiquidationPolicy:  LiquidationPolicy,
	}

	applyRiskThresholds(&result, input.CurrentAssetPrice)

	if !isFinite(
		result.CollateralRequired, result.CollateralRequiredInAsset, result.MonthlyInstallment,
		result.TotalInterest, result.TotalRepayment, result.TaxPayable, result.NetBenefit,
		result.MarginCallPrice, result.MarginCallValue, result.LiquidationPrice, result.LiquidationValue,
	) {
		return domain.CalculatorResult{}, ErrNonFiniteResult
	}

	return result, nil
}

// amortize returns the level monthly installment and the total interest of
// an equal-installment loan.
func amortize(amount, annualRatePercent float64, termMonths int) (float64, float64, error) {
	if termMonths <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidTerm, termMonths)
	}

	n := float64(termMonths)
	monthlyRate := annualRatePercent / 100 / 12

	if monthlyRate == 0 {
		return amount / n, 0, nil
	}

	// 1-(1+r)^-n through log1p/expm1 stays exact for rates that vanish
	// next to 1.
	discount := -math.Expm1(-n * math.Log1p(monthlyRate))
	installment := max(amount*monthlyRate/discount, amount/n)
	totalInterest := max(installment*n-amount, 0)

	if !isFinite(installment, totalInterest) {
		return 0, 0, ErrNonFiniteResult
	}
	return installment, totalInterest, nil
}

// applyRiskThresholds sizes the pledged quantity at origination and finds the
// prices at which the loan-to-value ratio reaches each threshold, assuming
// only the price moves afterwards.
func applyRiskThresholds(result *domain.CalculatorResult, price float64) {
	if price <= 0 || !isFinite(price) {
		return
	}

	units := result.CollateralRequired / price
	if units == 0 {
		return
	}

	result.CollateralRequiredInAsset = units
	result.MarginCallPrice = result.MarginCallValue / units
	result.LiquidationPrice = result.LiquidationValue / units
	result.PriceAvailable = true
}

// Schedule breaks an equal-installment loan into monthly rows. The last row
// absorbs rounding so the closing balance is exactly zero.
func Schedule(input domain.ScheduleInput) (domain.ScheduleResult, error) {
	if !isFinite(input.LoanAmount, input.AnnualInterestRatePercent) {
		return domain.ScheduleResult{}, fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	}
	if input.LoanAmount < 0 || input.AnnualInterestRatePercent < 0 {
		return domain.ScheduleResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, ErrNegativeAmount)
	}

	if input.LoanTermMonths < MinTermMonths || input.LoanTermMonths > MaxTermMonths {
		return domain.ScheduleResult{}, fmt.Errorf("%w: %d", ErrInvalidTerm, input.LoanTermMonths)
	}

	installment, totalInterest, err := amortize(input.LoanAmount, input.AnnualInterestRatePercent, input.LoanTermMonths)
	if err != nil {
		return domain.ScheduleResult{}, err
	}

	monthlyRate := input.AnnualInterestRatePercent / 100 / 12
	balance := input.LoanAmount
	rows := make([]domain.Installment, 0, input.LoanTermMonths)

	for month := 1; month <= input.LoanTermMonths; month++ {
		interest := balance * monthlyRate
		principal := installment - interest
		if month == input.LoanTermMonths {
			principal = balance
		}
		balance -= principal

		rows = append(rows, domain.Installment{
			Month:          month,
			Payment:        roundTo2Decimals(principal + interest),
			Principal:      roundTo2Decimals(principal),
			Interest:       roundTo2Decimals(interest),
			ClosingBalance: roundTo2Decimals(math.Max(balance, 0)),
		})
	}

	return domain.ScheduleResult{
		MonthlyInstallment: installment,
		TotalInterest:      totalInterest,
		TotalRepayment:     input.LoanAmount + totalInterest,
		Installments:       rows,
	}, nil
}
