package service

import (
	"fmt"

	"pledg/domain"
)

type SimulationService struct {
	prices PriceProvider
}

func NewSimulationService(prices PriceProvider) *SimulationService {
	return &SimulationService{prices: prices}
}

// Simulate sizes collateral at the origination price (the latest snapshot
// when omitted) and classifies the position at SimulatedPrice.
func (s *SimulationService) Simulate(input domain.SimulationInput) (domain.SimulationResult, error) {
	if input.OriginationPrice == 0 && s.prices != nil {
		input.OriginationPrice = s.prices.Snapshot().Price
	}
	return Simulate(input)
}

// Simulate is the pure form of SimulationService.Simulate. In the
// liquidation zone it returns the smallest sale that brings the loan back to
// the origination LTV, with sale proceeds repaying the loan.
func Simulate(input domain.SimulationInput) (domain.SimulationResult, error) {
	if !isFinite(input.LoanAmount, input.OriginationPrice, input.SimulatedPrice) {
		return domain.SimulationResult{}, fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	}
	if input.LoanAmount <= 0 {
		return domain.SimulationResult{}, fmt.Errorf("%w: loan amount must be positive", ErrInvalidInput)
	}
	if input.OriginationPrice <= 0 || input.SimulatedPrice <= 0 {
		return domain.SimulationResult{}, fmt.Errorf("%w: prices must be positive", ErrPriceUnavailable)
	}

	loan := input.LoanAmount
	units := (loan / OriginationLTV) / input.OriginationPrice
	value := units * input.SimulatedPrice
	ltv := loan / value

	result := domain.SimulationResult{
		CollateralInAsset:          units,
		CollateralValue:            value,
		CurrentLTVPercent:          ltv * 100,
		MarginCallPrice:            (loan / MarginCallLTV) / units,
		LiquidationPrice:           (loan / LiquidationLTV) / units,
		LoanAfterLiquidation:       loan,
		CollateralAfterLiquidation: units,
	}
	result.SafetyBufferPercent = (input.OriginationPrice - result.LiquidationPrice) / input.OriginationPrice * 100

	switch {
	case ltv >= LiquidationLTV:
		result.Zone = domain.RiskZoneLiquidation
		sell := (loan - OriginationLTV*value) / (input.SimulatedPrice * (1 - OriginationLTV))
		if sell >= units {
			sell = units
			result.Message = "Collateral no longer covers the loan; the full pledge would be sold to repay it."
		} else {
			result.Message = "Only enough Bitcoin is sold to restore a healthy LTV; the rest of your position is kept."
		}
		result.AssetToLiquidate = sell
		result.LoanAfterLiquidation = max(loan-sell*input.SimulatedPrice, 0)
		result.CollateralAfterLiquidation = units - sell
	case ltv >= MarginCallLTV:
		result.Zone = domain.RiskZoneMarginCall
		result.Message = "Margin call: add collateral or repay part of the loan to avoid a partial liquidation."
	default:
		result.Zone = domain.RiskZoneHealthy
		result.Message = "Position is healthy."
	}

	return result, nil
}

// CompareSellVsBorrow contrasts selling a holding, paying tax on the gain,
// with pledging it at the origination LTV. Zero arguments select the
// reference example of a 2 Cr holding with a 1 Cr gain.
func CompareSellVsBorrow(holdingValue, assumedGain float64) (domain.SellVsBorrow, error) {
	if holdingValue == 0 && assumedGain == 0 {
		holdingValue, assumedGain = SellVsBorrowValue, SellVsBorrowGain
	}
	if !isFinite(holdingValue, assumedGain) || holdingValue < 0 || assumedGain < 0 {
		return domain.SellVsBorrow{}, fmt.Errorf("%w: holding and gain must be non-negative", ErrInvalidInput)
	}
	if assumedGain > holdingValue {
		return domain.SellVsBorrow{}, fmt.Errorf("%w: gain exceeds holding value", ErrInvalidInput)
	}

	tax := assumedGain * TaxRate
	return domain.SellVsBorrow{
		HoldingValue:      holdingValue,
		AssumedGain:       assumedGain,
		TaxOnSale:         tax,
		NetAfterSale:      holdingValue - tax,
		LoanAvailable:     holdingValue * OriginationLTV,
		TaxOnLoan:         0,
		OwnershipRetained: true,
	}, nil
}
