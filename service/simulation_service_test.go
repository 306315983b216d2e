package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pledg/domain"
)

type fixedPrice float64

func (p fixedPrice) Snapshot() domain.PriceSnapshot {
	return domain.PriceSnapshot{Price: float64(p), Source: domain.PriceSourceLive}
}

func TestSimulate_Zones(t *testing.T) {
	const origination = 8_500_000.0

	tests := []struct {
		name  string
		price float64
		zone  domain.RiskZone
	}{
		{"unchanged", origination, domain.RiskZoneHealthy},
		{"small drop", origination * 0.8, domain.RiskZoneHealthy},
		{"margin call", origination * 0.7, domain.RiskZoneMarginCall},
		{"liquidation", origination * 0.55, domain.RiskZoneLiquidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Simulate(domain.SimulationInput{
				LoanAmount:       1_000_000,
				OriginationPrice: origination,
				SimulatedPrice:   tt.price,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.zone, result.Zone)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestSimulate_PartialLiquidationRestoresOriginationLTV(t *testing.T) {
	result, err := Simulate(domain.SimulationInput{
		LoanAmount:       1_000_000,
		OriginationPrice: 8_500_000,
		SimulatedPrice:   4_800_000,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RiskZoneLiquidation, result.Zone)

	assert.Greater(t, result.AssetToLiquidate, 0.0)
	assert.Less(t, result.AssetToLiquidate, result.CollateralInAsset)

	remainingValue := result.CollateralAfterLiquidation * 4_800_000
	assert.InDelta(t, OriginationLTV, result.LoanAfterLiquidation/remainingValue, 1e-9)
}

func TestSimulate_FullSaleWhenUnderwater(t *testing.T) {
	result, err := Simulate(domain.SimulationInput{
		LoanAmount:       1_000_000,
		OriginationPrice: 8_500_000,
		SimulatedPrice:   1_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskZoneLiquidation, result.Zone)
	assert.Equal(t, result.CollateralInAsset, result.AssetToLiquidate)
	assert.Zero(t, result.CollateralAfterLiquidation)
	assert.Greater(t, result.LoanAfterLiquidation, 0.0)
}

func TestSimulationService_UsesSnapshotPrice(t *testing.T) {
	svc := NewSimulationService(fixedPrice(8_500_000))

	result, err := svc.Simulate(domain.SimulationInput{LoanAmount: 1_000_000, SimulatedPrice: 8_500_000})
	require.NoError(t, err)
	assert.InDelta(t, 2_000_000/8_500_000.0, result.CollateralInAsset, 1e-12)
	assert.InDelta(t, 50, result.CurrentLTVPercent, 1e-9)
	assert.InDelta(t, 8_500_000/1.4, result.MarginCallPrice, 1e-6)
}

func TestSimulate_SafetyBuffer(t *testing.T) {
	for _, price := range []float64{4_000_000, 8_500_000, 12_000_000} {
		result, err := Simulate(domain.SimulationInput{
			LoanAmount:       1_000_000,
			OriginationPrice: 8_500_000,
			SimulatedPrice:   price,
		})
		require.NoError(t, err)
		assert.InDelta(t, (1-OriginationLTV/LiquidationLTV)*100, result.SafetyBufferPercent, 1e-9)
		assert.InDelta(t, 8_500_000*(1-result.SafetyBufferPercent/100), result.LiquidationPrice, 1e-6)
	}
}

func TestSimulate_RejectsMissingPrice(t *testing.T) {
	_, err := Simulate(domain.SimulationInput{LoanAmount: 1_000_000, SimulatedPrice: 100})
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	_, err = Simulate(domain.SimulationInput{OriginationPrice: 1, SimulatedPrice: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompareSellVsBorrow(t *testing.T) {
	result, err := CompareSellVsBorrow(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20_000_000.0, result.HoldingValue)
	assert.InDelta(t, 3_120_000, result.TaxOnSale, 1e-6)
	assert.InDelta(t, 16_880_000, result.NetAfterSale, 1e-6)
	assert.Equal(t, 10_000_000.0, result.LoanAvailable)
	assert.Zero(t, result.TaxOnLoan)
	assert.True(t, result.OwnershipRetained)

	_, err = CompareSellVsBorrow(100, 200)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
