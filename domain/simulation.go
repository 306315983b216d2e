package domain

// RiskZone classifies a position by its current loan-to-value ratio.
type RiskZone string

const (
	RiskZoneHealthy     RiskZone = "healthy"
	RiskZoneMarginCall  RiskZone = "margin_call"
	RiskZoneLiquidation RiskZone = "liquidation"
)

type SimulationInput struct {
	LoanAmount       float64 `json:"loanAmount"`
	OriginationPrice float64 `json:"originationPrice,omitempty"`
	SimulatedPrice   float64 `json:"simulatedPrice"`
}

type SimulationResult struct {
	CollateralInAsset          float64  `json:"collateralInAsset"`
	CollateralValue            float64  `json:"collateralValue"`
	CurrentLTVPercent          float64  `json:"currentLtvPercent"`
	Zone                       RiskZone `json:"zone"`
	MarginCallPrice            float64  `json:"marginCallPrice"`
	LiquidationPrice           float64  `json:"liquidationPrice"`
	// SafetyBufferPercent is how far the price can fall from origination
	// before liquidation starts.
	SafetyBufferPercent        float64  `json:"safetyBufferPercent"`
	AssetToLiquidate           float64  `json:"assetToLiquidate"`
	LoanAfterLiquidation       float64  `json:"loanAfterLiquidation"`
	CollateralAfterLiquidation float64  `json:"collateralAfterLiquidation"`
	Message                    string   `json:"message"`
}

// SellVsBorrow contrasts selling an appreciated holding with pledging it.
type SellVsBorrow struct {
	HoldingValue      float64 `json:"holdingValue"`
	AssumedGain       float64 `json:"assumedGain"`
	TaxOnSale         float64 `json:"taxOnSale"`
	NetAfterSale      float64 `json:"netAfterSale"`
	LoanAvailable     float64 `json:"loanAvailable"`
	TaxOnLoan         float64 `json:"taxOnLoan"`
	OwnershipRetained bool    `json:"ownershipRetained"`
}
