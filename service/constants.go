package service

const (
	// 30% flat tax on virtual digital asset gains plus 4% cess on the tax.
	TaxRate = 0.312

	OriginationLTV = 0.50
	MarginCallLTV  = 0.70
	LiquidationLTV = 0.8333

	FallbackAssetPrice = 8_500_000.0 // INR

	MinLoanAmount      = 50_000.0
	MaxLoanAmount      = 5_000_000.0
	MinInterestRate    = 13.5 // % APR
	MinTermMonths      = 1
	MaxTermMonths      = 12
	MaxNotesLength     = 1000
	MaxWaitlistAmount  = 1_000_000_000.0
	ScoreScale         = 10.0
	SellVsBorrowValue  = 20_000_000.0 // 2 Cr holding
	SellVsBorrowGain   = 10_000_000.0 // 1 Cr assumed gain
	DefaultEntrySource = "website"

	LiquidationPolicy = "Liquidation is partial: only enough Bitcoin is sold to bring the loan back to a healthy LTV. " +
		"Your entire position is never liquidated in a single event."
)
