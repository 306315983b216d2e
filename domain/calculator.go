package domain

// CalculatorInput is the validated input of a single calculation.
type CalculatorInput struct {
	LoanAmount                float64 `json:"loanAmount"`
	LoanTermMonths            int     `json:"loanTermMonths"`
	AnnualInterestRatePercent float64 `json:"annualInterestRatePercent"`
	CapitalGainsAmount        float64 `json:"capitalGainsAmount"`
	CurrentAssetPrice         float64 `json:"currentAssetPrice"`
}

// RawCalculatorInput holds values as entered by the user, before
// normalization. A zero CurrentAssetPrice means "use the live feed".
type RawCalculatorInput struct {
	LoanAmount                float64 `json:"loanAmount"`
	LoanTermMonths            int     `json:"loanTermMonths"`
	AnnualInterestRatePercent float64 `json:"annualInterestRatePercent"`
	CapitalGainsAmount        float64 `json:"capitalGainsAmount"`
	CurrentAssetPrice         float64 `json:"currentAssetPrice,omitempty"`
}

type CalculatorResult struct {
	CollateralRequired        float64 `json:"collateralRequired"`
	CollateralRequiredInAsset float64 `json:"collateralRequiredInAsset"`
	MonthlyInstallment        float64 `json:"monthlyInstallment"`
	TotalInterest             float64 `json:"totalInterest"`
	TotalRepayment            float64 `json:"totalRepayment"`
	TaxPayable                float64 `json:"taxPayable"`
	NetBenefit                float64 `json:"netBenefit"`
	MarginCallPrice           float64 `json:"marginCallPrice"`
	MarginCallValue           float64 `json:"marginCallValue"`
	LiquidationPrice          float64 `json:"liquidationPrice"`
	LiquidationValue          float64 `json:"liquidationValue"`
	LoanToValuePercent        float64 `json:"loanToValuePercent"`
	PriceAvailable            bool    `json:"priceAvailable"`
	LiquidationPolicy         string  `json:"liquidationPolicy"`
}

// Installment is one row of an EMI repayment schedule.
type Installment struct {
	Month          int     `json:"month"`
	Payment        float64 `json:"payment"`
	Principal      float64 `json:"principal"`
	Interest       float64 `json:"interest"`
	ClosingBalance float64 `json:"closingBalance"`
}

type ScheduleInput struct {
	LoanAmount                float64 `json:"loanAmount"`
	LoanTermMonths            int     `json:"loanTermMonths"`
	AnnualInterestRatePercent float64 `json:"annualInterestRatePercent"`
}

type ScheduleResult struct {
	MonthlyInstallment float64       `json:"monthlyInstallment"`
	TotalInterest      float64       `json:"totalInterest"`
	TotalRepayment     float64       `json:"totalRepayment"`
	Installments       []Installment `json:"installments"`
}
