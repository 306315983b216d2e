package domain

type TermComparisonInput struct {
	LoanAmount                float64 `json:"loanAmount"`
	AnnualInterestRatePercent float64 `json:"annualInterestRatePercent"`
	CapitalGainsAmount        float64 `json:"capitalGainsAmount"`
	MaxMonthlyInstallment     float64 `json:"maxMonthlyInstallment,omitempty"`
	Preference                string  `json:"preference"` // "minimize_interest", "minimize_installment", "balanced"
}

type TermOption struct {
	TermMonths         int     `json:"termMonths"`
	MonthlyInstallment float64 `json:"monthlyInstallment"`
	TotalInterest      float64 `json:"totalInterest"`
	NetBenefit         float64 `json:"netBenefit"`
	Score              float64 `json:"score"`
	Reason             string  `json:"reason"`
}

type TermComparisonResult struct {
	RecommendedTerm int          `json:"recommendedTerm"`
	Options         []TermOption `json:"options"`
}
