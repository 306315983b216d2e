package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"pledg/domain"
)

// Display carries presentation strings. Rounding happens here and nowhere in
// the model.
type Display struct {
	CollateralRequired        string `json:"collateralRequired"`
	CollateralRequiredInAsset string `json:"collateralRequiredInAsset"`
	MonthlyInstallment        string `json:"monthlyInstallment"`
	TotalInterest             string `json:"totalInterest"`
	TotalRepayment            string `json:"totalRepayment"`
	TaxPayable                string `json:"taxPayable"`
	NetBenefit                string `json:"netBenefit"`
	MarginCallPrice           string `json:"marginCallPrice,omitempty"`
	LiquidationPrice          string `json:"liquidationPrice,omitempty"`
	AssetPrice                string `json:"assetPrice"`
}

func NewDisplay(result domain.CalculatorResult, price float64) Display {
	d := Display{
		CollateralRequired: FormatINR(result.CollateralRequired),
		MonthlyInstallment: FormatINR(result.MonthlyInstallment),
		TotalInterest:      FormatINR(result.TotalInterest),
		TotalRepayment:     FormatINR(result.TotalRepayment),
		TaxPayable:         FormatINR(result.TaxPayable),
		NetBenefit:         FormatINR(result.NetBenefit),
		AssetPrice:         FormatINR(price),
	}
	if result.PriceAvailable {
		d.CollateralRequiredInAsset = FormatAsset(result.CollateralRequiredInAsset)
		d.MarginCallPrice = FormatINR(result.MarginCallPrice)
		d.LiquidationPrice = FormatINR(result.LiquidationPrice)
	}
	return d
}

// FormatINR renders a rupee amount with Indian digit grouping, e.g.
// ₹1,00,00,000 or -₹56,306.
func FormatINR(value float64) string {
	rounded := decimal.NewFromFloat(value).Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + "₹" + groupIndian(rounded.StringFixed(0))
}

// FormatAsset renders a BTC quantity to four decimals.
func FormatAsset(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(4) + " BTC"
}

// groupIndian inserts separators after the last three digits and then
// every two digits.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
