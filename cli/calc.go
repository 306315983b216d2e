package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pledg/config"
	"pledg/domain"
	"pledg/logger"
	"pledg/repository"
	"pledg/service"
)

type calcFlags struct {
	amount  float64
	term    int
	rate    float64
	gains   float64
	price   float64
	offline bool
	asJSON  bool
}

func calcCommand() *cobra.Command {
	f := &calcFlags{}
	c := &cobra.Command{
		Use:   "calc",
		Short: "Compare a collateralized loan against selling and paying tax",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalc(cmd, f)
		},
	}
	flags := c.Flags()
	flags.Float64Var(&f.amount, "amount", 1_000_000, "loan amount in INR")
	flags.IntVar(&f.term, "term", 12, "loan term in months")
	flags.Float64Var(&f.rate, "rate", service.MinInterestRate, "annual interest rate in percent")
	flags.Float64Var(&f.gains, "gains", 300_000, "capital gains that selling would realise, in INR")
	flags.Float64Var(&f.price, "price", 0, "BTC price in INR; fetched from the price feed when zero")
	flags.BoolVar(&f.offline, "offline", false, "skip the price feed and use the fallback price")
	flags.BoolVar(&f.asJSON, "json", false, "print the calculation as JSON")
	return c
}

// staticPrice serves a single snapshot.
type staticPrice domain.PriceSnapshot

func (s staticPrice) Snapshot() domain.PriceSnapshot { return domain.PriceSnapshot(s) }

func runCalc(cmd *cobra.Command, f *calcFlags) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logger.Init(logger.Options{Level: "warn", Format: "console"})
	defer logger.Sync()

	var prices service.PriceProvider = staticPrice{
		Price:  cfg.PriceFeed.FallbackPrice,
		Source: domain.PriceSourceFallback,
		Stale:  true,
	}
	if f.price == 0 && !f.offline {
		feed := service.NewPriceService(
			repository.NewHTTPPriceFeed(cfg.PriceFeed.URL, cfg.PriceFeed.Timeout),
			nil,
			nil,
			service.PriceServiceOptions{
				FetchTimeout:  cfg.PriceFeed.Timeout,
				FallbackPrice: cfg.PriceFeed.FallbackPrice,
			},
		)
		feed.Refresh(cmd.Context())
		prices = feed
	}

	calculator := service.NewCalculatorService(
		service.NewValidator(boundsFromConfig(cfg.Calculator)),
		prices,
		nil,
	)
	calc, err := calculator.Calculate(cmd.Context(), domain.RawCalculatorInput{
		LoanAmount:                f.amount,
		LoanTermMonths:            f.term,
		AnnualInterestRatePercent: f.rate,
		CapitalGainsAmount:        f.gains,
		CurrentAssetPrice:         f.price,
	})
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(calc)
	}
	return printCalculation(cmd.OutOrStdout(), calc)
}

func printCalculation(out io.Writer, calc service.Calculation) error {
	d := calc.Display
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	rows := [][2]string{
		{"Loan amount", service.FormatINR(calc.Input.LoanAmount)},
		{"Term", fmt.Sprintf("%d months at %.2f%%", calc.Input.LoanTermMonths, calc.Input.AnnualInterestRatePercent)},
		{"BTC price", fmt.Sprintf("%s (%s)", d.AssetPrice, calc.Price.Source)},
		{"Collateral required", d.CollateralRequired},
		{"Collateral in BTC", d.CollateralRequiredInAsset},
		{"Monthly EMI", d.MonthlyInstallment},
		{"Total interest", d.TotalInterest},
		{"Total repayment", d.TotalRepayment},
		{"Tax if sold", d.TaxPayable},
		{"Net benefit", d.NetBenefit},
		{"Margin call below", d.MarginCallPrice},
		{"Liquidation below", d.LiquidationPrice},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	if calc.PriceStale {
		if _, err := fmt.Fprintln(tw, "Note\tlive price unavailable, using last known price"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
