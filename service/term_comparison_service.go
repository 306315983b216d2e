package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"pledg/domain"
	"pledg/logger"
)

type TermComparisonService struct {
	bounds Bounds
}

func NewTermComparisonService(bounds Bounds) *TermComparisonService {
	return &TermComparisonService{bounds: bounds}
}

// CompareTerms evaluates every offered tenure and ranks them by preference.
func (s *TermComparisonService) CompareTerms(
	input domain.TermComparisonInput,
) (domain.TermComparisonResult, error) {

	if !isFinite(input.LoanAmount, input.AnnualInterestRatePercent, input.CapitalGainsAmount, input.MaxMonthlyInstallment) {
		return domain.TermComparisonResult{}, fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	}
	if input.LoanAmount <= 0 {
		return domain.TermComparisonResult{}, fmt.Errorf("%w: loan amount must be positive", ErrInvalidInput)
	}
	if input.AnnualInterestRatePercent < 0 || input.CapitalGainsAmount < 0 || input.MaxMonthlyInstallment < 0 {
		return domain.TermComparisonResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, ErrNegativeAmount)
	}

	if input.Preference == "" {
		input.Preference = "balanced"
	}
	preferences := map[string]bool{
		"minimize_interest":    true,
		"minimize_installment": true,
		"balanced":             true,
	}
	if !preferences[input.Preference] {
		return domain.TermComparisonResult{}, fmt.Errorf("%w: %q", ErrInvalidPreference, input.Preference)
	}

	minTerm, maxTerm := s.bounds.MinTermMonths, s.bounds.MaxTermMonths
	if minTerm < 1 {
		minTerm = 1
	}
	if maxTerm < minTerm {
		maxTerm = minTerm
	}

	type candidate struct {
		term        int
		installment float64
		interest    float64
	}
	candidates := []candidate{}

	for term := minTerm; term <= maxTerm; term++ {
		installment, interest, err := amortize(input.LoanAmount, input.AnnualInterestRatePercent, term)
		if err != nil {
			logger.Warn("skipping term", zap.Int("term", term), zap.Error(err))
			continue
		}
		if input.MaxMonthlyInstallment > 0 && installment > input.MaxMonthlyInstallment {
			continue
		}
		candidates = append(candidates, candidate{term: term, installment: installment, interest: interest})
	}

	if len(candidates) == 0 {
		return domain.TermComparisonResult{}, ErrNoTermMatches
	}

	// Normalization ranges for scoring (0-10).
	minInterest, maxInterest := candidates[0].interest, candidates[0].interest
	minInstallment, maxInstallment := candidates[0].installment, candidates[0].installment
	for _, c := range candidates[1:] {
		minInterest = min(minInterest, c.interest)
		maxInterest = max(maxInterest, c.interest)
		minInstallment = min(minInstallment, c.installment)
		maxInstallment = max(maxInstallment, c.installment)
	}

	taxPayable := input.CapitalGainsAmount * TaxRate
	options := make([]domain.TermOption, 0, len(candidates))

	for _, c := range candidates {
		interestScore := normalizedScore(c.interest, minInterest, maxInterest)
		installmentScore := normalizedScore(c.installment, minInstallment, maxInstallment)

		var score float64
		switch input.Preference {
		case "minimize_interest":
			score = 0.8*interestScore + 0.2*installmentScore
		case "minimize_installment":
			score = 0.2*interestScore + 0.8*installmentScore
		case "balanced":
			score = 0.5*interestScore + 0.5*installmentScore
		}

		options = append(options, domain.TermOption{
			TermMonths:         c.term,
			MonthlyInstallment: c.installment,
			TotalInterest:      c.interest,
			NetBenefit:         taxPayable - c.interest,
			Score:              roundTo2Decimals(score),
			Reason:             termReason(input.Preference),
		})
	}

	// Highest score first; shorter term wins ties.
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Score != options[j].Score {
			return options[i].Score > options[j].Score
		}
		return options[i].TermMonths < options[j].TermMonths
	})

	return domain.TermComparisonResult{
		RecommendedTerm: options[0].TermMonths,
		Options:         options,
	}, nil
}

// normalizedScore maps the lowest value to ScoreScale and the highest to 0.
func normalizedScore(value, lo, hi float64) float64 {
	if hi == lo {
		return ScoreScale
	}
	return ScoreScale * (1 - (value-lo)/(hi-lo))
}

func termReason(preference string) string {
	switch preference {
	case "minimize_interest":
		return "Tenure optimised to minimise total interest paid"
	case "minimize_installment":
		return "Tenure optimised to minimise the monthly installment"
	case "balanced":
		return "Balance between monthly installment and total interest"
	}
	return "Recommendation based on the provided parameters"
}
