package services

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/gradevault/card-arbitrage/backend/internal/models"
)

// ValuationService composes the matcher and the sanity average into a single
// estimate-with-provenance result. Its output carries no caller-supplied
// pricing, which is what makes it safe to cache.
type ValuationService struct {
	matcher *SalesMatcher
}

func NewValuationService(matcher *SalesMatcher) *ValuationService {
	return &ValuationService{matcher: matcher}
}

// Estimate runs the tiered lookup, extracts prices from whichever tier
// succeeded, and averages them. A result with no matches has a nil estimate
// and tier "none"; this is a normal outcome, not an error.
func (s *ValuationService) Estimate(q MatchQuery) models.ValuationResult {
	sales, tier := s.matcher.Match(q)

	salePrices := make([]decimal.Decimal, 0, len(sales))
	for _, sale := range sales {
		salePrices = append(salePrices, sale.Price)
	}

	estimated := SanityAverage(salePrices)
	if estimated != nil {
		log.Printf("Valuation: estimated $%s from %d sales (%s match)", estimated.StringFixed(2), len(sales), tier)
	}

	return models.ValuationResult{
		EstimatedValue: estimated,
		MatchTier:      tier,
		SalesCount:     len(sales),
		Sales:          sales,
	}
}

// CalculateProfitLoss compares an asking price to an estimated value and
// classifies the opportunity. Pure function: it is re-evaluated on every
// request because the asking price is request-scoped and never cached.
func CalculateProfitLoss(listingPrice decimal.Decimal, estimatedValue *decimal.Decimal) (*decimal.Decimal, string) {
	if estimatedValue == nil {
		return nil, "INSUFFICIENT DATA - No comparable sales found"
	}

	profitLoss := estimatedValue.Sub(listingPrice)

	var verdict string
	switch {
	case profitLoss.IsPositive():
		verdict = "GOOD DEAL - Potential profit: $" + profitLoss.StringFixed(2)
	case profitLoss.IsNegative():
		verdict = "OVERPRICED - Potential loss: $" + profitLoss.Abs().StringFixed(2)
	default:
		verdict = "FAIR PRICE - Listing matches market value"
	}

	return &profitLoss, verdict
}
