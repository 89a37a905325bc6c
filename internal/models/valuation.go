package models

import (
	"github.com/shopspring/decimal"
)

// MatchTier identifies which matching strategy produced the comparable sales
// used for a valuation. Surfaced to callers for transparency.
type MatchTier string

const (
	MatchTierExact MatchTier = "exact"
	MatchTierFuzzy MatchTier = "fuzzy"
	MatchTierNone  MatchTier = "none"
)

// ValuationResult bundles the output of the valuation pipeline: the estimated
// value (nil when no comparable sales exist), the tier that produced the
// matches, and the raw records so callers can display the comps.
type ValuationResult struct {
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	MatchTier      MatchTier        `json:"match_tier"`
	SalesCount     int              `json:"sales_count"`
	Sales          []SaleRecord     `json:"sales_data"`
}
