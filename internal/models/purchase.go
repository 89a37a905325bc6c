package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase records a completed buy along with the valuation that justified it.
// Creating a purchase also appends a SaleRecord so the price feeds future
// comparable-sales lookups.
type Purchase struct {
	ID           uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	ListingTitle string          `json:"listing_title" gorm:"not null"`
	ListingPrice decimal.Decimal `json:"listing_price" gorm:"type:numeric(10,2);not null"`

	// Parsed card details as extracted from the listing title
	PlayerName string  `json:"player_name" gorm:"index"`
	Year       int     `json:"year"`
	Brand      string  `json:"brand"`
	Variation  string  `json:"variation"`
	Grade      float64 `json:"grade"`
	Grader     string  `json:"grader"`

	// Normalized identifiers used for matching
	PlayerID    string `json:"player_id" gorm:"index"`
	BrandID     string `json:"brand_id"`
	VariationID string `json:"variation_id"`

	// Valuation snapshot at time of purchase
	EstimatedValue *decimal.Decimal `json:"estimated_value" gorm:"type:numeric(10,2)"`
	ProfitLoss     *decimal.Decimal `json:"profit_loss" gorm:"type:numeric(10,2)"`
	MatchTier      MatchTier        `json:"match_tier"`
	SalesCount     int              `json:"sales_count"`
	Confidence     string           `json:"confidence"`
	ParsedData     string           `json:"parsed_data,omitempty" gorm:"type:text"` // JSON blob of full parser output

	PurchasedAt time.Time `json:"purchased_at" gorm:"index"`
}

// PurchasePage is the paginated response shape for purchase listing.
type PurchasePage struct {
	Total     int64      `json:"total"`
	Purchases []Purchase `json:"purchases"`
}
