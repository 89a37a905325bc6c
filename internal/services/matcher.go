package services

import (
	"log"
	"sort"

	"gorm.io/gorm"

	"github.com/gradevault/card-arbitrage/backend/internal/models"
)

const (
	// DefaultSimilarityThreshold is the trigram similarity a fuzzy player
	// match must exceed (same scale as pg_trgm's default threshold).
	DefaultSimilarityThreshold = 0.3

	// DefaultMatchLimit caps the number of comparable sales per tier.
	DefaultMatchLimit = 10
)

// MatchQuery carries the normalized identifiers and optional attributes for a
// comparable-sales lookup. Identifiers must already be normalized; nil/empty
// optional fields mean "do not filter on this attribute".
type MatchQuery struct {
	PlayerID    string
	BrandID     string
	VariationID string
	Year        *int
	Grade       *float64
	Grader      string
}

// SalesMatcher executes the two-tier comparable-sales lookup against the
// sales history store: an exact tier, then a fuzzy fallback tier that is only
// consulted when the exact tier comes back empty.
type SalesMatcher struct {
	db        *gorm.DB
	threshold float64
	limit     int
}

// NewSalesMatcher creates a matcher. Non-positive threshold or limit values
// fall back to the defaults.
func NewSalesMatcher(db *gorm.DB, threshold float64, limit int) *SalesMatcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	return &SalesMatcher{
		db:        db,
		threshold: threshold,
		limit:     limit,
	}
}

// Match runs the tiered lookup and reports which tier produced the results.
// Tier 2 supplements nothing: it runs only when Tier 1 found zero records.
// A failed query inside a tier counts as zero records for that tier, so a
// store error degrades to a "none" match rather than failing the request.
func (m *SalesMatcher) Match(q MatchQuery) ([]models.SaleRecord, models.MatchTier) {
	sales := m.queryExact(q)
	if len(sales) > 0 {
		log.Printf("Matcher: exact tier found %d sales for %s", len(sales), q.PlayerID)
		return sales, models.MatchTierExact
	}

	sales = m.queryFuzzy(q)
	if len(sales) > 0 {
		log.Printf("Matcher: fuzzy tier found %d sales for %s", len(sales), q.PlayerID)
		return sales, models.MatchTierFuzzy
	}

	log.Printf("Matcher: no sales found for %s - %s", q.PlayerID, q.BrandID)
	return nil, models.MatchTierNone
}

// queryExact is Tier 1: equality on player, brand, and variation identifiers,
// plus grade and grader when the caller supplied them. Most recent sales first.
func (m *SalesMatcher) queryExact(q MatchQuery) []models.SaleRecord {
	query := m.db.
		Where("player_id = ?", q.PlayerID).
		Where("brand_id = ?", q.BrandID).
		Where("variation_id = ?", q.VariationID)

	if q.Grade != nil {
		query = query.Where("grade = ?", *q.Grade)
	}
	if q.Grader != "" {
		query = query.Where("grader = ?", q.Grader)
	}

	var sales []models.SaleRecord
	if err := query.Order("sold_at DESC").Limit(m.limit).Find(&sales).Error; err != nil {
		log.Printf("Matcher: exact tier query failed: %v", err)
		return nil
	}
	return sales
}

// queryFuzzy is Tier 2: exact brand (and year when supplied), approximate
// player match by trigram similarity. Grade and grader are deliberately not
// filtered here; the fuzzy tier trades specificity for recall. The candidate
// rows are pre-filtered by the exact predicates in SQL and scored in process,
// since sqlite has no trigram operator.
func (m *SalesMatcher) queryFuzzy(q MatchQuery) []models.SaleRecord {
	query := m.db.Where("brand_id = ?", q.BrandID)
	if q.Year != nil {
		query = query.Where("year = ?", *q.Year)
	}

	var candidates []models.SaleRecord
	if err := query.Find(&candidates).Error; err != nil {
		log.Printf("Matcher: fuzzy tier query failed: %v", err)
		return nil
	}

	type scored struct {
		sale       models.SaleRecord
		similarity float64
	}

	matches := make([]scored, 0, len(candidates))
	for _, sale := range candidates {
		// Strictly above, matching pg_trgm's % operator
		sim := TrigramSimilarity(sale.PlayerID, q.PlayerID)
		if sim > m.threshold {
			matches = append(matches, scored{sale: sale, similarity: sim})
		}
	}

	// Most similar first, ties broken by recency
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].similarity != matches[j].similarity {
			return matches[i].similarity > matches[j].similarity
		}
		return matches[i].sale.SoldAt.After(matches[j].sale.SoldAt)
	})

	if len(matches) > m.limit {
		matches = matches[:m.limit]
	}

	sales := make([]models.SaleRecord, 0, len(matches))
	for _, s := range matches {
		sales = append(sales, s.sale)
	}
	return sales
}
