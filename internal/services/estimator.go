package services

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SanityAverage computes the outlier-resistant average used for valuations.
//
// With fewer than 3 prices every data point is informative, so the plain
// arithmetic mean is used. With 3 or more, exactly one lowest and one highest
// value are dropped before averaging, even when the extremes are tied. Returns
// nil when no prices are supplied.
func SanityAverage(prices []decimal.Decimal) *decimal.Decimal {
	if len(prices) == 0 {
		return nil
	}

	if len(prices) < 3 {
		avg := decimal.Avg(prices[0], prices[1:]...)
		return &avg
	}

	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	trimmed := sorted[1 : len(sorted)-1]
	avg := decimal.Avg(trimmed[0], trimmed[1:]...)
	return &avg
}
