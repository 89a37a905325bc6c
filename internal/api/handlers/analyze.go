package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gradevault/card-arbitrage/backend/internal/cache"
	"github.com/gradevault/card-arbitrage/backend/internal/metrics"
	"github.com/gradevault/card-arbitrage/backend/internal/models"
	"github.com/gradevault/card-arbitrage/backend/internal/services"
	"github.com/gradevault/card-arbitrage/backend/internal/slug"
)

const (
	// parserMaxRetries bounds retries of the title-parsing collaborator.
	parserMaxRetries = 2

	// maxTitleLength rejects absurd inputs before they reach the parser.
	maxTitleLength = 500

	// maxBulkListings caps a single bulk request.
	maxBulkListings = 50

	// defaultVariation is assumed when a listing names no parallel/insert.
	defaultVariation = "Base"
)

type AnalyzeHandler struct {
	parser       services.TitleParser
	parserSource string // "remote" or "heuristic", for metrics
	valuation    *services.ValuationService
	store        cache.Store
	cacheTTL     time.Duration
}

func NewAnalyzeHandler(parser services.TitleParser, parserSource string, valuation *services.ValuationService, store cache.Store, cacheTTL time.Duration) *AnalyzeHandler {
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}
	return &AnalyzeHandler{
		parser:       parser,
		parserSource: parserSource,
		valuation:    valuation,
		store:        store,
		cacheTTL:     cacheTTL,
	}
}

type AnalyzeRequest struct {
	Title        string          `json:"title" binding:"required"`
	ListingPrice decimal.Decimal `json:"listing_price"`
}

type AnalyzeResponse struct {
	ParsedData     services.ParsedCard `json:"parsed_data"`
	EstimatedValue *decimal.Decimal    `json:"estimated_value"`
	ProfitLoss     *decimal.Decimal    `json:"profit_loss"`
	Verdict        string              `json:"verdict"`
	MatchTier      models.MatchTier    `json:"match_tier"`
	SalesCount     int                 `json:"sales_count"`
	Cached         bool                `json:"cached"`
}

// cachedAnalysis is the cache entry shape: the valuation minus anything
// derived from the caller's asking price. Profit/loss and verdict are
// recomputed on every request.
type cachedAnalysis struct {
	ParsedData     services.ParsedCard `json:"parsed_data"`
	EstimatedValue *decimal.Decimal    `json:"estimated_value"`
	MatchTier      models.MatchTier    `json:"match_tier"`
	SalesCount     int                 `json:"sales_count"`
}

// AnalyzeListing handles POST /api/analyze: parse the title, look up
// comparable sales, estimate value, and return a buy/pass verdict.
func (h *AnalyzeHandler) AnalyzeListing(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateListing(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.analyzeListing(c.Request.Context(), req.Title, req.ListingPrice)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func validateListing(req *AnalyzeRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(req.Title) > maxTitleLength {
		return fmt.Errorf("title exceeds %d characters", maxTitleLength)
	}
	if !req.ListingPrice.IsPositive() {
		return fmt.Errorf("listing_price must be greater than zero")
	}
	return nil
}

// analyzeListing runs the full pipeline for one listing. The cache
// short-circuits parsing and matching; the verdict is always recomputed
// because the asking price is request-scoped.
func (h *AnalyzeHandler) analyzeListing(ctx context.Context, title string, listingPrice decimal.Decimal) (*AnalyzeResponse, error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	key := cache.Key("analysis", title)
	if raw, ok := h.store.Get(ctx, key); ok {
		var entry cachedAnalysis
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Printf("Analyze: corrupt cache entry %s, recomputing: %v", key, err)
		} else {
			metrics.CacheHitsTotal.Inc()
			metrics.AnalysesTotal.WithLabelValues(string(entry.MatchTier), "true").Inc()

			profitLoss, verdict := services.CalculateProfitLoss(listingPrice, entry.EstimatedValue)
			return &AnalyzeResponse{
				ParsedData:     entry.ParsedData,
				EstimatedValue: entry.EstimatedValue,
				ProfitLoss:     profitLoss,
				Verdict:        verdict,
				MatchTier:      entry.MatchTier,
				SalesCount:     entry.SalesCount,
				Cached:         true,
			}, nil
		}
	}
	metrics.CacheMissesTotal.Inc()

	parsed, err := services.ParseTitleWithRetry(ctx, h.parser, title, parserMaxRetries)
	if err != nil {
		metrics.ParserRequestsTotal.WithLabelValues(h.parserSource, "failed").Inc()
		return nil, fmt.Errorf("failed to parse listing title: %w", err)
	}
	metrics.ParserRequestsTotal.WithLabelValues(h.parserSource, "success").Inc()

	query := services.MatchQuery{
		PlayerID:    slug.Normalize(parsed.PlayerName),
		BrandID:     slug.Normalize(parsed.Brand),
		VariationID: slug.NormalizeOr(parsed.Variation, defaultVariation),
		Year:        parsed.Year,
		Grade:       parsed.Grade,
		Grader:      parsed.GradingCompany,
	}

	result := h.valuation.Estimate(query)

	entry := cachedAnalysis{
		ParsedData:     *parsed,
		EstimatedValue: result.EstimatedValue,
		MatchTier:      result.MatchTier,
		SalesCount:     result.SalesCount,
	}
	if raw, err := json.Marshal(entry); err == nil {
		h.store.Set(ctx, key, raw, h.cacheTTL)
	} else {
		log.Printf("Analyze: failed to serialize cache entry: %v", err)
	}

	metrics.AnalysesTotal.WithLabelValues(string(result.MatchTier), "false").Inc()

	profitLoss, verdict := services.CalculateProfitLoss(listingPrice, result.EstimatedValue)
	return &AnalyzeResponse{
		ParsedData:     *parsed,
		EstimatedValue: result.EstimatedValue,
		ProfitLoss:     profitLoss,
		Verdict:        verdict,
		MatchTier:      result.MatchTier,
		SalesCount:     result.SalesCount,
		Cached:         false,
	}, nil
}

type BulkListingItem struct {
	Title        string          `json:"title" binding:"required"`
	ListingPrice decimal.Decimal `json:"listing_price"`
}

type BulkAnalyzeRequest struct {
	Listings []BulkListingItem `json:"listings" binding:"required,min=1"`
}

type BulkResultItem struct {
	RequestID    string           `json:"request_id"`
	Index        int              `json:"index"`
	Title        string           `json:"title"`
	ListingPrice decimal.Decimal  `json:"listing_price"`
	Success      bool             `json:"success"`
	Data         *AnalyzeResponse `json:"data,omitempty"`
	Error        string           `json:"error,omitempty"`
}

type BulkAnalyzeResponse struct {
	Results    []BulkResultItem `json:"results"`
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
}

// AnalyzeBulk handles POST /api/analyze/bulk. Listings are analyzed
// concurrently and failures are isolated per item: one bad listing never
// aborts its siblings.
func (h *AnalyzeHandler) AnalyzeBulk(c *gin.Context) {
	var req BulkAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Listings) > maxBulkListings {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d listings per request", maxBulkListings)})
		return
	}

	ctx := c.Request.Context()
	results := make([]BulkResultItem, len(req.Listings))

	var wg sync.WaitGroup
	for i, listing := range req.Listings {
		wg.Add(1)
		go func(idx int, item BulkListingItem) {
			defer wg.Done()
			results[idx] = h.analyzeBulkItem(ctx, idx, item)
		}(i, listing)
	}
	wg.Wait()

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}

	log.Printf("Bulk analyze: %d listings processed, %d successful, %d failed",
		len(results), successful, len(results)-successful)

	c.JSON(http.StatusOK, BulkAnalyzeResponse{
		Results:    results,
		Total:      len(results),
		Successful: successful,
		Failed:     len(results) - successful,
	})
}

func (h *AnalyzeHandler) analyzeBulkItem(ctx context.Context, index int, item BulkListingItem) (result BulkResultItem) {
	result = BulkResultItem{
		RequestID:    uuid.New().String(),
		Index:        index,
		Title:        item.Title,
		ListingPrice: item.ListingPrice,
	}

	// Bulk items run in bare goroutines, outside gin's recovery middleware.
	// A panic here must cost one item, not the process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Bulk analyze: panic on listing %d: %v", index, r)
			result.Success = false
			result.Data = nil
			result.Error = "internal error while analyzing listing"
		}
	}()

	req := AnalyzeRequest{Title: item.Title, ListingPrice: item.ListingPrice}
	if err := validateListing(&req); err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := h.analyzeListing(ctx, req.Title, req.ListingPrice)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Data = resp
	return result
}
