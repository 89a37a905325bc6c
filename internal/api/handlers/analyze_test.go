package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gradevault/card-arbitrage/backend/internal/cache"
	"github.com/gradevault/card-arbitrage/backend/internal/models"
	"github.com/gradevault/card-arbitrage/backend/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.SaleRecord{}, &models.Purchase{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedSales(t *testing.T, db *gorm.DB, prices ...string) {
	t.Helper()

	now := time.Now().UTC()
	for i, price := range prices {
		record := models.SaleRecord{
			PlayerID:    "mike-trout",
			BrandID:     "topps-update",
			VariationID: "base",
			Year:        2011,
			Price:       decimal.RequireFromString(price),
			SoldAt:      now.Add(-time.Duration(i) * time.Hour),
		}
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("Failed to seed sale: %v", err)
		}
	}
}

func newAnalyzeRouter(t *testing.T, db *gorm.DB) (*gin.Engine, cache.Store) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store := cache.NewMemoryStore(0, time.Minute)
	matcher := services.NewSalesMatcher(db, 0, 0)
	valuation := services.NewValuationService(matcher)
	handler := NewAnalyzeHandler(services.NewHeuristicParser(), "heuristic", valuation, store, time.Minute)

	router := gin.New()
	router.POST("/api/analyze", handler.AnalyzeListing)
	router.POST("/api/analyze/bulk", handler.AnalyzeBulk)
	return router, store
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeListing(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "80.00", "100.00", "120.00")
	router, _ := newAnalyzeRouter(t, db)

	w := postJSON(t, router, "/api/analyze", gin.H{
		"title":         "2011 Topps Update Mike Trout #US175 RC",
		"listing_price": "75.00",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.EstimatedValue == nil || !resp.EstimatedValue.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected estimated value 100, got %v", resp.EstimatedValue)
	}
	if resp.MatchTier != models.MatchTierExact {
		t.Errorf("Expected exact match tier, got %s", resp.MatchTier)
	}
	if resp.SalesCount != 3 {
		t.Errorf("Expected 3 comparable sales, got %d", resp.SalesCount)
	}
	if resp.Verdict != "GOOD DEAL - Potential profit: $25.00" {
		t.Errorf("Unexpected verdict: %q", resp.Verdict)
	}
	if resp.Cached {
		t.Error("First analysis should not be served from cache")
	}
}

func TestAnalyzeListingCacheHit(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "100.00")
	router, _ := newAnalyzeRouter(t, db)

	body := gin.H{
		"title":         "2011 Topps Update Mike Trout RC",
		"listing_price": "80.00",
	}

	first := postJSON(t, router, "/api/analyze", body)
	if first.Code != http.StatusOK {
		t.Fatalf("First request failed: %d", first.Code)
	}

	// Same title, different price: valuation comes from cache, verdict is
	// recomputed against the new asking price
	second := postJSON(t, router, "/api/analyze", gin.H{
		"title":         "2011 Topps Update Mike Trout RC",
		"listing_price": "150.00",
	})
	if second.Code != http.StatusOK {
		t.Fatalf("Second request failed: %d", second.Code)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Cached {
		t.Error("Second analysis of the same title should be served from cache")
	}
	if resp.Verdict != "OVERPRICED - Potential loss: $50.00" {
		t.Errorf("Cached valuation should still recompute the verdict, got %q", resp.Verdict)
	}
}

func TestAnalyzeListingCorruptCacheEntry(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "100.00")
	router, store := newAnalyzeRouter(t, db)

	title := "2011 Topps Update Mike Trout RC"
	store.Set(context.Background(), cache.Key("analysis", title), []byte("{not json"), 0)

	w := postJSON(t, router, "/api/analyze", gin.H{
		"title":         title,
		"listing_price": "80.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Cached {
		t.Error("Corrupt cache entry should fall through to a fresh analysis")
	}
	if resp.EstimatedValue == nil || !resp.EstimatedValue.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected recomputed estimate 100, got %v", resp.EstimatedValue)
	}
}

func TestAnalyzeListingValidation(t *testing.T) {
	db := newTestDB(t)
	router, _ := newAnalyzeRouter(t, db)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing title", gin.H{"listing_price": "50.00"}},
		{"blank title", gin.H{"title": "   ", "listing_price": "50.00"}},
		{"zero price", gin.H{"title": "2011 Topps Update Mike Trout", "listing_price": "0"}},
		{"negative price", gin.H{"title": "2011 Topps Update Mike Trout", "listing_price": "-5.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/analyze", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAnalyzeListingParserFailure(t *testing.T) {
	db := newTestDB(t)
	router, _ := newAnalyzeRouter(t, db)

	// No recognizable brand or player
	w := postJSON(t, router, "/api/analyze", gin.H{
		"title":         "GEM MINT HOT INVEST",
		"listing_price": "50.00",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 for unparseable title, got %d", w.Code)
	}
}

func TestAnalyzeListingNoComparableSales(t *testing.T) {
	db := newTestDB(t)
	router, _ := newAnalyzeRouter(t, db)

	w := postJSON(t, router, "/api/analyze", gin.H{
		"title":         "2011 Topps Update Mike Trout RC",
		"listing_price": "50.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.EstimatedValue != nil {
		t.Errorf("Expected nil estimate, got %s", resp.EstimatedValue)
	}
	if resp.MatchTier != models.MatchTierNone {
		t.Errorf("Expected no-match tier, got %s", resp.MatchTier)
	}
	if resp.Verdict != "INSUFFICIENT DATA - No comparable sales found" {
		t.Errorf("Unexpected verdict: %q", resp.Verdict)
	}
}

func TestAnalyzeBulk(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "100.00")
	router, _ := newAnalyzeRouter(t, db)

	w := postJSON(t, router, "/api/analyze/bulk", gin.H{
		"listings": []gin.H{
			{"title": "2011 Topps Update Mike Trout RC", "listing_price": "80.00"},
			{"title": "GEM MINT HOT INVEST", "listing_price": "50.00"},
			{"title": "2011 Topps Update Mike Trout RC", "listing_price": "-1"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BulkAnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Total != 3 {
		t.Errorf("Expected 3 results, got %d", resp.Total)
	}
	if resp.Successful != 1 || resp.Failed != 2 {
		t.Errorf("Expected 1 success and 2 failures, got %d/%d", resp.Successful, resp.Failed)
	}

	// Results keep submission order despite concurrent processing
	for i, r := range resp.Results {
		if r.Index != i {
			t.Errorf("Result %d has index %d", i, r.Index)
		}
		if r.RequestID == "" {
			t.Errorf("Result %d missing request ID", i)
		}
	}
	if !resp.Results[0].Success || resp.Results[0].Data == nil {
		t.Error("First listing should succeed with data attached")
	}
	if resp.Results[1].Success || resp.Results[1].Error == "" {
		t.Error("Unparseable listing should fail with an error message")
	}
	if resp.Results[2].Success {
		t.Error("Negative price listing should fail validation")
	}
}

// trapParser panics on titles containing a marker token and otherwise
// returns fixed card data.
type trapParser struct{}

func (trapParser) ParseTitle(_ context.Context, title string) (*services.ParsedCard, error) {
	if strings.Contains(title, "boom") {
		panic("parser blew up")
	}
	return &services.ParsedCard{PlayerName: "Mike Trout", Brand: "Topps Update", Confidence: "high"}, nil
}

func TestAnalyzeBulkIsolatesPanics(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "100.00")

	gin.SetMode(gin.TestMode)
	store := cache.NewMemoryStore(0, time.Minute)
	valuation := services.NewValuationService(services.NewSalesMatcher(db, 0, 0))
	handler := NewAnalyzeHandler(trapParser{}, "remote", valuation, store, time.Minute)

	router := gin.New()
	router.POST("/api/analyze/bulk", handler.AnalyzeBulk)

	w := postJSON(t, router, "/api/analyze/bulk", gin.H{
		"listings": []gin.H{
			{"title": "2011 Topps Update Mike Trout RC", "listing_price": "80.00"},
			{"title": "boom", "listing_price": "50.00"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("A panicking item must not take down the request, got %d: %s", w.Code, w.Body.String())
	}

	var resp BulkAnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Successful != 1 || resp.Failed != 1 {
		t.Errorf("Expected 1 success and 1 failure, got %d/%d", resp.Successful, resp.Failed)
	}
	if resp.Results[1].Success || resp.Results[1].Error == "" {
		t.Error("Panicked item should be reported as a failed result")
	}
	if !resp.Results[0].Success {
		t.Error("Sibling item should be unaffected by the panic")
	}
}

func TestAnalyzeBulkTooManyListings(t *testing.T) {
	db := newTestDB(t)
	router, _ := newAnalyzeRouter(t, db)

	listings := make([]gin.H, maxBulkListings+1)
	for i := range listings {
		listings[i] = gin.H{"title": "2011 Topps Update Mike Trout", "listing_price": "10.00"}
	}

	w := postJSON(t, router, "/api/analyze/bulk", gin.H{"listings": listings})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized bulk request, got %d", w.Code)
	}
}
