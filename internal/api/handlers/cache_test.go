package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gradevault/card-arbitrage/backend/internal/cache"
)

func TestCacheClearAndStats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := cache.NewMemoryStore(0, time.Minute)
	store.Set(context.Background(), "analysis:abc", []byte("{}"), 0)
	store.Set(context.Background(), "analysis:def", []byte("{}"), 0)

	handler := NewCacheHandler(store)
	router := gin.New()
	router.DELETE("/api/cache", handler.ClearCache)
	router.GET("/api/cache/stats", handler.GetCacheStats)

	// Stats reflect the two entries
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var stats map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats["total_keys"] != 2 {
		t.Errorf("Expected 2 keys, got %d", stats["total_keys"])
	}

	// Clear empties the store
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/cache", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if store.Len(context.Background()) != 0 {
		t.Error("Expected empty store after clear")
	}
}
