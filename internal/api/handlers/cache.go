package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradevault/card-arbitrage/backend/internal/cache"
)

type CacheHandler struct {
	store cache.Store
}

func NewCacheHandler(store cache.Store) *CacheHandler {
	return &CacheHandler{store: store}
}

// ClearCache handles DELETE /api/cache. Ops-facing: forces every subsequent
// analysis to recompute.
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Println("Result cache cleared")
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared successfully",
		"success": true,
	})
}

// GetCacheStats handles GET /api/cache/stats.
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total_keys": h.store.Len(c.Request.Context()),
	})
}
