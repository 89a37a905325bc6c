package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/gradevault/card-arbitrage/backend/internal/api/handlers"
	"github.com/gradevault/card-arbitrage/backend/internal/cache"
	"github.com/gradevault/card-arbitrage/backend/internal/metrics"
	"github.com/gradevault/card-arbitrage/backend/internal/services"
)

// RouterConfig carries the explicitly constructed dependencies the handlers
// need. Nothing here is an ambient singleton except the database handle,
// which the database package owns.
type RouterConfig struct {
	DB           *gorm.DB
	Parser       services.TitleParser
	ParserSource string
	Valuation    *services.ValuationService
	CacheStore   cache.Store
	CacheTTL     time.Duration
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	corsConfig := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	router.Use(metricsMiddleware())

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(cfg.Parser, cfg.ParserSource, cfg.Valuation, cfg.CacheStore, cfg.CacheTTL)
	salesHandler := handlers.NewSalesHandler(cfg.DB)
	purchaseHandler := handlers.NewPurchaseHandler(cfg.DB)
	cacheHandler := handlers.NewCacheHandler(cfg.CacheStore)

	// API routes
	api := router.Group("/api")
	{
		analyze := api.Group("/analyze")
		{
			analyze.POST("", analyzeHandler.AnalyzeListing)
			analyze.POST("/bulk", analyzeHandler.AnalyzeBulk)
		}

		sales := api.Group("/sales")
		{
			sales.GET("", salesHandler.GetSales)
			sales.POST("/bulk", salesHandler.IngestSales)
			sales.DELETE("", salesHandler.ClearSales)
		}

		purchases := api.Group("/purchases")
		{
			purchases.POST("", purchaseHandler.CreatePurchase)
			purchases.GET("", purchaseHandler.GetPurchases)
		}

		apiCache := api.Group("/cache")
		{
			apiCache.DELETE("", cacheHandler.ClearCache)
			apiCache.GET("/stats", cacheHandler.GetCacheStats)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// metricsMiddleware records request counts and latencies per route.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
