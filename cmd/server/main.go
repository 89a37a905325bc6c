package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gradevault/card-arbitrage/backend/internal/api"
	"github.com/gradevault/card-arbitrage/backend/internal/cache"
	"github.com/gradevault/card-arbitrage/backend/internal/database"
	"github.com/gradevault/card-arbitrage/backend/internal/metrics"
	"github.com/gradevault/card-arbitrage/backend/internal/services"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./card_arbitrage.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	metrics.UpdateSalesMetrics(database.GetDB())

	// Result cache: Redis when configured, in-process LRU otherwise.
	// A Redis that is configured but unreachable degrades to the LRU so
	// the server still comes up.
	cacheTTL := cache.DefaultTTL
	if ttlStr := os.Getenv("CACHE_TTL_SECONDS"); ttlStr != "" {
		if seconds, err := strconv.Atoi(ttlStr); err == nil && seconds > 0 {
			cacheTTL = time.Duration(seconds) * time.Second
		}
	}

	var store cache.Store
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStore, err := cache.NewRedisStore(pingCtx, redisAddr, os.Getenv("REDIS_PASSWORD"))
		pingCancel()
		if err != nil {
			log.Printf("Redis unavailable at %s, falling back to in-memory cache: %v", redisAddr, err)
			store = cache.NewMemoryStore(0, cacheTTL)
		} else {
			store = redisStore
		}
	} else {
		store = cache.NewMemoryStore(0, cacheTTL)
	}

	// Title parser: remote service when configured, heuristic otherwise
	var parser services.TitleParser
	parserSource := "heuristic"
	if parserURL := os.Getenv("PARSER_API_URL"); parserURL != "" {
		requestsPerMin := 60
		if rpmStr := os.Getenv("PARSER_REQUESTS_PER_MIN"); rpmStr != "" {
			if rpm, err := strconv.Atoi(rpmStr); err == nil && rpm > 0 {
				requestsPerMin = rpm
			}
		}
		parser = services.NewParserClient(parserURL, os.Getenv("PARSER_API_KEY"), requestsPerMin)
		parserSource = "remote"
		log.Printf("Using remote title parser at %s", parserURL)
	} else {
		parser = services.NewHeuristicParser()
		log.Println("PARSER_API_URL not set, using heuristic title parser")
	}

	// Matcher tuning
	threshold := 0.0
	if thresholdStr := os.Getenv("SIMILARITY_THRESHOLD"); thresholdStr != "" {
		if t, err := strconv.ParseFloat(thresholdStr, 64); err == nil {
			threshold = t
		}
	}
	matchLimit := 0
	if limitStr := os.Getenv("MATCH_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			matchLimit = limit
		}
	}

	matcher := services.NewSalesMatcher(database.GetDB(), threshold, matchLimit)
	valuation := services.NewValuationService(matcher)

	// Setup router
	router := api.SetupRouter(api.RouterConfig{
		DB:           database.GetDB(),
		Parser:       parser,
		ParserSource: parserSource,
		Valuation:    valuation,
		CacheStore:   store,
		CacheTTL:     cacheTTL,
	})

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("Error closing cache store: %v", err)
		}
	}

	log.Println("Server exited")
}
