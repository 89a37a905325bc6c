// seed loads historical sale records from a JSON file into the sales_history
// table, normalizing identifiers the same way the API does at ingest time.
//
// Usage: go run main.go -db=<path> -file=<sales.json> [-clear]
//
// The input file is a JSON array of raw sale observations:
//
//	[{"player": "Ken Griffey Jr.", "brand": "Upper Deck", "variation": "",
//	  "year": 1989, "grade": 10, "grader": "PSA", "price": "1200.00",
//	  "sold_at": "2024-11-02T00:00:00Z"}, ...]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gradevault/card-arbitrage/backend/internal/database"
	"github.com/gradevault/card-arbitrage/backend/internal/models"
	"github.com/gradevault/card-arbitrage/backend/internal/slug"
)

// rawSale mirrors the bulk-ingest API payload item.
type rawSale struct {
	Player    string          `json:"player"`
	Brand     string          `json:"brand"`
	Variation string          `json:"variation"`
	Year      int             `json:"year"`
	Grade     float64         `json:"grade"`
	Grader    string          `json:"grader"`
	Price     decimal.Decimal `json:"price"`
	SoldAt    time.Time       `json:"sold_at"`
}

func main() {
	dbPath := flag.String("db", "", "Path to SQLite database (required)")
	filePath := flag.String("file", "", "Path to JSON file of sale records (required)")
	clear := flag.Bool("clear", false, "Delete existing sales history before loading")
	flag.Parse()

	if *dbPath == "" || *filePath == "" {
		fmt.Println("Usage: seed -db=<path> -file=<sales.json> [-clear]")
		fmt.Println("")
		fmt.Println("Loads historical sale records into the sales history, normalizing")
		fmt.Println("player/brand/variation identifiers at write time.")
		fmt.Println("")
		fmt.Println("Options:")
		fmt.Println("  -db     Path to SQLite database (required)")
		fmt.Println("  -file   Path to JSON file of sale records (required)")
		fmt.Println("  -clear  Delete existing sales history before loading")
		os.Exit(1)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *filePath, err)
	}

	var raws []rawSale
	if err := json.Unmarshal(data, &raws); err != nil {
		log.Fatalf("Failed to parse %s: %v", *filePath, err)
	}
	log.Printf("Loaded %d sale records from %s", len(raws), *filePath)

	if err := database.Initialize(*dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	if *clear {
		result := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SaleRecord{})
		if result.Error != nil {
			log.Fatalf("Failed to clear sales history: %v", result.Error)
		}
		log.Printf("Cleared %d existing records", result.RowsAffected)
	}

	records := make([]models.SaleRecord, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		if raw.Player == "" || raw.Brand == "" {
			log.Printf("Warning: record %d missing player or brand, skipping", i)
			skipped++
			continue
		}
		if raw.Price.IsNegative() {
			log.Printf("Warning: record %d has negative price %s, skipping", i, raw.Price)
			skipped++
			continue
		}

		soldAt := raw.SoldAt
		if soldAt.IsZero() {
			soldAt = time.Now().UTC()
		}

		records = append(records, models.SaleRecord{
			PlayerID:    slug.Normalize(raw.Player),
			BrandID:     slug.Normalize(raw.Brand),
			VariationID: slug.NormalizeOr(raw.Variation, "Base"),
			Year:        raw.Year,
			Grade:       raw.Grade,
			Grader:      raw.Grader,
			Price:       raw.Price,
			SoldAt:      soldAt,
		})
	}

	if len(records) == 0 {
		log.Fatal("No valid records to insert")
	}

	if err := db.CreateInBatches(records, 100).Error; err != nil {
		log.Fatalf("Failed to insert records: %v", err)
	}

	log.Printf("Inserted %d records (%d skipped)", len(records), skipped)
}
