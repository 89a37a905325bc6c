package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gradevault/card-arbitrage/backend/internal/models"
)

func newSalesRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	handler := NewSalesHandler(db)

	router := gin.New()
	router.GET("/api/sales", handler.GetSales)
	router.POST("/api/sales/bulk", handler.IngestSales)
	router.DELETE("/api/sales", handler.ClearSales)
	return router
}

func TestIngestSalesNormalizesIdentifiers(t *testing.T) {
	db := newTestDB(t)
	router := newSalesRouter(t, db)

	w := postJSON(t, router, "/api/sales/bulk", gin.H{
		"sales": []gin.H{
			{
				"player": "  Ken Griffey   Jr.  ",
				"brand":  "Upper Deck",
				"year":   1989,
				"price":  "1200.00",
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var record models.SaleRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("Failed to read back record: %v", err)
	}
	if record.PlayerID != "ken-griffey-jr" {
		t.Errorf("Expected normalized player 'ken-griffey-jr', got %q", record.PlayerID)
	}
	if record.BrandID != "upper-deck" {
		t.Errorf("Expected normalized brand 'upper-deck', got %q", record.BrandID)
	}
	if record.VariationID != "base" {
		t.Errorf("Expected default variation 'base', got %q", record.VariationID)
	}
	if record.SoldAt.IsZero() {
		t.Error("Expected missing sold_at to default to ingestion time")
	}
}

func TestIngestSalesRejectsNegativePrice(t *testing.T) {
	db := newTestDB(t)
	router := newSalesRouter(t, db)

	w := postJSON(t, router, "/api/sales/bulk", gin.H{
		"sales": []gin.H{
			{"player": "Mike Trout", "brand": "Topps", "price": "-10.00"},
		},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative price, got %d", w.Code)
	}

	var count int64
	db.Model(&models.SaleRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("Rejected batch should insert nothing, found %d records", count)
	}
}

func TestIngestSalesRejectsEmptyBatch(t *testing.T) {
	db := newTestDB(t)
	router := newSalesRouter(t, db)

	w := postJSON(t, router, "/api/sales/bulk", gin.H{"sales": []gin.H{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty batch, got %d", w.Code)
	}
}

func TestGetSalesFilterAndPagination(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "80.00", "100.00", "120.00")
	router := newSalesRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/sales?player_id=mike-trout&page=1&per_page=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var page models.SalesPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if page.Pagination.Total != 3 {
		t.Errorf("Expected total 3, got %d", page.Pagination.Total)
	}
	if len(page.Data) != 2 {
		t.Errorf("Expected 2 records on page, got %d", len(page.Data))
	}
	if page.Pagination.TotalPages != 2 {
		t.Errorf("Expected 2 pages, got %d", page.Pagination.TotalPages)
	}
}

func TestGetSalesRejectsUnknownSortField(t *testing.T) {
	db := newTestDB(t)
	router := newSalesRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/sales?sort_by=price;drop", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown sort field, got %d", w.Code)
	}
}

func TestClearSales(t *testing.T) {
	db := newTestDB(t)
	seedSales(t, db, "80.00", "100.00")
	router := newSalesRouter(t, db)

	req := httptest.NewRequest(http.MethodDelete, "/api/sales", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.SaleRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected empty sales history, found %d records", count)
	}
}
