package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gradevault/card-arbitrage/backend/internal/metrics"
	"github.com/gradevault/card-arbitrage/backend/internal/models"
	"github.com/gradevault/card-arbitrage/backend/internal/slug"
)

const (
	defaultPerPage = 50
	maxPerPage     = 100
	maxBulkSales   = 1000
)

var salesSortFields = map[string]string{
	"sold_at":   "sold_at",
	"price":     "price",
	"grade":     "grade",
	"player_id": "player_id",
}

type SalesHandler struct {
	db *gorm.DB
}

func NewSalesHandler(db *gorm.DB) *SalesHandler {
	return &SalesHandler{db: db}
}

// GetSales handles GET /api/sales: paginated browsing of the sales history
// with optional filters and sorting.
func (h *SalesHandler) GetSales(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	query := h.db.Model(&models.SaleRecord{})

	if playerID := c.Query("player_id"); playerID != "" {
		query = query.Where("player_id = ?", playerID)
	}
	if brandID := c.Query("brand_id"); brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}
	if grader := c.Query("grader"); grader != "" {
		query = query.Where("grader = ?", grader)
	}
	if minGrade := c.Query("min_grade"); minGrade != "" {
		if g, err := strconv.ParseFloat(minGrade, 64); err == nil {
			query = query.Where("grade >= ?", g)
		}
	}
	if maxGrade := c.Query("max_grade"); maxGrade != "" {
		if g, err := strconv.ParseFloat(maxGrade, 64); err == nil {
			query = query.Where("grade <= ?", g)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sortBy, ok := salesSortFields[c.DefaultQuery("sort_by", "sold_at")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort_by field"})
		return
	}
	order := "DESC"
	if c.DefaultQuery("sort_order", "desc") == "asc" {
		order = "ASC"
	}

	var sales []models.SaleRecord
	err := query.
		Order(sortBy + " " + order).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&sales).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	c.JSON(http.StatusOK, models.SalesPage{
		Data: sales,
		Pagination: models.Pagination{
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
		},
	})
}

// SaleIngestItem is one raw sale observation. Identifier fields are free text
// and are normalized at write time, keeping the store's invariant that
// identifiers are never re-normalized on read.
type SaleIngestItem struct {
	Player    string          `json:"player" binding:"required"`
	Brand     string          `json:"brand" binding:"required"`
	Variation string          `json:"variation"`
	Year      int             `json:"year"`
	Grade     float64         `json:"grade"`
	Grader    string          `json:"grader"`
	Price     decimal.Decimal `json:"price"`
	SoldAt    time.Time       `json:"sold_at"`
}

type BulkIngestRequest struct {
	Sales []SaleIngestItem `json:"sales" binding:"required,min=1"`
}

// IngestSales handles POST /api/sales/bulk: bulk load of historical sale
// observations.
func (h *SalesHandler) IngestSales(c *gin.Context) {
	var req BulkIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Sales) > maxBulkSales {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("at most %d sales per request", maxBulkSales)})
		return
	}

	records := make([]models.SaleRecord, 0, len(req.Sales))
	for i, item := range req.Sales {
		if item.Price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("sales[%d]: price cannot be negative", i)})
			return
		}

		soldAt := item.SoldAt
		if soldAt.IsZero() {
			soldAt = time.Now().UTC()
		}

		records = append(records, models.SaleRecord{
			PlayerID:    slug.Normalize(item.Player),
			BrandID:     slug.Normalize(item.Brand),
			VariationID: slug.NormalizeOr(item.Variation, "Base"),
			Year:        item.Year,
			Grade:       item.Grade,
			Grader:      item.Grader,
			Price:       item.Price,
			SoldAt:      soldAt,
		})
	}

	if err := h.db.CreateInBatches(records, 100).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Sales: ingested %d records", len(records))
	metrics.UpdateSalesMetrics(h.db)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Sales ingested successfully",
		"inserted": len(records),
	})
}

// ClearSales handles DELETE /api/sales: the explicit bulk clear, the only
// path that removes sale records.
func (h *SalesHandler) ClearSales(c *gin.Context) {
	result := h.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SaleRecord{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}

	log.Printf("Sales: cleared %d records", result.RowsAffected)
	metrics.UpdateSalesMetrics(h.db)

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales history cleared",
		"deleted": result.RowsAffected,
	})
}
