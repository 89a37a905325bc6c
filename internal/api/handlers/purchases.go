package handlers

import (
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

type PurchaseHandler struct {
	db *gorm.DB
}

func NewPurchaseHandler(db *gorm.DB) *PurchaseHandler {
	return &PurchaseHandler{db: db}
}

type CreatePurchaseRequest struct {
	ListingTitle string          `json:"listing_title" binding:"required"`
	ListingPrice decimal.Decimal `json:"listing_price"`

	PlayerName string  `json:"player_name"`
	Year       int     `json:"year"`
	Brand      string  `json:"brand"`
	Variation  string  `json:"variation"`
	Grade      float64 `json:"grade"`
	Grader     string  `json:"grader"`

	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	ProfitLoss     *decimal.Decimal `json:"profit_loss"`
	MatchTier      models.MatchTier `json:"match_tier"`
	SalesCount     int              `json:"sales_count"`
	Confidence     string           `json:"confidence"`
	ParsedData     string           `json:"parsed_data"`
}

// CreatePurchase handles POST /api/purchases: record the buy and append the
// price to the sales history so it informs future valuations.
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.ListingPrice.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing_price must be greater than zero"})
		return
	}

	now := time.Now().UTC()
	purchase := models.Purchase{
		ListingTitle:   req.ListingTitle,
		ListingPrice:   req.ListingPrice,
		PlayerName:     req.PlayerName,
		Year:           req.Year,
		Brand:          req.Brand,
		Variation:      req.Variation,
		Grade:          req.Grade,
		Grader:         req.Grader,
		PlayerID:       slug.Normalize(req.PlayerName),
		BrandID:        slug.Normalize(req.Brand),
		VariationID:    slug.NormalizeOr(req.Variation, "Base"),
		EstimatedValue: req.EstimatedValue,
		ProfitLoss:     req.ProfitLoss,
		MatchTier:      req.MatchTier,
		SalesCount:     req.SalesCount,
		Confidence:     req.Confidence,
		ParsedData:     req.ParsedData,
		PurchasedAt:    now,
	}

	sale := models.SaleRecord{
		PlayerID:    purchase.PlayerID,
		BrandID:     purchase.BrandID,
		VariationID: purchase.VariationID,
		Year:        req.Year,
		Grade:       req.Grade,
		Grader:      req.Grader,
		Price:       req.ListingPrice,
		SoldAt:      now,
	}

	// Both writes or neither: the purchase and its sales-history echo stay
	// consistent.
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}
		return tx.Create(&sale).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.PurchasesTotal.Inc()
	metrics.UpdateSalesMetrics(h.db)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Purchase recorded successfully",
		"id":      purchase.ID,
	})
}

// GetPurchases handles GET /api/purchases with offset pagination.
func (h *PurchaseHandler) GetPurchases(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if skip < 0 {
		skip = 0
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > maxPerPage {
		limit = 100
	}

	var total int64
	if err := h.db.Model(&models.Purchase{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var purchases []models.Purchase
	err := h.db.
		Order("purchased_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&purchases).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.PurchasePage{
		Total:     total,
		Purchases: purchases,
	})
}
