package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is a single historical sale observation. The identifier columns
// hold normalized (lowercase-hyphenated) values written at ingestion time;
// they are never re-normalized on read. Records are immutable once written
// and only removed through the bulk clear endpoint.
type SaleRecord struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	PlayerID    string          `json:"player_id" gorm:"not null;index;index:idx_player_brand_year"`
	BrandID     string          `json:"brand_id" gorm:"not null;index:idx_player_brand_year"`
	VariationID string          `json:"variation_id" gorm:"not null"`
	Year        int             `json:"year" gorm:"index:idx_player_brand_year"`
	Grade       float64         `json:"grade" gorm:"index:idx_grader_grade"`
	Grader      string          `json:"grader" gorm:"index:idx_grader_grade"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	SoldAt      time.Time       `json:"sold_at" gorm:"not null;index"`
}

// TableName keeps the table name stable regardless of gorm pluralization.
func (SaleRecord) TableName() string {
	return "sales_history"
}

// SalesPage is the paginated response shape for sales history browsing.
type SalesPage struct {
	Data       []SaleRecord `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

// Pagination carries page metadata for list endpoints.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}
