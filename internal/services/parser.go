package services

import (
	"context"
	"log"
)

// ParsedCard is the structured card data extracted from a free-text listing
// title. Optional attributes are pointers so "not present" is distinguishable
// from zero values.
type ParsedCard struct {
	PlayerName     string   `json:"player_name"`
	Year           *int     `json:"year,omitempty"`
	Brand          string   `json:"brand"`
	CardNumber     string   `json:"card_number,omitempty"`
	Variation      string   `json:"variation,omitempty"`
	SerialNumbered *int     `json:"serial_numbered,omitempty"`
	IsRookie       bool     `json:"is_rookie"`
	IsAutograph    bool     `json:"is_autograph"`
	HasPatch       bool     `json:"has_patch"`
	IsGraded       bool     `json:"is_graded"`
	GradingCompany string   `json:"grading_company,omitempty"`
	Grade          *float64 `json:"grade,omitempty"`
	Sport          string   `json:"sport,omitempty"`
	Confidence     string   `json:"confidence"`
	Warnings       []string `json:"warnings,omitempty"`
}

// TitleParser converts a raw listing title into structured card attributes.
// Implementations: ParserClient (remote parsing API) and HeuristicParser
// (local regex extraction, used when no API is configured).
type TitleParser interface {
	ParseTitle(ctx context.Context, title string) (*ParsedCard, error)
}

// ParseTitleWithRetry retries transient parser failures before giving up.
func ParseTitleWithRetry(ctx context.Context, parser TitleParser, title string, maxRetries int) (*ParsedCard, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		parsed, err := parser.ParseTitle(ctx, title)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
		if attempt < maxRetries {
			log.Printf("Parser: attempt %d failed, retrying: %v", attempt+1, err)
		}
	}

	log.Printf("Parser: all %d attempts failed for title %q", maxRetries+1, title)
	return nil, lastErr
}
