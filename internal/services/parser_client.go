package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const parserDefaultTimeout = 15 * time.Second

// ParserClient calls an external title-parsing service that extracts
// structured card data from listing titles.
type ParserClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

type parseRequest struct {
	Title string `json:"title"`
}

type parseResponse struct {
	Success bool       `json:"success"`
	Data    ParsedCard `json:"data"`
	Error   string     `json:"error,omitempty"`
}

// NewParserClient creates a client for the remote parsing API. requestsPerMin
// bounds the call rate; the parser backend is the expensive hop in the
// pipeline and its upstream enforces its own quota.
func NewParserClient(baseURL, apiKey string, requestsPerMin int) *ParserClient {
	if requestsPerMin <= 0 {
		requestsPerMin = 60
	}

	return &ParserClient{
		client: &http.Client{
			Timeout: parserDefaultTimeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), requestsPerMin),
	}
}

// ParseTitle sends the title to the parsing service and decodes the
// structured result.
func (p *ParserClient) ParseTitle(ctx context.Context, title string) (*ParsedCard, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	body, err := json.Marshal(parseRequest{Title: title})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call parser service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parser service error: status %d", resp.StatusCode)
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !parsed.Success {
		if parsed.Error != "" {
			return nil, fmt.Errorf("parser service error: %s", parsed.Error)
		}
		return nil, fmt.Errorf("parser service returned unsuccessful response")
	}

	if parsed.Data.PlayerName == "" {
		return nil, fmt.Errorf("parser service returned no player name for title %q", title)
	}

	return &parsed.Data, nil
}
