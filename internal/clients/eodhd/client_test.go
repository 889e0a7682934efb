package eodhd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mingmanhk/deepticker/internal/models"
)

func TestGetQuote_ParsesResponse(t *testing.T) {
	mockResp := map[string]interface{}{
		"code":          "AAPL.US",
		"timestamp":     int64(1711670340),
		"open":          171.10,
		"high":          173.50,
		"low":           170.80,
		"close":         172.25,
		"previousClose": 170.00,
		"change":        2.25,
		"change_p":      1.3235,
		"volume":        float64(52000000),
	}

	var capturedPath string
	var capturedToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedToken = r.URL.Query().Get("api_token")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetQuote(context.Background(), "aapl.us")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if capturedPath != "/real-time/AAPL.US" {
		t.Errorf("expected path /real-time/AAPL.US, got %s", capturedPath)
	}
	if capturedToken != "test-key" {
		t.Errorf("expected api_token test-key, got %s", capturedToken)
	}
	if quote.Symbol != "AAPL.US" {
		t.Errorf("expected symbol AAPL.US, got %s", quote.Symbol)
	}
	if quote.Price != 172.25 {
		t.Errorf("expected price 172.25, got %.2f", quote.Price)
	}
	if quote.PreviousClose != 170.00 {
		t.Errorf("expected previous close 170.00, got %.2f", quote.PreviousClose)
	}
	if quote.Change != 2.25 {
		t.Errorf("expected change 2.25, got %.2f", quote.Change)
	}
	if quote.Volume != 52000000 {
		t.Errorf("expected volume 52000000, got %d", quote.Volume)
	}
	if quote.Source != models.QuoteSourceEODHD {
		t.Errorf("expected source eodhd, got %s", quote.Source)
	}
	if quote.Stale {
		t.Error("fresh fetch must not be marked stale")
	}
}

func TestGetQuote_NAFieldsOutsideMarketHours(t *testing.T) {
	// EODHD returns "NA" strings for several fields outside market hours.
	mockResp := map[string]interface{}{
		"code":          "BHP.AU",
		"timestamp":     int64(1711670340),
		"open":          "NA",
		"high":          "NA",
		"low":           "NA",
		"close":         43.25,
		"previousClose": 42.00,
		"change":        "NA",
		"change_p":      "NA",
		"volume":        int64(0),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mockResp)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	quote, err := client.GetQuote(context.Background(), "BHP.AU")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if quote.Open != 0 {
		t.Errorf("expected open 0 for NA, got %.2f", quote.Open)
	}
	// Change fields derived from previous close when omitted.
	wantChange := 43.25 - 42.00
	if quote.Change < wantChange-0.001 || quote.Change > wantChange+0.001 {
		t.Errorf("expected derived change %.2f, got %.2f", wantChange, quote.Change)
	}
}

func TestGetQuote_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("payment required"))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetQuote(context.Background(), "AAPL.US")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", apiErr.StatusCode)
	}
}

func TestGetQuote_RateLimiterSerializes(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "AAPL.US", "close": 1.0})
	}))
	defer srv.Close()

	// 60 requests/min = one request per second after the first.
	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(60))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.GetQuote(context.Background(), "AAPL.US"); err != nil {
			t.Fatalf("GetQuote failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	if hits != 3 {
		t.Fatalf("expected 3 requests, got %d", hits)
	}
	// Third request cannot start before ~2 seconds of pacing.
	if elapsed < 1900*time.Millisecond {
		t.Errorf("requests burst past the ceiling: 3 requests in %v", elapsed)
	}
}

func TestGetQuote_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "AAPL.US", "close": 1.0})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1))

	// Consume the single burst token.
	if _, err := client.GetQuote(context.Background(), "AAPL.US"); err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetQuote(ctx, "AAPL.US"); err == nil {
		t.Fatal("expected error when waiting on limiter with cancelled context")
	}
}
