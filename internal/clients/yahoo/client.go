// Package yahoo provides the secondary quote source client backed by
// the Yahoo Finance quote API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout = 15 * time.Second
)

// Client implements the secondary QuoteSource against Yahoo Finance.
type Client struct {
	client *resty.Client
	logger *common.Logger
	now    func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.client.SetBaseURL(baseURL)
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.SetTimeout(timeout)
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		client: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("User-Agent", "deepticker/"+common.GetVersion()),
		logger: common.NewSilentLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// quoteResponse mirrors the Yahoo v7 quote envelope.
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
}

// ID identifies this source.
func (c *Client) ID() models.QuoteSourceID {
	return models.QuoteSourceYahoo
}

// GetQuote retrieves and normalizes a quote for one symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo quote request")

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("symbols", symbol).
		Get("/v7/finance/quote")
	if err != nil {
		return nil, fmt.Errorf("yahoo request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("yahoo quote failed for %s: status %d", symbol, resp.StatusCode())
	}

	var payload quoteResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("yahoo response decode failed: %w", err)
	}

	if payload.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote error for %s: %s", symbol, payload.QuoteResponse.Error.Description)
	}
	if len(payload.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yahoo returned no result for %s", symbol)
	}

	r := payload.QuoteResponse.Result[0]
	if r.RegularMarketPrice < 0 {
		return nil, fmt.Errorf("yahoo returned negative price %.4f for %s", r.RegularMarketPrice, symbol)
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         r.RegularMarketPrice,
		Change:        r.RegularMarketChange,
		ChangePct:     r.RegularMarketChangePercent,
		PreviousClose: r.RegularMarketPreviousClose,
		Open:          r.RegularMarketOpen,
		High:          r.RegularMarketDayHigh,
		Low:           r.RegularMarketDayLow,
		Volume:        r.RegularMarketVolume,
		FetchedAt:     c.now(),
		Source:        models.QuoteSourceYahoo,
	}, nil
}

// Ensure Client implements QuoteSource
var _ interfaces.QuoteSource = (*Client)(nil)
