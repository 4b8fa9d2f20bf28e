// Package yahoo fetches daily closing prices from the Yahoo Finance chart API.
package yahoo

import (
	"strings"

	"github.com/wonny/market-radar/pkg/httputil"
	"github.com/wonny/market-radar/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client handles communication with the Yahoo Finance chart API
// ⭐ SSOT: Yahoo chart API calls only go through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	symbolMap  map[string]string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"KOSPI":  "^KS11",
			"KOSDAQ": "^KQ11",
		},
	}
}

// Name identifies the provider in logs
func (c *Client) Name() string { return "yahoo" }

// ticker maps universe aliases to Yahoo tickers
func (c *Client) ticker(symbol string) string {
	if mapped, ok := c.symbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}
