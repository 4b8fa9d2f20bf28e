// Package naver fetches KRX daily closing prices from Naver Finance.
package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/wonny/market-radar/pkg/httputil"
	"github.com/wonny/market-radar/pkg/logger"
)

// Default hosts
const (
	DefaultBaseURL  = "https://finance.naver.com"
	DefaultChartURL = "https://fchart.stock.naver.com"
)

// Maximum number of sise_day pages read by the HTML fallback (10 sessions per page)
const maxDailyPages = 30

var codePattern = regexp.MustCompile(`^\d{6}(\.(KS|KQ))?$`)

var headers = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Referer":    "https://finance.naver.com/",
}

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance calls only go through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	chartURL   string
	now        func() time.Time
}

// NewClient creates a new Naver Finance client. Empty URLs use the public hosts.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, chartURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if chartURL == "" {
		chartURL = DefaultChartURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		chartURL:   strings.TrimRight(chartURL, "/"),
		now:        time.Now,
	}
}

// Name identifies the provider in logs
func (c *Client) Name() string { return "naver" }

// IsKRXCode reports whether symbol is a six-digit KRX code, optionally
// carrying a Yahoo style .KS / .KQ suffix.
func IsKRXCode(symbol string) bool {
	return codePattern.MatchString(strings.ToUpper(strings.TrimSpace(symbol)))
}

// stockCode strips the exchange suffix
func stockCode(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	return s
}

// fetchBody fetches a Naver page or endpoint
func (c *Client) fetchBody(ctx context.Context, base, path string, params url.Values) (string, error) {
	fullURL := fmt.Sprintf("%s%s", base, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL, headers)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
