package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/market-radar/internal/contracts"
)

// chartResponse is the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

var headers = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Accept":     "application/json",
}

// Fetch returns daily closes for symbol over rng ("1mo", "3mo", ...)
// ⭐ SSOT: Yahoo price history is only fetched here
func (c *Client) Fetch(ctx context.Context, symbol, rng string) (contracts.PriceSeries, error) {
	if rng == "" {
		rng = "1mo"
	}

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(c.ticker(symbol)), url.QueryEscape(rng))

	resp, err := c.httpClient.Get(ctx, fullURL, headers)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("yahoo %s: HTTP request failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("yahoo %s: read response body failed: %w", symbol, err)
	}

	// Unknown tickers come back as 404 with a chart error payload
	if resp.StatusCode == http.StatusNotFound {
		return contracts.PriceSeries{}, fmt.Errorf("yahoo %s: %w", symbol, contracts.ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return contracts.PriceSeries{}, fmt.Errorf("yahoo %s: unexpected status code: %d", symbol, resp.StatusCode)
	}

	series, err := parseChart(symbol, body)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("yahoo %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"range":  rng,
		"count":  series.Len(),
	}).Debug("Fetched prices")

	return series, nil
}

// parseChart converts a chart payload into a normalised series.
// Session timestamps are shifted by the exchange offset so the calendar
// date is the exchange's local trading date.
func parseChart(symbol string, body []byte) (contracts.PriceSeries, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("decode response failed: %w", err)
	}

	if chart.Chart.Error != nil {
		return contracts.PriceSeries{}, fmt.Errorf("api error %s (%s): %w",
			chart.Chart.Error.Code, chart.Chart.Error.Description, contracts.ErrNoData)
	}
	if len(chart.Chart.Result) == 0 {
		return contracts.PriceSeries{}, contracts.ErrNoData
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return contracts.PriceSeries{}, contracts.ErrNoData
	}

	closes := result.Indicators.Quote[0].Close
	points := make([]contracts.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // holidays and halted sessions come back as null
		}
		points = append(points, contracts.PricePoint{
			Date:  time.Unix(ts+result.Meta.GMTOffset, 0).UTC(),
			Close: *closes[i],
		})
	}

	series := contracts.NewPriceSeries(symbol, points)
	if series.Len() == 0 {
		return contracts.PriceSeries{}, contracts.ErrNoData
	}
	return series, nil
}
