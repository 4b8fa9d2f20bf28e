package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/market-radar/internal/contracts"
)

var priceRowPattern = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// Fetch returns daily closes for symbol over rng. The chart endpoint is tried
// first; the daily price pages are read when it fails or returns nothing.
// ⭐ SSOT: Naver price history is only fetched here
func (c *Client) Fetch(ctx context.Context, symbol, rng string) (contracts.PriceSeries, error) {
	if rng == "" {
		rng = "1mo"
	}

	end := c.now()
	start, err := contracts.RangeStart(end, rng)
	if err != nil {
		return contracts.PriceSeries{}, fmt.Errorf("naver %s: %w", symbol, err)
	}

	code := stockCode(symbol)

	points, err := c.fetchChart(ctx, code, start, end)
	if err != nil || len(points) == 0 {
		if ctx.Err() != nil {
			return contracts.PriceSeries{}, ctx.Err()
		}
		c.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  fmt.Sprint(err),
		}).Debug("Chart endpoint empty, reading daily price pages")

		points, err = c.fetchDailyPages(ctx, code, start)
		if err != nil {
			return contracts.PriceSeries{}, fmt.Errorf("naver %s: %w", symbol, err)
		}
	}

	series := contracts.NewPriceSeries(symbol, points)
	if series.Len() == 0 {
		return contracts.PriceSeries{}, fmt.Errorf("naver %s: %w", symbol, contracts.ErrNoData)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"range":  rng,
		"count":  series.Len(),
	}).Debug("Fetched prices")

	return series, nil
}

// fetchChart reads the siseJson chart endpoint
func (c *Client) fetchChart(ctx context.Context, code string, from, to time.Time) ([]contracts.PricePoint, error) {
	params := url.Values{}
	params.Set("symbol", code)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetchBody(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return nil, err
	}

	return parsePriceResponse(body), nil
}

// parsePriceResponse parses the siseJson payload, a JS array literal with
// single quotes and a header row.
func parsePriceResponse(body string) []contracts.PricePoint {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData)
	}

	return parsePriceRegex(body)
}

// parsePriceJSON reads [date, open, high, low, close, volume, ...] rows
func parsePriceJSON(rawData [][]interface{}) []contracts.PricePoint {
	var points []contracts.PricePoint
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(strings.Trim(dateStr, "\"")))
		if err != nil {
			continue
		}

		points = append(points, contracts.PricePoint{
			Date:  tradeDate,
			Close: toFloat(row[4]),
		})
	}
	return points
}

// parsePriceRegex is used when the payload is not valid JSON
func parsePriceRegex(body string) []contracts.PricePoint {
	matches := priceRowPattern.FindAllStringSubmatch(body, -1)

	var points []contracts.PricePoint
	for _, match := range matches {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(match[5], 64)
		if err != nil {
			continue
		}

		points = append(points, contracts.PricePoint{
			Date:  tradeDate,
			Close: closePrice,
		})
	}
	return points
}

// toFloat converts JSON scalars to float64. Null or unparsable values
// become NaN so the bar is dropped by contracts.NewPriceSeries.
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}
