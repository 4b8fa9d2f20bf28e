package naver

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/market-radar/internal/contracts"
)

var dailyDatePattern = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// fetchDailyPages walks the sise_day pages (newest first) until a page
// reaches back past from or there is no next page.
func (c *Client) fetchDailyPages(ctx context.Context, code string, from time.Time) ([]contracts.PricePoint, error) {
	var all []contracts.PricePoint

	for page := 1; page <= maxDailyPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("code", code)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchBody(ctx, c.baseURL, "/item/sise_day.naver", params)
		if err != nil {
			return nil, fmt.Errorf("daily page %d: %w", page, err)
		}

		points, oldest, hasMore := parseDailyHTML(html)
		all = append(all, points...)

		if len(points) == 0 || !hasMore {
			break
		}
		if oldest.Before(from) {
			break
		}
	}

	return all, nil
}

// parseDailyHTML reads one sise_day page.
// Columns: date | close | change | open | high | low | volume
func parseDailyHTML(html string) ([]contracts.PricePoint, time.Time, bool) {
	var points []contracts.PricePoint
	var oldest time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, oldest, false
	}

	doc.Find("table.type2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dailyDatePattern.MatchString(dateText) {
			return
		}
		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}

		closePrice := toFloat(cells.Eq(1).Text())
		if math.IsNaN(closePrice) {
			return
		}

		if oldest.IsZero() || tradeDate.Before(oldest) {
			oldest = tradeDate
		}
		points = append(points, contracts.PricePoint{Date: tradeDate, Close: closePrice})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return points, oldest, hasMore
}
