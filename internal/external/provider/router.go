// Package provider routes price requests to the matching data source.
package provider

import (
	"context"
	"fmt"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/external/naver"
)

// Price sources accepted by PRICE_SOURCE
const (
	SourceAuto  = "auto"
	SourceYahoo = "yahoo"
	SourceNaver = "naver"
)

// Router is a PriceProvider that dispatches by symbol.
// In auto mode KRX codes go to the KRX provider and everything else to the
// global one.
type Router struct {
	source string
	global contracts.PriceProvider
	krx    contracts.PriceProvider
}

// NewRouter creates a router. krx may be nil, in which case every symbol
// goes to global.
func NewRouter(source string, global, krx contracts.PriceProvider) (*Router, error) {
	switch source {
	case SourceAuto, "":
		source = SourceAuto
	case SourceYahoo:
	case SourceNaver:
		if krx == nil {
			return nil, fmt.Errorf("price source %q requires a KRX provider", source)
		}
	default:
		return nil, fmt.Errorf("unknown price source %q", source)
	}
	if global == nil {
		return nil, fmt.Errorf("global price provider is required")
	}

	return &Router{source: source, global: global, krx: krx}, nil
}

// Fetch implements contracts.PriceProvider
func (r *Router) Fetch(ctx context.Context, symbol, rng string) (contracts.PriceSeries, error) {
	return r.pick(symbol).Fetch(ctx, symbol, rng)
}

func (r *Router) pick(symbol string) contracts.PriceProvider {
	switch r.source {
	case SourceYahoo:
		return r.global
	case SourceNaver:
		return r.krx
	default:
		if r.krx != nil && naver.IsKRXCode(symbol) {
			return r.krx
		}
		return r.global
	}
}
