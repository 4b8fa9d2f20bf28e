package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/internal/contracts"
)

type stubProvider struct {
	name  string
	calls []string
}

func (s *stubProvider) Fetch(_ context.Context, symbol, _ string) (contracts.PriceSeries, error) {
	s.calls = append(s.calls, symbol)
	return contracts.PriceSeries{Symbol: s.name + ":" + symbol}, nil
}

func TestRouter_Auto(t *testing.T) {
	global := &stubProvider{name: "yahoo"}
	krx := &stubProvider{name: "naver"}

	r, err := NewRouter(SourceAuto, global, krx)
	require.NoError(t, err)

	for _, sym := range []string{"AAPL", "005930", "000660.KS", "^GSPC"} {
		_, err := r.Fetch(context.Background(), sym, "1mo")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"AAPL", "^GSPC"}, global.calls)
	assert.Equal(t, []string{"005930", "000660.KS"}, krx.calls)
}

func TestRouter_Forced(t *testing.T) {
	global := &stubProvider{name: "yahoo"}
	krx := &stubProvider{name: "naver"}

	r, err := NewRouter(SourceYahoo, global, krx)
	require.NoError(t, err)
	s, _ := r.Fetch(context.Background(), "005930", "1mo")
	assert.Equal(t, "yahoo:005930", s.Symbol)

	r, err = NewRouter(SourceNaver, global, krx)
	require.NoError(t, err)
	s, _ = r.Fetch(context.Background(), "AAPL", "1mo")
	assert.Equal(t, "naver:AAPL", s.Symbol)
}

func TestRouter_NilKRX(t *testing.T) {
	global := &stubProvider{name: "yahoo"}

	r, err := NewRouter("", global, nil)
	require.NoError(t, err)
	s, _ := r.Fetch(context.Background(), "005930", "1mo")
	assert.Equal(t, "yahoo:005930", s.Symbol)

	_, err = NewRouter(SourceNaver, global, nil)
	assert.Error(t, err)
}

func TestRouter_InvalidSource(t *testing.T) {
	_, err := NewRouter("bloomberg", &stubProvider{}, nil)
	assert.Error(t, err)

	_, err = NewRouter(SourceAuto, nil, nil)
	assert.Error(t, err)
}
