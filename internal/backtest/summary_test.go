package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_ClosedAndOpenTrades(t *testing.T) {
	// buy 100 -> take profit 110, buy 100 -> stop 94, buy 100 and hold at 102
	closes := []float64{100, 100, 105, 110, 100, 94, 100, 102}
	bars := makeBars(closes)
	res, err := Run(bars, nil, buyAt(len(bars), 1, 4, 6), DefaultParams())
	require.NoError(t, err)
	require.Len(t, res.Trades, 5)

	s := Summarize(res)
	assert.Equal(t, 3, s.Buys)
	assert.Equal(t, 2, s.Sells)
	assert.Equal(t, 1, s.Wins)
	assert.InDelta(t, 0.5, s.WinRate, 1e-12)
	assert.True(t, s.OpenPosition)
	assert.Equal(t, len(closes), s.Bars)

	// 10000 -> 11000 -> 10340 -> held at 102/100
	assert.InDelta(t, 10340*1.02, s.FinalCapital, 1e-6)
	assert.InDelta(t, 10340*0.02, s.UnrealizedPnL, 1e-6)
	assert.InDelta(t, (10340*1.02-10000)/10000*100, s.ReturnPct, 1e-6)
	assert.InDelta(t, -6.0, s.MaxDrawdownPct, 1e-9)
}

func TestSummarize_NoTrades(t *testing.T) {
	bars := makeBars([]float64{100, 101, 99})
	res, err := Run(bars, nil, buyAt(len(bars)), DefaultParams())
	require.NoError(t, err)

	s := Summarize(res)
	assert.Zero(t, s.Buys)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.MaxDrawdownPct)
	assert.False(t, s.OpenPosition)
	assert.Equal(t, 10000.0, s.FinalCapital)
}
