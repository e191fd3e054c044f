package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/logger"
	"BTCBacktester/internal/model"
)

func sampleRun(t *testing.T) *model.Result {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 100, 104, 111, 100, 101}
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: c, Volume: 1}
	}
	sigs := make([]optional.Option[model.Signal], len(bars))
	sigs[0] = optional.None[model.Signal]()
	for i := 1; i < len(sigs); i++ {
		sigs[i] = optional.Some(model.SignalNone)
	}
	sigs[1] = optional.Some(model.SignalBuy)
	sigs[4] = optional.Some(model.SignalBuy)

	res, err := backtest.Run(bars, nil, sigs, backtest.DefaultParams())
	require.NoError(t, err)
	return res
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	last, err := rec.LastRun()
	require.NoError(t, err)
	assert.Nil(t, last)

	res := sampleRun(t)
	run := &RunRecord{Symbol: "BTCTRY", Interval: "1d", Source: "mock", Result: res, Summary: backtest.Summarize(res)}
	require.NoError(t, rec.RecordRun(run))
	assert.NotEmpty(t, run.ID)

	last, err = rec.LastRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, run.ID, last.ID)
	assert.Equal(t, "BTCTRY", last.Symbol)
	assert.Equal(t, 6, last.Bars)
	assert.Equal(t, 2, last.Buys)
	assert.Equal(t, 1, last.Sells)
	assert.True(t, last.OpenPosition)
	assert.InDelta(t, res.FinalCapital(), last.FinalCapital, 1e-9)
	assert.Equal(t, 3, last.StoredTrades)
}

func TestSQLiteRecorder_LastRunIsNewest(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	res := sampleRun(t)
	older := &RunRecord{ID: "older", RanAt: time.Unix(1000, 0), Result: res, Summary: backtest.Summarize(res)}
	newer := &RunRecord{ID: "newer", RanAt: time.Unix(2000, 0), Result: res, Summary: backtest.Summarize(res)}
	require.NoError(t, rec.RecordRun(newer))
	require.NoError(t, rec.RecordRun(older))

	last, err := rec.LastRun()
	require.NoError(t, err)
	assert.Equal(t, "newer", last.ID)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&RunRecord{}))
	last, err := r.LastRun()
	assert.NoError(t, err)
	assert.Nil(t, last)
	assert.NoError(t, r.Close())
}
