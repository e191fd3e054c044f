package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BTCBacktester/internal/model"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func some(v float64) optional.Option[float64] { return optional.Some(v) }

func none() optional.Option[float64] { return optional.None[float64]() }

// pair builds a two-bar fixture: the previous bar and the bar under test.
func pair(prev, cur model.IndicatorSet, volume float64) ([]model.OHLCV, []model.IndicatorSet) {
	bars := []model.OHLCV{
		{Time: t0, Close: 100, Volume: 1000},
		{Time: t0.Add(24 * time.Hour), Close: 101, Volume: volume},
	}
	return bars, []model.IndicatorSet{prev, cur}
}

func TestGenerate_FirstBarUndefined(t *testing.T) {
	bars, ind := pair(model.IndicatorSet{}, model.IndicatorSet{}, 1)
	sigs, err := Generate(bars, ind, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.True(t, sigs[0].IsNone())
	assert.Equal(t, optional.Some(model.SignalNone), sigs[1])
}

func TestGenerate_Crossovers(t *testing.T) {
	below := model.IndicatorSet{MAShort: some(99), MAMid: some(100), RSI: some(50), VolumeMA: some(1000)}
	equal := model.IndicatorSet{MAShort: some(100), MAMid: some(100), RSI: some(50), VolumeMA: some(1000)}
	above := model.IndicatorSet{MAShort: some(101), MAMid: some(100), RSI: some(50), VolumeMA: some(1000)}

	withRSI := func(s model.IndicatorSet, rsi optional.Option[float64]) model.IndicatorSet {
		s.RSI = rsi
		return s
	}
	withShort := func(s model.IndicatorSet, v optional.Option[float64]) model.IndicatorSet {
		s.MAShort = v
		return s
	}

	tests := []struct {
		name   string
		prev   model.IndicatorSet
		cur    model.IndicatorSet
		volume float64
		want   model.Signal
	}{
		{"bullish crossover fires", below, above, 1500, model.SignalBuy},
		{"crossover from equality fires", equal, above, 1500, model.SignalBuy},
		{"already above is not a crossover", above, above, 1500, model.SignalNone},
		{"overbought rsi blocks", below, withRSI(above, some(70)), 1500, model.SignalNone},
		{"volume at average blocks", below, above, 1000, model.SignalNone},
		{"undefined rsi blocks", below, withRSI(above, none()), 1500, model.SignalNone},
		{"undefined previous average blocks", withShort(below, none()), above, 1500, model.SignalNone},
		{"undefined current average blocks", below, withShort(above, none()), 1500, model.SignalNone},
		{"bearish crossover yields no buy", above, below, 1500, model.SignalNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, ind := pair(tt.prev, tt.cur, tt.volume)
			sigs, err := Generate(bars, ind, DefaultThresholds())
			require.NoError(t, err)
			assert.Equal(t, optional.Some(tt.want), sigs[1])
		})
	}
}

func TestGenerate_UndefinedVolumeAverageBlocks(t *testing.T) {
	prev := model.IndicatorSet{MAShort: some(99), MAMid: some(100), RSI: some(50)}
	cur := model.IndicatorSet{MAShort: some(101), MAMid: some(100), RSI: some(50)}
	bars, ind := pair(prev, cur, 1e9)
	sigs, err := Generate(bars, ind, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, optional.Some(model.SignalNone), sigs[1])
}

func TestGenerate_LengthMismatch(t *testing.T) {
	bars, ind := pair(model.IndicatorSet{}, model.IndicatorSet{}, 1)
	_, err := Generate(bars, ind[:1], DefaultThresholds())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.ErrorIs(t, Thresholds{Overbought: 30, Oversold: 70}.Validate(), model.ErrPrecondition)
	assert.ErrorIs(t, Thresholds{Overbought: 120, Oversold: 30}.Validate(), model.ErrPrecondition)
}
