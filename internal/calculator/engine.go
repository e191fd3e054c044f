package calculator

import (
	"fmt"

	"BTCBacktester/internal/model"
)

// Windows configures the lookback of every rolling indicator.
type Windows struct {
	Short  int `yaml:"short"`
	Mid    int `yaml:"mid"`
	Long   int `yaml:"long"`
	RSI    int `yaml:"rsi"`
	Volume int `yaml:"volume"`
}

// DefaultWindows returns the 10/20/300 moving averages, 14-bar RSI and 20-bar volume average.
func DefaultWindows() Windows {
	return Windows{Short: 10, Mid: 20, Long: 300, RSI: 14, Volume: 20}
}

// Validate rejects non-positive windows.
func (w Windows) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"short", w.Short},
		{"mid", w.Mid},
		{"long", w.Long},
		{"rsi", w.RSI},
		{"volume", w.Volume},
	} {
		if f.v <= 0 {
			return fmt.Errorf("%w: %s window must be positive, got %d", model.ErrPrecondition, f.name, f.v)
		}
	}
	return nil
}

// Longest returns the largest configured window.
func (w Windows) Longest() int {
	m := w.Short
	for _, v := range []int{w.Mid, w.Long, w.RSI, w.Volume} {
		if v > m {
			m = v
		}
	}
	return m
}

// Compute derives one IndicatorSet per bar. It is a pure function of bars and windows.
func Compute(bars []model.OHLCV, w Windows) ([]model.IndicatorSet, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	closes := model.Closes(bars)
	maShort := SMASeries(closes, w.Short)
	maMid := SMASeries(closes, w.Mid)
	maLong := SMASeries(closes, w.Long)
	rsi := RSISeries(closes, w.RSI)
	volMA := SMASeries(model.Volumes(bars), w.Volume)

	sets := make([]model.IndicatorSet, len(bars))
	for i, b := range bars {
		sets[i] = model.IndicatorSet{
			Time:     b.Time,
			MAShort:  maShort[i],
			MAMid:    maMid[i],
			MALong:   maLong[i],
			AvgGain:  rsi.AvgGain[i],
			AvgLoss:  rsi.AvgLoss[i],
			RSI:      rsi.RSI[i],
			VolumeMA: volMA[i],
		}
	}
	return sets, nil
}
