package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"

	"BTCBacktester/internal/model"
)

// Thresholds bounds the RSI filter applied to crossovers.
type Thresholds struct {
	Overbought float64 `yaml:"overbought"`
	Oversold   float64 `yaml:"oversold"`
}

// DefaultThresholds returns the classic 70/30 RSI band.
func DefaultThresholds() Thresholds {
	return Thresholds{Overbought: 70, Oversold: 30}
}

// Validate checks the band is ordered and inside [0, 100].
func (t Thresholds) Validate() error {
	if t.Oversold < 0 || t.Overbought > 100 || t.Oversold >= t.Overbought {
		return fmt.Errorf("%w: rsi thresholds must satisfy 0 <= oversold < overbought <= 100, got %.2f/%.2f",
			model.ErrPrecondition, t.Oversold, t.Overbought)
	}
	return nil
}

// Generate derives the per-bar buy trigger from the short/mid moving average crossover,
// confirmed by RSI and above-average volume. The first bar has no predecessor and is None.
//
// A bearish crossover only clears the trigger for its bar; exits are left to the simulator.
func Generate(bars []model.OHLCV, ind []model.IndicatorSet, th Thresholds) ([]optional.Option[model.Signal], error) {
	if len(bars) != len(ind) {
		return nil, fmt.Errorf("%w: %d bars but %d indicator sets", model.ErrPrecondition, len(bars), len(ind))
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}

	signals := make([]optional.Option[model.Signal], len(bars))
	for i := range bars {
		if i == 0 {
			signals[i] = optional.None[model.Signal]()
			continue
		}
		cur, prev := ind[i], ind[i-1]
		volumeUp := greater(optional.Some(bars[i].Volume), cur.VolumeMA)

		sig := model.SignalNone
		if greater(cur.MAShort, cur.MAMid) &&
			lessOrEqual(prev.MAShort, prev.MAMid) &&
			greater(optional.Some(th.Overbought), cur.RSI) &&
			volumeUp {
			sig = model.SignalBuy
		}
		if greater(cur.MAMid, cur.MAShort) &&
			lessOrEqual(prev.MAMid, prev.MAShort) &&
			greater(cur.RSI, optional.Some(th.Oversold)) &&
			volumeUp {
			sig = model.SignalNone
		}
		signals[i] = optional.Some(sig)
	}
	return signals, nil
}

// greater reports a > b; an undefined side never satisfies a comparison.
func greater(a, b optional.Option[float64]) bool {
	if a.IsNone() || b.IsNone() {
		return false
	}
	return a.Unwrap() > b.Unwrap()
}

func lessOrEqual(a, b optional.Option[float64]) bool {
	if a.IsNone() || b.IsNone() {
		return false
	}
	return a.Unwrap() <= b.Unwrap()
}
