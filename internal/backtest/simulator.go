package backtest

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"BTCBacktester/internal/model"
)

// Params configures position management for one run.
type Params struct {
	InitialCapital float64 `yaml:"initial_capital"`
	StopLoss       float64 `yaml:"stop_loss"`
	TakeProfit     float64 `yaml:"take_profit"`
}

// DefaultParams starts with 10000 in cash, a 5% stop-loss and a 10% take-profit.
func DefaultParams() Params {
	return Params{InitialCapital: 10000, StopLoss: 0.05, TakeProfit: 0.10}
}

// Validate rejects parameters that would make the run meaningless.
// A zero stop-loss and an infinite take-profit are allowed.
func (p Params) Validate() error {
	if math.IsNaN(p.InitialCapital) || math.IsInf(p.InitialCapital, 0) || p.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive and finite, got %v", model.ErrPrecondition, p.InitialCapital)
	}
	if math.IsNaN(p.StopLoss) || p.StopLoss < 0 {
		return fmt.Errorf("%w: stop loss must be non-negative, got %v", model.ErrPrecondition, p.StopLoss)
	}
	if math.IsNaN(p.TakeProfit) || p.TakeProfit <= 0 {
		return fmt.Errorf("%w: take profit must be positive, got %v", model.ErrPrecondition, p.TakeProfit)
	}
	return nil
}

// ledger is the accumulator carried across bars.
type ledger struct {
	position model.Position
	cash     float64
	trades   []model.Trade
	curve    []model.CapitalPoint
	records  []model.BarRecord
}

// Run simulates an all-in/all-out long-only strategy over bars. Every precondition is
// checked before the first bar is touched. Bar 0 seeds the capital curve and never trades.
// A position still open after the last bar is left open and marked to market.
func Run(bars []model.OHLCV, ind []model.IndicatorSet, signals []optional.Option[model.Signal], p Params) (*model.Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("%w: %d bars but %d signals", model.ErrPrecondition, len(bars), len(signals))
	}
	if ind != nil && len(ind) != len(bars) {
		return nil, fmt.Errorf("%w: %d bars but %d indicator sets", model.ErrPrecondition, len(bars), len(ind))
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, err
	}

	acc := ledger{
		position: model.Position{State: model.PositionFlat},
		cash:     p.InitialCapital,
		trades:   make([]model.Trade, 0),
		curve:    make([]model.CapitalPoint, 0, len(bars)),
		records:  make([]model.BarRecord, 0, len(bars)),
	}
	for i := range bars {
		var set model.IndicatorSet
		if ind != nil {
			set = ind[i]
		}
		acc = step(acc, i, bars[i], set, signals[i], p)
	}

	return &model.Result{
		InitialCapital: p.InitialCapital,
		StopLoss:       p.StopLoss,
		TakeProfit:     p.TakeProfit,
		Trades:         acc.trades,
		Curve:          acc.curve,
		Records:        acc.records,
		Position:       acc.position,
		Cash:           acc.cash,
	}, nil
}

// step applies one bar to the ledger and returns the new ledger.
func step(acc ledger, i int, bar model.OHLCV, set model.IndicatorSet, sig optional.Option[model.Signal], p Params) ledger {
	rec := model.BarRecord{
		Time:        bar.Time,
		Close:       bar.Close,
		RSI:         set.RSI,
		VolumeMA:    set.VolumeMA,
		Signal:      sig,
		Trade:       optional.None[model.Direction](),
		RealizedPnL: optional.None[float64](),
	}

	if i > 0 {
		switch acc.position.State {
		case model.PositionFlat:
			if sig.IsSome() && sig.Unwrap() == model.SignalBuy {
				size := acc.cash / bar.Close
				acc.position = model.Position{State: model.PositionLong, Size: size, EntryPrice: bar.Close}
				acc.cash = 0
				acc.trades = append(acc.trades, model.Trade{
					Time:        bar.Time,
					Direction:   model.DirectionBuy,
					Price:       bar.Close,
					Size:        size,
					RealizedPnL: optional.None[float64](),
				})
				rec.Trade = optional.Some(model.DirectionBuy)
			}
		case model.PositionLong:
			change := (bar.Close - acc.position.EntryPrice) / acc.position.EntryPrice
			if change >= p.TakeProfit || change <= -p.StopLoss {
				size := acc.position.Size
				acc.cash = size * bar.Close
				pnl := acc.cash - p.InitialCapital
				acc.position = model.Position{State: model.PositionFlat}
				acc.trades = append(acc.trades, model.Trade{
					Time:        bar.Time,
					Direction:   model.DirectionSell,
					Price:       bar.Close,
					Size:        size,
					RealizedPnL: optional.Some(pnl),
				})
				rec.Trade = optional.Some(model.DirectionSell)
				rec.RealizedPnL = optional.Some(pnl)
			}
		}
	}

	rec.Capital = acc.cash + acc.position.Size*bar.Close
	acc.curve = append(acc.curve, model.CapitalPoint{Time: bar.Time, Capital: rec.Capital})
	acc.records = append(acc.records, rec)
	return acc
}
