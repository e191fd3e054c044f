package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// Signal is the per-bar buy trigger. It never encodes a sell.
type Signal int

const (
	SignalNone Signal = 0
	SignalBuy  Signal = 1
)

// Direction is the side of an executed trade.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// PositionState is either flat (all cash) or long (all in).
type PositionState string

const (
	PositionFlat PositionState = "FLAT"
	PositionLong PositionState = "LONG"
)

// Position is the simulator's open exposure.
type Position struct {
	State      PositionState
	Size       float64
	EntryPrice float64
}

// Trade is an executed fill. RealizedPnL is set on sells only.
type Trade struct {
	Time        time.Time
	Direction   Direction
	Price       float64
	Size        float64
	RealizedPnL optional.Option[float64]
}

// CapitalPoint is one mark-to-market sample of the capital curve.
type CapitalPoint struct {
	Time    time.Time
	Capital float64
}

// BarRecord is the per-bar export row of a simulation run.
type BarRecord struct {
	Time        time.Time
	Close       float64
	RSI         optional.Option[float64]
	VolumeMA    optional.Option[float64]
	Signal      optional.Option[Signal]
	Trade       optional.Option[Direction]
	RealizedPnL optional.Option[float64]
	Capital     float64
}

// Result is everything a simulation run produces.
type Result struct {
	InitialCapital float64
	StopLoss       float64
	TakeProfit     float64
	Trades         []Trade
	Curve          []CapitalPoint
	Records        []BarRecord
	Position       Position
	Cash           float64
}

// FinalCapital returns the last mark-to-market value, or the initial capital for an empty curve.
func (r *Result) FinalCapital() float64 {
	if len(r.Curve) == 0 {
		return r.InitialCapital
	}
	return r.Curve[len(r.Curve)-1].Capital
}
