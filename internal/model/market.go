package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrPrecondition marks input that is rejected before any computation starts:
// misaligned sequences, non-increasing timestamps, non-positive configuration.
var ErrPrecondition = errors.New("precondition violation")

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds an ordered bar sequence for one symbol.
type PriceSeries struct {
	Symbol    string
	Interval  string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Closes returns the close prices of bars in order.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the traded volumes of bars in order.
func Volumes(bars []OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}

// ValidateBars checks the ordering and value invariants of a series:
// at least one bar, strictly increasing timestamps, finite prices and volumes.
func ValidateBars(bars []OHLCV) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty series", ErrPrecondition)
	}
	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: bar %d (%s) has invalid value %v", ErrPrecondition, i, b.Time.Format(time.RFC3339), v)
			}
		}
		if b.Close <= 0 {
			return fmt.Errorf("%w: bar %d (%s) has non-positive close %v", ErrPrecondition, i, b.Time.Format(time.RFC3339), b.Close)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: timestamps not strictly increasing at bar %d (%s after %s)",
				ErrPrecondition, i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
