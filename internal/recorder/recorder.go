package recorder

import (
	"time"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/model"
)

// RunRecord holds everything persisted for one finished backtest.
type RunRecord struct {
	ID       string
	Symbol   string
	Interval string
	Source   string
	RanAt    time.Time
	Result   *model.Result
	Summary  backtest.Summary
}

// RunRow is the stored headline of a run.
type RunRow struct {
	ID             string
	Symbol         string
	Interval       string
	Source         string
	RanAt          time.Time
	Bars           int
	InitialCapital float64
	FinalCapital   float64
	ReturnPct      float64
	Buys           int
	Sells          int
	WinRate        float64
	MaxDrawdownPct float64
	OpenPosition   bool
	StoredTrades   int
}

// Recorder persists finished runs for later analysis.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	// LastRun returns the most recent run, or nil when none is stored.
	LastRun() (*RunRow, error)
	Close() error
}
