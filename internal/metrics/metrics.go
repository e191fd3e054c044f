package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/model"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_runs_total",
			Help: "Backtest runs by outcome (ok, collect_error, evaluate_error).",
		},
		[]string{"status"},
	)

	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtester_trades_total",
			Help: "Simulated trades by direction across all runs.",
		},
		[]string{"direction"},
	)

	FinalCapital = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtester_final_capital",
			Help: "Mark-to-market capital at the end of the latest run.",
		},
	)

	MaxDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtester_max_drawdown_percent",
			Help: "Maximum drawdown of the latest run, in percent (non-positive).",
		},
	)

	PositionOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtester_position_open",
			Help: "1 when the latest run ended with an open position.",
		},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtester_run_duration_seconds",
			Help:    "Wall time of a full collect-and-simulate cycle.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, TradesTotal, FinalCapital, MaxDrawdown, PositionOpen, RunDuration)
}

// ObserveRun updates every collector from a finished run.
func ObserveRun(res *model.Result, sum backtest.Summary, elapsed time.Duration) {
	RunsTotal.WithLabelValues("ok").Inc()
	for _, t := range res.Trades {
		TradesTotal.WithLabelValues(string(t.Direction)).Inc()
	}
	FinalCapital.Set(sum.FinalCapital)
	MaxDrawdown.Set(sum.MaxDrawdownPct)
	if sum.OpenPosition {
		PositionOpen.Set(1)
	} else {
		PositionOpen.Set(0)
	}
	RunDuration.Observe(elapsed.Seconds())
}

// ObserveFailure counts a run that did not complete.
func ObserveFailure(status string) {
	RunsTotal.WithLabelValues(status).Inc()
}
