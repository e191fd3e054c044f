package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/collector"
	"BTCBacktester/internal/export"
	"BTCBacktester/internal/logger"
	"BTCBacktester/internal/metrics"
	"BTCBacktester/internal/model"
	"BTCBacktester/internal/notifier"
	"BTCBacktester/internal/recorder"
)

// Sender delivers report text; TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int, base time.Duration) error
}

// RunOutput is what one collect-and-simulate cycle produced.
type RunOutput struct {
	RunID     string
	Series    *model.PriceSeries
	Result    *model.Result
	Summary   backtest.Summary
	ExportDir string
}

// Scheduler runs backtests on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  Sender // nil disables notifications
	Backtest  backtest.Config
	ExportDir string // empty disables CSV export
	Ctx       context.Context

	log *logger.Logger
	mu  sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, sender Sender,
	cfg backtest.Config, exportDir string, log *logger.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Notifier:  sender,
		Backtest:  cfg,
		ExportDir: exportDir,
		Ctx:       ctx,
		log:       log,
	}
}

// Register schedules the backtest task.
func (s *Scheduler) Register(backtestCron string) error {
	if _, err := s.Cron.AddFunc(backtestCron, s.backtestTask); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the backtest task immediately.
func (s *Scheduler) RunNow() {
	s.backtestTask()
}

func (s *Scheduler) backtestTask() {
	s.log.Info("running backtest task")
	out, err := s.Execute(s.Ctx)
	if err != nil {
		s.log.Error("backtest task failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Backtest failed: %v", err))
		return
	}
	s.trySend(notifier.FormatBacktestReport(out.Series.Symbol, out.Result, out.Summary))
}

// Execute collects a fresh series, simulates it, then records, exports and
// observes the result. Concurrent calls are serialized; every call owns its result.
func (s *Scheduler) Execute(ctx context.Context) (*RunOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	series, err := s.Collector.Collect(ctx)
	if err != nil {
		metrics.ObserveFailure("collect_error")
		return nil, fmt.Errorf("collect: %w", err)
	}

	res, err := backtest.Evaluate(series.Bars, s.Backtest)
	if err != nil {
		metrics.ObserveFailure("evaluate_error")
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	sum := backtest.Summarize(res)
	out := &RunOutput{Series: series, Result: res, Summary: sum}

	rec := &recorder.RunRecord{
		Symbol:   series.Symbol,
		Interval: series.Interval,
		Source:   s.Collector.Fetcher.Name(),
		RanAt:    started,
		Result:   res,
		Summary:  sum,
	}
	if err := s.Recorder.RecordRun(rec); err != nil {
		s.log.Error("record run failed", zap.Error(err))
	}
	out.RunID = rec.ID

	if s.ExportDir != "" {
		dir, err := export.WriteRun(s.ExportDir, series.Symbol, res, started)
		if err != nil {
			s.log.Error("export run failed", zap.Error(err))
		} else {
			out.ExportDir = dir
		}
	}

	elapsed := time.Since(started)
	metrics.ObserveRun(res, sum, elapsed)
	s.log.Info("backtest finished",
		zap.String("symbol", series.Symbol),
		zap.Int("bars", sum.Bars),
		zap.Int("buys", sum.Buys),
		zap.Int("sells", sum.Sells),
		zap.Float64("final_capital", sum.FinalCapital),
		zap.Float64("return_pct", sum.ReturnPct),
		zap.Bool("open_position", sum.OpenPosition),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch strings.ToLower(command) {
	case "/backtest":
		out, err := s.Execute(s.Ctx)
		if err != nil {
			return fmt.Sprintf("❌ Backtest failed: %v", err)
		}
		return notifier.FormatBacktestReport(out.Series.Symbol, out.Result, out.Summary)
	case "/last":
		row, err := s.Recorder.LastRun()
		if err != nil {
			return fmt.Sprintf("❌ Could not load last run: %v", err)
		}
		return notifier.FormatLastRun(row)
	case "/config":
		return s.formatConfig()
	default:
		return "Available commands:\n• /backtest run a backtest now\n• /last show the last recorded run\n• /config show parameters"
	}
}

func (s *Scheduler) formatConfig() string {
	c := s.Backtest
	var b strings.Builder
	b.WriteString("⚙️ <b>Backtest parameters</b>\n\n")
	b.WriteString(fmt.Sprintf("Symbol: %s (%s, %d bars)\n", s.Collector.Symbol, s.Collector.Interval, s.Collector.Limit))
	b.WriteString(fmt.Sprintf("MA: %d / %d / %d\n", c.Windows.Short, c.Windows.Mid, c.Windows.Long))
	b.WriteString(fmt.Sprintf("RSI: %d bars, band %.0f–%.0f\n", c.Windows.RSI, c.Thresholds.Oversold, c.Thresholds.Overbought))
	b.WriteString(fmt.Sprintf("Volume MA: %d bars\n", c.Windows.Volume))
	b.WriteString(fmt.Sprintf("Capital: %.2f\n", c.Params.InitialCapital))
	b.WriteString(fmt.Sprintf("Stop-loss / take-profit: %.1f%% / %.1f%%\n", c.Params.StopLoss*100, c.Params.TakeProfit*100))
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3, time.Second); err != nil {
		s.log.Error("send notification failed", zap.Error(err))
	}
}
