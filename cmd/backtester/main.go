package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"BTCBacktester/internal/collector"
	"BTCBacktester/internal/config"
	"BTCBacktester/internal/export"
	"BTCBacktester/internal/logger"
	"BTCBacktester/internal/metrics"
	"BTCBacktester/internal/notifier"
	"BTCBacktester/internal/recorder"
	"BTCBacktester/internal/scheduler"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config `FILE`",
		Value:   "configs/config.yaml",
		Sources: cli.EnvVars("CONFIG_PATH"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "backtester",
		Usage: "Backtest the MA crossover + RSI + volume strategy on BTC/fiat daily bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Collect a series, run one backtest and print the report",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Override market.provider (binance, yahoo, http, csv, mock)",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Read bars from a CSV `FILE` (implies --provider csv)",
					},
					&cli.BoolFlag{
						Name:  "export",
						Usage: "Write bars.csv and trades.csv under export.dir",
					},
					&cli.BoolFlag{
						Name:  "notify",
						Usage: "Send the report to Telegram",
					},
				},
				Action: runAction,
			},
			{
				Name:  "serve",
				Usage: "Run backtests on the configured cron schedule and answer Telegram commands",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:    "run-on-start",
						Usage:   "Execute one backtest immediately",
						Sources: cli.EnvVars("RUN_ON_START"),
					},
				},
				Action: serveAction,
			},
			{
				Name:  "fetch",
				Usage: "Download the configured series to a CSV file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output CSV `FILE`",
						Required: true,
					},
				},
				Action: fetchAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "backtester: %v\n", err)
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func setup(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p := cmd.String("provider"); p != "" {
		cfg.Market.Provider = p
	}
	if path := cmd.String("csv"); path != "" {
		cfg.Market.Provider = collector.ProviderCSV
		cfg.Market.CSVPath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) collector() (*collector.Collector, error) {
	m := a.cfg.Market
	fetcher, err := collector.NewFetcher(m.Provider, collector.Options{
		BaseURL: m.BaseURL,
		APIKey:  m.APIKey,
		CSVPath: m.CSVPath,
		Proxy:   a.cfg.Proxy,
	})
	if err != nil {
		return nil, err
	}
	a.log.Info("data source", zap.String("provider", fetcher.Name()), zap.String("symbol", m.Symbol))
	return collector.NewCollector(fetcher, m.Symbol, m.Interval, m.Limit, a.log), nil
}

func (a *app) recorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		a.log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}

func (a *app) telegram() *notifier.TelegramNotifier {
	if !a.cfg.NotifyEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	col, err := a.collector()
	if err != nil {
		return err
	}
	rec := a.recorder()
	defer rec.Close()

	exportDir := ""
	if cmd.Bool("export") {
		exportDir = a.cfg.Export.Dir
	}
	var sender scheduler.Sender
	if cmd.Bool("notify") {
		tn := a.telegram()
		if tn == nil {
			return fmt.Errorf("--notify requires telegram.bot_token and telegram.chat_id")
		}
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, col, rec, sender, a.cfg.BacktestConfig(), exportDir, a.log)
	out, err := sched.Execute(ctx)
	if err != nil {
		return err
	}

	report := notifier.FormatBacktestReport(out.Series.Symbol, out.Result, out.Summary)
	fmt.Println(report)
	fmt.Println(notifier.FormatTrades(out.Result.Trades, 20))
	if out.ExportDir != "" {
		fmt.Printf("exported to %s\n", out.ExportDir)
	}
	if sender != nil {
		if err := sender.SendWithRetry(ctx, report, 3, time.Second); err != nil {
			return fmt.Errorf("send report: %w", err)
		}
	}
	return nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	col, err := a.collector()
	if err != nil {
		return err
	}
	rec := a.recorder()
	defer rec.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tn := a.telegram()
	var sender scheduler.Sender
	if tn != nil {
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, col, rec, sender, a.cfg.BacktestConfig(), a.cfg.Export.Dir, a.log)
	if err := sched.Register(a.cfg.Schedule.BacktestCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		ms := metrics.NewServer(addr, a.log)
		ms.Start()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := ms.Stop(shutdownCtx); err != nil {
				a.log.Warn("metrics server shutdown", zap.Error(err))
			}
		}()
	}

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	} else {
		a.log.Info("telegram not configured, notifications disabled")
	}

	if cmd.Bool("run-on-start") {
		a.log.Info("run-on-start enabled, executing backtest now")
		go sched.RunNow()
	}

	a.log.Info("backtester is running", zap.String("cron", a.cfg.Schedule.BacktestCron))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		a.log.Info("shutdown signal received, stopping")
	case <-ctx.Done():
	}
	cancel()
	return nil
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	col, err := a.collector()
	if err != nil {
		return err
	}
	series, err := col.Collect(ctx)
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := export.WriteSeriesFile(out, series.Bars); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	a.log.Info("series written", zap.String("path", out), zap.Int("bars", len(series.Bars)))
	return nil
}
