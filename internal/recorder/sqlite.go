package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"BTCBacktester/internal/logger"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT,
			interval         TEXT,
			source           TEXT,
			bars             INTEGER,
			initial_capital  REAL,
			final_capital    REAL,
			return_pct       REAL,
			buys             INTEGER,
			sells            INTEGER,
			win_rate         REAL,
			max_drawdown_pct REAL,
			open_position    INTEGER,
			stop_loss        REAL,
			take_profit      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON backtest_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			direction    TEXT NOT NULL,
			price        REAL,
			size         REAL,
			realized_pnl REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id)`,

		`CREATE TABLE IF NOT EXISTS capital_curve (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			close        REAL,
			rsi          REAL,
			volume_ma    REAL,
			signal       INTEGER,
			trade        TEXT,
			realized_pnl REAL,
			capital      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_curve_run ON capital_curve(run_id, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullFloat(o optional.Option[float64]) sql.NullFloat64 {
	if o.IsNone() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: o.Unwrap(), Valid: true}
}

// RecordRun stores the run headline, its trades and its per-bar records in one transaction.
// An empty ID is replaced with a fresh UUID.
func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RanAt.IsZero() {
		rec.RanAt = time.Now()
	}
	res, sum := rec.Result, rec.Summary

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO backtest_runs
		(id, timestamp, symbol, interval, source, bars, initial_capital, final_capital, return_pct,
		 buys, sells, win_rate, max_drawdown_pct, open_position, stop_loss, take_profit)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.RanAt.Unix(), rec.Symbol, rec.Interval, rec.Source, sum.Bars,
		sum.InitialCapital, sum.FinalCapital, sum.ReturnPct,
		sum.Buys, sum.Sells, sum.WinRate, sum.MaxDrawdownPct, sum.OpenPosition,
		res.StopLoss, res.TakeProfit,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range res.Trades {
		if _, err := tx.Exec(`INSERT INTO backtest_trades
			(run_id, timestamp, direction, price, size, realized_pnl) VALUES (?,?,?,?,?,?)`,
			rec.ID, t.Time.Unix(), string(t.Direction), t.Price, t.Size, nullFloat(t.RealizedPnL),
		); err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO capital_curve
		(run_id, timestamp, close, rsi, volume_ma, signal, trade, realized_pnl, capital)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare curve insert: %w", err)
	}
	defer stmt.Close()
	for _, b := range res.Records {
		var signal sql.NullInt64
		if b.Signal.IsSome() {
			signal = sql.NullInt64{Int64: int64(b.Signal.Unwrap()), Valid: true}
		}
		var trade sql.NullString
		if b.Trade.IsSome() {
			trade = sql.NullString{String: string(b.Trade.Unwrap()), Valid: true}
		}
		if _, err := stmt.Exec(rec.ID, b.Time.Unix(), b.Close, nullFloat(b.RSI), nullFloat(b.VolumeMA),
			signal, trade, nullFloat(b.RealizedPnL), b.Capital); err != nil {
			return fmt.Errorf("insert bar record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug("run recorded", zap.String("run_id", rec.ID), zap.Int("trades", len(res.Trades)))
	return nil
}

func (r *SQLiteRecorder) LastRun() (*RunRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var row RunRow
	var ts int64
	err := r.db.QueryRow(`SELECT id, timestamp, symbol, interval, source, bars, initial_capital, final_capital,
		return_pct, buys, sells, win_rate, max_drawdown_pct, open_position
		FROM backtest_runs ORDER BY timestamp DESC, rowid DESC LIMIT 1`).Scan(
		&row.ID, &ts, &row.Symbol, &row.Interval, &row.Source, &row.Bars,
		&row.InitialCapital, &row.FinalCapital, &row.ReturnPct,
		&row.Buys, &row.Sells, &row.WinRate, &row.MaxDrawdownPct, &row.OpenPosition,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	row.RanAt = time.Unix(ts, 0)
	if row.StoredTrades, err = r.countTrades(row.ID); err != nil {
		return nil, err
	}
	return &row, nil
}

// countTrades returns the number of stored trades of a run. Callers hold r.mu.
func (r *SQLiteRecorder) countTrades(runID string) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM backtest_trades WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
