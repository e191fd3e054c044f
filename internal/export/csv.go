package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moznion/go-optional"

	"BTCBacktester/internal/model"
)

var (
	recordHeader = []string{"timestamp", "close", "rsi", "volume_ma", "signal", "trade", "realized_pnl", "capital"}
	tradeHeader  = []string{"timestamp", "direction", "price", "size", "realized_pnl"}
	barHeader    = []string{"timestamp", "open", "high", "low", "close", "volume"}
)

func ftoa(x float64) string { return strconv.FormatFloat(x, 'f', 8, 64) }

// optFloat renders None as an empty cell.
func optFloat(o optional.Option[float64]) string {
	if o.IsNone() {
		return ""
	}
	return ftoa(o.Unwrap())
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteRecordsCSV writes one row per bar of a run.
func WriteRecordsCSV(w io.Writer, records []model.BarRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		signal := ""
		if r.Signal.IsSome() {
			signal = strconv.Itoa(int(r.Signal.Unwrap()))
		}
		trade := ""
		if r.Trade.IsSome() {
			trade = string(r.Trade.Unwrap())
		}
		rows = append(rows, []string{
			r.Time.UTC().Format(time.RFC3339),
			ftoa(r.Close),
			optFloat(r.RSI),
			optFloat(r.VolumeMA),
			signal,
			trade,
			optFloat(r.RealizedPnL),
			ftoa(r.Capital),
		})
	}
	return writeAll(w, recordHeader, rows)
}

// WriteTradesCSV writes the trade log of a run.
func WriteTradesCSV(w io.Writer, trades []model.Trade) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.Time.UTC().Format(time.RFC3339),
			string(t.Direction),
			ftoa(t.Price),
			ftoa(t.Size),
			optFloat(t.RealizedPnL),
		})
	}
	return writeAll(w, tradeHeader, rows)
}

// WriteBarsCSV writes a raw series in the format the csv market data provider reads.
func WriteBarsCSV(w io.Writer, bars []model.OHLCV) error {
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			b.Time.UTC().Format(time.RFC3339),
			ftoa(b.Open), ftoa(b.High), ftoa(b.Low), ftoa(b.Close), ftoa(b.Volume),
		})
	}
	return writeAll(w, barHeader, rows)
}

// WriteRun writes bars.csv and trades.csv into a new directory <dir>/<symbol>_<timestamp>
// and returns that directory.
func WriteRun(dir, symbol string, res *model.Result, now time.Time) (string, error) {
	runDir := filepath.Join(dir, fmt.Sprintf("%s_%s", symbol, now.UTC().Format("20060102T150405Z")))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	if err := writeFile(filepath.Join(runDir, "bars.csv"), func(w io.Writer) error {
		return WriteRecordsCSV(w, res.Records)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, "trades.csv"), func(w io.Writer) error {
		return WriteTradesCSV(w, res.Trades)
	}); err != nil {
		return "", err
	}
	return runDir, nil
}

// WriteSeriesFile writes bars to path, creating parent directories.
func WriteSeriesFile(path string, bars []model.OHLCV) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return writeFile(path, func(w io.Writer) error { return WriteBarsCSV(w, bars) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
