package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/collector"
	"BTCBacktester/internal/logger"
	"BTCBacktester/internal/recorder"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return nil
}

func newTestScheduler(t *testing.T, fetcher collector.Fetcher, rec recorder.Recorder, exportDir string) (*Scheduler, *captureSender) {
	t.Helper()
	log := logger.NewNop()
	col := collector.NewCollector(fetcher, "BTCTRY", "1d", 400, log)
	sender := &captureSender{}
	s := NewScheduler(context.Background(), col, rec, sender, backtest.DefaultConfig(), exportDir, log)
	return s, sender
}

func TestExecuteRecordsAndExports(t *testing.T) {
	dir := t.TempDir()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "runs.db"), logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	exportDir := filepath.Join(dir, "exports")
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 2_000_000}, rec, exportDir)

	out, err := s.Execute(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Len(t, out.Result.Curve, 400)
	assert.Len(t, out.Result.Records, 400)
	assert.Equal(t, 400, out.Summary.Bars)
	assert.NotEmpty(t, out.RunID)

	require.NotEmpty(t, out.ExportDir)
	_, err = os.Stat(filepath.Join(out.ExportDir, "bars.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out.ExportDir, "trades.csv"))
	assert.NoError(t, err)

	row, err := rec.LastRun()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, out.RunID, row.ID)
	assert.Equal(t, "mock", row.Source)
	assert.Equal(t, 400, row.Bars)
	assert.InDelta(t, out.Summary.FinalCapital, row.FinalCapital, 1e-6)
}

func TestExecuteRunsAreIndependent(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 2_000_000}, recorder.NewNoopRecorder(), "")

	first, err := s.Execute(context.Background())
	require.NoError(t, err)
	second, err := s.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Result.Trades, second.Result.Trades)
	assert.Equal(t, first.Summary.FinalCapital, second.Summary.FinalCapital)
	assert.Empty(t, second.ExportDir)
}

func TestExecuteFetchError(t *testing.T) {
	dir := t.TempDir()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "runs.db"), logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	s, _ := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("exchange down")}, rec, "")

	out, err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "exchange down")

	row, err := rec.LastRun()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRunNowNotifies(t *testing.T) {
	s, sender := newTestScheduler(t, &collector.MockFetcher{Price: 2_000_000}, recorder.NewNoopRecorder(), "")
	s.RunNow()
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0], "Backtest BTCTRY")

	failing, failSender := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("boom")}, recorder.NewNoopRecorder(), "")
	failing.RunNow()
	require.Len(t, failSender.msgs, 1)
	assert.Contains(t, failSender.msgs[0], "Backtest failed")
}

func TestRunNowWithoutNotifier(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 2_000_000}, recorder.NewNoopRecorder(), "")
	s.Notifier = nil
	assert.NotPanics(t, s.RunNow)
}

func TestHandleCommand(t *testing.T) {
	dir := t.TempDir()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "runs.db"), logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 2_000_000}, rec, "")

	assert.Contains(t, s.HandleCommand("/last"), "No backtest has been recorded yet")
	assert.Contains(t, s.HandleCommand("/config"), "MA: 10 / 20 / 300")
	assert.Contains(t, s.HandleCommand("/CONFIG"), "Capital: 10000.00")
	assert.Contains(t, s.HandleCommand("/unknown"), "Available commands")

	assert.Contains(t, s.HandleCommand("/backtest"), "Backtest BTCTRY")
	assert.Contains(t, s.HandleCommand("/last"), "Last run")
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 1}, recorder.NewNoopRecorder(), "")

	require.NoError(t, s.Register("0 5 0 * * *"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("not a cron"))
	assert.Len(t, s.Cron.Entries(), 1)
}
