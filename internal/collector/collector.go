package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"BTCBacktester/internal/logger"
	"BTCBacktester/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, _ string, limit int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, limit), nil
}

// generateMockBars produces a deterministic daily series oscillating around basePrice.
func generateMockBars(basePrice float64, count int) []model.OHLCV {
	if count <= 0 {
		return []model.OHLCV{}
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		wave := float64(i%40-20) * 0.004
		p := basePrice * (1 + wave + float64(i)*0.0005)
		vol := 1000.0
		if i%40 == 21 {
			vol = 2500
		}
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: vol,
		}
	}
	return bars
}

// Collector fetches a series for one symbol and checks it is usable.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Interval string
	Limit    int
	log      *logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, interval string, limit int, log *logger.Logger) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, Interval: interval, Limit: limit, log: log}
}

// Collect fetches market data, orders it chronologically and validates it.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchBars(ctx, c.Symbol, c.Interval, c.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars from %s: %w", c.Symbol, c.Fetcher.Name(), err)
	}

	sorted := make([]model.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	if err := model.ValidateBars(sorted); err != nil {
		return nil, fmt.Errorf("validate %s series: %w", c.Symbol, err)
	}

	c.log.Info("series collected",
		zap.String("source", c.Fetcher.Name()),
		zap.String("symbol", c.Symbol),
		zap.String("interval", c.Interval),
		zap.Int("bars", len(sorted)),
		zap.Time("first", sorted[0].Time),
		zap.Time("last", sorted[len(sorted)-1].Time),
	)
	return &model.PriceSeries{
		Symbol:    c.Symbol,
		Interval:  c.Interval,
		Bars:      sorted,
		FetchedAt: time.Now(),
	}, nil
}
