package collector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"BTCBacktester/internal/model"
)

// binanceMaxKlines is the per-request cap of the klines endpoint.
const binanceMaxKlines = 1000

// BinanceFetcher implements Fetcher using the public Binance klines endpoint.
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher creates an unauthenticated Binance client. baseURL overrides the API host when set.
func NewBinanceFetcher(baseURL, proxyURL string) *BinanceFetcher {
	client := binance.NewClient("", "")
	client.HTTPClient = newHTTPClient(proxyURL)
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &BinanceFetcher{client: client}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchBars returns the most recent limit klines, paging backwards when limit exceeds one request.
func (f *BinanceFetcher) FetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	if interval == "" {
		interval = "1d"
	}
	if limit <= 0 {
		limit = 500
	}

	var bars []model.OHLCV
	var endTime int64
	for len(bars) < limit {
		batch := limit - len(bars)
		if batch > binanceMaxKlines {
			batch = binanceMaxKlines
		}
		svc := f.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(batch)
		if endTime > 0 {
			svc = svc.EndTime(endTime)
		}
		klines, err := svc.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s %s: %w", symbol, interval, err)
		}
		if len(klines) == 0 {
			break
		}
		page, err := convertKlines(klines)
		if err != nil {
			return nil, err
		}
		bars = append(page, bars...)
		if len(klines) < batch {
			break
		}
		endTime = klines[0].OpenTime - 1
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// convertKlines parses Binance string-encoded prices into bars, stamped at the kline open time.
func convertKlines(klines []*binance.Kline) ([]model.OHLCV, error) {
	bars := make([]model.OHLCV, 0, len(klines))
	for _, k := range klines {
		var vals [5]float64
		for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse kline %d field %d %q: %w", k.OpenTime, i, s, err)
			}
			vals[i] = v
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}
