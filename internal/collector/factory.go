package collector

import "fmt"

// Provider names accepted by NewFetcher.
const (
	ProviderBinance = "binance"
	ProviderYahoo   = "yahoo"
	ProviderHTTP    = "http"
	ProviderCSV     = "csv"
	ProviderMock    = "mock"
)

// Options carries everything a fetcher may need; each provider reads its own fields.
type Options struct {
	BaseURL string
	APIKey  string
	CSVPath string
	Proxy   string
}

// NewFetcher builds the fetcher for provider.
func NewFetcher(provider string, opts Options) (Fetcher, error) {
	switch provider {
	case ProviderBinance, "":
		return NewBinanceFetcher(opts.BaseURL, opts.Proxy), nil
	case ProviderYahoo:
		f := NewYahooFetcher(opts.Proxy)
		if opts.BaseURL != "" {
			f.BaseURL = opts.BaseURL
		}
		return f, nil
	case ProviderHTTP:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("http provider requires a base url")
		}
		return NewHTTPFetcher(opts.BaseURL, opts.APIKey, opts.Proxy), nil
	case ProviderCSV:
		if opts.CSVPath == "" {
			return nil, fmt.Errorf("csv provider requires a file path")
		}
		return NewCSVFetcher(opts.CSVPath), nil
	case ProviderMock:
		return &MockFetcher{Price: 2000000}, nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q", provider)
	}
}
