package backtest

import (
	"fmt"

	"BTCBacktester/internal/calculator"
	"BTCBacktester/internal/model"
	"BTCBacktester/internal/strategy"
)

// Config is the full, immutable parameter set of one backtest.
type Config struct {
	Windows    calculator.Windows
	Thresholds strategy.Thresholds
	Params     Params
}

// DefaultConfig returns the stock 10/20/300 crossover with 14-bar RSI and 5%/10% exits.
func DefaultConfig() Config {
	return Config{
		Windows:    calculator.DefaultWindows(),
		Thresholds: strategy.DefaultThresholds(),
		Params:     DefaultParams(),
	}
}

// Validate checks every part of the configuration.
func (c Config) Validate() error {
	if err := c.Windows.Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	return c.Params.Validate()
}

// Evaluate runs indicators, signals and the simulation over bars in one pass.
func Evaluate(bars []model.OHLCV, cfg Config) (*model.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, err
	}

	ind, err := calculator.Compute(bars, cfg.Windows)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	signals, err := strategy.Generate(bars, ind, cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}
	res, err := Run(bars, ind, signals, cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	return res, nil
}
