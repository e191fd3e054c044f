package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/calculator"
	"BTCBacktester/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Market struct {
		Provider string `yaml:"provider" validate:"oneof=binance yahoo http csv mock"`
		BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
		APIKey   string `yaml:"api_key"`
		CSVPath  string `yaml:"csv_path"`
		Symbol   string `yaml:"symbol" validate:"required"`
		Interval string `yaml:"interval" validate:"required"`
		Limit    int    `yaml:"limit" validate:"gt=0"`
	} `yaml:"market"`
	Backtest struct {
		InitialCapital float64             `yaml:"initial_capital" validate:"gt=0"`
		StopLoss       float64             `yaml:"stop_loss" validate:"gte=0"`
		TakeProfit     float64             `yaml:"take_profit" validate:"gt=0"`
		Windows        calculator.Windows  `yaml:"windows"`
		Thresholds     strategy.Thresholds `yaml:"thresholds"`
	} `yaml:"backtest"`
	Schedule struct {
		BacktestCron string `yaml:"backtest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr" validate:"omitempty,hostname_port"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" validate:"omitempty,url"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error. Backtest parameters are seeded before parsing, so a key
// present in the file always wins, including an explicit zero such as stop_loss: 0.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.seedBacktest()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		c.Market.Provider = v
	}
	if v := os.Getenv("MARKET_SYMBOL"); v != "" {
		c.Market.Symbol = v
	}
	if v := os.Getenv("MARKET_API_KEY"); v != "" {
		c.Market.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("BACKTEST_CRON"); v != "" {
		c.Schedule.BacktestCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse INITIAL_CAPITAL: %w", err)
		}
		c.Backtest.InitialCapital = capital
	}
	return nil
}

func (c *Config) seedBacktest() {
	def := backtest.DefaultConfig()
	c.Backtest.InitialCapital = def.Params.InitialCapital
	c.Backtest.StopLoss = def.Params.StopLoss
	c.Backtest.TakeProfit = def.Params.TakeProfit
	c.Backtest.Windows = def.Windows
	c.Backtest.Thresholds = def.Thresholds
}

func (c *Config) applyDefaults() {
	if c.Market.Provider == "" {
		c.Market.Provider = "binance"
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = "BTCTRY"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1d"
	}
	if c.Market.Limit == 0 {
		c.Market.Limit = 500
	}

	if c.Schedule.BacktestCron == "" {
		c.Schedule.BacktestCron = "0 5 0 * * *"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "data/exports"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks field constraints and the resulting backtest configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if math.IsNaN(c.Backtest.TakeProfit) || math.IsNaN(c.Backtest.StopLoss) {
		return fmt.Errorf("invalid config: stop_loss and take_profit must be numbers")
	}
	if c.Market.Provider == "http" && c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url is required for the http provider")
	}
	if c.Market.Provider == "csv" && c.Market.CSVPath == "" {
		return fmt.Errorf("market.csv_path is required for the csv provider")
	}
	if err := c.BacktestConfig().Validate(); err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}
	return nil
}

// NotifyEnabled reports whether Telegram credentials are configured.
func (c *Config) NotifyEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// BacktestConfig converts the file settings into the immutable engine configuration.
func (c *Config) BacktestConfig() backtest.Config {
	return backtest.Config{
		Windows:    c.Backtest.Windows,
		Thresholds: c.Backtest.Thresholds,
		Params: backtest.Params{
			InitialCapital: c.Backtest.InitialCapital,
			StopLoss:       c.Backtest.StopLoss,
			TakeProfit:     c.Backtest.TakeProfit,
		},
	}
}
