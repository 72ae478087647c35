package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type BackendConfig struct {
	Address string        `yaml:"address"`
	Timeout time.Duration `yaml:"timeout"`
}

const _backendTimeoutDefault = 5 * time.Second

func (c *BackendConfig) Setup() error {
	if c.Address == "" {
		return fmt.Errorf("backend address is required")
	}
	if _, err := url.Parse(c.Address); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		c.Timeout = _backendTimeoutDefault
	}

	return nil
}

type PollingConfig struct {
	PriceInterval   time.Duration `yaml:"price_interval"`
	AccountInterval time.Duration `yaml:"account_interval"`
	HistoryInterval time.Duration `yaml:"history_interval"`
	HistoryLimit    int           `yaml:"history_limit"`
}

const (
	_priceIntervalDefault   = 1 * time.Second
	_accountIntervalDefault = 2 * time.Second
	_historyIntervalDefault = 10 * time.Second
	_historyLimitDefault    = 50
)

func (c *PollingConfig) Setup() {
	if c.PriceInterval <= 0 {
		c.PriceInterval = _priceIntervalDefault
	}
	if c.AccountInterval <= 0 {
		c.AccountInterval = _accountIntervalDefault
	}
	if c.HistoryInterval <= 0 {
		c.HistoryInterval = _historyIntervalDefault
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = _historyLimitDefault
	}
}

type TradingConfig struct {
	DefaultLeverage int     `yaml:"default_leverage"`
	MinQuantity     float64 `yaml:"min_quantity"`
}

const (
	_defaultLeverage    = 100
	_minQuantityDefault = 0.01
)

func (c *TradingConfig) Setup() {
	if c.DefaultLeverage <= 0 {
		c.DefaultLeverage = _defaultLeverage
	}
	if c.MinQuantity <= 0 {
		c.MinQuantity = _minQuantityDefault
	}
}

type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

const _flushIntervalDefault = 1 * time.Minute

func (c *JournalConfig) Setup() {
	if c.FlushInterval <= 0 {
		c.FlushInterval = _flushIntervalDefault
	}
}

type TerminalConfig struct {
	Backend BackendConfig `yaml:"backend"`
	Polling PollingConfig `yaml:"polling"`
	Trading TradingConfig `yaml:"trading"`
	Journal JournalConfig `yaml:"journal"`
}

func (c *TerminalConfig) ValidateAndSetup() error {
	if err := c.Backend.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup backend cfg", err)
	}
	c.Polling.Setup()
	c.Trading.Setup()
	c.Journal.Setup()

	return nil
}

func LoadTerminalConfig(filename string) (TerminalConfig, error) {
	var cfg TerminalConfig
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
