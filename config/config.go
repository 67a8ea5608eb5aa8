// Package config loads service configuration: a YAML (or JSON) file for
// the strategy universe and risk budget, with environment overrides for
// deploy-time settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Strategies []StrategyConfig `json:"strategies" yaml:"strategies"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Push       PushConfig       `json:"push" yaml:"push"`
	Kafka      KafkaConfig      `json:"kafka" yaml:"kafka"`
}

type ServerConfig struct {
	Port       string `json:"port" yaml:"port" env:"PORT"`
	CORSOrigin string `json:"cors_origin" yaml:"cors_origin" env:"CORS_ORIGIN"`
}

type RiskConfig struct {
	// FractionPerTrade is the share of current equity risked on every
	// entry. Uniform, no per-trade override.
	FractionPerTrade float64 `json:"fraction_per_trade" yaml:"fraction_per_trade"`
}

type StrategyConfig struct {
	Symbol         string  `json:"symbol" yaml:"symbol"`
	Name           string  `json:"name" yaml:"name"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
}

type JournalConfig struct {
	Type       string `json:"type" yaml:"type" env:"JOURNAL_TYPE"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" env:"JOURNAL_DB"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

type PushConfig struct {
	Subscriber string `json:"subscriber" yaml:"subscriber" env:"VAPID_EMAIL"`
	PublicKey  string `json:"public_key" yaml:"public_key" env:"VAPID_PUBLIC_KEY"`
	PrivateKey string `json:"private_key,omitempty" yaml:"private_key,omitempty" env:"VAPID_PRIVATE_KEY"`
}

// Enabled is true when both VAPID keys are present.
func (p PushConfig) Enabled() bool { return p.PublicKey != "" && p.PrivateKey != "" }

type KafkaConfig struct {
	Brokers string `json:"brokers" yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string `json:"topic" yaml:"topic" env:"KAFKA_TOPIC"`
	GroupID string `json:"group_id" yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

// Enabled is true when a broker list is configured.
func (k KafkaConfig) Enabled() bool { return k.Brokers != "" }

// Default returns the configuration the original dashboard shipped with:
// two strategies, 1% risk per trade, a local SQLite journal.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       "8080",
			CORSOrigin: "*",
		},
		Risk: RiskConfig{FractionPerTrade: 0.01},
		Strategies: []StrategyConfig{
			{Symbol: "BTCUSD", Name: "Strategy_BTC", InitialBalance: 2400},
			{Symbol: "XAUUSD", Name: "Strategy_XAU", InitialBalance: 2900},
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./tradeguard.sqlite",
		},
	}
}

// Load builds the effective config: defaults, then the optional file,
// then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// YAML first, JSON as fallback.
	if err := yaml.Unmarshal(data, c); err != nil {
		if jerr := json.Unmarshal(data, c); jerr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return nil
}

// Validate checks the invariants the engine depends on.
func (c *Config) Validate() error {
	if c.Risk.FractionPerTrade <= 0 || c.Risk.FractionPerTrade > 1 {
		return fmt.Errorf("risk.fraction_per_trade must be in (0, 1]")
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	seen := map[string]bool{}
	for _, s := range c.Strategies {
		if s.Symbol == "" {
			return fmt.Errorf("strategy symbol is required")
		}
		if seen[s.Symbol] {
			return fmt.Errorf("duplicate strategy symbol %q", s.Symbol)
		}
		seen[s.Symbol] = true
		if s.InitialBalance <= 0 {
			return fmt.Errorf("strategy %s: initial_balance must be positive", s.Symbol)
		}
	}
	switch strings.ToLower(c.Journal.Type) {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be sqlite, csv or none")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}
