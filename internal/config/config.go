// Package config loads the replayer's optional JSON configuration file,
// spec.md §6's "replayer [--config <file>] <input_file>". Deliberately
// minimal: spec.md §1 places configuration schema validation and CLI
// argument parsing out of scope, so this is a plain encoding/json decode
// into a struct mirroring the external interface table, not a general
// config framework.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// RuleConfig names one rule to add to the replayer's engine and its
// parameters, keyed by the rule's constructor name in internal/replay.
type RuleConfig struct {
	Type     string  `json:"type"`
	Count    int     `json:"count,omitempty"`
	Window   int64   `json:"window_ms,omitempty"`
	Factor   float64 `json:"factor,omitempty"`
	Rate     int     `json:"rate_per_sec,omitempty"`
	Pct      float64 `json:"pct,omitempty"`
	MaxMs    int64   `json:"max_jitter_ms,omitempty"`
	PeriodMs float64 `json:"period_ms,omitempty"`
	MinRate  float64 `json:"min_rate,omitempty"`
	MaxRate  float64 `json:"max_rate,omitempty"`
}

// Config mirrors the CLI/config surface spec.md §6 describes for the
// replayer, the matching engine, and the client algorithm.
type Config struct {
	// Replayer
	LoopForever bool         `json:"loop_forever"`
	Sender      string       `json:"sender"` // "udp", "tcp", "file", "console", "null", "nats", "zmq"
	SenderAddr  string       `json:"sender_addr,omitempty"`
	SenderPort  int          `json:"sender_port,omitempty"`
	Rules       []RuleConfig `json:"rules,omitempty"`

	// Matching engine
	MatchingPort     int    `json:"matching_port,omitempty"`
	MatchingProtocol string `json:"matching_protocol,omitempty"` // "auto", "ouch", "pillar", "cme"

	// Client algorithm
	MulticastAddr  string `json:"multicast_addr,omitempty"`
	MDPort         int    `json:"md_port,omitempty"`
	ExchangeHost   string `json:"exchange_host,omitempty"`
	ExchangePort   int    `json:"exchange_port,omitempty"`
	DurationSec    int    `json:"duration_sec,omitempty"`
	MetricsAddr    string `json:"metrics_addr,omitempty"`
}

// Load reads and parses path. A missing --config flag means the caller
// should skip Load entirely and rely on defaults/CLI positional args,
// per spec.md §6.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}
