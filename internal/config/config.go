// Package config loads the optional YAML config file shared by both
// CLI entry points. Everything here has a literal default from the
// spec, so an absent file or flag is never an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"fetchkit/internal/errs"
)

// Config holds the tunables both binaries expose, with the spec's
// literal defaults applied by Load.
type Config struct {
	PeerPort          uint16        `yaml:"peer_port"`
	HTTPConcurrency   int           `yaml:"http_concurrency"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	PieceTimeout      time.Duration `yaml:"piece_timeout"`
	TrackerBackoffMax time.Duration `yaml:"tracker_backoff_max"`
}

// Default returns the spec's literal defaults.
func Default() Config {
	return Config{
		PeerPort:          6881,
		HTTPConcurrency:   8,
		HandshakeTimeout:  10 * time.Second,
		PieceTimeout:      120 * time.Second,
		TrackerBackoffMax: 30 * time.Second,
	}
}

// Load reads path, if non-empty, and overlays it onto Default(). A
// zero-valued field in the file leaves the default in place.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: reading config %s: %v", errs.UserInputError, path, err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return cfg, fmt.Errorf("%w: parsing config %s: %v", errs.UserInputError, path, err)
	}

	if override.PeerPort != 0 {
		cfg.PeerPort = override.PeerPort
	}
	if override.HTTPConcurrency != 0 {
		cfg.HTTPConcurrency = override.HTTPConcurrency
	}
	if override.HandshakeTimeout != 0 {
		cfg.HandshakeTimeout = override.HandshakeTimeout
	}
	if override.PieceTimeout != 0 {
		cfg.PieceTimeout = override.PieceTimeout
	}
	if override.TrackerBackoffMax != 0 {
		cfg.TrackerBackoffMax = override.TrackerBackoffMax
	}
	return cfg, nil
}
