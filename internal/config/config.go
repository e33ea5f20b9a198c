// Package config loads the watcher configuration from defaults, an
// optional TOML file and XRPLWATCH_ environment variables, in that
// priority order.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete xrplwatch configuration.
type Config struct {
	// Node describes the rippled node to watch.
	Node NodeConfig `toml:"node" mapstructure:"node"`

	// Listen is the local address serving /ws and /metrics.
	Listen string `toml:"listen" mapstructure:"listen"`

	// SnapshotCache is how many recent closed-ledger messages the hub
	// keeps for backfill.
	SnapshotCache int `toml:"snapshot_cache" mapstructure:"snapshot_cache"`
}

// NodeConfig holds the upstream node endpoints and connection tuning.
type NodeConfig struct {
	// WebSocketURL is the subscription endpoint (ws:// or wss://).
	WebSocketURL string `toml:"websocket_url" mapstructure:"websocket_url"`

	// HTTPURL is the JSON-RPC endpoint used for server_definitions.
	HTTPURL string `toml:"http_url" mapstructure:"http_url"`

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration `toml:"handshake_timeout" mapstructure:"handshake_timeout"`

	// DefinitionsTimeout bounds the startup catalog fetch.
	DefinitionsTimeout time.Duration `toml:"definitions_timeout" mapstructure:"definitions_timeout"`

	// ReconnectMin and ReconnectMax bound the stream reconnect backoff.
	ReconnectMin time.Duration `toml:"reconnect_min" mapstructure:"reconnect_min"`
	ReconnectMax time.Duration `toml:"reconnect_max" mapstructure:"reconnect_max"`
}

// Validate checks the configuration for values that cannot work.
func Validate(cfg *Config) error {
	if cfg.Node.WebSocketURL == "" {
		return fmt.Errorf("node.websocket_url must be set")
	}
	if !strings.HasPrefix(cfg.Node.WebSocketURL, "ws://") && !strings.HasPrefix(cfg.Node.WebSocketURL, "wss://") {
		return fmt.Errorf("node.websocket_url must use ws:// or wss://, got %q", cfg.Node.WebSocketURL)
	}
	if cfg.Node.HTTPURL == "" {
		return fmt.Errorf("node.http_url must be set")
	}
	if !strings.HasPrefix(cfg.Node.HTTPURL, "http://") && !strings.HasPrefix(cfg.Node.HTTPURL, "https://") {
		return fmt.Errorf("node.http_url must use http:// or https://, got %q", cfg.Node.HTTPURL)
	}
	if cfg.Listen == "" {
		return fmt.Errorf("listen address must be set")
	}
	if cfg.SnapshotCache <= 0 {
		return fmt.Errorf("snapshot_cache must be positive, got %d", cfg.SnapshotCache)
	}
	if cfg.Node.ReconnectMin > cfg.Node.ReconnectMax {
		return fmt.Errorf("node.reconnect_min %v exceeds node.reconnect_max %v",
			cfg.Node.ReconnectMin, cfg.Node.ReconnectMax)
	}
	return nil
}
