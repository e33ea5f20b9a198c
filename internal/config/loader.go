package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration in priority order:
//  1. Default values
//  2. Configuration file (TOML), when a path is given
//  3. Environment variables (XRPLWATCH_ prefix)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("XRPLWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node.websocket_url", "wss://s1.ripple.com")
	v.SetDefault("node.http_url", "https://s1.ripple.com:51234")
	v.SetDefault("node.handshake_timeout", 15*time.Second)
	v.SetDefault("node.definitions_timeout", 10*time.Second)
	v.SetDefault("node.reconnect_min", time.Second)
	v.SetDefault("node.reconnect_max", 30*time.Second)
	v.SetDefault("listen", "127.0.0.1:7580")
	v.SetDefault("snapshot_cache", 32)
}
