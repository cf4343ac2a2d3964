// Package config loads runtime configuration from config.yaml and
// environment variables (env wins, keys upper-cased with underscores, e.g.
// LINE_CHANNEL_SECRET).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Line   LineConfig   `mapstructure:"line"`
	Bot    BotConfig    `mapstructure:"bot"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LineConfig struct {
	ChannelSecret string `mapstructure:"channel_secret"`
	ChannelToken  string `mapstructure:"channel_token"`
}

type BotConfig struct {
	// DefaultHeadcount pads settlement rosters when a command names no
	// headcount; 0 disables padding.
	DefaultHeadcount int `mapstructure:"default_headcount"`

	// SessionTTL bounds how long pending-delete and detail-view state
	// survives per conversation.
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads the configuration file at path (optional) merged with
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.path", "./data/ledger.db")
	v.SetDefault("bot.default_headcount", 0)
	v.SetDefault("bot.session_ttl", 10*time.Minute)
	v.SetDefault("bot.log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Line.ChannelSecret == "" || cfg.Line.ChannelToken == "" {
		return nil, fmt.Errorf("line.channel_secret and line.channel_token are required")
	}
	return cfg, nil
}
