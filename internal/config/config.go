package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	Log    LogConfig
}

type ServerConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PongWait         time.Duration
	ReconnectDelay   time.Duration
	ReconnectBurst   int
}

type ChatConfig struct {
	Username             string
	TypingInterval       time.Duration
	TypingExpiry         time.Duration
	NotificationCapacity int
	RefreshOnReconnect   bool
}

type LogConfig struct {
	Level       string
	Development bool
}

// fileConfig mirrors the optional TOML file. Durations are strings in
// time.ParseDuration form; unset keys fall through to the defaults.
type fileConfig struct {
	Server struct {
		URL              string `toml:"url"`
		HandshakeTimeout string `toml:"handshake_timeout"`
		WriteTimeout     string `toml:"write_timeout"`
		PongWait         string `toml:"pong_wait"`
		ReconnectDelay   string `toml:"reconnect_delay"`
		ReconnectBurst   *int   `toml:"reconnect_burst"`
	} `toml:"server"`
	Chat struct {
		Username             string `toml:"username"`
		TypingInterval       string `toml:"typing_interval"`
		TypingExpiry         string `toml:"typing_expiry"`
		NotificationCapacity *int   `toml:"notification_capacity"`
		RefreshOnReconnect   *bool  `toml:"refresh_on_reconnect"`
	} `toml:"chat"`
	Log struct {
		Level       string `toml:"level"`
		Development *bool  `toml:"development"`
	} `toml:"log"`
}

type loader struct {
	file fileConfig
	err  error
}

// Load reads configuration from a .env file (if present), the TOML file
// named by CHAT_CONFIG_FILE (if set) and the environment, in increasing
// order of precedence.
func Load() (*Config, error) {
	// A missing .env file is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	l := &loader{}
	if path := os.Getenv("CHAT_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &l.file); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	f := &l.file
	cfg := &Config{
		Server: ServerConfig{
			URL:              l.stringOr("CHAT_SERVER_URL", f.Server.URL, "ws://localhost:8080/ws"),
			HandshakeTimeout: l.durationOr("CHAT_HANDSHAKE_TIMEOUT", f.Server.HandshakeTimeout, "10s"),
			WriteTimeout:     l.durationOr("CHAT_WRITE_TIMEOUT", f.Server.WriteTimeout, "10s"),
			PongWait:         l.durationOr("CHAT_PONG_WAIT", f.Server.PongWait, "60s"),
			ReconnectDelay:   l.durationOr("CHAT_RECONNECT_DELAY", f.Server.ReconnectDelay, "2s"),
			ReconnectBurst:   l.intOr("CHAT_RECONNECT_BURST", f.Server.ReconnectBurst, 1),
		},
		Chat: ChatConfig{
			Username:             l.stringOr("CHAT_USERNAME", f.Chat.Username, ""),
			TypingInterval:       l.durationOr("CHAT_TYPING_INTERVAL", f.Chat.TypingInterval, "1s"),
			TypingExpiry:         l.durationOr("CHAT_TYPING_EXPIRY", f.Chat.TypingExpiry, "0s"),
			NotificationCapacity: l.intOr("CHAT_NOTIFICATION_CAPACITY", f.Chat.NotificationCapacity, 20),
			RefreshOnReconnect:   l.boolOr("CHAT_REFRESH_ON_RECONNECT", f.Chat.RefreshOnReconnect, true),
		},
		Log: LogConfig{
			Level:       l.stringOr("LOG_LEVEL", f.Log.Level, "info"),
			Development: l.boolOr("LOG_DEVELOPMENT", f.Log.Development, false),
		},
	}
	if l.err != nil {
		return nil, l.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.URL == "" {
		return errors.New("CHAT_SERVER_URL must not be empty")
	}
	if c.Server.ReconnectBurst < 1 {
		return fmt.Errorf("CHAT_RECONNECT_BURST must be at least 1, got %d", c.Server.ReconnectBurst)
	}
	if c.Chat.TypingInterval <= 0 {
		return fmt.Errorf("CHAT_TYPING_INTERVAL must be positive, got %s", c.Chat.TypingInterval)
	}
	if c.Chat.TypingExpiry < 0 {
		return fmt.Errorf("CHAT_TYPING_EXPIRY must not be negative, got %s", c.Chat.TypingExpiry)
	}
	if c.Chat.NotificationCapacity < 1 {
		return fmt.Errorf("CHAT_NOTIFICATION_CAPACITY must be at least 1, got %d", c.Chat.NotificationCapacity)
	}
	return nil
}

func (l *loader) stringOr(key, fromFile, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fromFile != "" {
		return fromFile
	}
	return defaultValue
}

func (l *loader) durationOr(key, fromFile, defaultValue string) time.Duration {
	value := l.stringOr(key, fromFile, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		l.fail(fmt.Errorf("invalid duration for %s: %w", key, err))
		return 0
	}
	return duration
}

func (l *loader) intOr(key string, fromFile *int, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err != nil {
			l.fail(fmt.Errorf("invalid integer for %s: %w", key, err))
			return 0
		}
		return intValue
	}
	if fromFile != nil {
		return *fromFile
	}
	return defaultValue
}

func (l *loader) boolOr(key string, fromFile *bool, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			l.fail(fmt.Errorf("invalid boolean for %s: %w", key, err))
			return false
		}
		return b
	}
	if fromFile != nil {
		return *fromFile
	}
	return defaultValue
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}
