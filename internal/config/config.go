package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	Auction   AuctionConfig   `mapstructure:"auction"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Countdown CountdownConfig `mapstructure:"countdown"`
	History   HistoryConfig   `mapstructure:"history"`
	Resync    ResyncConfig    `mapstructure:"resync"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig is the local status endpoint, not the auction API.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
}

type APIConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	WSBaseURL        string        `mapstructure:"ws_base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

type AuctionConfig struct {
	ID int64 `mapstructure:"id"`
}

type AuthConfig struct {
	Token    string `mapstructure:"token"`
	TokenKey string `mapstructure:"token_key"`
}

type RedisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Address        string        `mapstructure:"address"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	ViewChannel    string        `mapstructure:"view_channel"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type ReconnectConfig struct {
	BaseDelay time.Duration `mapstructure:"base_delay"`
	MaxDelay  time.Duration `mapstructure:"max_delay"`
}

type CountdownConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type HistoryConfig struct {
	Cap int `mapstructure:"cap"`
}

type ResyncConfig struct {
	// Schedule is a cron expression; empty disables periodic resync.
	Schedule string `mapstructure:"schedule"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.ws_base_url", "ws://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.handshake_timeout", 5*time.Second)
	v.SetDefault("auction.id", 0)
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.token_key", "token")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.view_channel", "auction_view")
	v.SetDefault("redis.publish_timeout", 2*time.Second)
	v.SetDefault("reconnect.base_delay", 2*time.Second)
	v.SetDefault("reconnect.max_delay", 10*time.Second)
	v.SetDefault("countdown.interval", time.Second)
	v.SetDefault("history.cap", 15)
	v.SetDefault("resync.schedule", "@every 30s")
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 15*time.Second)
	v.SetDefault("breaker.consecutive_failures", 5)
	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Environment variable mappings
	v.BindEnv("server.enabled", "STATUS_SERVER_ENABLED")
	v.BindEnv("server.port", "STATUS_SERVER_PORT")
	v.BindEnv("server.host", "STATUS_SERVER_HOST")
	v.BindEnv("api.base_url", "API_BASE_URL")
	v.BindEnv("api.ws_base_url", "WS_BASE_URL")
	v.BindEnv("api.timeout", "API_TIMEOUT")
	v.BindEnv("auction.id", "AUCTION_ID")
	v.BindEnv("auth.token", "AUCTION_TOKEN")
	v.BindEnv("auth.token_key", "AUCTION_TOKEN_KEY")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("reconnect.base_delay", "RECONNECT_BASE_DELAY")
	v.BindEnv("reconnect.max_delay", "RECONNECT_MAX_DELAY")
	v.BindEnv("history.cap", "HISTORY_CAP")
	v.BindEnv("resync.schedule", "RESYNC_SCHEDULE")
	v.BindEnv("log.level", "LOG_LEVEL")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-client/")

	bindEnv(v)

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Auction.ID <= 0 {
		return fmt.Errorf("auction.id must be positive, got %d", c.Auction.ID)
	}
	if c.API.BaseURL == "" || c.API.WSBaseURL == "" {
		return errors.New("api.base_url and api.ws_base_url are required")
	}
	if c.Reconnect.BaseDelay <= 0 {
		return fmt.Errorf("reconnect.base_delay must be positive, got %s", c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("reconnect.max_delay %s is below base_delay %s", c.Reconnect.MaxDelay, c.Reconnect.BaseDelay)
	}
	if c.Countdown.Interval <= 0 {
		return fmt.Errorf("countdown.interval must be positive, got %s", c.Countdown.Interval)
	}
	if c.History.Cap <= 0 {
		return fmt.Errorf("history.cap must be positive, got %d", c.History.Cap)
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Auction: %d, API: %s, WS: %s, Status: %s:%d, Redis: %s (enabled=%t)",
		c.Auction.ID,
		c.API.BaseURL,
		c.API.WSBaseURL,
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Redis.Enabled,
	)
}
