package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/thrust/internal/core"
	"github.com/newthinker/thrust/internal/strategy/dualthrust"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Binance  BinanceConfig  `mapstructure:"binance"`
	OKX      OKXConfig      `mapstructure:"okx"`
	Screener ScreenerConfig `mapstructure:"screener"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
}

type ServerConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	APIKey  string        `mapstructure:"api_key"` // empty disables auth
	JobTTL  time.Duration `mapstructure:"job_ttl"`
	MaxJobs int           `mapstructure:"max_jobs"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// StrategyConfig holds the default Dual Thrust coefficients and timeframe.
// The lookback follows from the timeframe.
type StrategyConfig struct {
	K1        float64 `mapstructure:"k1"`
	K2        float64 `mapstructure:"k2"`
	Timeframe string  `mapstructure:"timeframe"`
}

type BinanceConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// OKXConfig configures the fallback candle source
type OKXConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// ScreenerConfig selects which pairs are listed as tradeable
type ScreenerConfig struct {
	Quote          string `mapstructure:"quote"`
	MinQuoteVolume string `mapstructure:"min_quote_volume"` // decimal string
}

// WatchConfig holds polling settings for live lines and symbol lists
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AlertsConfig configures breakout alerts sent while watching the lines.
// A channel with no destination set is disabled.
type AlertsConfig struct {
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// ArchiveConfig selects where saved backtest reports go.
// Type is "local" or "s3"; empty disables saving.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"`
	Path string   `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// THRUST_STRATEGY_K1 overrides strategy.k1
	v.SetEnvPrefix("thrust")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand ${VAR} values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			JobTTL:  time.Hour,
			MaxJobs: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Strategy: StrategyConfig{
			K1:        dualthrust.DefaultK1,
			K2:        dualthrust.DefaultK2,
			Timeframe: string(core.Timeframe1h),
		},
		Binance: BinanceConfig{
			BaseURL:           "https://api.binance.com",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		OKX: OKXConfig{
			Enabled:           true,
			BaseURL:           "https://www.okx.com",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Screener: ScreenerConfig{
			Quote:          "USDT",
			MinQuoteVolume: "10000000",
		},
		Watch: WatchConfig{
			Interval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Alerts: AlertsConfig{
			Cooldown: 5 * time.Minute,
			Webhook: WebhookConfig{
				Timeout: 10 * time.Second,
			},
		},
		Archive: ArchiveConfig{
			Path: "./reports",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxJobs < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_jobs must be positive, got %d", c.Server.MaxJobs))
	}

	if _, err := c.StrategyParams(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Binance.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("binance base_url required"))
	}
	if c.Binance.RequestsPerSecond < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("requests_per_second cannot be negative, got %v", c.Binance.RequestsPerSecond))
	}

	if c.OKX.Enabled && c.OKX.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("okx base_url required when okx is enabled"))
	}

	if _, err := c.MinQuoteVolume(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Watch.Interval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("watch interval must be positive, got %s", c.Watch.Interval))
	}

	if c.Alerts.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("alert cooldown cannot be negative, got %s", c.Alerts.Cooldown))
	}
	if (c.Alerts.Telegram.BotToken == "") != (c.Alerts.Telegram.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("telegram alerts need both bot_token and chat_id"))
	}

	switch c.Archive.Type {
	case "":
	case "local":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive path required for local archive"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive s3 bucket required"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q, want local or s3", c.Archive.Type))
	}

	return nil
}

// StrategyParams converts the strategy section into engine parameters
func (c *Config) StrategyParams() (dualthrust.Params, error) {
	tf, err := core.ParseTimeframe(c.Strategy.Timeframe)
	if err != nil {
		return dualthrust.Params{}, err
	}
	return dualthrust.ParamsFor(tf, c.Strategy.K1, c.Strategy.K2)
}

// MinQuoteVolume parses the screener volume threshold
func (c *Config) MinQuoteVolume() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Screener.MinQuoteVolume)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("min_quote_volume %q: %w", c.Screener.MinQuoteVolume, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("min_quote_volume cannot be negative, got %s", d)
	}
	return d, nil
}
