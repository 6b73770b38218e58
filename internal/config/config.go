package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every key read from the environment.
const EnvPrefix = "TABDASH"

// Global configuration structure.
type Global struct {
	DefaultDataset string `mapstructure:"default_dataset" yaml:"default_dataset"`

	// Dashboard tuning
	TrendTolerance float64 `mapstructure:"trend_tolerance" yaml:"trend_tolerance"`
	YPad           float64 `mapstructure:"y_pad" yaml:"y_pad"`
	OverallColumn  string  `mapstructure:"overall_column" yaml:"overall_column"`
	ChartWidth     int     `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight    int     `mapstructure:"chart_height" yaml:"chart_height"`

	// Server
	ServerAddr  string   `mapstructure:"server_addr" yaml:"server_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxUploadMB int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	// Market data HTTP/Retry configuration
	MarketBaseURL    string `mapstructure:"market_base_url" yaml:"market_base_url"`
	HTTPTimeoutSec   int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int    `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int    `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int    `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"default_dataset", "trend_tolerance", "y_pad", "overall_column",
	"chart_width", "chart_height", "server_addr", "cors_origins", "max_upload_mb",
	"market_base_url", "http_timeout_sec", "retry_max_attempts",
	"retry_base_delay_ms", "retry_max_delay_ms",
}

func defaults(v *viper.Viper) {
	v.SetDefault("default_dataset", "marks")
	v.SetDefault("trend_tolerance", 0.05)
	v.SetDefault("y_pad", 5.0)
	v.SetDefault("overall_column", "_OverallPct")
	v.SetDefault("chart_width", 960)
	v.SetDefault("chart_height", 540)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("max_upload_mb", 20)
	v.SetDefault("market_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
}

// Dir returns ~/.tabdash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabdash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// A .env file in the working directory is loaded first; variables already
// set in the process environment win over it.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	defaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; one that does not parse is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set parses val for key and stores it on c.
func Set(c *Global, key, val string) error {
	switch key {
	case "default_dataset":
		c.DefaultDataset = val
	case "overall_column":
		if val == "" {
			return fmt.Errorf("overall_column must not be empty")
		}
		c.OverallColumn = val
	case "server_addr":
		c.ServerAddr = val
	case "market_base_url":
		c.MarketBaseURL = strings.TrimRight(val, "/")
	case "cors_origins":
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	case "trend_tolerance", "y_pad":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid non-negative float for %s: %v", key, val)
		}
		if key == "trend_tolerance" {
			c.TrendTolerance = f
		} else {
			c.YPad = f
		}
	default:
		p, ok := c.intField(key)
		if !ok {
			return fmt.Errorf("unknown key: %s", key)
		}
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*p = i
	}
	return nil
}

func (c *Global) intField(key string) (*int, bool) {
	switch key {
	case "chart_width":
		return &c.ChartWidth, true
	case "chart_height":
		return &c.ChartHeight, true
	case "max_upload_mb":
		return &c.MaxUploadMB, true
	case "http_timeout_sec":
		return &c.HTTPTimeoutSec, true
	case "retry_max_attempts":
		return &c.RetryMaxAttempts, true
	case "retry_base_delay_ms":
		return &c.RetryBaseDelayMs, true
	case "retry_max_delay_ms":
		return &c.RetryMaxDelayMs, true
	}
	return nil, false
}

// Get formats the value of key for display.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "default_dataset":
		return c.DefaultDataset, true
	case "overall_column":
		return c.OverallColumn, true
	case "server_addr":
		return c.ServerAddr, true
	case "market_base_url":
		return c.MarketBaseURL, true
	case "cors_origins":
		return strings.Join(c.CORSOrigins, ","), true
	case "trend_tolerance":
		return strconv.FormatFloat(c.TrendTolerance, 'g', -1, 64), true
	case "y_pad":
		return strconv.FormatFloat(c.YPad, 'g', -1, 64), true
	}
	if p, ok := c.intField(key); ok {
		return strconv.Itoa(*p), true
	}
	return "", false
}
