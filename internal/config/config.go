package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config.yaml and the local database.
const DirName = ".salesloom"

// Global configuration structure.
type Global struct {
	// Storage
	Storage     string `mapstructure:"storage" yaml:"storage"`
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// Generation
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// HTTP server
	ListenAddr         string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

var defaults = map[string]any{
	"storage":              "auto",
	"database_url":         "",
	"sqlite_path":          "",
	"provider":             "gemini",
	"api_key":              "",
	"model":                "gemini-2.0-flash-lite",
	"base_url":             "",
	"max_tokens":           800,
	"temperature":          0.7,
	"http_timeout_sec":     60,
	"retry_max_attempts":   3,
	"retry_base_delay_ms":  500,
	"retry_max_delay_ms":   4000,
	"listen_addr":          ":8000",
	"cors_allowed_origins": []string{"*"},
	"log_level":            "info",
	"log_format":           "text",
}

// legacyEnv lists unprefixed variables still honored for a key, in priority order.
var legacyEnv = map[string][]string{
	"database_url": {"DATABASE_URL"},
	"api_key":      {"GOOGLE_AI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"},
}

// Keys lists every configurable key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dir returns ~/.salesloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salesloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults. A .env file in
// the working directory is loaded first and never overrides the real environment.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SALESLOOM")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for k, names := range legacyEnv {
		_ = v.BindEnv(append([]string{k, "SALESLOOM_" + strings.ToUpper(k)}, names...)...)
	}

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
	// optional read; a missing file is fine, a malformed one is not
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.SQLitePath == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.SQLitePath = filepath.Join(dir, "sales.db")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and ranged values.
func (c *Global) Validate() error {
	switch c.Storage {
	case "", "auto", "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("storage must be auto, sqlite, postgres or memory, got %q", c.Storage)
	}
	switch c.Provider {
	case "gemini", "openrouter", "ollama":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within 0..2, got %v", c.Temperature)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Set assigns value to key, parsing it according to the field's type, and
// validates the result.
func (c *Global) Set(key, value string) error {
	if err := c.assign(key, value); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Global) assign(key, value string) error {
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	switch key {
	case "storage":
		c.Storage = value
	case "database_url":
		c.DatabaseURL = value
	case "sqlite_path":
		c.SQLitePath = value
	case "provider":
		c.Provider = strings.ToLower(value)
	case "api_key":
		c.APIKey = value
	case "model":
		c.Model = value
	case "base_url":
		c.BaseURL = value
	case "max_tokens":
		return atoi(&c.MaxTokens)
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Temperature = f
	case "http_timeout_sec":
		return atoi(&c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return atoi(&c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return atoi(&c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return atoi(&c.RetryMaxDelayMs)
	case "listen_addr":
		c.ListenAddr = value
	case "cors_allowed_origins":
		c.CORSAllowedOrigins = splitList(value)
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Masked returns a copy safe to print: the API key and any DSN password are hidden.
func (c Global) Masked() Global {
	if c.APIKey != "" {
		c.APIKey = maskSecret(c.APIKey)
	}
	if c.DatabaseURL != "" {
		if u, err := url.Parse(c.DatabaseURL); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				c.DatabaseURL = u.String()
			}
		}
	}
	return c
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// HTTPTimeout is the per-request timeout for provider calls.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RetryDelays returns the base and maximum backoff delays.
func (c *Global) RetryDelays() (time.Duration, time.Duration) {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond, time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}
