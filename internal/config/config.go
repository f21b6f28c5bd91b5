// Package config loads newsbrief configuration from an optional TOML file
// with environment variable overrides on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	News      NewsConfig      `toml:"news"`
	Summarize SummarizeConfig `toml:"summarize"`
	HTTP      HTTPConfig      `toml:"http"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Storage   StorageConfig   `toml:"storage"`
}

// NewsConfig holds headline source settings.
type NewsConfig struct {
	Source   string `toml:"source"` // "newsapi" or "rss"
	APIKey   string `toml:"api_key"`
	APIURL   string `toml:"api_url"`
	FeedURL  string `toml:"feed_url"`
	Country  string `toml:"country"`
	Category string `toml:"category"`
}

// SummarizeConfig holds completion engine settings.
type SummarizeConfig struct {
	APIKey      string  `toml:"api_key"`
	APIURL      string  `toml:"api_url"`
	EngineID    string  `toml:"engine_id"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// HTTPConfig holds settings shared by every outbound API client.
type HTTPConfig struct {
	TimeoutSeconds       int `toml:"timeout_seconds"`
	MaxRetries           int `toml:"max_retries"`
	RetryDelaySeconds    int `toml:"retry_delay_seconds"`
	MinRequestIntervalMS int `toml:"min_request_interval_ms"`
}

// PipelineConfig holds run behavior settings.
type PipelineConfig struct {
	Themes      []string `toml:"themes"`
	Concurrency int      `toml:"concurrency"`
	OutputFile  string   `toml:"output_file"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
}

// Load builds the configuration: defaults, then the TOML file at path (if it
// exists), then environment variables with highest priority. An empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base delay between retry attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.HTTP.RetryDelaySeconds) * time.Second
}

// MinRequestInterval returns the minimum spacing between calls to one
// service. Zero disables rate limiting.
func (c *Config) MinRequestInterval() time.Duration {
	return time.Duration(c.HTTP.MinRequestIntervalMS) * time.Millisecond
}

// CompletionsURL returns the completion endpoint, deriving it from the
// engine ID when news summarize.api_url is not set explicitly.
func (c *Config) CompletionsURL() string {
	if c.Summarize.APIURL != "" {
		return c.Summarize.APIURL
	}
	return fmt.Sprintf("https://openrouter.ai/api/v1/engines/%s/completions", c.Summarize.EngineID)
}

func applyDefaults(cfg *Config) {
	if cfg.News.Source == "" {
		cfg.News.Source = "newsapi"
	}
	if cfg.News.APIURL == "" {
		cfg.News.APIURL = "https://newsapi.org/v2/top-headlines"
	}
	if cfg.News.Country == "" {
		cfg.News.Country = "us"
	}
	if cfg.Summarize.EngineID == "" {
		cfg.Summarize.EngineID = "openai/gpt-3.5-turbo-instruct"
	}
	if cfg.Summarize.MaxTokens == 0 {
		cfg.Summarize.MaxTokens = 150
	}
	if cfg.Summarize.Temperature == 0 {
		cfg.Summarize.Temperature = 0.5
	}
	if cfg.HTTP.TimeoutSeconds == 0 {
		cfg.HTTP.TimeoutSeconds = 30
	}
	if cfg.HTTP.MaxRetries == 0 {
		cfg.HTTP.MaxRetries = 3
	}
	if cfg.HTTP.RetryDelaySeconds == 0 {
		cfg.HTTP.RetryDelaySeconds = 1
	}
	if cfg.HTTP.MinRequestIntervalMS == 0 {
		cfg.HTTP.MinRequestIntervalMS = 1000
	}
	if len(cfg.Pipeline.Themes) == 0 {
		cfg.Pipeline.Themes = []string{"technology", "health", "finance"}
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = 5
	}
	if cfg.Pipeline.OutputFile == "" {
		cfg.Pipeline.OutputFile = "news_summaries.txt"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "newsbrief.db"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("ignoring non-integer environment variable", "name", key, "value", v)
			return
		}
		*dst = n
	}

	setString("NEWS_SOURCE", &cfg.News.Source)
	setString("NEWS_API_KEY", &cfg.News.APIKey)
	setString("NEWS_API_URL", &cfg.News.APIURL)
	setString("NEWS_FEED_URL", &cfg.News.FeedURL)
	setString("NEWS_COUNTRY", &cfg.News.Country)
	setString("NEWS_CATEGORY", &cfg.News.Category)

	setString("OPENROUTER_API_KEY", &cfg.Summarize.APIKey)
	setString("OPENROUTER_URL", &cfg.Summarize.APIURL)
	setString("OPENROUTER_ENGINE_ID", &cfg.Summarize.EngineID)
	setInt("MAX_TOKENS", &cfg.Summarize.MaxTokens)
	if v := os.Getenv("TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("ignoring non-numeric environment variable", "name", "TEMPERATURE", "value", v)
		} else {
			cfg.Summarize.Temperature = f
		}
	}

	setInt("REQUEST_TIMEOUT", &cfg.HTTP.TimeoutSeconds)
	setInt("MAX_RETRIES", &cfg.HTTP.MaxRetries)
	setInt("RETRY_DELAY", &cfg.HTTP.RetryDelaySeconds)
	setInt("MIN_REQUEST_INTERVAL_MS", &cfg.HTTP.MinRequestIntervalMS)

	if v := os.Getenv("THEMES"); v != "" {
		var themes []string
		for _, theme := range strings.Split(v, ",") {
			if theme = strings.TrimSpace(theme); theme != "" {
				themes = append(themes, theme)
			}
		}
		cfg.Pipeline.Themes = themes
	}
	setInt("CONCURRENCY", &cfg.Pipeline.Concurrency)
	setString("OUTPUT_FILE", &cfg.Pipeline.OutputFile)
	setString("DATABASE_URL", &cfg.Storage.DatabasePath)
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.News.Source {
	case "newsapi", "rss":
		// valid
	default:
		return fmt.Errorf("invalid news.source %q: must be \"newsapi\" or \"rss\"", cfg.News.Source)
	}

	if cfg.News.Source == "rss" && cfg.News.FeedURL == "" {
		return errors.New("news.feed_url is required when news.source is \"rss\"")
	}
	if cfg.News.Source == "newsapi" && cfg.News.APIKey == "" {
		return errors.New("news.api_key is required: set it in the config file or via NEWS_API_KEY")
	}
	if cfg.Summarize.APIKey == "" {
		return errors.New("summarize.api_key is required: set it in the config file or via OPENROUTER_API_KEY")
	}

	if cfg.HTTP.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid http.timeout_seconds %d: must be >= 1", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.HTTP.MaxRetries < 1 {
		return fmt.Errorf("invalid http.max_retries %d: must be >= 1", cfg.HTTP.MaxRetries)
	}
	if cfg.Pipeline.Concurrency < 1 {
		return fmt.Errorf("invalid pipeline.concurrency %d: must be >= 1", cfg.Pipeline.Concurrency)
	}
	if cfg.Summarize.Temperature < 0 || cfg.Summarize.Temperature > 2 {
		return fmt.Errorf("invalid summarize.temperature %g: must be between 0 and 2", cfg.Summarize.Temperature)
	}

	return nil
}
