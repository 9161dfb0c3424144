package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "gemini-attach"
	envPrefix  = "GEMINI_ATTACH"
)

// Config holds the process configuration. Pipeline ceilings are constants
// and are not configurable.
type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	APIVersion  string        `yaml:"api_version"`
	Proxy       string        `yaml:"proxy,omitempty"`
	Upload      bool          `yaml:"upload"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Concurrency int           `yaml:"concurrency"`
	CacheSize   int           `yaml:"cache_size"`
	CacheDB     string        `yaml:"cache_db,omitempty"`
	MetricsFile string        `yaml:"metrics_file,omitempty"`
	LogLevel    string        `yaml:"log_level"`
	// Source is the config file that was read, empty when none was found
	Source string `yaml:"-"`
}

// LoadConfig reads configuration from path, or from the default locations
// when path is empty, overlaid with GEMINI_ATTACH_* environment variables.
// GEMINI_API_KEY is honoured for the API key.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("api_version", DefaultAPIVersion)
	v.SetDefault("upload", true)
	v.SetDefault("http_timeout", defaultTimeout)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.db", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", envPrefix+"_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		APIKey:      v.GetString("api_key"),
		BaseURL:     v.GetString("base_url"),
		APIVersion:  v.GetString("api_version"),
		Proxy:       v.GetString("proxy"),
		Upload:      v.GetBool("upload"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		Concurrency: v.GetInt("concurrency"),
		CacheSize:   v.GetInt("cache.size"),
		CacheDB:     v.GetString("cache.db"),
		MetricsFile: v.GetString("metrics_file"),
		LogLevel:    v.GetString("log_level"),
		Source:      v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache.size must be at least 1, got %d", c.CacheSize)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// ClientConfig returns the remote client settings
func (c *Config) ClientConfig() GeminiClientConfig {
	return GeminiClientConfig{
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		APIVersion: c.APIVersion,
		Proxy:      c.Proxy,
		Timeout:    c.HTTPTimeout,
	}
}

// RedactedAPIKey masks all but the last four characters of the key
func (c *Config) RedactedAPIKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}
