package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the protsearch web service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for /api/* routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// UpstreamConfig points at the external search/suggest service.
type UpstreamConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	HealthPath string `yaml:"health_path"`
}

// CacheConfig holds the optional response cache settings. Empty addrs disables the cache.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// Enabled reports whether a cache backend is configured.
func (c CacheConfig) Enabled() bool {
	return len(c.Addrs) > 0
}

// SearchConfig holds query defaults and input timing.
type SearchConfig struct {
	DefaultK          int    `yaml:"default_k"`
	MaxK              int    `yaml:"max_k"`
	SearchDebounceMs  int    `yaml:"search_debounce_ms"`
	SuggestDebounceMs int    `yaml:"suggest_debounce_ms"`
	Flow              string `yaml:"flow"` // submit, typeahead
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 15
	}
	if c.Upstream.HealthPath == "" {
		c.Upstream.HealthPath = "/"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "protsearch:"
	}
	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 5
	}
	if c.Search.MaxK <= 0 {
		c.Search.MaxK = 100
	}
	if c.Search.SearchDebounceMs <= 0 {
		c.Search.SearchDebounceMs = 700
	}
	if c.Search.SuggestDebounceMs <= 0 {
		c.Search.SuggestDebounceMs = 300
	}
	if c.Search.Flow == "" {
		c.Search.Flow = "submit"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute http(s) URL, got %q", c.Upstream.BaseURL)
	}
	switch c.Cache.Driver {
	case "valkey", "redis":
		// ok
	default:
		return fmt.Errorf("cache.driver must be \"valkey\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.Search.DefaultK > c.Search.MaxK {
		return fmt.Errorf("search.default_k (%d) must not exceed search.max_k (%d)", c.Search.DefaultK, c.Search.MaxK)
	}
	switch c.Search.Flow {
	case "submit", "typeahead":
		// ok
	default:
		return fmt.Errorf("search.flow must be \"submit\" or \"typeahead\", got %q", c.Search.Flow)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
