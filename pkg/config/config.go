package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const envPrefix = "IGPROXY_"

// Config holds all configuration options for the proxy
type Config struct {
	// HTTP listener settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Per-client inbound rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Response cache
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Instagram upstream settings
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream"`

	// Retry configuration for upstream requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr              string        `yaml:"addr" json:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	ServeUI           bool          `yaml:"serve_ui" json:"serve_ui"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers" json:"trust_proxy_headers"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" json:"max_body_bytes"`

	// Peers allowed to set client address headers, as CIDRs. Empty means any
	// peer when TrustProxyHeaders is on.
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`
}

// RateLimitConfig holds the fixed window limiter configuration
type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	MaxRequests   int           `yaml:"max_requests" json:"max_requests"`
	Window        time.Duration `yaml:"window" json:"window"`
	Backend       string        `yaml:"backend" json:"backend"`
	Path          string        `yaml:"path" json:"path"`
	SweepSchedule string        `yaml:"sweep_schedule" json:"sweep_schedule"`
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	Backend       string        `yaml:"backend" json:"backend"`
	Path          string        `yaml:"path" json:"path"`
	MaxEntries    int           `yaml:"max_entries" json:"max_entries"`
	PostTTL       time.Duration `yaml:"post_ttl" json:"post_ttl"`
	ProfileTTL    time.Duration `yaml:"profile_ttl" json:"profile_ttl"`
	ReelTTL       time.Duration `yaml:"reel_ttl" json:"reel_ttl"`
	StoriesTTL    time.Duration `yaml:"stories_ttl" json:"stories_ttl"`
	Writers       int           `yaml:"writers" json:"writers"`
	SweepSchedule string        `yaml:"sweep_schedule" json:"sweep_schedule"`
}

// UpstreamConfig holds Instagram-specific configuration
type UpstreamConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int           `yaml:"burst" json:"burst"`
	ProfilePostCount  int           `yaml:"profile_post_count" json:"profile_post_count"`
}

// RetryConfig holds retry configuration for upstream requests
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Format string `yaml:"format" json:"format"`
}

// Backend names shared by the cache and the rate limiter
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8787",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      90 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			ServeUI:           true,
			TrustProxyHeaders: false,
			MaxBodyBytes:      64 << 10,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			MaxRequests:   50,
			Window:        time.Minute,
			Backend:       BackendMemory,
			Path:          "",
			SweepSchedule: "@every 1m",
		},
		Cache: CacheConfig{
			Enabled:       true,
			Backend:       BackendMemory,
			Path:          "",
			MaxEntries:    10000,
			PostTTL:       time.Hour,
			ProfileTTL:    time.Hour,
			ReelTTL:       time.Hour,
			StoriesTTL:    5 * time.Minute,
			Writers:       2,
			SweepSchedule: "@every 5m",
		},
		Upstream: UpstreamConfig{
			BaseURL:           "https://www.instagram.com",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 120,
			Burst:             10,
			ProfilePostCount:  12,
		},
		Retry: RetryConfig{
			Enabled:     false,
			MaxAttempts: 1,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
			Multiplier:  2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if addr := os.Getenv(envPrefix + "ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"ADDR") == "" {
		c.Server.Addr = ":" + port
	}
	if v := os.Getenv(envPrefix + "SERVE_UI"); v != "" {
		c.Server.ServeUI = parseBool(v)
	}
	if v := os.Getenv(envPrefix + "TRUST_PROXY_HEADERS"); v != "" {
		c.Server.TrustProxyHeaders = parseBool(v)
	}
	if v := os.Getenv(envPrefix + "TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = splitList(v)
	}

	// Rate limiting
	if v := os.Getenv(envPrefix + "RATE_LIMIT_ENABLED"); v != "" {
		c.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_MAX_REQUESTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT_MAX_REQUESTS: %w", envPrefix, err))
		} else {
			c.RateLimit.MaxRequests = n
		}
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT_WINDOW: %w", envPrefix, err))
		} else {
			c.RateLimit.Window = d
		}
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_BACKEND"); v != "" {
		c.RateLimit.Backend = strings.ToLower(v)
	}

	// Cache
	if v := os.Getenv(envPrefix + "CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv(envPrefix + "CACHE_BACKEND"); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(envPrefix + "CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}

	// Upstream
	if v := os.Getenv(envPrefix + "UPSTREAM_BASE_URL"); v != "" {
		c.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(envPrefix + "USER_AGENT"); v != "" {
		c.Upstream.UserAgent = v
	}
	if v := os.Getenv(envPrefix + "REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", envPrefix, err))
		} else {
			c.Upstream.RequestsPerMinute = n
		}
	}

	// Logging level
	if logLevel := os.Getenv(envPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(envPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
	}
	return b
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"igproxy.yaml",
		".igproxy.yaml",
		".igproxy.yml",
		filepath.Join(home, ".config", "igproxy", "config.yaml"),
		filepath.Join(home, ".igproxy.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}
	if _, err := c.Server.ProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	// A profile request makes two upstream calls before it can write.
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= 2*c.Upstream.Timeout {
		errs = append(errs, fmt.Errorf("write timeout %s must exceed twice the upstream timeout %s",
			c.Server.WriteTimeout, c.Upstream.Timeout))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxRequests <= 0 {
			errs = append(errs, errors.New("rate limit max requests must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate limit window must be positive"))
		}
		if err := validateBackend("rate limit", c.RateLimit.Backend, c.RateLimit.Path); err != nil {
			errs = append(errs, err)
		}
		if err := validateSchedule("rate limit", c.RateLimit.SweepSchedule); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Cache.Enabled {
		if err := validateBackend("cache", c.Cache.Backend, c.Cache.Path); err != nil {
			errs = append(errs, err)
		}
		if c.Cache.PostTTL <= 0 || c.Cache.ProfileTTL <= 0 || c.Cache.ReelTTL <= 0 || c.Cache.StoriesTTL <= 0 {
			errs = append(errs, errors.New("cache TTLs must be positive"))
		}
		if c.Cache.Writers <= 0 {
			errs = append(errs, errors.New("cache writers must be positive"))
		}
		if err := validateSchedule("cache", c.Cache.SweepSchedule); err != nil {
			errs = append(errs, err)
		}
	}

	if c.RateLimit.Enabled && c.Cache.Enabled &&
		strings.EqualFold(c.RateLimit.Backend, BackendBadger) &&
		strings.EqualFold(c.Cache.Backend, BackendBadger) &&
		c.RateLimit.Path != "" && filepath.Clean(c.RateLimit.Path) == filepath.Clean(c.Cache.Path) {
		errs = append(errs, errors.New("rate limit and cache badger paths must differ"))
	}

	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream base URL is required"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("upstream timeout must be positive"))
	}
	if c.Upstream.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("upstream requests per minute cannot be negative"))
	}
	if c.Upstream.ProfilePostCount <= 0 || c.Upstream.ProfilePostCount > 50 {
		errs = append(errs, errors.New("profile post count must be between 1 and 50"))
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ProxyPrefixes parses TrustedProxies. A bare address is treated as a
// single-host prefix.
func (s ServerConfig) ProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if addr, err := netip.ParseAddr(raw); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateBackend(name, backend, path string) error {
	switch strings.ToLower(backend) {
	case BackendMemory:
		return nil
	case BackendBadger:
		if path == "" {
			return fmt.Errorf("%s backend %q requires a path", name, backend)
		}
		return nil
	default:
		return fmt.Errorf("invalid %s backend %q", name, backend)
	}
}

// validateSchedule accepts five-field cron specs and descriptors such as "@every 5m"
func validateSchedule(name, spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid %s sweep schedule %q: %w", name, spec, err)
	}
	return nil
}

// TTLFor returns the cache lifetime of the given endpoint name
func (c *CacheConfig) TTLFor(endpoint string) time.Duration {
	switch endpoint {
	case "stories":
		return c.StoriesTTL
	case "profile":
		return c.ProfileTTL
	case "reel":
		return c.ReelTTL
	default:
		return c.PostTTL
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if serveUI, ok := flags["serve-ui"].(bool); ok {
		c.Server.ServeUI = serveUI
	}
	if maxRequests, ok := flags["rate-limit"].(int); ok && maxRequests > 0 {
		c.RateLimit.MaxRequests = maxRequests
	}
	if window, ok := flags["rate-window"].(time.Duration); ok && window > 0 {
		c.RateLimit.Window = window
	}
	if backend, ok := flags["cache-backend"].(string); ok && backend != "" {
		c.Cache.Backend = backend
	}
	if path, ok := flags["cache-path"].(string); ok && path != "" {
		c.Cache.Path = path
	}
	if noCache, ok := flags["no-cache"].(bool); ok && noCache {
		c.Cache.Enabled = false
	}
	if baseURL, ok := flags["upstream"].(string); ok && baseURL != "" {
		c.Upstream.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igproxy.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
