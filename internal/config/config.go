// Package config provides configuration loading and validation for the
// portfolio server, site and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is the shared configuration. It can be loaded from a JSON file and
// overlaid with environment variables. All fields are optional.
type Config struct {
	// Data Client
	APIURL            string `json:"api_url,omitempty"`             // Base URL of the portfolio API
	APITimeoutSeconds int    `json:"api_timeout_seconds,omitempty"` // Per-request timeout
	AdminToken        string `json:"admin_token,omitempty"`         // Bearer token for admin reads
	SharedSnapshot    bool   `json:"shared_snapshot,omitempty"`     // Share one snapshot fetch across sections

	// API server
	DatabaseURL        string `json:"database_url,omitempty"`         // postgres://, sqlite: or :memory:
	JWTSecret          string `json:"jwt_secret,omitempty"`           // Enables admin auth when set
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty"` // Lifetime of issued admin tokens
	IPHashKey          string `json:"ip_hash_key,omitempty"`          // Key for hashing client IPs
	TrustedProxies     string `json:"trusted_proxies,omitempty"`      // Comma-separated IPs/CIDRs allowed to send X-Forwarded-For

	// Listeners
	ServerPort int `json:"server_port,omitempty"`
	SitePort   int `json:"site_port,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:             "http://localhost:8001",
		APITimeoutSeconds:  10,
		JWTExpirationHours: 24,
		ServerPort:         8001,
		SitePort:           3000,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave
// their fields empty so the result can be merged over a file config.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIURL:         os.Getenv("PORTFOLIO_API_URL"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		IPHashKey:      os.Getenv("IP_HASH_KEY"),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
	}

	if v := os.Getenv("API_TIMEOUT"); v != "" {
		secs, err := parseSeconds(v)
		if err != nil {
			return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
		}
		cfg.APITimeoutSeconds = secs
	}
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		cfg.JWTExpirationHours = hours
	}
	if v := os.Getenv("SHARED_SNAPSHOT"); v != "" {
		shared, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHARED_SNAPSHOT: %v", err)
		}
		cfg.SharedSnapshot = shared
	}

	return cfg, nil
}

// parseSeconds accepts a whole number of seconds or a Go duration such as "1m30s".
func parseSeconds(v string) (int, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return secs, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	return int(d.Round(time.Second) / time.Second), nil
}

// Validate checks that the configuration has valid values. Required fields
// are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config error: 'api_url' must be an http(s) URL, got %q", c.APIURL)
		}
	}
	if c.APITimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'api_timeout_seconds' must be non-negative")
	}
	if c.JWTExpirationHours < 0 {
		return fmt.Errorf("config error: 'jwt_expiration_hours' must be non-negative")
	}
	if len(c.IPHashKey) > 64 {
		return fmt.Errorf("config error: 'ip_hash_key' must be at most 64 bytes")
	}
	for name, port := range map[string]int{"server_port": c.ServerPort, "site_port": c.SitePort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("config error: '%s' out of range: %d", name, port)
		}
	}
	for _, p := range c.TrustedProxyList() {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("config error: 'trusted_proxies' entry %q is not an IP or CIDR", p)
		}
	}
	if c.DatabaseURL != "" && !strings.Contains(c.DatabaseURL, ":") {
		return fmt.Errorf("config error: 'database_url' must be a URL, sqlite: path or :memory:")
	}
	return nil
}

// APITimeout returns the Data Client timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// TrustedProxyList splits TrustedProxies into its trimmed, non-empty entries.
func (c *Config) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bools are OR-ed since an unset bool cannot be told apart from false.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.AdminToken == "" {
		result.AdminToken = defaults.AdminToken
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.IPHashKey == "" {
		result.IPHashKey = defaults.IPHashKey
	}
	if result.TrustedProxies == "" {
		result.TrustedProxies = defaults.TrustedProxies
	}

	if result.APITimeoutSeconds == 0 {
		result.APITimeoutSeconds = defaults.APITimeoutSeconds
	}
	if result.JWTExpirationHours == 0 {
		result.JWTExpirationHours = defaults.JWTExpirationHours
	}
	if result.ServerPort == 0 {
		result.ServerPort = defaults.ServerPort
	}
	if result.SitePort == 0 {
		result.SitePort = defaults.SitePort
	}

	result.SharedSnapshot = result.SharedSnapshot || defaults.SharedSnapshot

	return result
}

// Resolve merges environment variables over the config file at path (if any)
// and fills the rest from Defaults.
func Resolve(path string) (Config, error) {
	env, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	merged := *env
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		merged = env.MergeWithDefaults(*file)
	}
	merged = merged.MergeWithDefaults(Defaults())

	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
