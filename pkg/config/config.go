package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/spire/config"
	ConfigFileName    = "spire.yml"
)

// ValidLogLevels is the list of accepted log_level values
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// SpireConfig holds all Spire configuration settings
type SpireConfig struct {
	// ListenAddress is the address the API server binds to
	ListenAddress string `yaml:"listen_address" json:"listen_address"`

	// ListenPort is the port the API server binds to
	ListenPort int `yaml:"listen_port" json:"listen_port"`

	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// SearchIndexRoot is the directory holding the per-journal search indices
	SearchIndexRoot string `yaml:"search_index_root" json:"search_index_root"`

	// SearchResultLimitMax is the maximum page size for search requests
	SearchResultLimitMax int `yaml:"search_result_limit_max" json:"search_result_limit_max"`

	// SearchTagPrefixMatch switches tag filters from exact-token to
	// prefix matching
	SearchTagPrefixMatch bool `yaml:"search_tag_prefix_match" json:"search_tag_prefix_match"`

	// SearchSyncSeconds bounds how stale an index may go before the
	// reconciliation pass is expected to have repaired it
	SearchSyncSeconds int `yaml:"search_sync_seconds" json:"search_sync_seconds"`

	// TokenSigningKey signs and verifies API access tokens
	TokenSigningKey string `yaml:"token_signing_key" json:"-"`

	// TokenTTL is the access token lifetime in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// LogLevel is the minimum level emitted by the service logger
	LogLevel string `yaml:"log_level" json:"log_level"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *SpireConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *SpireConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	// Load config
	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *SpireConfig {
	return &SpireConfig{
		ListenAddress:        "0.0.0.0",
		ListenPort:           7475,
		TrustedProxies:       []string{},
		SearchIndexRoot:      "/var/lib/spire/indices",
		SearchResultLimitMax: 10,
		SearchTagPrefixMatch: false,
		SearchSyncSeconds:    30,
		TokenTTL:             86400,
		LogLevel:             "info",
		sources:              make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*SpireConfig, error) {
	config := newDefault()

	// Initialize all sources as "default"
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	// Determine config file path
	configPath := os.Getenv("SPIRE_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	// Try to load from config file
	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig SpireConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	// Override with environment variables
	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"listen_address", "listen_port", "trusted_proxies",
		"search_index_root", "search_result_limit_max",
		"search_tag_prefix_match", "search_sync_seconds",
		"token_signing_key", "token_ttl", "log_level",
	}
}

func (c *SpireConfig) applyFileConfig(file *SpireConfig) {
	if file.ListenAddress != "" {
		c.ListenAddress = file.ListenAddress
		c.sources["listen_address"] = "file"
	}
	if file.ListenPort != 0 {
		c.ListenPort = file.ListenPort
		c.sources["listen_port"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.SearchIndexRoot != "" {
		c.SearchIndexRoot = file.SearchIndexRoot
		c.sources["search_index_root"] = "file"
	}
	if file.SearchResultLimitMax != 0 {
		c.SearchResultLimitMax = file.SearchResultLimitMax
		c.sources["search_result_limit_max"] = "file"
	}
	if file.SearchTagPrefixMatch {
		c.SearchTagPrefixMatch = true
		c.sources["search_tag_prefix_match"] = "file"
	}
	if file.SearchSyncSeconds != 0 {
		c.SearchSyncSeconds = file.SearchSyncSeconds
		c.sources["search_sync_seconds"] = "file"
	}
	if file.TokenSigningKey != "" {
		c.TokenSigningKey = file.TokenSigningKey
		c.sources["token_signing_key"] = "file"
	}
	if file.TokenTTL != 0 {
		c.TokenTTL = file.TokenTTL
		c.sources["token_ttl"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
}

func (c *SpireConfig) applyEnvConfig() {
	if val := os.Getenv("SPIRE_LISTEN_ADDRESS"); val != "" {
		c.ListenAddress = val
		c.sources["listen_address"] = "environment"
	}
	if val := os.Getenv("SPIRE_LISTEN_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ListenPort = i
			c.sources["listen_port"] = "environment"
		}
	}
	if val := os.Getenv("SPIRE_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("SPIRE_SEARCH_INDEX_ROOT"); val != "" {
		c.SearchIndexRoot = val
		c.sources["search_index_root"] = "environment"
	}
	if val := os.Getenv("SPIRE_SEARCH_RESULT_LIMIT_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SearchResultLimitMax = i
			c.sources["search_result_limit_max"] = "environment"
		}
	}
	if val := os.Getenv("SPIRE_SEARCH_TAG_PREFIX_MATCH"); val != "" {
		c.SearchTagPrefixMatch = val == "true" || val == "1"
		c.sources["search_tag_prefix_match"] = "environment"
	}
	if val := os.Getenv("SPIRE_SEARCH_SYNC_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SearchSyncSeconds = i
			c.sources["search_sync_seconds"] = "environment"
		}
	}
	if val := os.Getenv("SPIRE_TOKEN_SIGNING_KEY"); val != "" {
		c.TokenSigningKey = val
		c.sources["token_signing_key"] = "environment"
	}
	if val := os.Getenv("SPIRE_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TokenTTL = i
			c.sources["token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("SPIRE_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *SpireConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *SpireConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// ListenAddr returns the host:port the API server binds to
func (c *SpireConfig) ListenAddr() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.ListenPort))
}

// AccessTokenTTL returns the access token lifetime as a duration
func (c *SpireConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// SearchSyncDeadline returns the index staleness bound as a duration
func (c *SpireConfig) SearchSyncDeadline() time.Duration {
	return time.Duration(c.SearchSyncSeconds) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *SpireConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *SpireConfig) Validate() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen_port value: %d", c.ListenPort)
	}

	// Validate trusted proxies are valid CIDR ranges
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	if c.SearchResultLimitMax < 1 {
		return fmt.Errorf("invalid search_result_limit_max value: %d", c.SearchResultLimitMax)
	}

	valid := false
	for _, level := range ValidLogLevels {
		if c.LogLevel == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log_level value: %s", c.LogLevel)
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *SpireConfig) Attributes() []Attribute {
	signingKey := "(not set)"
	if c.TokenSigningKey != "" {
		signingKey = "(set)"
	}
	return []Attribute{
		{Name: "listen_address", Value: c.ListenAddress, Source: c.Source("listen_address")},
		{Name: "listen_port", Value: strconv.Itoa(c.ListenPort), Source: c.Source("listen_port")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "search_index_root", Value: c.SearchIndexRoot, Source: c.Source("search_index_root")},
		{Name: "search_result_limit_max", Value: strconv.Itoa(c.SearchResultLimitMax), Source: c.Source("search_result_limit_max")},
		{Name: "search_tag_prefix_match", Value: strconv.FormatBool(c.SearchTagPrefixMatch), Source: c.Source("search_tag_prefix_match")},
		{Name: "search_sync_seconds", Value: strconv.Itoa(c.SearchSyncSeconds), Source: c.Source("search_sync_seconds")},
		{Name: "token_signing_key", Value: signingKey, Source: c.Source("token_signing_key")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
	}
}

// FormatText returns a text representation of the configuration
func (c *SpireConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *SpireConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
