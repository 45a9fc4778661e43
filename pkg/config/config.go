/*
Package config manages the TOML config for shelfserve.

The file is looked up at --config, then at the per-user config dir
(~/.config/shelfserve/config.toml), and is created with defaults when
missing. A file that does not decode cleanly is salvaged key by key; what
cannot be read keeps its default.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	History HistoryConfig `toml:"history"`
	Catalog CatalogConfig `toml:"catalog"`
	HTTP    HTTPConfig    `toml:"http"`
}

// SearchConfig has the query pipeline options.
type SearchConfig struct {
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	PageSize       int     `toml:"page_size"`
	MaxPageSize    int     `toml:"max_page_size"`
	MaxQueryLen    int     `toml:"max_query_len"`
	SuggestLimit   int     `toml:"suggest_limit"`
	SuggestCache   int     `toml:"suggest_cache"`
	DefaultSort    string  `toml:"default_sort"`
}

// HistoryConfig controls the recent-search list.
// An empty Path keeps history in memory only.
type HistoryConfig struct {
	Capacity int    `toml:"capacity"`
	Path     string `toml:"path"`
	Key      string `toml:"key"`
}

// CatalogConfig points at the product data.
type CatalogConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// HTTPConfig holds the JSON API options.
// RequestsPerMinute = 0 turns per-client rate limiting off.
type HTTPConfig struct {
	Addr               string `toml:"addr"`
	RequestsPerMinute  int    `toml:"requests_per_minute"`
	Burst              int    `toml:"burst"`
	LimiterIdleMinutes int    `toml:"limiter_idle_minutes"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			FuzzyThreshold: 0.8,
			PageSize:       12,
			MaxPageSize:    100,
			MaxQueryLen:    64,
			SuggestLimit:   8,
			SuggestCache:   256,
			DefaultSort:    "popularity",
		},
		History: HistoryConfig{
			Capacity: 5,
			Path:     "",
			Key:      "searchHistory",
		},
		Catalog: CatalogConfig{
			Path:  "",
			Watch: false,
		},
		HTTP: HTTPConfig{
			Addr:               "127.0.0.1:8080",
			RequestsPerMinute:  600,
			Burst:              50,
			LimiterIdleMinutes: 15,
		},
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/shelfserve
// 2. ~/Library/Application Support/shelfserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "shelfserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "shelfserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/shelfserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Values that are out of range are
// reset to their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config = tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse salvages every well-typed key of a file that failed to decode
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "history"); ok {
		extractHistoryConfig(section, &config.History)
	}
	if section, ok := utils.ExtractSection(tempConfig, "catalog"); ok {
		extractCatalogConfig(section, &config.Catalog)
	}
	if section, ok := utils.ExtractSection(tempConfig, "http"); ok {
		extractHTTPConfig(section, &config.HTTP)
	}
	return config
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractFloat(data, "fuzzy_threshold"); ok {
		search.FuzzyThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "page_size"); ok {
		search.PageSize = val
	}
	if val, ok := utils.ExtractInt64(data, "max_page_size"); ok {
		search.MaxPageSize = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query_len"); ok {
		search.MaxQueryLen = val
	}
	if val, ok := utils.ExtractInt64(data, "suggest_limit"); ok {
		search.SuggestLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "suggest_cache"); ok {
		search.SuggestCache = val
	}
	if val, ok := utils.ExtractString(data, "default_sort"); ok {
		search.DefaultSort = val
	}
}

func extractHistoryConfig(data map[string]any, history *HistoryConfig) {
	if val, ok := utils.ExtractInt64(data, "capacity"); ok {
		history.Capacity = val
	}
	if val, ok := utils.ExtractString(data, "path"); ok {
		history.Path = val
	}
	if val, ok := utils.ExtractString(data, "key"); ok {
		history.Key = val
	}
}

func extractCatalogConfig(data map[string]any, catalog *CatalogConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		catalog.Path = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		catalog.Watch = val
	}
}

func extractHTTPConfig(data map[string]any, http *HTTPConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		http.Addr = val
	}
	if val, ok := utils.ExtractInt64(data, "requests_per_minute"); ok {
		http.RequestsPerMinute = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		http.Burst = val
	}
	if val, ok := utils.ExtractInt64(data, "limiter_idle_minutes"); ok {
		http.LimiterIdleMinutes = val
	}
}

// sanitize resets out of range values to their defaults
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Search.FuzzyThreshold <= 0 || c.Search.FuzzyThreshold >= 1 {
		log.Warnf("fuzzy_threshold %v out of (0,1), using %v", c.Search.FuzzyThreshold, def.Search.FuzzyThreshold)
		c.Search.FuzzyThreshold = def.Search.FuzzyThreshold
	}
	if c.Search.MaxPageSize < 1 {
		c.Search.MaxPageSize = def.Search.MaxPageSize
	}
	if c.Search.PageSize < 1 || c.Search.PageSize > c.Search.MaxPageSize {
		c.Search.PageSize = min(def.Search.PageSize, c.Search.MaxPageSize)
	}
	if c.Search.MaxQueryLen < 1 {
		c.Search.MaxQueryLen = def.Search.MaxQueryLen
	}
	if c.Search.SuggestLimit < 1 {
		c.Search.SuggestLimit = def.Search.SuggestLimit
	}
	if c.Search.SuggestCache < 1 {
		c.Search.SuggestCache = def.Search.SuggestCache
	}
	if key, err := browse.ParseSortKey(c.Search.DefaultSort); err != nil {
		log.Warnf("default_sort: %v, using %s", err, def.Search.DefaultSort)
		c.Search.DefaultSort = def.Search.DefaultSort
	} else {
		c.Search.DefaultSort = string(key)
	}
	if c.History.Capacity < 1 {
		c.History.Capacity = def.History.Capacity
	}
	if c.History.Key == "" {
		c.History.Key = def.History.Key
	}
	if c.HTTP.RequestsPerMinute < 0 {
		c.HTTP.RequestsPerMinute = def.HTTP.RequestsPerMinute
	}
	if c.HTTP.Burst < 1 {
		c.HTTP.Burst = def.HTTP.Burst
	}
	if c.HTTP.LimiterIdleMinutes < 1 {
		c.HTTP.LimiterIdleMinutes = def.HTTP.LimiterIdleMinutes
	}
}

// RebuildConfigFile overwrites configPath with the defaults and returns the
// path written. An empty configPath targets the default location.
func RebuildConfigFile(configPath string) (string, error) {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return "", err
		}
		configPath = defaultPath
	}
	if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
		return "", err
	}
	return configPath, SaveConfig(DefaultConfig(), configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
