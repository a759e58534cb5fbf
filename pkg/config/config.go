/*
Package config manages TOML config for TopicServe services.
*/
package config

import (
	"path/filepath"

	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/charmbracelet/log"
)

// ConfigFileName is the name of the config file inside the config dir.
const ConfigFileName = "config.toml"

// Store backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds the entire config structure
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Index   IndexConfig   `toml:"index"`
	Store   StoreConfig   `toml:"store"`
	Dataset DatasetConfig `toml:"dataset"`
	CLI     CliConfig     `toml:"cli"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// IndexConfig holds search tree options.
type IndexConfig struct {
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	CacheSize      int     `toml:"cache_size"`
}

// StoreConfig selects where snapshots are kept.
type StoreConfig struct {
	Backend string `toml:"backend"`
	DataDir string `toml:"data_dir"`
	Key     string `toml:"key"`
}

// DatasetConfig points at the topic resource.
type DatasetConfig struct {
	Path string `toml:"path"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit     int     `toml:"default_limit"`
	DefaultThreshold float64 `toml:"default_threshold"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    60,
			EnableFilter: true,
		},
		Index: IndexConfig{
			FuzzyThreshold: 0.8,
			CacheSize:      1024,
		},
		Store: StoreConfig{
			Backend: BackendBadger,
			DataDir: "store",
			Key:     "searchTrie",
		},
		Dataset: DatasetConfig{
			Path: "data/contents.json",
		},
		CLI: CliConfig{
			DefaultLimit:     24,
			DefaultThreshold: 0.8,
		},
	}
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(ConfigFileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/topicserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
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

// LoadConfig loads from a TOML file. Values missing from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse picks up whatever typed values it can from a file that
// failed the strict decode
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(section, &config.Index)
	}
	if section, ok := utils.ExtractSection(tempConfig, "store"); ok {
		extractStoreConfig(section, &config.Store)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dataset"); ok {
		if val, ok := utils.ExtractString(section, "path"); ok {
			config.Dataset.Path = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.sanitize()
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
}

func extractIndexConfig(data map[string]any, idx *IndexConfig) {
	if val, ok := utils.ExtractFloat(data, "fuzzy_threshold"); ok {
		idx.FuzzyThreshold = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		idx.CacheSize = val
	}
}

func extractStoreConfig(data map[string]any, store *StoreConfig) {
	if val, ok := utils.ExtractString(data, "backend"); ok {
		store.Backend = val
	}
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		store.DataDir = val
	}
	if val, ok := utils.ExtractString(data, "key"); ok {
		store.Key = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractFloat(data, "default_threshold"); ok {
		cli.DefaultThreshold = val
	}
}

// sanitize replaces out of range values with defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	if c.Index.FuzzyThreshold <= 0 || c.Index.FuzzyThreshold > 1 {
		log.Warnf("fuzzy_threshold %v out of range (0, 1], using %v", c.Index.FuzzyThreshold, def.Index.FuzzyThreshold)
		c.Index.FuzzyThreshold = def.Index.FuzzyThreshold
	}
	if c.CLI.DefaultThreshold <= 0 || c.CLI.DefaultThreshold > 1 {
		c.CLI.DefaultThreshold = def.CLI.DefaultThreshold
	}
	if c.Index.CacheSize <= 0 {
		c.Index.CacheSize = def.Index.CacheSize
	}
	if c.Store.Backend != BackendBadger && c.Store.Backend != BackendMemory {
		log.Warnf("Unknown store backend %q, using %s", c.Store.Backend, def.Store.Backend)
		c.Store.Backend = def.Store.Backend
	}
	if c.Store.Key == "" {
		c.Store.Key = def.Store.Key
	}
	if c.Server.MaxLimit <= 0 {
		c.Server.MaxLimit = def.Server.MaxLimit
	}
	if c.Server.MaxPrefix <= 0 {
		c.Server.MaxPrefix = def.Server.MaxPrefix
	}
	if c.Server.MinPrefix <= 0 || c.Server.MinPrefix > c.Server.MaxPrefix {
		log.Warnf("min_prefix %d out of range [1, %d], using %d", c.Server.MinPrefix, c.Server.MaxPrefix, def.Server.MinPrefix)
		c.Server.MinPrefix = def.Server.MinPrefix
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
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

// Update changes the server values and saves to file
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int, enableFilter *bool) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if minPrefix != nil {
		server.MinPrefix = *minPrefix
	}
	if maxPrefix != nil {
		server.MaxPrefix = *maxPrefix
	}
	if enableFilter != nil {
		server.EnableFilter = *enableFilter
	}
	c.sanitize()
	return SaveConfig(c, configPath)
}
