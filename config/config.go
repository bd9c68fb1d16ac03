package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig selects and tunes the process-wide store
type StoreConfig struct {
	Name       string        `mapstructure:"name"`
	Encrypted  bool          `mapstructure:"encrypted"`
	DataDir    string        `mapstructure:"data_dir"`
	Backend    string        `mapstructure:"backend"`
	Format     string        `mapstructure:"format"`
	SyncWrites bool          `mapstructure:"sync_writes"`
	GCInterval time.Duration `mapstructure:"gc_interval"`
}

// SecurityConfig contains master key settings for encrypted stores
type SecurityConfig struct {
	Passphrase string `mapstructure:"passphrase"`
	KeyFile    string `mapstructure:"key_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("prefs")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.securedprefs")
	}

	// Set defaults
	setDefaults(v)

	// Read environment variables, e.g. PREFS_SECURITY_PASSPHRASE
	v.SetEnvPrefix("PREFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate and set computed values
	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Store defaults; an empty name is resolved from the mode at open time
	v.SetDefault("store.name", "")
	v.SetDefault("store.encrypted", false)
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.backend", "badger")
	v.SetDefault("store.format", "json")
	v.SetDefault("store.sync_writes", false)
	v.SetDefault("store.gc_interval", 5*time.Minute)

	// Security defaults; the key file defaults to <data_dir>/master_key.json
	v.SetDefault("security.passphrase", "")
	v.SetDefault("security.key_file", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// DefaultKeyFile returns the master key path used when security.key_file is
// not set.
func DefaultKeyFile(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), "master_key.json")
}

// Validate validates the configuration and fills in computed values. It is
// safe to call again after changing fields.
func Validate(config *Config) error {
	config.Store.DataDir = filepath.Clean(config.Store.DataDir)
	if config.Security.KeyFile == "" {
		config.Security.KeyFile = DefaultKeyFile(config.Store.DataDir)
	}
	config.Security.KeyFile = filepath.Clean(config.Security.KeyFile)

	if strings.ContainsAny(config.Store.Name, `/\`) {
		return fmt.Errorf("store.name must not contain path separators")
	}

	switch config.Store.Backend {
	case "badger", "memory":
	default:
		return fmt.Errorf("store.backend must be badger or memory, got %q", config.Store.Backend)
	}

	switch strings.ToLower(config.Store.Format) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("store.format must be json or yaml, got %q", config.Store.Format)
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", config.Logging.Format)
	}

	if config.Store.Encrypted && config.Security.Passphrase == "" {
		return fmt.Errorf("security.passphrase is required when store.encrypted is set")
	}

	return nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	_ = Validate(&config)

	return &config
}
