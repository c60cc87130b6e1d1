package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML config file
const ConfigFileEnv = "BPI_CONFIG"

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Classifier ClassifierConfig
	Analysis   AnalysisConfig
	Export     ExportConfig
	Logging    LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// StorageConfig holds reading store configuration
type StorageConfig struct {
	Path          string
	EncryptionKey string // base64, 32 bytes when set
}

// ClassifierConfig tunes the classification cascade
type ClassifierConfig struct {
	CrisisFirst     bool
	CrisisSystolic  int
	CrisisDiastolic int
	CrisisInclusive bool
}

// AnalysisConfig holds analysis defaults
type AnalysisConfig struct {
	DefaultDays int
}

// ExportConfig holds report and export destinations
type ExportConfig struct {
	Directory string
	Azure     AzureExportConfig
}

// AzureExportConfig holds Azure Blob Storage configuration
type AzureExportConfig struct {
	AccountName string
	AccountKey  string
	Container   string
}

// Enabled reports whether blob storage credentials are configured
func (a AzureExportConfig) Enabled() bool {
	return a.AccountName != "" && a.AccountKey != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Storage defaults
	v.SetDefault("storage.path", "bp-readings.json")
	v.SetDefault("storage.encryptionkey", "")

	// Classifier defaults
	v.SetDefault("classifier.crisisfirst", false)
	v.SetDefault("classifier.crisissystolic", 180)
	v.SetDefault("classifier.crisisdiastolic", 120)
	v.SetDefault("classifier.crisisinclusive", true)

	v.SetDefault("analysis.defaultdays", 7)

	// Export defaults
	v.SetDefault("export.directory", "exports")
	v.SetDefault("export.azure.container", "bp-exports")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Storage
	v.BindEnv("storage.path", "BPI_STORAGE_PATH")
	v.BindEnv("storage.encryptionkey", "BPI_ENCRYPTION_KEY")

	v.BindEnv("classifier.crisisfirst", "BPI_CRISIS_FIRST")

	// Export
	v.BindEnv("export.directory", "BPI_EXPORT_DIR")
	v.BindEnv("export.azure.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("export.azure.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("export.azure.container", "AZURE_STORAGE_CONTAINER")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Storage.EncryptionKey != "" {
		if _, err := c.Storage.Key(); err != nil {
			return err
		}
	}

	if c.Classifier.CrisisSystolic <= 0 || c.Classifier.CrisisDiastolic <= 0 {
		return fmt.Errorf("classifier crisis thresholds must be positive")
	}

	if (c.Export.Azure.AccountName == "") != (c.Export.Azure.AccountKey == "") {
		return fmt.Errorf("azure storage credentials require both account name and key")
	}

	return nil
}

// Key decodes the storage encryption key. It returns nil when encryption is off.
func (s StorageConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage.encryptionkey is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("storage.encryptionkey must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
