package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. REMOTEFILE_LOG_LEVEL.
const EnvPrefix = "REMOTEFILE"

// maxIOSize mirrors the largest single transfer a handle accepts.
const maxIOSize = 0x7fffffff

// Config represents the complete application configuration
type Config struct {
	Log       LogConfig      `yaml:"log" mapstructure:"log"`
	Transfer  TransferConfig `yaml:"transfer" mapstructure:"transfer"`
	Endpoints EndpointConfig `yaml:"endpoints" mapstructure:"endpoints"`
}

// LogConfig represents logging configuration with rotation support
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`               // Log file path (empty = console only)
	Level      string `yaml:"level" mapstructure:"level"`             // Log level (debug, info, warn, error)
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // Max size in MB before rotation
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // Max age in days to keep files
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // Max number of old files to keep
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // Compress old log files
}

// TransferConfig tunes how handles move bytes
type TransferConfig struct {
	MaxChunkSize      int `yaml:"max_chunk_size" mapstructure:"max_chunk_size"`
	VectorReadWorkers int `yaml:"vector_read_workers" mapstructure:"vector_read_workers"`
}

// EndpointConfig selects and configures the endpoint clients
type EndpointConfig struct {
	Local LocalEndpointConfig `yaml:"local" mapstructure:"local"`
	Mem   MemEndpointConfig   `yaml:"mem" mapstructure:"mem"`
	S3    S3EndpointConfig    `yaml:"s3" mapstructure:"s3"`

	// VectorReadWorkers is copied from Transfer when the router is built.
	VectorReadWorkers int `yaml:"-" mapstructure:"-"`
}

// LocalEndpointConfig configures file:// names
type LocalEndpointConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Root    string `yaml:"root" mapstructure:"root"` // Restrict file:// names to this directory (empty = whole filesystem)
}

// MemEndpointConfig configures mem:// names
type MemEndpointConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// S3EndpointConfig configures s3:// names
type S3EndpointConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint"` // host[:port] of the object store
	AccessKey       string        `yaml:"access_key" mapstructure:"access_key"`
	SecretKey       string        `yaml:"secret_key" mapstructure:"secret_key"`
	Region          string        `yaml:"region" mapstructure:"region"`
	UseSSL          bool          `yaml:"use_ssl" mapstructure:"use_ssl"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	RetryAttempts   uint          `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	BucketCacheSize int           `yaml:"bucket_cache_size" mapstructure:"bucket_cache_size"`
	MaxObjectSize   int64         `yaml:"max_object_size" mapstructure:"max_object_size"` // largest object a write session may stage
}

// DeepCopy returns a deep copy of the configuration
func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}

	var out Config
	if err := copier.CopyWithOption(&out, c, copier.Option{DeepCopy: true}); err != nil {
		// Config holds only plain values; a copy failure means a broken build.
		panic(fmt.Sprintf("config: deep copy failed: %v", err))
	}

	return &out
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Log.Level != "" && !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	if c.Log.MaxSize < 0 {
		return fmt.Errorf("log.max_size must be non-negative")
	}

	if c.Log.MaxAge < 0 {
		return fmt.Errorf("log.max_age must be non-negative")
	}

	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must be non-negative")
	}

	if c.Transfer.MaxChunkSize <= 0 || c.Transfer.MaxChunkSize > maxIOSize {
		return fmt.Errorf("transfer.max_chunk_size must be between 1 and %d", maxIOSize)
	}

	if c.Transfer.VectorReadWorkers <= 0 {
		return fmt.Errorf("transfer.vector_read_workers must be greater than 0")
	}

	if !c.Endpoints.Local.Enabled && !c.Endpoints.Mem.Enabled && !c.Endpoints.S3.Enabled {
		return fmt.Errorf("at least one endpoint must be enabled")
	}

	if s3 := c.Endpoints.S3; s3.Enabled {
		if s3.Endpoint == "" {
			return fmt.Errorf("endpoints.s3.endpoint cannot be empty when s3 is enabled")
		}
		if strings.Contains(s3.Endpoint, "://") {
			return fmt.Errorf("endpoints.s3.endpoint must be host[:port] without a scheme")
		}
		if s3.RequestTimeout < 0 {
			return fmt.Errorf("endpoints.s3.request_timeout must be non-negative")
		}
		if s3.RetryAttempts == 0 {
			return fmt.Errorf("endpoints.s3.retry_attempts must be greater than 0")
		}
		if s3.BucketCacheSize <= 0 {
			return fmt.Errorf("endpoints.s3.bucket_cache_size must be greater than 0")
		}
		if s3.MaxObjectSize <= 0 {
			return fmt.Errorf("endpoints.s3.max_object_size must be greater than 0")
		}
	}

	return nil
}

// EndpointsWithTransfer returns the endpoint section with the transfer
// tuning the endpoint clients need.
func (c *Config) EndpointsWithTransfer() EndpointConfig {
	ep := c.Endpoints
	ep.VectorReadWorkers = c.Transfer.VectorReadWorkers
	return ep
}

// ChangeCallback represents a function called when configuration changes
type ChangeCallback func(oldConfig, newConfig *Config)

// Manager manages configuration state and persistence
type Manager struct {
	current    *Config
	configFile string
	mutex      sync.RWMutex
	callbacks  []ChangeCallback
}

// NewManager creates a new configuration manager
func NewManager(config *Config, configFile string) *Manager {
	return &Manager{
		current:    config,
		configFile: configFile,
	}
}

// GetConfig returns the current configuration (thread-safe)
func (m *Manager) GetConfig() *Config {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// ConfigFile returns the file the manager loads from and saves to
func (m *Manager) ConfigFile() string {
	return m.configFile
}

// UpdateConfig validates and installs a new configuration, then notifies
// the registered callbacks.
func (m *Manager) UpdateConfig(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	m.mutex.Lock()
	// Take a deep copy of the old config so callbacks get an immutable snapshot
	var oldConfig *Config
	if m.current != nil {
		oldConfig = m.current.DeepCopy()
	}
	m.current = config
	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mutex.Unlock()

	// Notify callbacks after releasing the lock
	for _, callback := range callbacks {
		callback(oldConfig, config)
	}
	return nil
}

// OnConfigChange registers a callback to be called when configuration changes
func (m *Manager) OnConfigChange(callback ChangeCallback) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// SaveConfig saves the current configuration to file
func (m *Manager) SaveConfig() error {
	m.mutex.RLock()
	config := m.current
	m.mutex.RUnlock()

	if config == nil {
		return fmt.Errorf("no configuration to save")
	}

	return SaveToFile(config, m.configFile)
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			File:       "",     // Empty = console only
			Level:      "info", // Default log level
			MaxSize:    100,    // 100MB max size
			MaxAge:     30,     // Keep for 30 days
			MaxBackups: 10,     // Keep 10 old files
			Compress:   true,   // Compress old files
		},
		Transfer: TransferConfig{
			MaxChunkSize:      512 * 1024, // 512KiB - Largest chunk of one vectored read
			VectorReadWorkers: 8,
		},
		Endpoints: EndpointConfig{
			Local: LocalEndpointConfig{
				Enabled: true,
			},
			Mem: MemEndpointConfig{
				Enabled: true,
			},
			S3: S3EndpointConfig{
				Enabled:         false,
				Region:          "us-east-1",
				UseSSL:          true,
				RequestTimeout:  30 * time.Second,
				RetryAttempts:   3,
				BucketCacheSize: 128,
				MaxObjectSize:   5 << 30, // single PUT limit
			},
		},
	}
}

// SaveToFile saves a configuration to a YAML file
func SaveToFile(config *Config, filename string) error {
	if filename == "" {
		return fmt.Errorf("no config file path provided")
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold S3 credentials.
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadConfig loads configuration from file and merges it over the defaults.
// Without configFile the usual locations are searched and a missing file is
// not an error. REMOTEFILE_* environment variables override both.
func LoadConfig(configFile string) (*Config, error) {
	v := newViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// Look for config file in common locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "remotefile"))
		}
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	lastConfigFile = v.ConfigFileUsed()

	return config, nil
}

var lastConfigFile string

// GetConfigFilePath returns the configuration file used by the last
// successful LoadConfig, or "" when only defaults were used.
func GetConfigFilePath() string {
	return lastConfigFile
}

// newViper returns a viper instance seeded with every default key, so that
// environment overrides apply even to keys missing from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("config: marshal defaults: %v", err))
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		panic(fmt.Sprintf("config: load defaults: %v", err))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}
