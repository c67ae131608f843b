package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rshade/datasetctl/internal/logging"
)

// Defaults mirror the values the dataset form has always used.
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultPage       = 0
	DefaultPageSize   = 10
	DefaultChunkSize  = 1000
	MaxChunkSize      = 1000
	DefaultLogLevel   = "info"
	DefaultLogFormat  = logging.FormatConsole
	envPrefix         = "DATASETCTL"
	configDirName     = ".datasetctl"
	configFileName    = "config.yaml"
	envHome           = "DATASETCTL_HOME"
	outputTypeFile    = logging.OutputFile
	outputTypeStderr  = logging.OutputStderr
	configDirPerm     = 0o750
	configFilePerm    = 0o600
	maxPageSizeConfig = 1000
)

// Validation errors.
var (
	ErrInvalidBaseURL   = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidPage      = errors.New("pagination.page must be >= 0")
	ErrInvalidPageSize  = errors.New("pagination.size must be between 1 and 1000")
	ErrInvalidChunkSize = errors.New("upload.chunk_size must be between 1 and 1000")
	ErrInvalidTimeout   = errors.New("api.timeout must be >= 0")
	ErrUnknownKey       = errors.New("unknown configuration key")
)

// Config is the datasetctl configuration.
type Config struct {
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Pagination PaginationConfig `mapstructure:"pagination" yaml:"pagination"`
	Upload     UploadConfig     `mapstructure:"upload"     yaml:"upload"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// APIConfig points the client at the dataset backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PaginationConfig holds the initial page request.
type PaginationConfig struct {
	Page int `mapstructure:"page" yaml:"page"`
	Size int `mapstructure:"size" yaml:"size"`
}

// UploadConfig controls chunked batch submission.
type UploadConfig struct {
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`
}

// LoggingConfig is the logging section of the config file.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file"   yaml:"file"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		API:        APIConfig{BaseURL: DefaultBaseURL},
		Pagination: PaginationConfig{Page: DefaultPage, Size: DefaultPageSize},
		Upload:     UploadConfig{ChunkSize: DefaultChunkSize},
		Logging:    LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Dir returns the datasetctl home directory, honoring DATASETCTL_HOME.
func Dir() (string, error) {
	if home := os.Getenv(envHome); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(userHome, configDirName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file at path (a missing file is not an error), applies
// DATASETCTL_* environment overrides and validates the result.
// An empty path means DefaultPath().
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadFile reads only the config file at path, with defaults for keys it does not
// set. Environment overrides are ignored, so the result is safe to Save back.
// A missing file yields Default().
func LoadFile(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if withEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if _, err := os.Stat(path); err == nil {
		if readErr := v.ReadInConfig(); readErr != nil {
			return nil, fmt.Errorf("read config %s: %w", path, readErr)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("pagination.page", d.Pagination.Page)
	v.SetDefault("pagination.size", d.Pagination.Size)
	v.SetDefault("upload.chunk_size", d.Upload.ChunkSize)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

// Validate checks every section for out-of-range values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.API.Timeout)
	}
	if c.Pagination.Page < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, c.Pagination.Page)
	}
	if c.Pagination.Size < 1 || c.Pagination.Size > maxPageSizeConfig {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, c.Pagination.Size)
	}
	if c.Upload.ChunkSize < 1 || c.Upload.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, c.Upload.ChunkSize)
	}
	return nil
}

// ToLoggingConfig converts the config section into a logging.Config.
// A configured file switches the output to that file.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := outputTypeStderr
	if lc.File != "" {
		output = outputTypeFile
	}
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}
