package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/datasetctl/internal/logging"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `api:
  base_url: http://datasets.internal:9090
  timeout: 15s
pagination:
  size: 25
upload:
  chunk_size: 500
logging:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://datasets.internal:9090", cfg.API.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.API.Timeout)
		assert.Equal(t, 0, cfg.Pagination.Page)
		assert.Equal(t, 25, cfg.Pagination.Size)
		assert.Equal(t, 500, cfg.Upload.ChunkSize)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("pagination:\n  size: 25\n"), 0o600))
		t.Setenv("DATASETCTL_PAGINATION_SIZE", "50")
		t.Setenv("DATASETCTL_API_BASE_URL", "https://api.example.com")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Pagination.Size)
		assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("upload:\n  chunk_size: 5000\n"), 0o600))

		_, err := Load(path)
		require.ErrorIs(t, err, ErrInvalidChunkSize)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("ignores environment overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://prod.example\n"), 0o600))
		t.Setenv("DATASETCTL_API_BASE_URL", "http://staging.example:9999")
		t.Setenv("DATASETCTL_LOGGING_LEVEL", "error")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "https://prod.example", cfg.API.BaseURL)
		assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("pagination:\n  size: 0\n"), 0o600))

		_, err := LoadFile(path)
		require.ErrorIs(t, err, ErrInvalidPageSize)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "relative url", mutate: func(c *Config) { c.API.BaseURL = "/api" }, wantErr: ErrInvalidBaseURL},
		{name: "ftp url", mutate: func(c *Config) { c.API.BaseURL = "ftp://host" }, wantErr: ErrInvalidBaseURL},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "negative page", mutate: func(c *Config) { c.Pagination.Page = -1 }, wantErr: ErrInvalidPage},
		{name: "zero size", mutate: func(c *Config) { c.Pagination.Size = 0 }, wantErr: ErrInvalidPageSize},
		{name: "zero chunk", mutate: func(c *Config) { c.Upload.ChunkSize = 0 }, wantErr: ErrInvalidChunkSize},
		{name: "chunk at max", mutate: func(c *Config) { c.Upload.ChunkSize = MaxChunkSize }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetSet(t *testing.T) {
	t.Run("round trips every key", func(t *testing.T) {
		cfg := Default()
		values := map[string]string{
			KeyBaseURL:       "https://example.com",
			KeyTimeout:       "30s",
			KeyPage:          "2",
			KeyPageSize:      "20",
			KeyChunkSize:     "250",
			KeyLoggingLevel:  "warn",
			KeyLoggingFormat: "json",
			KeyLoggingFile:   "/tmp/datasetctl.log",
		}
		for key, value := range values {
			require.NoError(t, cfg.Set(key, value), key)
		}
		for key, want := range values {
			got, err := cfg.Get(key)
			require.NoError(t, err)
			assert.Equal(t, want, got, key)
		}
		assert.Len(t, Keys(), len(values))
	})

	t.Run("unknown key", func(t *testing.T) {
		cfg := Default()
		require.ErrorIs(t, cfg.Set("api.token", "x"), ErrUnknownKey)
		_, err := cfg.Get("api.token")
		require.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("invalid value leaves config unchanged", func(t *testing.T) {
		cfg := Default()
		require.ErrorIs(t, cfg.Set(KeyChunkSize, "0"), ErrInvalidChunkSize)
		assert.Equal(t, DefaultChunkSize, cfg.Upload.ChunkSize)

		require.Error(t, cfg.Set(KeyPageSize, "ten"))
		assert.Equal(t, DefaultPageSize, cfg.Pagination.Size)
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	require.NoError(t, cfg.Set(KeyTimeout, "5s"))
	require.NoError(t, cfg.Set(KeyPageSize, "42"))

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDir(t *testing.T) {
	t.Setenv(envHome, "/opt/datasetctl")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/opt/datasetctl", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/opt/datasetctl", configFileName), path)
}

func TestToLoggingConfig(t *testing.T) {
	t.Run("no file logs to stderr", func(t *testing.T) {
		lc := LoggingConfig{Level: "info", Format: "console"}
		got := lc.ToLoggingConfig()
		assert.Equal(t, logging.OutputStderr, got.Output)
	})

	t.Run("file switches output", func(t *testing.T) {
		lc := LoggingConfig{Level: "debug", Format: "json", File: "/var/log/ds.log"}
		got := lc.ToLoggingConfig()
		assert.Equal(t, logging.OutputFile, got.Output)
		assert.Equal(t, "/var/log/ds.log", got.File)
		assert.Equal(t, "debug", got.Level)
	})
}
