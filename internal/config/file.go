package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Dotted key names accepted by Get and Set.
const (
	KeyBaseURL       = "api.base_url"
	KeyTimeout       = "api.timeout"
	KeyPage          = "pagination.page"
	KeyPageSize      = "pagination.size"
	KeyChunkSize     = "upload.chunk_size"
	KeyLoggingLevel  = "logging.level"
	KeyLoggingFormat = "logging.format"
	KeyLoggingFile   = "logging.file"
)

// Keys returns every supported key in sorted order.
func Keys() []string {
	keys := []string{
		KeyBaseURL, KeyTimeout, KeyPage, KeyPageSize,
		KeyChunkSize, KeyLoggingLevel, KeyLoggingFormat, KeyLoggingFile,
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of the value stored under key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case KeyBaseURL:
		return c.API.BaseURL, nil
	case KeyTimeout:
		return c.API.Timeout.String(), nil
	case KeyPage:
		return strconv.Itoa(c.Pagination.Page), nil
	case KeyPageSize:
		return strconv.Itoa(c.Pagination.Size), nil
	case KeyChunkSize:
		return strconv.Itoa(c.Upload.ChunkSize), nil
	case KeyLoggingLevel:
		return c.Logging.Level, nil
	case KeyLoggingFormat:
		return c.Logging.Format, nil
	case KeyLoggingFile:
		return c.Logging.File, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set parses value and stores it under key. The result is validated, and on
// failure the config is left unchanged.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case KeyBaseURL:
		next.API.BaseURL = value
	case KeyTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		next.API.Timeout = d
	case KeyPage, KeyPageSize, KeyChunkSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
		switch key {
		case KeyPage:
			next.Pagination.Page = n
		case KeyPageSize:
			next.Pagination.Size = n
		default:
			next.Upload.ChunkSize = n
		}
	case KeyLoggingLevel:
		next.Logging.Level = value
	case KeyLoggingFormat:
		next.Logging.Format = value
	case KeyLoggingFile:
		next.Logging.File = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Save writes the config as YAML to path, creating the parent directory.
// The file is written to a temporary name first and renamed into place.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	tempPath := path + ".tmp"
	if writeErr := os.WriteFile(tempPath, data, configFilePerm); writeErr != nil {
		return fmt.Errorf("writing config: %w", writeErr)
	}
	if renameErr := os.Rename(tempPath, path); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming config: %w", renameErr)
	}
	return nil
}
