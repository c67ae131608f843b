package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/datasetctl/internal/client"
	"github.com/rshade/datasetctl/internal/config"
	"github.com/rshade/datasetctl/internal/form"
	"github.com/rshade/datasetctl/internal/logging"
)

// cmdEnv carries what the root command resolves for its subcommands.
type cmdEnv struct {
	// Flags
	debug      bool
	configPath string
	baseURL    string

	// Resolved in PersistentPreRunE
	cfg       *config.Config
	cfgPath   string
	logResult *logging.LogPathResult
}

// load resolves the config file path, reads it and applies --base-url.
func (e *cmdEnv) load(cmd *cobra.Command) error {
	path := e.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := loadConfig(cmd, path)
	if err != nil {
		return err
	}

	if e.baseURL != "" {
		if setErr := cfg.Set(config.KeyBaseURL, e.baseURL); setErr != nil {
			return fmt.Errorf("--base-url: %w", setErr)
		}
	}

	e.cfg = cfg
	e.cfgPath = path
	return nil
}

// newClient builds an API client from the resolved config.
func (e *cmdEnv) newClient() (*client.Client, error) {
	return client.New(e.cfg.API.BaseURL,
		client.WithTimeout(e.cfg.API.Timeout),
		client.WithLogger(logging.ComponentLogger(logger, "client")),
	)
}

// newController builds a form controller seeded with the configured pagination
// and chunk size; opts are applied last.
func (e *cmdEnv) newController(opts ...form.Option) (*form.Controller, error) {
	api, err := e.newClient()
	if err != nil {
		return nil, err
	}

	base := []form.Option{
		form.WithLogger(logging.ComponentLogger(logger, "form")),
		form.WithPagination(e.cfg.Pagination.Page, e.cfg.Pagination.Size),
		form.WithChunkSize(e.cfg.Upload.ChunkSize),
	}
	return form.New(api, append(base, opts...)...)
}
