package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/datasetctl/internal/config"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// annotationTolerateConfigError lets a command run with defaults when the config
// file cannot be loaded, so a broken file can still be inspected or replaced.
const annotationTolerateConfigError = "datasetctl/tolerate-config-error"

// ChunkFailureError is returned by "submit --strict" when any chunk failed.
// Err joins the per-chunk causes.
type ChunkFailureError struct {
	Failed int
	Total  int
	Err    error
}

// ExitCodeChunkFailure is the process exit code for ChunkFailureError.
const ExitCodeChunkFailure = 2

func (e *ChunkFailureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d of %d chunks failed", e.Failed, e.Total)
	}
	return fmt.Sprintf("%d of %d chunks failed: %v", e.Failed, e.Total, e.Err)
}

func (e *ChunkFailureError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the process exit code for err: ExitCodeChunkFailure for a
// ChunkFailureError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	var chunkErr *ChunkFailureError
	if errors.As(err, &chunkErr) {
		return ExitCodeChunkFailure
	}
	return 1
}

// NewRootCmd creates the root Cobra command for the datasetctl CLI.
// It loads configuration, wires up logging and tracing, and registers the
// edit, list, submit, config and version subcommands.
func NewRootCmd(ver string) *cobra.Command {
	env := &cmdEnv{}

	cmd := &cobra.Command{
		Use:           "datasetctl",
		Short:         "Browse, edit and bulk upload datasets",
		Long:          "datasetctl: edit dataset rows and upload them to the dataset API in chunks",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.load(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd, env)
			env.logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, env.logResult)
		},
	}

	cmd.PersistentFlags().BoolVar(&env.debug, "debug", false, "enable debug logging to stderr")
	cmd.PersistentFlags().StringVar(&env.configPath, "config", "",
		"config file (default $DATASETCTL_HOME/config.yaml or ~/.datasetctl/config.yaml)")
	cmd.PersistentFlags().StringVar(&env.baseURL, "base-url", "", "dataset API base URL (overrides api.base_url)")

	cmd.AddCommand(
		newEditCmd(env),
		newListCmd(env),
		newSubmitCmd(env),
		newConfigCmd(env),
		newVersionCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Open the interactive form on the first page
  datasetctl edit

  # Print the second page of datasets matching "sales"
  datasetctl list --page 1 --search sales

  # Export every dataset as CSV
  datasetctl list --all --output csv > datasets.csv

  # Upload rows from a file in chunks of 1000
  datasetctl submit --file rows.csv

  # Point at another API
  datasetctl config set api.base_url https://datasets.example.com`

// loadConfig reads the config from path, falling back to defaults for commands
// annotated with annotationTolerateConfigError.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if cmd.Annotations[annotationTolerateConfigError] == "true" {
		cmd.PrintErrf("Warning: %v; using default configuration\n", err)
		return config.Default(), nil
	}
	return nil, fmt.Errorf("loading configuration: %w", err)
}
