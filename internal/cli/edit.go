package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/datasetctl/internal/config"
	"github.com/rshade/datasetctl/internal/form"
	"github.com/rshade/datasetctl/internal/logging"
	"github.com/rshade/datasetctl/internal/tui"
)

// editLogFile is the log file used while the form owns the terminal.
const editLogFile = "edit.log"

// errNotInteractive is returned when edit runs without a terminal.
var errNotInteractive = errors.New("edit needs an interactive terminal; use list and submit instead")

type pageFlags struct {
	page   int
	size   int
	search string
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 0, "zero-based page to fetch (default pagination.page)")
	cmd.Flags().IntVar(&f.size, "size", 0, "rows per page (default pagination.size)")
	cmd.Flags().StringVar(&f.search, "search", "", "only datasets matching this term")
}

// options turns the flags the user actually set into controller options.
func (f *pageFlags) options(cmd *cobra.Command, env *cmdEnv) []form.Option {
	page, size := env.cfg.Pagination.Page, env.cfg.Pagination.Size
	if cmd.Flags().Changed("page") {
		page = f.page
	}
	if cmd.Flags().Changed("size") {
		size = f.size
	}
	opts := []form.Option{form.WithPagination(page, size)}
	if f.search != "" {
		opts = append(opts, form.WithSearch(f.search))
	}
	return opts
}

func newEditCmd(env *cmdEnv) *cobra.Command {
	var flags pageFlags

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit datasets in an interactive form",
		Long: `Opens the dataset form. The current page is fetched into the form, rows can be
edited, added and removed, and "s" uploads every row in chunks.

Logs are written to a file while the form is open.`,
		Example: `  datasetctl edit
  datasetctl edit --page 2 --size 50 --search sales`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return errNotInteractive
			}
			return runEdit(cmd, env, flags.options(cmd, env))
		},
	}
	flags.register(cmd)

	return cmd
}

func runEdit(cmd *cobra.Command, env *cmdEnv, opts []form.Option) error {
	restore, logPath, err := redirectLogsForTUI(env)
	if err != nil {
		return err
	}
	defer restore()

	ctrl, err := env.newController(opts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx := logger.WithContext(cmd.Context())
	model := tui.NewFormModel(ctx, ctrl)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, runErr := p.Run(); runErr != nil {
		return fmt.Errorf("running form: %w", runErr)
	}

	if msg := ctrl.Message(); msg != "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	}
	if logPath != "" {
		cmd.PrintErrf("Form log written to %s\n", logPath)
	}
	return nil
}

// redirectLogsForTUI points the package logger at a file under the datasetctl
// home when it would otherwise write to stderr underneath the form. The
// returned func restores the previous logger and closes the file.
func redirectLogsForTUI(env *cmdEnv) (func(), string, error) {
	if env.logResult != nil && env.logResult.UsingFile {
		return func() {}, "", nil
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, "", err
	}

	cfg := env.cfg.Logging.ToLoggingConfig()
	if env.debug {
		cfg.Level = "debug"
	}
	cfg.Output = logging.OutputFile
	cfg.File = filepath.Join(dir, "logs", editLogFile)

	result := logging.NewLoggerWithPath(cfg)
	if !result.UsingFile {
		return nil, "", fmt.Errorf("opening form log: %s", result.FallbackReason)
	}

	prev := logger
	logger = logging.ComponentLogger(result.Logger, "cli")
	return func() {
		logger = prev
		_ = result.Close()
	}, result.FilePath, nil
}
