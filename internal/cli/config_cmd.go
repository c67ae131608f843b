package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/datasetctl/internal/config"
)

// tolerateConfigError marks a command as usable with a broken config file.
func tolerateConfigError(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationTolerateConfigError] = "true"
	return cmd
}

func newConfigCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the datasetctl configuration file",
		Long: fmt.Sprintf(`Reads and writes the datasetctl configuration file.

Supported keys: %s

Every key can also be set through the environment, e.g. DATASETCTL_API_BASE_URL.`,
			strings.Join(config.Keys(), ", ")),
	}

	cmd.AddCommand(
		tolerateConfigError(newConfigInitCmd(env)),
		newConfigGetCmd(env),
		tolerateConfigError(newConfigSetCmd(env)),
		newConfigShowCmd(env),
		tolerateConfigError(newConfigPathCmd(env)),
	)
	return cmd
}

func newConfigInitCmd(env *cmdEnv) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Example: `  datasetctl config init
  datasetctl config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				_, err := os.Stat(env.cfgPath)
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", env.cfgPath, err)
				}
			}

			if err := config.Default().Save(env.cfgPath); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", env.cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")

	return cmd
}

func newConfigGetCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:       "get KEY",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := env.cfg.Get(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:       "set KEY VALUE",
		Short:     "Change one configuration value and save the file",
		Example:   `  datasetctl config set upload.chunk_size 500`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only the file's own values are saved back; flag and env overrides stay off disk.
			cfg, err := config.LoadFile(env.cfgPath)
			if err != nil {
				return fmt.Errorf("%w; fix the file by hand or run 'datasetctl config init --force'", err)
			}

			if setErr := cfg.Set(args[0], args[1]); setErr != nil {
				return setErr
			}
			if saveErr := cfg.Save(env.cfgPath); saveErr != nil {
				return fmt.Errorf("failed to save configuration: %w", saveErr)
			}

			logger.Debug().Ctx(cmd.Context()).Str("key", args[0]).Str("path", env.cfgPath).Msg("configuration updated")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigShowCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(env.cfg); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigPathCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), env.cfgPath)
		},
	}
}
