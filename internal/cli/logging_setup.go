package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/datasetctl/internal/logging"
)

// setupLogging configures logging based on the config file, environment, and CLI flags.
func setupLogging(cmd *cobra.Command, env *cmdEnv) logging.LogPathResult {
	loggingCfg := env.cfg.Logging.ToLoggingConfig()

	if env.debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.Output = logging.OutputStderr
		loggingCfg.File = ""
		loggingCfg.Caller = true
	}

	result := logging.NewLoggerWithPath(loggingCfg)

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)

	logger = logging.ComponentLogger(result.Logger, "cli").
		With().Str(logging.TraceIDField, traceID).Logger()
	ctx = logger.WithContext(ctx)

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	cmd.SetContext(ctx)

	logger.Debug().
		Ctx(ctx).
		Str("command", cmd.Name()).
		Str("config", env.cfgPath).
		Str("base_url", env.cfg.API.BaseURL).
		Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
