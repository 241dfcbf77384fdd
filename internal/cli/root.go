package cli

import (
	"context"

	"hirescore/internal/config"
	"hirescore/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "hirescore",
	Short: "A recruiting evaluation tool with AI-assisted analysis",
	Long: `Hirescore manages structured candidate evaluations: weighted scoring
against per-job-type criteria, company context, evaluation drafts, and
AI-assisted analyses (overall fit, per-criterion matching, interview
question generation, and turnover risk).`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(turnoverCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(criteriaCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
