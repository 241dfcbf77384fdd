package cli

import (
	"fmt"

	"hirescore/internal/common"
	"hirescore/internal/store"

	"github.com/spf13/cobra"
)

var criteriaConfig common.CommandConfig

var criteriaCmd = &cobra.Command{
	Use:   "criteria [job-type]",
	Short: "Show the resolved evaluation criteria for a job type",
	Long: `Show the evaluation criteria an assessment of the given job type
scores against. Exactly one source wins: company-level override criteria,
then stored job-type criteria, then the built-in defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runCriteria,
}

func init() {
	criteriaCmd.Flags().StringVarP(&criteriaConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
}

func runCriteria(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	kv, err := store.NewFileKV(cfg.Store.Dir)
	if err != nil {
		return fmt.Errorf("failed to open domain store: %w", err)
	}
	domainStore := store.New(kv, logger)

	criteria, err := domainStore.ResolveCriteria(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve criteria: %w", err)
	}

	criteriaConfig.OutputFormat = "json"
	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(criteria, criteriaConfig)
}
