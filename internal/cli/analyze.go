package cli

import (
	"encoding/json"
	"fmt"

	"hirescore/internal/ai"
	"hirescore/internal/common"
	"hirescore/internal/config"
	"hirescore/internal/domain"
	"hirescore/internal/errors"
	"hirescore/internal/store"

	"github.com/spf13/cobra"
)

// Each analysis command takes a candidate record as a JSON file and an
// optional job posting JSON file. Criteria, job-type configuration and
// company context come from the domain store.

var (
	evaluateConfig  common.CommandConfig
	evaluateJobType string

	matchConfig  common.CommandConfig
	matchJobType string

	questionsConfig  common.CommandConfig
	questionsJobType string

	turnoverConfig  common.CommandConfig
	turnoverJobType string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [candidate-file] [posting-file]",
	Short: "Run the overall fit analysis for a candidate",
	Long: `Evaluate a candidate's overall fit against the resolved evaluation
criteria for their job type. The candidate file is a JSON record; an
optional second argument provides a job posting JSON file.`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: formatPreRun(&evaluateConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args, evaluateConfig, evaluateJobType, "evaluation",
			func(a *ai.Analyzer) common.AnalysisFunc[domain.EvaluationAnalysis] {
				return a.AnalyzeEvaluation
			})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match [candidate-file] [posting-file]",
	Short: "Run the per-criterion matching analysis for a candidate",
	Long: `Analyze how well a candidate satisfies each evaluation criterion,
with supporting evidence and concerns per criterion.`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: formatPreRun(&matchConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args, matchConfig, matchJobType, "matching",
			func(a *ai.Analyzer) common.AnalysisFunc[domain.MatchingAnalysis] {
				return a.AnalyzeMatching
			})
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions [candidate-file] [posting-file]",
	Short: "Generate interview questions for a candidate",
	Long: `Generate suggested interview questions targeting the evaluation
criteria, based on the candidate's record and past interview minutes.`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: formatPreRun(&questionsConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args, questionsConfig, questionsJobType, "questions",
			func(a *ai.Analyzer) common.AnalysisFunc[domain.QuestionSet] {
				return a.GenerateQuestions
			})
	},
}

var turnoverCmd = &cobra.Command{
	Use:   "turnover [candidate-file] [posting-file]",
	Short: "Run the turnover risk analysis for a candidate",
	Long: `Estimate the risk that a hired candidate leaves within one year,
with contributing factors and mitigation recommendations.`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: formatPreRun(&turnoverConfig),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args, turnoverConfig, turnoverJobType, "turnover",
			func(a *ai.Analyzer) common.AnalysisFunc[domain.TurnoverAnalysis] {
				return a.AnalyzeTurnover
			})
	},
}

func init() {
	addAnalysisFlags(evaluateCmd, &evaluateConfig, &evaluateJobType)
	addAnalysisFlags(matchCmd, &matchConfig, &matchJobType)
	addAnalysisFlags(questionsCmd, &questionsConfig, &questionsJobType)
	addAnalysisFlags(turnoverCmd, &turnoverConfig, &turnoverJobType)
}

func addAnalysisFlags(cmd *cobra.Command, cmdCfg *common.CommandConfig, jobType *string) {
	cmd.Flags().StringVarP(&cmdCfg.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdCfg.OutputFormat, "format", "", "Output format: json, text, or markdown")
	cmd.Flags().StringVar(jobType, "job-type", "", "Job type to evaluate against (default: the candidate's job type)")
}

// formatPreRun applies the configured default format and validates it.
func formatPreRun(cmdCfg *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if cmdCfg.OutputFormat == "" {
			cmdCfg.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(cmdCfg.OutputFormat, cfg.App.SupportedFormats)
	}
}

func newAnalysisDeps(cfg *config.Config, logger *errors.Logger) (*ai.Analyzer, *store.DomainStore, error) {
	kv, err := store.NewFileKV(cfg.Store.Dir)
	if err != nil {
		return nil, nil, err
	}
	return ai.NewAnalyzer(cfg, logger), store.New(kv, logger), nil
}

// buildPromptInput decodes the candidate (and optional posting) files and
// resolves criteria, job-type configuration and company context from the
// store.
func buildPromptInput(domainStore *store.DomainStore, jobTypeFlag string, contents []string) (ai.PromptInput, error) {
	var candidate domain.Candidate
	if err := json.Unmarshal([]byte(contents[0]), &candidate); err != nil {
		return ai.PromptInput{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"Candidate file is not valid JSON", err)
	}

	var posting *domain.JobPosting
	if len(contents) > 1 {
		var p domain.JobPosting
		if err := json.Unmarshal([]byte(contents[1]), &p); err != nil {
			return ai.PromptInput{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				"Posting file is not valid JSON", err)
		}
		posting = &p
	}

	jobType := jobTypeFlag
	if jobType == "" {
		jobType = candidate.JobType
	}
	if jobType == "" {
		return ai.PromptInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"A job type is required, via --job-type or the candidate record", nil)
	}

	criteria, err := domainStore.ResolveCriteria(jobType)
	if err != nil {
		return ai.PromptInput{}, err
	}

	jobCfg, err := domainStore.JobTypeConfig(jobType)
	if err != nil {
		return ai.PromptInput{}, err
	}
	resolvedCfg := domain.DefaultJobTypeConfig(jobType)
	if jobCfg != nil {
		resolvedCfg = *jobCfg
	}

	company, err := domainStore.CompanyInfo()
	if err != nil {
		return ai.PromptInput{}, err
	}

	return ai.PromptInput{
		Candidate: candidate,
		Criteria:  criteria,
		JobConfig: resolvedCfg,
		Company:   company,
		Posting:   posting,
	}, nil
}

func runAnalysis[Output any](
	cmd *cobra.Command,
	args []string,
	cmdCfg common.CommandConfig,
	jobTypeFlag, kindName string,
	pick func(*ai.Analyzer) common.AnalysisFunc[Output],
) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzer, domainStore, err := newAnalysisDeps(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open domain store: %w", err)
	}
	defer func() {
		if err := analyzer.Close(); err != nil {
			logger.Warn("Failed to close analyzer", "error", err)
		}
	}()

	buildInput := func(contents []string) (ai.PromptInput, error) {
		return buildPromptInput(domainStore, jobTypeFlag, contents)
	}

	logDetails := func(in ai.PromptInput, c common.CommandConfig) {
		logger.Info("Starting analysis",
			"kind", kindName,
			"candidate_id", in.Candidate.ID,
			"job_type", in.JobConfig.ID,
			"criteria_count", len(in.Criteria),
			"output_format", c.OutputFormat)
	}

	err = common.RunAnalysisCommand(
		cmd.Context(),
		logger,
		cmdCfg,
		args,
		buildInput,
		pick(analyzer),
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to run %s analysis: %w", kindName, err)
	}
	logger.Info("Analysis completed successfully", "kind", kindName)
	return nil
}
