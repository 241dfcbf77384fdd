package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hirescore/internal/common"
	"hirescore/internal/domain"
	"hirescore/internal/errors"
	"hirescore/internal/session"

	"github.com/spf13/cobra"
)

var (
	scoreConfig         common.CommandConfig
	scoreJobType        string
	scoreDraftID        string
	scoreEntries        []string
	scoreComment        string
	scoreRecommendation string
	scoreFinalize       bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [candidate-file]",
	Short: "Record evaluation scores for a candidate",
	Long: `Record per-criterion scores for a candidate and save them as a draft,
optionally finalizing the evaluation. Each --set flag scores one criterion
on the 1-4 scale, with an optional comment:

  hirescore score candidate.json \
    --set technical_skills=3 \
    --set "communication=4:Clear and structured answers" \
    --recommendation hire --finalize

Pass --draft-id to keep editing an existing draft; without it a new draft
id is generated. A finalized evaluation refuses further changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreJobType, "job-type", "", "Job type to evaluate against (default: the candidate's job type)")
	scoreCmd.Flags().StringVar(&scoreDraftID, "draft-id", "", "Existing draft to keep editing")
	scoreCmd.Flags().StringArrayVar(&scoreEntries, "set", nil, "Criterion score as id=score[:comment], repeatable")
	scoreCmd.Flags().StringVar(&scoreComment, "comment", "", "Overall evaluation comment")
	scoreCmd.Flags().StringVar(&scoreRecommendation, "recommendation", "", "Verdict: hire, consider or reject")
	scoreCmd.Flags().BoolVar(&scoreFinalize, "finalize", false, "Finalize the evaluation after saving")
}

// scoreResult is what the score command prints: the persisted draft plus
// the weighted total over the entered scores.
type scoreResult struct {
	Draft         domain.SavedDraft `json:"draft"`
	WeightedScore float64           `json:"weightedScore"`
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	analyzer, domainStore, err := newAnalysisDeps(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open domain store: %w", err)
	}
	defer func() {
		if err := analyzer.Close(); err != nil {
			logger.Warn("Failed to close analyzer", "error", err.Error())
		}
	}()

	fileProcessor := common.NewFileProcessor(logger)
	var candidate domain.Candidate
	if err := fileProcessor.ReadJSONFile(args[0], &candidate); err != nil {
		return err
	}

	jobType := scoreJobType
	if jobType == "" {
		jobType = candidate.JobType
	}
	if jobType == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"A job type is required, via --job-type or the candidate record", nil)
	}

	// The command saves explicitly before exiting, so the debounce is off.
	opts := []session.Option{session.WithAutosaveDelay(0)}
	if scoreDraftID != "" {
		opts = append(opts, session.WithDraftID(scoreDraftID))
	}
	sess, err := session.New(domainStore, analyzer, logger, candidate, jobType, opts...)
	if err != nil {
		return fmt.Errorf("failed to open evaluation session: %w", err)
	}
	defer sess.Close()

	for _, entry := range scoreEntries {
		criterionID, score, comment, err := parseScoreEntry(entry)
		if err != nil {
			return err
		}
		if err := sess.SetScore(criterionID, score, comment); err != nil {
			return err
		}
	}
	if scoreComment != "" {
		if err := sess.SetOverallComment(scoreComment); err != nil {
			return err
		}
	}
	if scoreRecommendation != "" {
		if err := sess.SetRecommendation(domain.Recommendation(scoreRecommendation)); err != nil {
			return err
		}
	}

	var draft *domain.SavedDraft
	if scoreFinalize {
		draft, err = sess.Submit(time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to finalize evaluation: %w", err)
		}
		logger.Info("Evaluation finalized",
			"draft_id", draft.ID,
			"candidate_id", candidate.ID)
	} else {
		if err := sess.Save(); err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
		draft, err = domainStore.Draft(sess.DraftID())
		if err != nil {
			return fmt.Errorf("failed to read saved draft: %w", err)
		}
		logger.Info("Draft saved",
			"draft_id", draft.ID,
			"candidate_id", candidate.ID)
	}

	result := scoreResult{Draft: *draft, WeightedScore: sess.WeightedScore()}
	scoreConfig.OutputFormat = "json"
	outputHandler := common.NewOutputHandler(logger)
	return outputHandler.HandleOutput(result, scoreConfig)
}

// parseScoreEntry splits one --set value of the form id=score[:comment].
func parseScoreEntry(entry string) (criterionID string, score int, comment string, err error) {
	criterionID, rest, ok := strings.Cut(entry, "=")
	if !ok || strings.TrimSpace(criterionID) == "" {
		return "", 0, "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid --set value %q, expected id=score[:comment]", entry), nil)
	}
	scoreText, comment, _ := strings.Cut(rest, ":")
	score, convErr := strconv.Atoi(strings.TrimSpace(scoreText))
	if convErr != nil {
		return "", 0, "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid score in --set value %q", entry), convErr)
	}
	return strings.TrimSpace(criterionID), score, comment, nil
}
