package common

import (
	"context"
	"fmt"
	"os"

	"hirescore/internal/ai"
	"hirescore/internal/errors"
)

// BuildInputFunc defines how to build the prompt input from file contents.
type BuildInputFunc func(contents []string) (ai.PromptInput, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(input ai.PromptInput, cfg CommandConfig)

// AnalysisFunc is a generic signature for one analysis operation with
// context and token usage.
type AnalysisFunc[Output any] func(context.Context, ai.PromptInput) (Output, *ai.TokenUsage, error)

// RunAnalysisCommand encapsulates the common logic for file-based
// analysis commands: read and validate the input files, build the prompt
// input, run the analysis, report token usage, and write the formatted
// result.
func RunAnalysisCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	buildInput BuildInputFunc,
	analyze AnalysisFunc[Output],
	logDetails LogDetailsFunc,
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := buildInput(contents)
	if err != nil {
		return fmt.Errorf("failed to build analysis input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, tokenUsage, err := analyze(ctx, input)
	if err != nil {
		return err
	}

	// Report token usage
	if tokenUsage != nil {
		if logger != nil {
			logger.Info("Completion token usage", "input_tokens", tokenUsage.InputTokens, "output_tokens", tokenUsage.OutputTokens, "total_tokens", tokenUsage.TotalTokens)
		} else {
			fmt.Fprintf(os.Stderr, "Completion token usage: input=%d, output=%d, total=%d\n", tokenUsage.InputTokens, tokenUsage.OutputTokens, tokenUsage.TotalTokens)
		}
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
