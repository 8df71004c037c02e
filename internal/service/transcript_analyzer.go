package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/models"
	"github.com/noah-isme/mockview-api/internal/observability"
	"github.com/noah-isme/mockview-api/internal/prompts"
	"github.com/noah-isme/mockview-api/pkg/ai"
)

// FeedbackFailurePrefix starts the placeholder text produced when the model call fails.
const FeedbackFailurePrefix = "Feedback generation failed: "

// AnalysisOutcome is the evaluation text for a transcript. When the model call
// failed, Placeholder is set, Err holds the cause and Text carries a
// human-readable failure message that is still fed to the parser.
type AnalysisOutcome struct {
	Text        string
	Placeholder bool
	Err         *GenerationError
}

// TranscriptAnalyzer asks the model to evaluate an interview transcript.
type TranscriptAnalyzer interface {
	Analyze(ctx context.Context, transcript []models.TranscriptEntry) AnalysisOutcome
}

type transcriptAnalyzer struct {
	generator ai.TextGenerator
	prompts   *prompts.Manager
	logger    zerolog.Logger
}

// NewTranscriptAnalyzer constructs a transcript analyzer.
func NewTranscriptAnalyzer(generator ai.TextGenerator, manager *prompts.Manager, logger zerolog.Logger) TranscriptAnalyzer {
	return &transcriptAnalyzer{
		generator: generator,
		prompts:   manager,
		logger:    logger.With().Str("component", "transcript_analyzer").Logger(),
	}
}

func (a *transcriptAnalyzer) Analyze(ctx context.Context, transcript []models.TranscriptEntry) AnalysisOutcome {
	prompt, err := a.prompts.EvaluationPrompt(prompts.EvaluationParams{Transcript: RenderTranscript(transcript)})
	if err != nil {
		return placeholderOutcome(&GenerationError{Op: "render evaluation prompt", Err: err})
	}

	text, err := a.generator.Generate(ctx, ai.GenerateRequest{Purpose: ai.PurposeEvaluation, Prompt: prompt})
	if err != nil {
		observability.Logger(ctx, a.logger).Error().Err(err).Str("provider", a.generator.Provider()).Int("turns", len(transcript)).Msg("transcript evaluation failed")
		return placeholderOutcome(&GenerationError{Op: "evaluate transcript", Err: err})
	}

	return AnalysisOutcome{Text: text}
}

func placeholderOutcome(err *GenerationError) AnalysisOutcome {
	return AnalysisOutcome{
		Text:        FeedbackFailurePrefix + err.Err.Error(),
		Placeholder: true,
		Err:         err,
	}
}

// RenderTranscript formats each turn as "<role>: <text>", one per line.
func RenderTranscript(transcript []models.TranscriptEntry) string {
	lines := make([]string, 0, len(transcript))
	for _, entry := range transcript {
		lines = append(lines, entry.Role+": "+entry.Text)
	}
	return strings.Join(lines, "\n")
}
