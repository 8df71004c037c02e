package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/observability"
	"github.com/noah-isme/mockview-api/internal/prompts"
	"github.com/noah-isme/mockview-api/pkg/ai"
)

// ErrUnexpectedResponseShape indicates the model answered with something other than a JSON array of strings.
var ErrUnexpectedResponseShape = errors.New("unexpected response shape")

// QuestionGenerator asks the model for a list of interview questions.
type QuestionGenerator interface {
	Generate(ctx context.Context, params prompts.QuestionParams) ([]string, error)
}

type questionGenerator struct {
	generator ai.TextGenerator
	prompts   *prompts.Manager
	logger    zerolog.Logger
}

// NewQuestionGenerator constructs a question generator.
func NewQuestionGenerator(generator ai.TextGenerator, manager *prompts.Manager, logger zerolog.Logger) QuestionGenerator {
	return &questionGenerator{
		generator: generator,
		prompts:   manager,
		logger:    logger.With().Str("component", "question_generator").Logger(),
	}
}

func (g *questionGenerator) Generate(ctx context.Context, params prompts.QuestionParams) ([]string, error) {
	prompt, err := g.prompts.QuestionPrompt(params)
	if err != nil {
		return nil, &GenerationError{Op: "render question prompt", Err: err}
	}

	text, err := g.generator.Generate(ctx, ai.GenerateRequest{Purpose: ai.PurposeQuestions, Prompt: prompt})
	if err != nil {
		observability.Logger(ctx, g.logger).Error().Err(err).Str("provider", g.generator.Provider()).Msg("question generation failed")
		return nil, &GenerationError{Op: "generate questions", Err: err}
	}

	questions, err := ParseQuestionList(text)
	if err != nil {
		observability.Logger(ctx, g.logger).Error().Err(err).Str("raw", truncate(text, 512)).Msg("question response rejected")
		return nil, &GenerationError{Op: "parse questions", Err: err}
	}

	return questions, nil
}

// ParseQuestionList strips markdown code fences from text and decodes it as a
// JSON array of strings.
func ParseQuestionList(text string) ([]string, error) {
	cleaned := stripCodeFences(text)

	var decoded interface{}
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	items, ok := decoded.([]interface{})
	if !ok {
		return nil, ErrUnexpectedResponseShape
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		question, ok := item.(string)
		if !ok {
			return nil, ErrUnexpectedResponseShape
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func stripCodeFences(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// SplitTechStack splits a comma separated list, trimming items and dropping empty ones.
func SplitTechStack(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// truncate cuts value to at most limit bytes without splitting a rune.
func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "..."
}
