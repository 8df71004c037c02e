package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/noah-isme/mockview-api/internal/observability"
)

const (
	defaultGeminiAPIVersion      = "v1"
	defaultGeminiQuestionModel   = "gemini-2.5-flash"
	defaultGeminiEvaluationModel = "gemini-2.0-flash"
)

// GeminiConfig defines configuration options for the Gemini generator.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	APIVersion      string
	QuestionModel   string
	EvaluationModel string
	// Timeout of zero leaves the transport defaults in place.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// GeminiGenerator calls Gemini through the genai SDK using the API key backend.
type GeminiGenerator struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiGenerator builds a generator using the provided configuration.
func NewGeminiGenerator(cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultGeminiAPIVersion
	}
	if cfg.QuestionModel == "" {
		cfg.QuestionModel = defaultGeminiQuestionModel
	}
	if cfg.EvaluationModel == "" {
		cfg.EvaluationModel = defaultGeminiEvaluationModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", scrubTransportError(err))
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiGenerator{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/mockview-api/pkg/ai/gemini"),
		logger: logger.With().Str("component", "gemini_generator").Logger(),
	}, nil
}

// Provider returns the provider name.
func (g *GeminiGenerator) Provider() string {
	return "gemini"
}

// Generate sends the prompt to Gemini and returns the response text.
func (g *GeminiGenerator) Generate(parent context.Context, req GenerateRequest) (string, error) {
	model := g.modelFor(req.Purpose)
	ctx, span := g.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("purpose", string(req.Purpose)),
	))
	defer span.End()

	start := time.Now()
	text, err := g.call(ctx, model, req.Prompt)
	generationDuration.WithLabelValues(g.Provider(), model, string(req.Purpose)).Observe(time.Since(start).Seconds())
	if err != nil {
		generationFailures.WithLabelValues(g.Provider(), model, string(req.Purpose)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.Logger(ctx, g.logger).Error().Err(err).Str("model", model).Str("purpose", string(req.Purpose)).Msg("gemini request failed")
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	return text, nil
}

func (g *GeminiGenerator) call(ctx context.Context, model, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", scrubTransportError(err)
	}
	if result == nil {
		return "", ErrEmptyResponse
	}

	text, err := result.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *GeminiGenerator) modelFor(purpose Purpose) string {
	if purpose == PurposeEvaluation {
		return g.cfg.EvaluationModel
	}
	return g.cfg.QuestionModel
}

// scrubTransportError replaces a *url.Error with a TransportError so the
// request URL never reaches logs or callers.
func scrubTransportError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &TransportError{Op: strings.ToLower(urlErr.Op), Err: urlErr.Err}
}
