package ai

import (
	"context"
	"errors"
	"fmt"
)

// Purpose tells a generator which kind of prompt it is serving so it can pick
// the configured model.
type Purpose string

const (
	PurposeQuestions  Purpose = "questions"
	PurposeEvaluation Purpose = "evaluation"
)

// GenerateRequest is a single text completion request.
type GenerateRequest struct {
	Purpose Purpose
	Prompt  string
}

// TextGenerator describes a generative-text endpoint.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Provider() string
}

// ErrEmptyResponse indicates the model answered without any text.
var ErrEmptyResponse = errors.New("model returned empty text")

// StatusError reports a non-2xx answer from the model endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("model endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("model endpoint returned status %d: %s", e.StatusCode, e.Message)
}

// TransportError reports that the model endpoint could not be reached. It
// never carries the request URL.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "model endpoint unreachable"
	}
	return fmt.Sprintf("model endpoint unreachable: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PublicMessage returns the part of a generation failure that is safe to show
// to API clients.
func PublicMessage(err error) string {
	var (
		statusErr    *StatusError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.As(err, &transportErr):
		return "model endpoint unreachable"
	case errors.Is(err, ErrEmptyResponse):
		return ErrEmptyResponse.Error()
	default:
		return "model request failed"
	}
}
