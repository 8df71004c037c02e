package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGeneratorReturnsFirstChoice(t *testing.T) {
	var received openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: " **Overall Feedback:** Good "},
			}},
		})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), GenerateRequest{Purpose: PurposeEvaluation, Prompt: "evaluate"})
	require.NoError(t, err)
	require.Equal(t, "**Overall Feedback:** Good", text)
	require.Equal(t, "gpt-4o-mini", received.Model)
	require.Len(t, received.Messages, 1)
	require.Equal(t, "evaluate", received.Messages[0].Content)
}

func TestOpenAIGeneratorNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	require.ErrorIs(t, err, ErrEmptyResponse)
}
