package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("MOCKVIEW_DATABASE_URL", "postgres://localhost/mockview")
	t.Setenv("MOCKVIEW_GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "Mockview API", cfg.AppName)
	require.Equal(t, ":5000", cfg.HTTPAddress())
	require.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	require.Equal(t, ProviderGemini, cfg.AIProvider)
	require.Equal(t, "gemini-2.5-flash", cfg.GeminiQuestionModel)
	require.Equal(t, "gemini-2.0-flash", cfg.GeminiFeedbackModel)
	require.Equal(t, "v1", cfg.GeminiAPIVersion)
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Zero(t, cfg.AITimeout)
	require.Equal(t, 10, cfg.GenerateRateLimit)
	require.Equal(t, time.Minute, cfg.GenerateRateWindow)
	require.Empty(t, cfg.JWTSecret)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("MOCKVIEW_DATABASE_DRIVER", "Mongo")
	t.Setenv("MOCKVIEW_DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("MOCKVIEW_AI_PROVIDER", "openai")
	t.Setenv("MOCKVIEW_OPENAI_API_KEY", "sk-test")
	t.Setenv("MOCKVIEW_AI_TIMEOUT", "45s")
	t.Setenv("MOCKVIEW_APP_PORT", ":9000")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, DriverMongo, cfg.DatabaseDriver)
	require.Equal(t, ProviderOpenAI, cfg.AIProvider)
	require.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	require.Equal(t, 45*time.Second, cfg.AITimeout)
	require.Equal(t, ":9000", cfg.HTTPAddress())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"MOCKVIEW_GEMINI_API_KEY": "key"},
		"unknown driver":       {"MOCKVIEW_DATABASE_URL": "x", "MOCKVIEW_DATABASE_DRIVER": "mysql", "MOCKVIEW_GEMINI_API_KEY": "key"},
		"missing gemini key":   {"MOCKVIEW_DATABASE_URL": "x"},
		"unknown provider":     {"MOCKVIEW_DATABASE_URL": "x", "MOCKVIEW_AI_PROVIDER": "bard"},
		"bad duration":         {"MOCKVIEW_DATABASE_URL": "x", "MOCKVIEW_GEMINI_API_KEY": "key", "MOCKVIEW_CACHE_TTL": "soon"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
