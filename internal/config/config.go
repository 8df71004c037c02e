package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported record store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Supported generative-text providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	AllowOrigins        string
	DatabaseDriver      string
	DatabaseURL         string
	DatabaseName        string
	RedisURL            string
	NATSURL             string
	EventsChannel       string
	CacheTTL            time.Duration
	JWTSecret           string
	AIProvider          string
	AITimeout           time.Duration
	GeminiAPIKey        string
	GeminiBaseURL       string
	GeminiAPIVersion    string
	GeminiQuestionModel string
	GeminiFeedbackModel string
	OpenAIAPIKey        string
	OpenAIModel         string
	GenerateRateLimit   int
	GenerateRateWindow  time.Duration
	EventPingInterval   time.Duration
	ShutdownGracePeriod time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MOCKVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Mockview API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.name", "mockview")
	v.SetDefault("events.channel", "mockview")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.timeout", "0s")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/")
	v.SetDefault("gemini.api_version", "v1")
	v.SetDefault("gemini.question_model", "gemini-2.5-flash")
	v.SetDefault("gemini.feedback_model", "gemini-2.0-flash")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("ratelimit.generate_max", 10)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("events.ping_interval", "30s")
	v.SetDefault("app.shutdown_grace", "10s")

	cacheTTL, err := parseDuration(v, "cache.ttl")
	if err != nil {
		return Config{}, err
	}
	aiTimeout, err := parseDuration(v, "ai.timeout")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "ratelimit.window")
	if err != nil {
		return Config{}, err
	}
	pingInterval, err := parseDuration(v, "events.ping_interval")
	if err != nil {
		return Config{}, err
	}
	shutdownGrace, err := parseDuration(v, "app.shutdown_grace")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		AllowOrigins:        v.GetString("app.allow_origins"),
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:         v.GetString("database.url"),
		DatabaseName:        v.GetString("database.name"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		EventsChannel:       v.GetString("events.channel"),
		CacheTTL:            cacheTTL,
		JWTSecret:           v.GetString("jwt.secret"),
		AIProvider:          strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		AITimeout:           aiTimeout,
		GeminiAPIKey:        v.GetString("gemini.api_key"),
		GeminiBaseURL:       v.GetString("gemini.base_url"),
		GeminiAPIVersion:    v.GetString("gemini.api_version"),
		GeminiQuestionModel: v.GetString("gemini.question_model"),
		GeminiFeedbackModel: v.GetString("gemini.feedback_model"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIModel:         v.GetString("openai.model"),
		GenerateRateLimit:   v.GetInt("ratelimit.generate_max"),
		GenerateRateWindow:  rateWindow,
		EventPingInterval:   pingInterval,
		ShutdownGracePeriod: shutdownGrace,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url must be provided")
	}

	switch c.AIProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("gemini api key must be provided")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai api key must be provided")
		}
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AIProvider)
	}

	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
