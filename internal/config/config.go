package config

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates all service configuration.
type Config struct {
	Server ServerConfig
	LLM    LLMConfig
	Store  StoreConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, LLM: llm, Store: storeCfg}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LLMConfig describes the external generation endpoint. The endpoint is
// OpenAI-compatible; one synchronous, non-streaming completion request is
// issued per turn.
type LLMConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     *float64
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration
	MaxHistoryTurns int
	// DegradedFallback converts generation failures into an error-string
	// reply instead of a failed request. Local development only.
	DegradedFallback bool
}

// Enabled reports whether enough is configured to reach the endpoint.
func (c LLMConfig) Enabled() bool {
	return c.BaseURL != "" && c.Model != ""
}

// NewChatModel builds the chat-completion model from this configuration.
func (c LLMConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("LLM endpoint not configured, provide LLM_BASE_URL and LLM_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	httpClient := &http.Client{
		Timeout: c.ResponseTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: c.ConnectTimeout}).DialContext,
		},
	}

	cfg := &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: temperature,
		HTTPClient:  httpClient,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadLLMConfig() (LLMConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}
	if temperature == nil {
		val := 0.7
		temperature = &val
	}

	connectTimeout, err := parseDurationEnv("LLM_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return LLMConfig{}, err
	}

	responseTimeout, err := parseDurationEnv("LLM_RESPONSE_TIMEOUT", 60*time.Second)
	if err != nil {
		return LLMConfig{}, err
	}

	maxTurns := 20
	if override, err := parseOptionalIntEnv("LLM_MAX_HISTORY_TURNS"); err != nil {
		return LLMConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxTurns = 1
		} else {
			maxTurns = *override
		}
	}

	degraded, err := parseBoolEnv("LLM_DEGRADED_FALLBACK", false)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		BaseURL:          getEnvOrDefault("LLM_BASE_URL", "http://localhost:8000/v1"),
		APIKey:           strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		Model:            strings.TrimSpace(os.Getenv("LLM_MODEL")),
		Temperature:      temperature,
		ConnectTimeout:   connectTimeout,
		ResponseTimeout:  responseTimeout,
		MaxHistoryTurns:  maxTurns,
		DegradedFallback: degraded,
	}, nil
}

// StoreConfig selects the persistence backend. An empty DatabaseURL runs the
// in-memory store.
type StoreConfig struct {
	DatabaseURL string
	// AutoCreateMissing makes explicitly-supplied-but-absent user/session
	// identifiers create records instead of failing with a not-found error.
	AutoCreateMissing bool
}

func loadStoreConfig() (StoreConfig, error) {
	autoCreate, err := parseBoolEnv("STORE_AUTOCREATE_MISSING", false)
	if err != nil {
		return StoreConfig{}, err
	}

	return StoreConfig{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AutoCreateMissing: autoCreate,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
