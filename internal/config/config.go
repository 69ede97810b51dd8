package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var knownProviders = map[string]struct{}{
	"bedrock":   {},
	"openai":    {},
	"anthropic": {},
	"gemini":    {},
}

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	LogFormat          string
	DatabaseURL        string
	AuthJWTSecret      string
	CORSAllowedOrigins []string

	// Validation session store
	ValidationStore         string
	ValidationMaxAge        time.Duration
	ValidationSweepInterval time.Duration
	ValidationMaxAttempts   int

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// LLM providers
	LLMProvider         string
	LLMModelID          string
	LLMFallbackProvider string
	LLMFallbackModelID  string
	LLMMaxTokens        int
	LLMTemperature      float64
	LLMTimeout          time.Duration
	OpenAIAPIKey        string
	AnthropicAPIKey     string
	GeminiAPIKey        string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	ReportArchiveBucket string

	// Per-officer limit on report generation calls; 0 disables it.
	GenerateRateLimit float64
	GenerateRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		AuthJWTSecret:      getEnv("AUTH_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		ValidationStore:         strings.ToLower(strings.TrimSpace(getEnv("VALIDATION_STORE", StoreMemory))),
		ValidationMaxAge:        getEnvAsDuration("VALIDATION_MAX_AGE", time.Hour),
		ValidationSweepInterval: getEnvAsDuration("VALIDATION_SWEEP_INTERVAL", 0),
		ValidationMaxAttempts:   getEnvAsInt("VALIDATION_MAX_ATTEMPTS", 3),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "bedrock"))),
		LLMModelID:          getEnv("LLM_MODEL_ID", ""),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		LLMFallbackModelID:  getEnv("LLM_FALLBACK_MODEL_ID", ""),
		LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ReportArchiveBucket: getEnv("REPORT_ARCHIVE_BUCKET", ""),

		GenerateRateLimit: getEnvAsFloat("GENERATE_RATE_LIMIT", 0.5),
		GenerateRateBurst: getEnvAsInt("GENERATE_RATE_BURST", 5),
	}
}

// Validate rejects configuration combinations the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("config: PORT cannot be empty")
	}
	switch c.ValidationStore {
	case StoreMemory:
	case StoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("config: REDIS_ADDR is required when VALIDATION_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unknown VALIDATION_STORE %q", c.ValidationStore)
	}
	if c.ValidationMaxAge < 0 {
		return fmt.Errorf("config: VALIDATION_MAX_AGE must not be negative")
	}
	if c.ValidationSweepInterval < 0 {
		return fmt.Errorf("config: VALIDATION_SWEEP_INTERVAL must not be negative")
	}
	if c.ValidationMaxAttempts <= 0 {
		return fmt.Errorf("config: VALIDATION_MAX_ATTEMPTS must be > 0")
	}
	if _, ok := knownProviders[c.LLMProvider]; !ok {
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMFallbackProvider != "" {
		if _, ok := knownProviders[c.LLMFallbackProvider]; !ok {
			return fmt.Errorf("config: unknown LLM_FALLBACK_PROVIDER %q", c.LLMFallbackProvider)
		}
	}
	if c.GenerateRateLimit < 0 {
		return fmt.Errorf("config: GENERATE_RATE_LIMIT must not be negative")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
