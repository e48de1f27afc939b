package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	MongoDBURL        string
	MongoDBName       string
	CatalogCollection string
	PromptCollection  string

	// OpenAI
	OpenAIAPIKey      string
	LLMModel          string
	LLMEmbeddingModel string
	LLMMaxTokens      int
	LLMTemperature    float64
	LLMTimeoutSec     int

	// Catalog
	CatalogRefreshInterval time.Duration

	// Recommendations
	RecommendK           int
	RecommendMaxDistance float64
	RecommendMinStock    int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		MongoDBURL:        getEnv("MONGODB_URL", ""),
		MongoDBName:       getEnv("MONGODB_DATABASE", "customer_agent"),
		CatalogCollection: getEnv("CATALOG_COLLECTION", "products"),
		PromptCollection:  getEnv("PROMPT_COLLECTION", "prompts"),

		// OpenAI
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMEmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", 0.0),
		LLMTimeoutSec:     getEnvInt("LLM_TIMEOUT_SEC", 60),

		// Catalog
		CatalogRefreshInterval: time.Duration(getEnvInt("CATALOG_REFRESH_SEC", 0)) * time.Second,

		// Recommendations
		RecommendK:           getEnvInt("RECOMMEND_K", 5),
		RecommendMaxDistance: getEnvFloat("RECOMMEND_MAX_DISTANCE", 0.5),
		RecommendMinStock:    getEnvInt("RECOMMEND_MIN_STOCK", 0),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if cfg.MongoDBURL == "" {
		return nil, fmt.Errorf("MONGODB_URL is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
