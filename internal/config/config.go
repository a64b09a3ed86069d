package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8000"`

	// Database
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`

	// Redis (active reading-session tracking)
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// RabbitMQ (story lifecycle events); empty URL disables publishing.
	RabbitMQURL string `envconfig:"RABBITMQ_URL" default:""`

	// JWT
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"24h"`

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`

	// Slide generation (Ollama-compatible model server)
	OllamaBaseURL               string        `envconfig:"OLLAMA_BASE_URL" default:"http://127.0.0.1:11434"`
	OllamaPlannerModel          string        `envconfig:"OLLAMA_MODEL_PLANNER" default:"mistral:7b-instruct"`
	OllamaStoryModel            string        `envconfig:"OLLAMA_MODEL_STORY" default:"mistral:7b-instruct"`
	OllamaRequestTimeout        time.Duration `envconfig:"OLLAMA_REQUEST_TIMEOUT" default:"120s"`
	GenerationFallbackToDefault bool          `envconfig:"GENERATION_FALLBACK_TO_DEFAULT" default:"false"`

	// Safety critic
	SafetyCriticEnabled         bool   `envconfig:"SAFETY_CRITIC_ENABLED" default:"true"`
	SafetyCriticStrict          bool   `envconfig:"SAFETY_CRITIC_STRICT" default:"false"`
	SafetyCriticMaxTextLength   int    `envconfig:"SAFETY_CRITIC_MAX_TEXT_LENGTH" default:"320"`
	SafetyCriticMaxScaryTerms   int    `envconfig:"SAFETY_CRITIC_MAX_SCARY_TERMS_PER_SLIDE" default:"2"`
	SafetyCriticEnableLLMReview bool   `envconfig:"SAFETY_CRITIC_ENABLE_LLM_REVIEW" default:"false"`
	SafetyCriticLLMReviewModel  string `envconfig:"SAFETY_CRITIC_REVIEW_MODEL" default:"mistral:7b-instruct"`

	// Slide images (OpenAI-compatible image API); empty key disables the
	// upstream call and every slide gets a placeholder URL.
	ImageAPIKey     string        `envconfig:"IMAGE_API_KEY" default:""`
	ImageAPIBaseURL string        `envconfig:"IMAGE_API_BASE_URL" default:""`
	ImageTimeout    time.Duration `envconfig:"IMAGE_TIMEOUT" default:"60s"`

	// Dashboard
	SessionWindow time.Duration `envconfig:"SESSION_WINDOW" default:"30m"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	origins := strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
	return origins
}

// DatabaseURL builds a postgres connection string from the DB fields.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from an optional .env file and the
// environment.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	return &cfg, nil
}
