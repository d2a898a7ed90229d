package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"json"`

	DemoMode      bool   `env:"DEMO_MODE"`
	DBPath        string `env:"DB_PATH"`
	SupabaseDBURL string `env:"SUPABASE_DB_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	RedisURL string `env:"REDIS_URL"`
	AMQPURL  string `env:"AMQP_URL"`

	OpenAIKey        string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	GeminiKey        string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeneratorTimeout time.Duration `env:"GENERATOR_TIMEOUT" envDefault:"8s"`

	CampaignID   string   `env:"CAMPAIGN_ID" envDefault:"clasico_regio_2025"`
	AdminKeyHash string   `env:"ADMIN_KEY_HASH"`
	CORSOrigins  []string `env:"CORS_ORIGINS" envDefault:"*"`
	LinkBaseURL  string   `env:"LINK_BASE_URL" envDefault:"https://brinda.io/play"`
	WebDir       string   `env:"WEB_DIR"`
}

// Load reads an optional .env file and then parses the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.GeneratorTimeout <= 0 {
		return nil, fmt.Errorf("GENERATOR_TIMEOUT must be positive, got %s", cfg.GeneratorTimeout)
	}
	return &cfg, nil
}

// Demo reports whether the game runs on the built-in data set only: either
// requested explicitly or because no record store is configured.
func (c *Config) Demo() bool {
	return c.DemoMode || (c.DBPath == "" && c.SupabaseDBURL == "")
}

// Generators reports whether any text-generation credential is present.
func (c *Config) Generators() bool {
	return c.OpenAIKey != "" || c.GeminiKey != ""
}
