package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

const (
	DataStoreFirestore = "firestore"
	DataStoreMemory    = "memory"
)

type Firebase struct {
	ProjectID          string `env:"FIREBASE_PROJECT_ID"`
	APIKey             string `env:"FIREBASE_API_KEY"`
	ServiceAccountJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	ServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	StorageBucket      string `env:"STORAGE_BUCKET"`
}

type Limits struct {
	SignInMaxAttempts int           `env:"SIGNIN_MAX_ATTEMPTS" envDefault:"5"`
	SignInWindow      time.Duration `env:"SIGNIN_WINDOW" envDefault:"60s"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`
	ChatMessageBurst  int           `env:"CHAT_MESSAGE_RATE" envDefault:"10"`
	ChatCreateBurst   int           `env:"CHAT_CREATE_RATE" envDefault:"5"`
}

type Config struct {
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DataStore   string `env:"DATA_STORE" envDefault:"firestore"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Firebase
	Limits
}

func Load() (*Config, error) {
	// a missing .env is fine; real deployments inject the environment
	_ = godotenv.Load()

	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DataStore {
	case DataStoreFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when DATA_STORE=%s", DataStoreFirestore)
		}
	case DataStoreMemory:
	default:
		return fmt.Errorf("unknown DATA_STORE %q", c.DataStore)
	}

	if c.SignInMaxAttempts <= 0 {
		return fmt.Errorf("SIGNIN_MAX_ATTEMPTS must be positive")
	}
	if c.SignInWindow <= 0 {
		return fmt.Errorf("SIGNIN_WINDOW must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
