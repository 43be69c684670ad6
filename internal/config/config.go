package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"doctrack"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host        string        `envconfig:"DB_HOST" default:"localhost"`
		Port        int           `envconfig:"DB_PORT" default:"5432"`
		User        string        `envconfig:"DB_USER" default:"postgres"`
		Password    string        `envconfig:"DB_PASSWORD" default:""`
		Name        string        `envconfig:"DB_NAME" default:"doctrack"`
		LockTimeout time.Duration `envconfig:"DB_LOCK_TIMEOUT" default:"5s"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
		RateLimit      string        `envconfig:"RATE_LIMIT" default:"300-M"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	}

	Notify struct {
		WebhookURL    string        `envconfig:"NOTIFY_WEBHOOK_URL"`
		WebhookSecret string        `envconfig:"NOTIFY_WEBHOOK_SECRET"`
		Workers       int           `envconfig:"NOTIFY_WORKERS" default:"4"`
		QueueSize     int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`
		Timeout       time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	}

	Storage struct {
		Token string `envconfig:"STORAGE_TOKEN"`
	}

	Workflow struct {
		MaxAttempts int `envconfig:"WORKFLOW_MAX_ATTEMPTS" default:"3"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Load reads a .env file when one is present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
