package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const Production = "production"

type MongoOptions struct {
	URI      string `env:"MONGODB_URI,required"`
	Database string `env:"MONGODB_DATABASE" envDefault:"civic311"`
}

type RedisOptions struct {
	Address  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthOptions struct {
	JWTSecret      string        `env:"JWT_SECRET,required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	AdminEmail     string        `env:"ADMIN_EMAIL"`
	AdminPassword  string        `env:"ADMIN_PASSWORD"`
}

type UploadOptions struct {
	Dir              string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxFileSize      int64         `env:"MAX_FILE_SIZE" envDefault:"10485760"`
	AllowedFileTypes []string      `env:"ALLOWED_FILE_TYPES" envSeparator:"," envDefault:"pdf,jpg,jpeg,png,doc,docx"`
	ClamAVHost       string        `env:"CLAMAV_HOST" envDefault:"localhost"`
	ClamAVPort       int           `env:"CLAMAV_PORT" envDefault:"3310"`
	ScanTimeout      time.Duration `env:"SCAN_TIMEOUT" envDefault:"30s"`
	RescanInterval   time.Duration `env:"RESCAN_INTERVAL" envDefault:"5m"`
}

type RateLimitOptions struct {
	Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	CreateLimit int           `env:"RATE_LIMIT_CREATE" envDefault:"10"`
	StatusLimit int           `env:"RATE_LIMIT_STATUS" envDefault:"30"`
	AuthLimit   int           `env:"RATE_LIMIT_AUTH" envDefault:"20"`
}

type TriageOptions struct {
	Workers   int `env:"TRIAGE_WORKERS" envDefault:"2"`
	QueueSize int `env:"TRIAGE_QUEUE_SIZE" envDefault:"100"`
}

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Mongo     MongoOptions
	Redis     RedisOptions
	Auth      AuthOptions
	Upload    UploadOptions
	RateLimit RateLimitOptions
	Triage    TriageOptions

	Environment     string   `env:"GO_ENV" envDefault:"development"`
	Port            string   `env:"PORT" envDefault:"8080"`
	Domain          string   `env:"DOMAIN"`
	CORSOrigins     []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
	DefaultPageSize int64    `env:"DEFAULT_PAGE_SIZE" envDefault:"20"`
	MaxPageSize     int64    `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string   `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads the env files that exist, then parses the process environment.
func Load(envFiles ...string) (*Config, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("config: load env files: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errors.New("config: ACCESS_TOKEN_TTL must be positive")
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("config: MAX_PAGE_SIZE must be positive, got %d", c.MaxPageSize)
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("config: DEFAULT_PAGE_SIZE must be within [1, %d], got %d", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("config: MAX_FILE_SIZE must be positive")
	}
	if c.Upload.RescanInterval <= 0 {
		return errors.New("config: RESCAN_INTERVAL must be positive")
	}
	if c.RateLimit.Window < time.Second {
		return errors.New("config: RATE_LIMIT_WINDOW must be at least one second")
	}
	if c.RateLimit.CreateLimit < 1 || c.RateLimit.StatusLimit < 1 || c.RateLimit.AuthLimit < 1 {
		return errors.New("config: rate limits must be at least 1")
	}
	if c.Triage.Workers < 0 || c.Triage.QueueSize < 0 {
		return errors.New("config: triage workers and queue size must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
