package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"

	minProductionSecretLen = 32
)

var ErrWeakSecret = errors.New("JWT_SECRET must be at least 32 bytes in production")

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	APIPort  string `env:"API_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"10"`

	// No default on purpose: the server refuses to start without a secret.
	JWTSecret  string        `env:"JWT_SECRET,required"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"1h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"access_token"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`

	UploadRoot string `env:"UPLOAD_ROOT" envDefault:"uploads"`
}

// Load reads the given dotenv files (".env" when none are given) into the
// process environment, then parses the environment into a Config. Missing
// dotenv files are not an error; a missing JWT_SECRET or DATABASE_URL is.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecretLen {
		return ErrWeakSecret
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.CookieName == "" {
		return errors.New("COOKIE_NAME must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
