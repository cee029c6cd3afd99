// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Blob backends.
const (
	BlobNone  = "none"
	BlobFS    = "fs"
	BlobRedis = "redis"
)

// Database selects the record store.
type Database struct {
	Driver string `env:"DATABASE_DRIVER,default=sqlite"`
	Path   string `env:"DB_PATH,default=./data/splitledger.db"`
	URL    string `env:"DATABASE_URL"`
}

// Config holds every setting the server reads at startup.
type Config struct {
	Port int `env:"PORT,default=8080"`

	Database Database

	BlobBackend     string        `env:"BLOB_BACKEND,default=fs"`
	BlobDir         string        `env:"BLOB_DIR,default=./data/receipts"`
	RedisURL        string        `env:"REDIS_URL"`
	BlobTTL         time.Duration `env:"BLOB_TTL,default=0s"`
	MaxReceiptBytes int64         `env:"MAX_RECEIPT_BYTES,default=5242880"`

	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,default=24h"`
	BcryptCost int           `env:"BCRYPT_COST,default=10"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=20"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load reads envFiles (".env" when none are given) into the process
// environment, then decodes and validates the configuration. Missing env
// files are ignored; variables already set take precedence over them.
func Load(envFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := decode(cfg, envFiles); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that do not
// serve requests.
func LoadDatabase(envFiles ...string) (*Database, error) {
	db := &Database{}
	if err := decode(db, envFiles); err != nil {
		return nil, err
	}
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}

func decode(target any, envFiles []string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	return nil
}

// Validate checks the driver and its connection setting.
func (d *Database) Validate() error {
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if d.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", d.Driver)
	}
	return nil
}

// Validate checks that the settings are consistent.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	switch c.BlobBackend {
	case BlobNone:
	case BlobFS:
		if c.BlobDir == "" {
			return errors.New("BLOB_DIR is required for the fs blob backend")
		}
	case BlobRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
