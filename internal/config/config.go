// Package config loads the server configuration once at process start.
//
// Values come from an optional YAML file and are then overridden by
// environment variables (cleanenv does both in one pass). The resulting
// *Config is passed explicitly into constructors; nothing else in the
// program reads the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Media drivers understood by the composition root.
const (
	MediaDriverLocal = "local"
	MediaDriverS3    = "s3"
)

type Config struct {
	Env      string   `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	Tokens   Tokens   `yaml:"tokens"`
	Auth     Auth     `yaml:"auth"`
	Media    Media    `yaml:"media"`
}

type HTTP struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
	// CookieSecure marks auth cookies Secure. Turn it off only for plain-HTTP local dev.
	CookieSecure bool `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"true"`
}

type Database struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/videotube.db"`
}

type Tokens struct {
	AccessSecret  string        `yaml:"access_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshSecret string        `yaml:"refresh_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"REFRESH_TOKEN_TTL" env-default:"240h"`
	Issuer        string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"videotube"`
}

type Auth struct {
	// AllowedEmailDomain is the only domain accepted for registration and
	// email logins. See DESIGN.md for why it is configurable.
	AllowedEmailDomain string `yaml:"allowed_email_domain" env:"ALLOWED_EMAIL_DOMAIN" env-default:"gmail.com"`
	BcryptCost         int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

type Media struct {
	Driver         string     `yaml:"driver" env:"MEDIA_DRIVER" env-default:"local"`
	MaxUploadBytes int64      `yaml:"max_upload_bytes" env:"MEDIA_MAX_UPLOAD_BYTES" env-default:"524288000"`
	Local          LocalMedia `yaml:"local"`
	S3             S3Media    `yaml:"s3"`
}

type LocalMedia struct {
	Dir     string `yaml:"dir" env:"MEDIA_LOCAL_DIR" env-default:"data/media"`
	BaseURL string `yaml:"base_url" env:"MEDIA_LOCAL_BASE_URL" env-default:"http://localhost:8080/media"`
}

type S3Media struct {
	Bucket   string `yaml:"bucket" env:"MEDIA_S3_BUCKET"`
	Region   string `yaml:"region" env:"MEDIA_S3_REGION" env-default:"us-east-1"`
	Endpoint string `yaml:"endpoint" env:"MEDIA_S3_ENDPOINT"`
	// BaseURL is the public prefix objects are served from (CDN or bucket URL).
	BaseURL   string `yaml:"base_url" env:"MEDIA_S3_BASE_URL"`
	AccessKey string `yaml:"access_key" env:"MEDIA_S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MEDIA_S3_SECRET_KEY"`
}

// Load reads configuration from the YAML file at path (when it exists) and
// the environment. An empty path means environment only.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
			return &cfg, cfg.Validate()
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	return &cfg, cfg.Validate()
}

// MustLoad is Load for main: any error is fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks cross-field rules cleanenv tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("config: unknown env %q", c.Env))
	}

	if c.Tokens.AccessSecret == c.Tokens.RefreshSecret {
		errs = append(errs, errors.New("config: access and refresh token secrets must differ"))
	}
	if c.Tokens.AccessTTL <= 0 || c.Tokens.RefreshTTL <= 0 {
		errs = append(errs, errors.New("config: token TTLs must be positive"))
	}
	if c.Tokens.RefreshTTL <= c.Tokens.AccessTTL {
		errs = append(errs, errors.New("config: refresh token TTL must exceed access token TTL"))
	}

	switch c.Media.Driver {
	case MediaDriverLocal:
	case MediaDriverS3:
		if c.Media.S3.Bucket == "" {
			errs = append(errs, errors.New("config: MEDIA_S3_BUCKET is required for the s3 media driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown media driver %q", c.Media.Driver))
	}

	return errors.Join(errs...)
}
