package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret-at-least-16")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret-at-least-16")
}

func TestLoad_EnvDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.True(t, cfg.HTTP.CookieSecure)
	assert.Equal(t, 15*time.Minute, cfg.Tokens.AccessTTL)
	assert.Equal(t, 240*time.Hour, cfg.Tokens.RefreshTTL)
	assert.Equal(t, "gmail.com", cfg.Auth.AllowedEmailDomain)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, MediaDriverLocal, cfg.Media.Driver)
	assert.Equal(t, "data/videotube.db", cfg.Database.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("ALLOWED_EMAIL_DOMAIN", "example.org")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Tokens.AccessTTL)
	assert.Equal(t, "example.org", cfg.Auth.AllowedEmailDomain)
	assert.False(t, cfg.HTTP.CookieSecure)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	os.Unsetenv("ACCESS_TOKEN_SECRET")
	os.Unsetenv("REFRESH_TOKEN_SECRET")

	_, err := Load("")
	assert.Error(t, err, "Load() should fail when token secrets are not configured")
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
env: dev
http:
  address: ":9090"
tokens:
  access_ttl: 10m
media:
  driver: local
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, 10*time.Minute, cfg.Tokens.AccessTTL)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env: EnvLocal,
			Tokens: Tokens{
				AccessSecret:  "a-secret-of-16-chars",
				AccessTTL:     15 * time.Minute,
				RefreshSecret: "r-secret-of-16-chars",
				RefreshTTL:    24 * time.Hour,
			},
			Media: Media{Driver: MediaDriverLocal},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown env", mutate: func(c *Config) { c.Env = "staging" }, wantErr: true},
		{name: "same secrets", mutate: func(c *Config) { c.Tokens.RefreshSecret = c.Tokens.AccessSecret }, wantErr: true},
		{name: "refresh shorter than access", mutate: func(c *Config) { c.Tokens.RefreshTTL = time.Minute }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Media.Driver = MediaDriverS3 }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *Config) {
			c.Media.Driver = MediaDriverS3
			c.Media.S3.Bucket = "videotube"
		}},
		{name: "unknown media driver", mutate: func(c *Config) { c.Media.Driver = "cloudinary" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
