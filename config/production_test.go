package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoadProductionConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.Host)
	assert.Equal(t, 587, cfg.Email.Port)
	assert.Equal(t, 600*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, 1800*time.Second, cfg.Cache.StoreProductsTTL)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TemporaryMaxAge)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Reports.Timezone)
	assert.False(t, cfg.Security.LoginCaptchaEnabled)
	assert.Equal(t, 12, cfg.Security.StaffPasswordLength)
}

func TestLoadProductionConfig_EnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9001")
	t.Setenv("CACHE_TTL", "120")
	t.Setenv("STORE_PRODUCTS_TTL", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SECURITY_LOGIN_CAPTCHA_ENABLED", "true")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, 45*time.Minute, cfg.Cache.StoreProductsTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.True(t, cfg.Security.LoginCaptchaEnabled)
}

func TestLoadProductionConfig_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("JWT_SECRET_KEY=abcdefghijklmnopqrstuvwxyz0123456789\nREPORTS_TIMEZONE=UTC\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("REPORTS_TIMEZONE", "")
	os.Unsetenv("JWT_SECRET_KEY")
	os.Unsetenv("REPORTS_TIMEZONE")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz0123456789", cfg.JWT.SecretKey)
	assert.Equal(t, "UTC", cfg.Reports.Timezone)
}

func TestValidateProductionConfig(t *testing.T) {
	setBaseEnv(t)

	tests := []struct {
		name    string
		mutate  func(cfg *ProductionConfig)
		wantErr string
	}{
		{
			name:    "short jwt secret",
			mutate:  func(cfg *ProductionConfig) { cfg.JWT.SecretKey = "short" },
			wantErr: "JWT_SECRET_KEY must be at least 32 characters long",
		},
		{
			name:    "rsa without keys",
			mutate:  func(cfg *ProductionConfig) { cfg.JWT.UseRSAKeys = true },
			wantErr: "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required",
		},
		{
			name:    "bad port",
			mutate:  func(cfg *ProductionConfig) { cfg.Server.Port = 70000 },
			wantErr: "PORT must be between 1 and 65535",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *ProductionConfig) { cfg.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL must be one of",
		},
		{
			name:    "bad timezone",
			mutate:  func(cfg *ProductionConfig) { cfg.Reports.Timezone = "Mars/Olympus" },
			wantErr: "REPORTS_TIMEZONE is invalid",
		},
		{
			name:    "missing bucket",
			mutate:  func(cfg *ProductionConfig) { cfg.Storage.BucketURL = "" },
			wantErr: "STORAGE_BUCKET_URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadProductionConfig()
			require.NoError(t, err)
			tt.mutate(cfg)
			err = ValidateProductionConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "pos", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=pos sslmode=disable TimeZone=UTC", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5433/pos?sslmode=disable", d.URL())
}
