package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "recipes")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "6543", cfg.Database.Port)
	assert.Equal(t, "recipes", cfg.Database.Name)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadConfigWithDefaults(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
}

func TestLoadConfigReadsSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("s3cret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("prod-signing-key"), 0o600))

	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	t.Setenv("SECRETS_DIR", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "prod-signing-key", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestLoadConfigProductionRequiresSecrets(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("ENV", "production")
	t.Setenv("SECRETS_DIR", t.TempDir())

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.password")
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestLoadConfigCIIgnoresSecretsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("from-file"), 0o600))

	t.Setenv("CI", "true")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("JWT_SECRET", "ci-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, CI, cfg.Environment)
	assert.Equal(t, "from-env", cfg.Database.Password)
}

func TestValidateConfigRejectsUnknownDriver(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Driver = "mysql"

	err := ValidateConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		ci, name string
		want     Environment
		strict   bool
	}{
		{"true", "production", CI, true},
		{"TRUE", "", CI, true},
		{"false", "production", Production, true},
		{"", " Production ", Production, true},
		{"", "test", Test, false},
		{"", "staging", Development, false},
		{"", "", Development, false},
	}
	for _, tt := range tests {
		got := ParseEnvironment(tt.ci, tt.name)
		assert.Equal(t, tt.want, got, "CI=%q ENV=%q", tt.ci, tt.name)
		assert.Equal(t, tt.strict, got.RequiresSecrets(), "CI=%q ENV=%q", tt.ci, tt.name)
	}
}
