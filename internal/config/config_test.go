package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hengadev/errsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = base64.URLEncoding.EncodeToString(make([]byte, 32))

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MONGO_URI", "MONGO_DB_NAME", "JWT_SECRET_KEY", "SECRET_KEY", "ENCRYPTION_KEY",
		"HOST", "PORT", "FLASK_DEBUG", "DATABASE_URL", "REDIS_URL",
		"SERVER_PORT", "DATABASE_DRIVER", "LOG_LEVEL", "JWT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadLegacyVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("SECRET_KEY", "fallback")
	t.Setenv("ENCRYPTION_KEY", testKey)
	t.Setenv("PORT", "8080")
	t.Setenv("FLASK_DEBUG", "True")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURI)
	assert.Equal(t, "bharathmedicare", cfg.Database.MongoDatabase)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "fallback", cfg.JWT.Secret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 24, cfg.JWT.ExpiryHours)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.NoError(t, cfg.Validate())

	t.Setenv("JWT_SECRET_KEY", "primary")
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.JWT.Secret)
}

func TestLoadConfigFileAndStructuredEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9000
  shutdown_timeout: 3s
database:
  driver: memory
jwt:
  secret: from-file
encryption:
  key: ` + testKey + `
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())

	t.Setenv("PORT", "7000")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port, "legacy variables win over the file")

	t.Setenv("PORT", "http")
	_, err = Load(dir)
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		Database:   DatabaseConfig{Driver: "sqlite"},
		Encryption: EncryptionConfig{Key: "too-short"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	errs, ok := err.(errsx.Map)
	require.True(t, ok, "expected errsx.Map, got %T", err)
	for _, key := range []string{"jwt.secret", "jwt.expiry_hours", "encryption.key", "database.driver", "server.port"} {
		assert.Contains(t, errs, key)
	}
	assert.Len(t, errs, 5)

	cfg = &Config{
		Server:     ServerConfig{Port: 5000},
		Database:   DatabaseConfig{Driver: DriverPostgres},
		JWT:        JWTConfig{Secret: "s", ExpiryHours: 1},
		Encryption: EncryptionConfig{Key: testKey},
	}
	err = cfg.Validate()
	require.Error(t, err)
	errs, ok = err.(errsx.Map)
	require.True(t, ok)
	assert.Contains(t, errs, "database.postgres_dsn")
	assert.Len(t, errs, 1)
}
