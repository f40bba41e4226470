package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  port: 9090
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: secret
  name: compliance
ai:
  provider: openai
  model: gpt-4o-mini
  apiKey: from-file
engine:
  maxConcurrency: 4
  callTimeout: 45s
catalog:
  path: ./doc.json
auth:
  apiKeys:
    acme: k-123
`

func TestLoad(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Engine.MaxConcurrency)
	assert.Equal(t, 45*time.Second, cfg.Engine.CallTimeout)
	assert.Equal(t, "from-file", cfg.AI.APIKey)
	assert.Equal(t, "k-123", cfg.Auth.APIKeys["acme"])
	assert.Equal(t, "app:secret@tcp(db:3306)/compliance?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, float32(0.2), cfg.AI.Temperature)
	assert.Equal(t, 8, cfg.Engine.MaxConcurrency)
	assert.Equal(t, 60*time.Second, cfg.Engine.CallTimeout)
	assert.Equal(t, "file", cfg.Catalog.Source)
	assert.Equal(t, "COMPLIANCE_REPORT_GENERATED", cfg.Redis.Channel)
	assert.Equal(t, "COMPLIANCE_CHECK_REQUESTED", cfg.Redis.RequestChannel)
	assert.Equal(t, "host= port=0 user= password= dbname= sslmode=disable", cfg.PostgresDSN())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse([]byte("ai:\n  provider: gemini\n"))
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")

	_, err := Parse([]byte("database:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, "database.driver")

	_, err = Parse([]byte("ai:\n  provider: llama\n"))
	assert.ErrorContains(t, err, "ai.provider")

	_, err = Parse([]byte("catalog:\n  source: minio\n"))
	assert.ErrorContains(t, err, "catalog.object")

	_, err = Parse([]byte("catalog:\n  source: ftp\n"))
	assert.ErrorContains(t, err, "catalog.source")
}
