package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.Generation.Provider)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Generation.APIKeyEnv)
	assert.True(t, cfg.SearchEnabled())
	assert.Equal(t, 120*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 1<<20, cfg.Generation.MaxResponseBytes)
	assert.Equal(t, []string{"github.com"}, cfg.Analysis.AllowedHosts)
	assert.Equal(t, "https://kroki.io", cfg.Diagram.Endpoint)
	assert.False(t, cfg.MinioEnabled())
	assert.Empty(t, cfg.Database.Driver)
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	p := write(t, `
server:
  port: 9000
generation:
  provider: openai
  search: false
  timeout: 30s
database:
  driver: postgres
  host: db
  user: app
  password: "p@ss"
  name: analyses
ui:
  locale: en
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Generation.APIKeyEnv)
	assert.False(t, cfg.SearchEnabled())
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/analyses?sslmode=disable", cfg.PostgresDSN())
}

func TestEnvOverridesAndAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "7070")
	t.Setenv("GEMINI_API_KEY", " from-env ")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.APIKey())

	t.Setenv("GEMINI_API_KEY", "")
	cfg.Generation.APIKey = "from-file"
	assert.Equal(t, "from-file", cfg.APIKey())
}

func TestValidateRejects(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, body := range []string{
		"generation:\n  provider: llama\n",
		"database:\n  driver: sqlite\n",
		"minio:\n  endpoint: minio:9000\n",
		"diagram:\n  endpoint: not-a-url\n",
	} {
		_, err := Load(write(t, body))
		assert.Error(t, err, body)
	}
}

func TestMySQLDSN(t *testing.T) {
	var c Config
	c.Database.User, c.Database.Password = "u", "p"
	c.Database.Host, c.Database.Port, c.Database.Name = "h", 3306, "d"
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true&charset=utf8mb4&loc=UTC", c.MySQLDSN())
}
