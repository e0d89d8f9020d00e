package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("CONFIG_PATH", writeConfigFile(t, `
database:
  host: db.internal
  port: 5432
  user: svc
  password: secret
  dbname: connections
app:
  base_url: https://suite.example.com
oauth:
  state_secret: s3cret
providers:
  asana:
    enabled: true
    client_id: asana-id
    client_secret: asana-secret
  notion:
    enabled: false
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// Values from the file.
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "https://suite.example.com", cfg.App.BaseURL)
	assert.True(t, cfg.Providers["asana"].Enabled)
	assert.Equal(t, "asana-id", cfg.Providers["asana"].ClientID)
	assert.False(t, cfg.Providers["notion"].Enabled)

	// Defaults fill the rest.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/export-manager", cfg.App.RedirectPath)
	assert.Equal(t, 10*time.Second, cfg.OAuth.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.OAuth.StateCookieTTL)
	assert.Equal(t, "connections.events", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("CONFIG_PATH", writeConfigFile(t, `
app:
  base_url: https://file-value.example.com
`))
	t.Setenv("CONNECTIONS_APP_BASE_URL", "https://env-value.example.com")
	t.Setenv("CONNECTIONS_SERVER_PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://env-value.example.com", cfg.App.BaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_MissingFileIsNotFatal(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_ENV", "nonexistent")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres", Password: "pw",
		DBName: "connections", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/connections?sslmode=disable", d.DSN())
}

func TestAppRedirectURL(t *testing.T) {
	a := AppConfig{BaseURL: "https://suite.example.com", RedirectPath: "/export-manager"}
	assert.Equal(t, "https://suite.example.com/export-manager", a.RedirectURL())
}
