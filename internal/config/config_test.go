package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 5*time.Second, cfg.Polling.Detail)
	require.Equal(t, 5*time.Second, cfg.Polling.Analysis)
	require.Equal(t, 30*time.Second, cfg.Polling.List)
	require.Equal(t, 3, cfg.Session.RecommendationLimit)
	require.Empty(t, cfg.Storage.DSN)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baduk.yaml")
	yaml := `
server:
  addr: ":9090"
source:
  base_url: "https://example.org/api"
polling:
  detail_interval: 3s
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("BADUK_POLLING__DETAIL_INTERVAL", "7s")
	t.Setenv("BADUK_SERVER__CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "https://example.org/api", cfg.Source.BaseURL)
	require.Equal(t, 7*time.Second, cfg.Polling.Detail, "environment overrides the file")
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsFastPolling(t *testing.T) {
	cfg := Default()
	cfg.Polling.Detail = 100 * time.Millisecond
	require.ErrorContains(t, cfg.Validate(), "Detail")
}

func TestValidateRejectsBadLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	require.Error(t, cfg.Validate())
}

func TestEnvKey(t *testing.T) {
	require.Equal(t, "source.base_url", envKey("BADUK_SOURCE__BASE_URL"))
	require.Equal(t, "session.idle_timeout", envKey("BADUK_SESSION__IDLE_TIMEOUT"))
}
