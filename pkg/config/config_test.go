package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "article-ingested", cfg.Kafka.Topics.ArticleIngested)
	assert.Equal(t, 1, cfg.Reader.ContextRadius)
	assert.Equal(t, DefaultDateLayouts, cfg.Ingest.DateLayouts)
	assert.Contains(t, cfg.Postgres.DSN(), "dbname=newsarchive")
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
server:
  port: 9000
redis:
  cacheTTL: 30s
reader:
  contextRadius: 2
ingest:
  dateLayouts: ["2006-01-02"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("NEWS_POSTGRES_HOST", "db.internal")
	t.Setenv("NEWS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("NEWS_REDIS_ENABLED", "false")
	t.Setenv("NEWS_METRICS_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 2, cfg.Reader.ContextRadius)
	assert.Equal(t, []string{"2006-01-02"}, cfg.Ingest.DateLayouts)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoadDevelopmentFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDateLayouts, cfg.Ingest.DateLayouts)
	assert.Equal(t, time.Minute, cfg.Analytics.SnapshotInterval)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reader:\n  contextRadius: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
