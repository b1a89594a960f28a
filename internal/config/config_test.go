package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  driver: memory
scraper:
  api_key: from-yaml
pipeline:
  ruleset: custom
  offset_hours: 1
rulesets:
  - name: custom
    base: bettingtipsters-v3
    policy: not-equal
    free:
      - score: "1:1"
        market: Under 3.5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "custom", cfg.Pipeline.Ruleset)
	require.NotNil(t, cfg.Pipeline.OffsetHours)
	assert.Equal(t, 1, *cfg.Pipeline.OffsetHours)

	require.Len(t, cfg.Rulesets, 1)
	rs := cfg.Rulesets[0]
	assert.Equal(t, "bettingtipsters-v3", rs.Base)
	assert.Equal(t, "not-equal", rs.Policy)
	require.Len(t, rs.Free, 1)
	assert.Equal(t, RuleEntry{Score: "1:1", Market: "Under 3.5"}, rs.Free[0])
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(writeConfig(t, "server:\n  mode: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "bettingtipsters-v3", cfg.Pipeline.Ruleset)
	assert.Equal(t, 10, cfg.Pipeline.HighlightsSize)
	assert.Equal(t, 2*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, 45*time.Second, cfg.Scraper.FetchTimeout())
	assert.Equal(t, "Africa/Nairobi", cfg.Schedule.Timezone)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SCRAPFLY_KEY", "from-env")
	t.Setenv("DATABASE_DSN", "postgres://env")

	cfg, err := LoadConfigFrom(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Scraper.APIKey)
	assert.Equal(t, "postgres://env", cfg.Database.DSN)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFrom(t.TempDir())
	assert.Error(t, err)
}
