package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 0.8, c.Search.FuzzyThreshold)
	assert.Equal(t, 12, c.Search.PageSize)
	assert.Equal(t, "popularity", c.Search.DefaultSort)
	assert.Equal(t, 5, c.History.Capacity)
	assert.Equal(t, "searchHistory", c.History.Key)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[search]
fuzzy_threshold = 0.7
page_size = 24

[catalog]
path = "data/catalog.json"
watch = true

[http]
addr = ":9000"
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.7, c.Search.FuzzyThreshold)
	assert.Equal(t, 24, c.Search.PageSize)
	assert.Equal(t, "data/catalog.json", c.Catalog.Path)
	assert.True(t, c.Catalog.Watch)
	assert.Equal(t, ":9000", c.HTTP.Addr)

	// untouched sections keep defaults
	assert.Equal(t, 5, c.History.Capacity)
	assert.Equal(t, 600, c.HTTP.RequestsPerMinute)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// page_size has the wrong type, so the struct decode fails
	path := writeConfig(t, `
[search]
page_size = "many"
suggest_limit = 3

[history]
capacity = 7
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12, c.Search.PageSize)
	assert.Equal(t, 3, c.Search.SuggestLimit)
	assert.Equal(t, 7, c.History.Capacity)
}

func TestLoadConfigGarbage(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "this is [not toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfigSanitizes(t *testing.T) {
	path := writeConfig(t, `
[search]
fuzzy_threshold = 1.5
page_size = 500
max_page_size = 50
default_sort = "cheapest"

[history]
capacity = 0
key = ""
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, c.Search.FuzzyThreshold)
	assert.Equal(t, 12, c.Search.PageSize)
	assert.Equal(t, "popularity", c.Search.DefaultSort)
	assert.Equal(t, 5, c.History.Capacity)
	assert.Equal(t, "searchHistory", c.History.Key)
}

func TestRateLimitZeroDisables(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "[http]\nrequests_per_minute = 0\nlimiter_idle_minutes = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.HTTP.RequestsPerMinute)
	assert.Equal(t, 50, c.HTTP.Burst)
	assert.Equal(t, 2, c.HTTP.LimiterIdleMinutes)

	c, err = LoadConfig(writeConfig(t, "[http]\nrequests_per_minute = -5\nburst = 0\nlimiter_idle_minutes = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 600, c.HTTP.RequestsPerMinute)
	assert.Equal(t, 50, c.HTTP.Burst)
	assert.Equal(t, 15, c.HTTP.LimiterIdleMinutes)

	// the partial-recovery path keeps the zero too
	c, err = LoadConfig(writeConfig(t, "[search]\npage_size = \"x\"\n[http]\nrequests_per_minute = 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.HTTP.RequestsPerMinute)
}

func TestRebuildConfigFile(t *testing.T) {
	path := writeConfig(t, "[search]\npage_size = 30\n[http]\nburst = 3\n")
	written, err := RebuildConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "shelfserve"), 0o755))
	written, err = RebuildConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "shelfserve", "config.toml"), written)
	assert.FileExists(t, written)
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	c, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
	assert.FileExists(t, path)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c, reloaded)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, "[http]\nburst = 9\n")
	c, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 9, c.HTTP.Burst)
}

func TestGetActiveConfigPath(t *testing.T) {
	abs := GetActiveConfigPath("config.toml")
	assert.True(t, filepath.IsAbs(abs))
}
