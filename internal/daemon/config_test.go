package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/infra/showapi"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1", cfg.API.Host)
	assert.Equal(t, 8137, cfg.API.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, showapi.DefaultBaseURL, cfg.Provider.BaseURL)
	assert.Equal(t, progression.DefaultConfig(), cfg.Progression.Engine())
	assert.Equal(t, 10, cfg.Progression.QuizQuestions)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("CITADEL_HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CITADEL_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(`
[api]
port = 9000

[progression]
drop_chance = 0.5
daily_xp = 40
`), 0600))
	t.Setenv("CITADEL_API_HOST", "0.0.0.0")
	t.Setenv("CITADEL_PROGRESSION_DAILY_XP", "50")
	t.Setenv("CITADEL_STORAGE_REDIS_URL", "redis://cache:6379/2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, 0.5, cfg.Progression.DropChance)
	assert.Equal(t, 50, cfg.Progression.DailyXP, "env wins over the file")
	assert.Equal(t, 10, cfg.Progression.LocationXP, "unset keys keep defaults")
	assert.Equal(t, "redis://cache:6379/2", cfg.Storage.RedisURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CITADEL_HOME", home)

	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[api\nport ="), 0600))
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "parse config")

	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[storage]\ndriver = \"postgres\"\n"), 0600))
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "storage.driver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.API.Port = 0 }},
		{"drop chance", func(c *Config) { c.Progression.DropChance = 1.5 }},
		{"negative xp", func(c *Config) { c.Progression.DropXP = -1 }},
		{"quiz length", func(c *Config) { c.Progression.QuizQuestions = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("CITADEL_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 9137
	cfg.Logging.Level = "debug"
	require.NoError(t, SaveConfig(cfg))

	got, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "verbose", Encoding: "xml"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(LoggingConfig{Level: "debug", File: filepath.Join(t.TempDir(), "citadel.log")})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

// offlineConfig points the show client at a server that always fails, so
// the built-in dataset is used.
func offlineConfig(t *testing.T) Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Provider.BaseURL = srv.URL
	cfg.Provider.Timeout = "1s"
	return cfg
}

func TestNewWithConfig_SQLite(t *testing.T) {
	t.Setenv("CITADEL_HOME", t.TempDir())

	d, err := NewWithConfig(context.Background(), offlineConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	out, err := d.Engine.AwardXP(context.Background(), 120)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Level.NewLevel)

	d.Health.RunOnce(context.Background())
	statuses := d.Health.Statuses()
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Healthy, statuses[0].Error)
	assert.True(t, statuses[1].Healthy, statuses[1].Error)
	assert.False(t, statuses[2].Healthy, "show data is loaded by the recovery step")
	assert.True(t, d.Engine.Snapshot().WorldLoaded)
}

func TestNewWithConfig_ReloadsProgress(t *testing.T) {
	t.Setenv("CITADEL_HOME", t.TempDir())
	ctx := context.Background()

	cfg := offlineConfig(t)
	d, err := NewWithConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = d.Engine.UsePortal(ctx)
	require.NoError(t, err)
	d.Close()

	d, err = NewWithConfig(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, 1, d.Engine.Snapshot().Counters["portalUses"])
}
