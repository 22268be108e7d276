package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, 5, cfg.Worker.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Queue.BackoffBase)
	assert.Equal(t, time.Minute, cfg.Scheduler.PromotionInterval)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.Lookahead)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.CleanupInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.Scheduler.CompletedTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Scheduler.CancelledTTL)
	assert.Equal(t, time.Hour, cfg.Scheduler.ExpiryInterval)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.RecoveryInterval)
	assert.Equal(t, 20*time.Minute, cfg.Scheduler.StaleAfter)
	assert.Equal(t, 5*time.Second, cfg.Platforms.PollInterval)
	assert.Equal(t, "log", cfg.Notification.Driver)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{Worker: Worker{Concurrency: 12}, Queue: Queue{Driver: "memory"}}
	applyDefaults(&cfg)

	assert.Equal(t, 12, cfg.Worker.Concurrency)
	assert.Equal(t, "memory", cfg.Queue.Driver)
}

func TestRateLimitConfigs_Overrides(t *testing.T) {
	cfg := Config{RateLimits: map[string]RateLimit{
		"Instagram": {MaxRequests: 10},
		"x":         {DailyLimit: 50, Window: time.Minute},
		"myspace":   {MaxRequests: 1},
	}}

	limits := RateLimitConfigs(&cfg)

	require.Len(t, limits, len(DefaultRateLimits))
	assert.Equal(t, model.RateLimitConfig{MaxRequests: 10, Window: time.Hour, DailyLimit: 200}, limits[model.PlatformInstagram])
	assert.Equal(t, model.RateLimitConfig{MaxRequests: 300, Window: time.Minute, DailyLimit: 50}, limits[model.PlatformTwitter])
	assert.Equal(t, DefaultRateLimits[model.PlatformYouTube], limits[model.PlatformYouTube])
}

func TestLoadEnvFromFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SP_TEST_NEW=from-file\nSP_TEST_SET=from-file\n"), 0o600))
	t.Setenv("SP_TEST_SET", "from-env")
	defer os.Unsetenv("SP_TEST_NEW")

	loaded := LoadEnvFromFile(path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "from-file", os.Getenv("SP_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("SP_TEST_SET"))
}

func TestConfiguration_Loaded(t *testing.T) {
	require.NotNil(t, &C)
	assert.NotZero(t, C.App.Port)
	assert.NotEmpty(t, C.Database.Vendor)
}
