package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangasync/internal/storage"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, appName)
}

func TestLoadMergedWithoutProfile(t *testing.T) {
	isolate(t)

	cfg, used, err := LoadMerged(Options{})
	require.NoError(t, err)

	assert.Contains(t, used, "default config in memory")
	assert.Empty(t, cfg.Selector)
	assert.Equal(t, 500*time.Millisecond, cfg.PageDelay.Duration)
	assert.Equal(t, 1, cfg.MinPages)
}

func TestLoadMergedPrecedence(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Selector = ".reading-content img"
	cfg.PageDelay = Duration{time.Second}
	cfg.Storage.Bucket = "from-yaml"
	require.NoError(t, SaveYAML(cfg, path))

	t.Setenv("MANGASYNC_S3_BUCKET", "from-env")
	t.Setenv("MANGASYNC_S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("MANGASYNC_TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MANGASYNC_MIN_PAGES", "2")

	got, used, err := LoadMerged(Options{MinPages: 5})
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, ".reading-content img", got.Selector)
	assert.Equal(t, time.Second, got.PageDelay.Duration)
	assert.Equal(t, "from-env", got.Storage.Bucket)
	assert.Equal(t, "secret", got.Storage.SecretAccessKey)
	assert.Equal(t, "123:abc", got.TelegramToken)
	assert.Equal(t, 5, got.MinPages)

	noDelay := time.Duration(0)
	got, _, err = LoadMerged(Options{PageDelay: &noDelay})
	require.NoError(t, err)
	assert.Zero(t, got.PageDelay.Duration)
}

func TestSaveYAMLOmitsSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	cfg := DefaultConfig()
	cfg.TelegramToken = "123:abc"
	cfg.Storage.SecretAccessKey = "s3cr3t"

	require.NoError(t, SaveYAML(cfg, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "123:abc")
	assert.NotContains(t, string(b), "s3cr3t")
	assert.Contains(t, string(b), "page_delay: 500ms")

	back, err := loadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.PageDelay, back.PageDelay)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate(NeedStorage | NeedDatabase | NeedTelegram)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANGASYNC_TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "storage.bucket")

	cfg.Storage = storageFixture()
	cfg.DatabaseURL = "postgres://localhost/manga"
	cfg.TelegramToken = "t"
	assert.NoError(t, cfg.Validate(NeedStorage|NeedDatabase|NeedTelegram))
	assert.NoError(t, DefaultConfig().Validate(0))
}

func TestValidateRequiresSelector(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate(NeedSelector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANGASYNC_SELECTOR")

	cfg.Selector = "  "
	require.Error(t, cfg.Validate(NeedSelector))

	cfg.Selector = ".reading-content img"
	assert.NoError(t, cfg.Validate(NeedSelector))
}

func TestProfiles(t *testing.T) {
	isolate(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)
	_, err = InitDefaultConfig()
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = CreateConfig("work")
	require.NoError(t, err)
	_, err = CreateConfig("work")
	assert.Error(t, err)
	_, err = CreateConfig("../escape")
	assert.Error(t, err)

	require.NoError(t, SwitchConfig("work"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "work", label)

	require.NoError(t, RenameConfig("work", "home"))
	label, _ = CurrentLabel()
	assert.Equal(t, "home", label)

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.Equal(t, "home", list[1].Label)
	assert.True(t, list[1].Active)

	assert.Error(t, RemoveConfig("Default"))
	require.NoError(t, RemoveConfig("home"))
	label, _ = CurrentLabel()
	assert.Equal(t, "Default", label)
}

func storageFixture() storage.Config {
	return storage.Config{
		Endpoint:        "https://s3.example.com",
		Bucket:          "manga",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}
}
