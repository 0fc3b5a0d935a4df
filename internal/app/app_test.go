package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/app"
	"docdesk/internal/config"
	"docdesk/internal/domain"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		API: config.APIConfig{DefaultKey: "dev_123", AuthHeader: domain.AuthHeaderBearer, ListLimit: 10},
		Cache: config.CacheConfig{
			Driver:     driver,
			SQLitePath: filepath.Join(dir, "docdesk.db"),
		},
		Downloads: config.DownloadsConfig{Sink: "local", Dir: filepath.Join(dir, "downloads")},
		Notify:    config.NotifyConfig{Provider: "noop"},
	}
}

func TestNew_MemoryDriver(t *testing.T) {
	ctx := context.Background()
	a, err := app.New(ctx, testConfig(t, app.DriverMemory), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.NotEmpty(t, a.SessionID)

	ep, err := a.Client.Endpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", ep.BaseURL)
	assert.Equal(t, "dev_123", ep.Credential.Secret)
}

func TestNew_SQLiteKeepsSessionAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "sqlite")

	first, err := app.New(ctx, cfg, nil)
	require.NoError(t, err)
	first.Client.Cache.StoreJob(ctx, &domain.Job{ID: "j1", Status: domain.JobStatusQueued})
	require.NoError(t, first.Client.Credentials.SetAPIKey(ctx, "sk_saved"))
	sessionID := first.SessionID
	first.Close()

	second, err := app.New(ctx, cfg, nil)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, sessionID, second.SessionID)
	assert.NotNil(t, second.Client.Cache.LoadJob(ctx, "j1"))

	newID, err := second.ResetSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, sessionID, newID)
	assert.Nil(t, second.Client.Cache.LoadJob(ctx, "j1"), "a new session starts with an empty cache")

	ep, err := second.Client.Endpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk_saved", ep.Credential.Secret, "credentials outlive cache sessions")
}

func TestNew_RejectsUnknownSink(t *testing.T) {
	cfg := testConfig(t, app.DriverMemory)
	cfg.Downloads.Sink = "ftp"

	_, err := app.New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig(t, app.DriverMemory)

	n, err := app.NewNotifier(cfg)
	require.NoError(t, err)
	assert.NotNil(t, n)

	cfg.Notify.Provider = "pigeon"
	_, err = app.NewNotifier(cfg)
	assert.Error(t, err)
}
