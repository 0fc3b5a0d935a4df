package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/config"
	"docdesk/internal/port"
	"docdesk/internal/repository/sqlstore"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := &config.CacheConfig{
		Driver:     sqlstore.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "cache.db"),
	}
	db, err := sqlstore.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestKVRepo_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewKVRepo(openTestDB(t), "local")

	_, err := repo.Get(ctx, "docparser_api_key")
	assert.ErrorIs(t, err, port.ErrKeyNotFound)

	require.NoError(t, repo.Set(ctx, "docparser_api_key", []byte("dev_123")))
	require.NoError(t, repo.Set(ctx, "docparser_api_key", []byte("live_456")))

	got, err := repo.Get(ctx, "docparser_api_key")
	require.NoError(t, err)
	assert.Equal(t, "live_456", string(got))
}

func TestKVRepo_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := sqlstore.NewKVRepo(db, "session:a")
	b := sqlstore.NewKVRepo(db, "session:b")

	require.NoError(t, a.Set(ctx, "docparser_job_1", []byte(`{"job_id":"1"}`)))

	_, err := b.Get(ctx, "docparser_job_1")
	assert.ErrorIs(t, err, port.ErrKeyNotFound)

	require.NoError(t, b.Set(ctx, "docparser_job_2", []byte(`{}`)))
	require.NoError(t, a.Clear(ctx))

	keys, err := b.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"docparser_job_2"}, keys)
}

func TestKVRepo_KeysEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	repo := sqlstore.NewKVRepo(openTestDB(t), "local")

	for _, k := range []string{"docparser_job_1", "docparser_job_2", "docparserXjobX3", "lastViewedJobId"} {
		require.NoError(t, repo.Set(ctx, k, []byte("x")))
	}

	keys, err := repo.Keys(ctx, "docparser_job_")
	require.NoError(t, err)
	assert.Equal(t, []string{"docparser_job_1", "docparser_job_2"}, keys)

	require.NoError(t, repo.Delete(ctx, "docparser_job_1"))
	keys, err = repo.Keys(ctx, "docparser_job_")
	require.NoError(t, err)
	assert.Equal(t, []string{"docparser_job_2"}, keys)
}

func TestKVRepo_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := &config.CacheConfig{
		Driver:     sqlstore.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "cache.db"),
	}

	db, err := sqlstore.NewDB(cfg)
	require.NoError(t, err)
	require.NoError(t, sqlstore.NewKVRepo(db, "local").Set(ctx, "k", []byte("v")))
	require.NoError(t, db.Close())

	db, err = sqlstore.NewDB(cfg)
	require.NoError(t, err)
	defer db.Close()

	got, err := sqlstore.NewKVRepo(db, "local").Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
