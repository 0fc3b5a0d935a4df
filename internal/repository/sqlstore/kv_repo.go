package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"docdesk/internal/port"
)

type kvRepo struct {
	db        *sqlx.DB
	namespace string
}

// NewKVRepo creates a KeyValueStore scoped to namespace.
func NewKVRepo(db *sqlx.DB, namespace string) port.KeyValueStore {
	return &kvRepo{db: db, namespace: namespace}
}

func (r *kvRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	query := r.db.Rebind("SELECT value FROM kv_entries WHERE namespace = ? AND entry_key = ?")
	err := r.db.GetContext(ctx, &value, query, r.namespace, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrKeyNotFound
		}
		return nil, fmt.Errorf("kvRepo.Get: %w", err)
	}
	return value, nil
}

func (r *kvRepo) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query := r.db.Rebind(`INSERT INTO kv_entries (namespace, entry_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, entry_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query, r.namespace, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("kvRepo.Set: %w", err)
	}
	return nil
}

func (r *kvRepo) Delete(ctx context.Context, key string) error {
	query := r.db.Rebind("DELETE FROM kv_entries WHERE namespace = ? AND entry_key = ?")
	if _, err := r.db.ExecContext(ctx, query, r.namespace, key); err != nil {
		return fmt.Errorf("kvRepo.Delete: %w", err)
	}
	return nil
}

func (r *kvRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	query := r.db.Rebind(`SELECT entry_key FROM kv_entries
		WHERE namespace = ? AND entry_key LIKE ? ESCAPE '\'
		ORDER BY entry_key`)
	err := r.db.SelectContext(ctx, &keys, query, r.namespace, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("kvRepo.Keys: %w", err)
	}
	return keys, nil
}

func (r *kvRepo) Clear(ctx context.Context) error {
	query := r.db.Rebind("DELETE FROM kv_entries WHERE namespace = ?")
	if _, err := r.db.ExecContext(ctx, query, r.namespace); err != nil {
		return fmt.Errorf("kvRepo.Clear: %w", err)
	}
	return nil
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
