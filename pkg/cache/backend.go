package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by backend Get when a key is absent. Cache maps it
// to a plain (nil, false) result; any other error propagates to the caller
// (spec §4.2 failure semantics).
var ErrNotFound = errors.New("cache: key not found")

// Backend is a raw key/value store keyed by hex-digest strings. Cache
// layers content-addressed deduplication and compression on top of it, so
// both implementations below stay deliberately simple.
type Backend interface {
	Get(key string) ([]byte, error) // ErrNotFound if absent
	MGet(keys []string) ([][]byte, error) // nil entry, in input order, for absent keys
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
	DropAll() error
}

// sqliteBackend implements Backend on top of a single-table SQLite
// database, the pure-Go driver keeping the engine free of cgo.
type sqliteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite-backed cache at path.
func OpenSQLite(path string) (Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening sqlite database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating kv table: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get: %w", err)
	}
	return value, nil
}

func (b *sqliteBackend) MGet(keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		placeholders[i] = "?"
		args[i] = k
	}
	query := fmt.Sprintf(`SELECT key, value FROM kv WHERE key IN (%s)`, joinPlaceholders(placeholders))

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("cache: mget: %w", err)
	}
	defer rows.Close()

	found := make(map[string][]byte, len(keys))
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("cache: mget scan: %w", err)
		}
		found[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: mget rows: %w", err)
	}

	for i, k := range keys {
		out[i] = found[k] // preserves input order; missing keys stay nil
	}
	return out, nil
}

func (b *sqliteBackend) Put(key string, value []byte) error {
	_, err := b.db.Exec(`REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Delete(key string) error {
	_, err := b.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error { return b.db.Close() }

func (b *sqliteBackend) DropAll() error {
	_, err := b.db.Exec(`DELETE FROM kv`)
	if err != nil {
		return fmt.Errorf("cache: drop all: %w", err)
	}
	return nil
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += "," + p
	}
	return out
}

// dirBackend implements Backend as a flat directory of content-addressed
// files, the key's first three bytes (six hex characters) split into
// nested subdirectories: ab/cd/ef/abcdef... (spec §4.2).
type dirBackend struct {
	root string
}

// OpenDir opens (creating if necessary) a directory-backed cache at root.
func OpenDir(root string) (Backend, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("cache: creating cache directory: %w", err)
	}
	return &dirBackend{root: root}, nil
}

func (b *dirBackend) pathFor(key string) string {
	if len(key) < 6 {
		return filepath.Join(b.root, key)
	}
	return filepath.Join(b.root, key[0:2], key[2:4], key[4:6], key)
}

func (b *dirBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get: %w", err)
	}
	return data, nil
}

func (b *dirBackend) MGet(keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := b.Get(k)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *dirBackend) Put(key string, value []byte) error {
	path := b.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cache: creating cache subdirectory: %w", err)
	}
	// Write via a temp file in the same directory then rename, so a
	// concurrent reader never observes a partially written value.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("cache: writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cache: renaming temp file: %w", err)
	}
	return nil
}

func (b *dirBackend) Delete(key string) error {
	err := os.Remove(b.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

func (b *dirBackend) Close() error { return nil }

func (b *dirBackend) DropAll() error {
	if err := os.RemoveAll(b.root); err != nil {
		return fmt.Errorf("cache: drop all: %w", err)
	}
	return os.MkdirAll(b.root, 0755)
}
