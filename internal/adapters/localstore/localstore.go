// Package localstore is the durable fallback used when no database is
// configured. It persists whole collections as JSON values in a single sqlite
// key/value table, one key per collection, and knows nothing about principals:
// the machine is the account.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/weekplanner/core/internal/domain/entities"
)

const (
	keyTasks      = "planner/tasks"
	keyCategories = "planner/categories"
	keyPIN        = "planner/pin"
)

// Store is a sqlite-backed key/value store holding the planner's collections.
type Store struct {
	db *sqlx.DB
}

// Open opens (and if needed creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	// modernc's driver serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent access.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the store is reachable.
func (s *Store) HealthCheck() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("local store health check failed: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, out interface{}) (bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM kv WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}

	return true, nil
}

func (s *Store) put(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	query := `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, query, key, string(raw)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (s *Store) loadTasks(ctx context.Context) ([]entities.Task, error) {
	tasks := []entities.Task{}
	if _, err := s.get(ctx, keyTasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) saveTasks(ctx context.Context, tasks []entities.Task) error {
	return s.put(ctx, keyTasks, tasks)
}

func (s *Store) loadCategories(ctx context.Context) ([]entities.Category, error) {
	categories := []entities.Category{}
	if _, err := s.get(ctx, keyCategories, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) saveCategories(ctx context.Context, categories []entities.Category) error {
	return s.put(ctx, keyCategories, categories)
}
