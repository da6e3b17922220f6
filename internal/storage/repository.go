// Package storage records which datasets were loaded and when. Only
// metadata is kept; rows never leave memory.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Load origins.
const (
	OriginUpload  = "upload"
	OriginDefault = "default"
)

// LoadRecord is one row of load history.
type LoadRecord struct {
	ID       int64
	Hash     string
	Source   string
	Origin   string
	Rows     int
	CacheHit bool
	LoadedAt time.Time
}

// SQLiteRepository keeps load history in a SQLite file.
type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version applied when the repository was
// opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RecordLoad appends rec to the history and returns its id. A zero
// LoadedAt is stamped with the current time.
func (r *SQLiteRepository) RecordLoad(ctx context.Context, rec LoadRecord) (int64, error) {
	if rec.Origin != OriginUpload && rec.Origin != OriginDefault {
		return 0, fmt.Errorf("invalid origin %q", rec.Origin)
	}
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO dataset_loads (hash, source, origin, row_count, cache_hit, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Hash, rec.Source, rec.Origin, rec.Rows, rec.CacheHit,
		rec.LoadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert load: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("load id: %w", err)
	}
	return id, nil
}

// RecentLoads returns up to limit records, newest first.
func (r *SQLiteRepository) RecentLoads(ctx context.Context, limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, hash, source, origin, row_count, cache_hit, loaded_at
		 FROM dataset_loads
		 ORDER BY loaded_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	var out []LoadRecord
	for rows.Next() {
		var (
			rec      LoadRecord
			loadedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Hash, &rec.Source, &rec.Origin, &rec.Rows, &rec.CacheHit, &loadedAt); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		rec.LoadedAt, err = time.Parse(time.RFC3339Nano, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("parse loaded_at %q: %w", loadedAt, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loads: %w", err)
	}
	return out, nil
}

// CountByHash returns how many times content with hash was loaded.
func (r *SQLiteRepository) CountByHash(ctx context.Context, hash string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dataset_loads WHERE hash = ?`, hash).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count loads: %w", err)
	}
	return n, nil
}
