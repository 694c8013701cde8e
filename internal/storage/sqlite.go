// Package storage persists finished resolutions in SQLite so later runs can
// rebuild their ledger from them. The ledger itself is never persisted; it
// is always recomputed from these records.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage opens (or creates) the resolutions database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Commit upserts one finished resolution for a period. Re-running a period
// overwrites that period's row rather than inflating occurrence counts.
func (s *SQLiteStorage) Commit(ctx context.Context, result model.ResolutionResult, periodKey string) error {
	if result.RawKey == "" || result.CanonicalName == "" {
		return fmt.Errorf("%w: resolution missing raw key or name", errInvalidResolution)
	}
	if periodKey == "" {
		return fmt.Errorf("%w: empty period key", errInvalidResolution)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (raw_key, canonical_name, period_key, tier, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(raw_key, period_key) DO UPDATE SET
			canonical_name = excluded.canonical_name,
			tier = excluded.tier,
			source = excluded.source`,
		result.RawKey, result.CanonicalName, periodKey, string(result.Tier), string(result.Source))
	if err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}
	return nil
}

// Records returns all committed resolutions as history records, ordered by
// period then raw key so ledger rebuilds are deterministic.
func (s *SQLiteStorage) Records(ctx context.Context) ([]service.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT raw_key, canonical_name, period_key
		FROM resolutions
		ORDER BY period_key, raw_key, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []service.HistoryRecord
	for rows.Next() {
		var r service.HistoryRecord
		if err := rows.Scan(&r.RawKey, &r.CanonicalName, &r.PeriodKey); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resolutions: %w", err)
	}
	return records, nil
}

// MerchantStats summarizes committed resolutions per canonical name.
func (s *SQLiteStorage) MerchantStats(ctx context.Context) ([]service.MerchantStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_name, COUNT(*), COUNT(DISTINCT period_key)
		FROM resolutions
		GROUP BY canonical_name
		ORDER BY COUNT(*) DESC, canonical_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []service.MerchantStat
	for rows.Next() {
		var stat service.MerchantStat
		if err := rows.Scan(&stat.CanonicalName, &stat.Occurrences, &stat.Periods); err != nil {
			return nil, fmt.Errorf("failed to scan merchant stat: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate merchant stats: %w", err)
	}
	return stats, nil
}
