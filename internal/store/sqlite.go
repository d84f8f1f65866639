// Package store provides the on-disk archive for alerts and dispatcher
// statistics. The polling core never blocks on it; the CLI wires it in as
// an observer.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
)

// SQLiteStore archives alert events and notification statistics snapshots.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the archive database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Wrapf(err, "opening database at %s", dbPath)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "initializing schema")
	}
	return s, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Alert events archive
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		occurred_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_occurred ON alerts(occurred_at);

	-- Notification statistics snapshots
	CREATE TABLE IF NOT EXISTS stats_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		total_attempts INTEGER NOT NULL,
		successes INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		debounced INTEGER NOT NULL,
		forced INTEGER NOT NULL,
		taken_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveAlert archives one alert event.
func (s *SQLiteStore) SaveAlert(ctx context.Context, e models.AlertEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (kind, message, occurred_at) VALUES (?, ?, ?)`,
		string(e.Kind), e.Message, e.OccurredAt.UTC())
	if err != nil {
		return apperrors.Wrap(err, "saving alert")
	}
	return nil
}

// RecentAlerts returns up to n archived alerts, newest first.
func (s *SQLiteStore) RecentAlerts(ctx context.Context, n int) ([]models.AlertEvent, error) {
	if n <= 0 {
		n = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, message, occurred_at FROM alerts ORDER BY occurred_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, apperrors.Wrap(err, "querying alerts")
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var e models.AlertEvent
		var kind string
		if err := rows.Scan(&kind, &e.Message, &e.OccurredAt); err != nil {
			return nil, apperrors.Wrap(err, "scanning alert")
		}
		e.Kind = models.AlertKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

// StatsSnapshot is one archived view of the dispatcher counters.
type StatsSnapshot struct {
	TotalAttempts uint64
	Successes     uint64
	Failures      uint64
	Debounced     uint64
	Forced        uint64
	TakenAt       time.Time
}

// SaveStatsSnapshot archives one dispatcher statistics snapshot.
func (s *SQLiteStore) SaveStatsSnapshot(ctx context.Context, snap StatsSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stats_snapshots (total_attempts, successes, failures, debounced, forced, taken_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.TotalAttempts, snap.Successes, snap.Failures, snap.Debounced, snap.Forced, snap.TakenAt.UTC())
	if err != nil {
		return apperrors.Wrap(err, "saving stats snapshot")
	}
	return nil
}

// LatestStatsSnapshot returns the most recently archived dispatcher
// statistics, or nil when none have been saved yet.
func (s *SQLiteStore) LatestStatsSnapshot(ctx context.Context) (*StatsSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT total_attempts, successes, failures, debounced, forced, taken_at
		 FROM stats_snapshots ORDER BY taken_at DESC LIMIT 1`)

	var snap StatsSnapshot
	err := row.Scan(&snap.TotalAttempts, &snap.Successes, &snap.Failures,
		&snap.Debounced, &snap.Forced, &snap.TakenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "querying stats snapshot")
	}
	return &snap, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
