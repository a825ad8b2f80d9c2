// Package history provides PostgreSQL-backed storage for messages the
// renderer has displayed. Each row captures the message text, where it came
// from, and when it went on the badge, so operators can audit what was
// shown.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store manages display history in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Entry represents a single displayed message.
type Entry struct {
	ID          string
	Text        string
	Source      string // "api", "summary", or "weather"
	Units       int    // display units occupied on the badge
	DisplayedAt time.Time
}

// NewStore creates a history store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts a displayed message.
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	const query = `
		INSERT INTO display_history (id, text, source, units, displayed_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Text,
		entry.Source,
		entry.Units,
		entry.DisplayedAt,
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns the most recently displayed messages, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
		SELECT id, text, source, units, displayed_at
		FROM display_history
		ORDER BY displayed_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Text, &e.Source, &e.Units, &e.DisplayedAt); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return entries, nil
}

// CountSince returns how many messages were displayed in the given window.
func (s *Store) CountSince(ctx context.Context, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM display_history
		WHERE displayed_at >= NOW() - make_interval(secs => $1)`

	var count int
	if err := s.db.QueryRowContext(ctx, query, window.Seconds()).Scan(&count); err != nil {
		return 0, fmt.Errorf("history: count since: %w", err)
	}
	return count, nil
}
