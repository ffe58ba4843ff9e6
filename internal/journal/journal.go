package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type EventType string

const (
	EventDayTick        EventType = "day_tick"
	EventStagingBound   EventType = "staging_bound"
	EventDynastyWiped   EventType = "dynasty_wiped"
	EventDynastyRevived EventType = "dynasty_revived"
	EventPurchase       EventType = "purchase"
	EventSiege          EventType = "siege"
	EventWipeAll        EventType = "wipe_all"
)

type Event struct {
	ID        int64     `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

// Journal is an append-only SQLite log of notable dynasty events. It is an
// observer: the game path must keep working when the journal is missing or
// failing, so callers treat Record errors as log-and-continue.
type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		at TIMESTAMP NOT NULL,
		metadata TEXT NOT NULL DEFAULT ''
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one event. Metadata is stored as a JSON object.
func (j *Journal) Record(ctx context.Context, typ EventType, metadata map[string]any) error {
	if j == nil || j.db == nil {
		return nil
	}
	meta := ""
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode event metadata: %w", err)
		}
		meta = string(raw)
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (type, at, metadata) VALUES (?, ?, ?)`,
		string(typ), time.Now().UTC(), meta)
	if err != nil {
		return fmt.Errorf("record %s event: %w", typ, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, type, at, metadata FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.Timestamp, &e.Metadata); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
