package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Lookup outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

const defaultLimit = 20

// Entry is one recorded lookup.
type Entry struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path,omitempty"`
	CommitHash string    `json:"commit_hash,omitempty"`
	Outcome    string    `json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

// Popular is a note name with its number of successful lookups.
type Popular struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Record appends e. A zero CreatedAt is set to the current time.
func (db *DB) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO lookups (name, path, commit_hash, outcome, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Name, e.Path, e.CommitHash, e.Outcome, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the latest lookups, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, path, commit_hash, outcome, created_at
		FROM lookups
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return scanEntries(rows)
}

// likeEscaper quotes LIKE wildcards so queries match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns lookups whose name contains query, newest first.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, path, commit_hash, outcome, created_at
		FROM lookups
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY id DESC
		LIMIT ?
	`, "%"+likeEscaper.Replace(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	return scanEntries(rows)
}

// Popular returns the most frequently found note names.
func (db *DB) Popular(ctx context.Context, limit int) ([]Popular, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, count(*) AS n
		FROM lookups
		WHERE outcome = ?
		GROUP BY name
		ORDER BY n DESC, name ASC
		LIMIT ?
	`, OutcomeFound, limit)
	if err != nil {
		return nil, fmt.Errorf("history: popular: %w", err)
	}
	defer rows.Close()

	var out []Popular
	for rows.Next() {
		var p Popular
		if err := rows.Scan(&p.Name, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Path, &e.CommitHash, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
