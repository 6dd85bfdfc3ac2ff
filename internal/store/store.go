// Package store persists an Environment's serialized state (spec.md
// §6 "Persisted state") to a SQLite file, the way a long-running
// `jamplate watch` process survives a restart. Grounded on the
// teacher's core/sqlite.Open wrapper (pure-Go modernc.org/sqlite
// driver only — see DESIGN.md for why the CGO alternate is dropped)
// and core/capsule's xz pack/unpack pair: the JSON snapshot is
// xz-compressed before it is written to the BLOB column, the same
// way a capsule's manifest is xz-compressed before landing in its
// archive.
package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"
	_ "modernc.org/sqlite"

	"github.com/jamplate/jamplate/internal/environment"
	"github.com/jamplate/jamplate/internal/errs"
)

// DriverName is always "sqlite", mirroring core/sqlite.DriverName's
// "use Open instead of sql.Open directly" contract.
const DriverName = "sqlite"

// Open opens (creating if necessary) a SQLite database at path and
// ensures the environment_snapshot table exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, errs.NewIO("open", path, err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS environment_snapshot (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			payload    BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// Save captures env's current Snapshot, xz-compresses its JSON
// encoding, and writes it to db as the single persisted row — a
// `jamplate watch` process calls this on a timer (every five poll
// intervals) so a restart resumes from the last saved state.
func Save(db *sql.DB, env *environment.Environment) error {
	snap, err := env.Snapshot()
	if err != nil {
		return fmt.Errorf("store: snapshot environment: %w", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}
	compressed, err := compress(raw)
	if err != nil {
		return fmt.Errorf("store: compress snapshot: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO environment_snapshot (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, compressed, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	return nil
}

// Load reads the persisted Snapshot back from db and decompresses it.
// Returns errs.ErrNotFound if no snapshot was ever saved.
func Load(db *sql.DB) (*environment.Snapshot, error) {
	var payload []byte
	err := db.QueryRow(`SELECT payload FROM environment_snapshot WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("no persisted environment snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("store: read snapshot: %w", err)
	}
	raw, err := decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("store: decompress snapshot: %w", err)
	}
	var snap environment.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("store: unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Restore reads the persisted Snapshot from db and restores it into
// env, a one-call combination of Load and Environment.Restore for the
// `jamplate watch` startup path.
func Restore(db *sql.DB, env *environment.Environment) error {
	snap, err := Load(db)
	if err != nil {
		return err
	}
	return env.Restore(snap)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
