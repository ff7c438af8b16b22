// Package store provides the SQLite persistence backend. Hospitals and
// emergency requests are stored as JSON documents keyed by id; the ledger is
// the source of truth at runtime and writes through on every mutation, so the
// store only needs durable replace-by-key semantics.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/model"
	"github.com/MarySophiaR/CuraNode-Healthcare-Hackathon/core/storage"
)

// Config selects the persistence backend.
type Config struct {
	// Backend is "sqlite" or "memory".
	Backend string `json:"backend"`
	// Path is the SQLite database file.
	Path string `json:"path"`
}

// SetDefaults applies the standard backend and path.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" {
		c.Path = "curanode.db"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "sqlite", "memory":
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

// Open creates the configured backend.
func Open(cfg Config) (storage.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == "memory" {
		return storage.NewMemStore(), nil
	}
	return NewSQLiteStore(cfg.Path)
}

// SQLiteStore persists hospitals and emergencies to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer: the ledger serializes writes per holder and SQLite
	// serializes across holders.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS hospitals (
        id TEXT PRIMARY KEY,
        doc TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS emergencies (
        id TEXT PRIMARY KEY,
        holder_id TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        doc TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_emergencies_holder ON emergencies(holder_id);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// LoadHospitals returns every persisted hospital.
func (s *SQLiteStore) LoadHospitals(ctx context.Context) ([]*model.Hospital, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM hospitals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Hospital
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var h model.Hospital
		if err := json.Unmarshal([]byte(doc), &h); err != nil {
			return nil, fmt.Errorf("unmarshal hospital: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

// SaveHospital upserts the full hospital document.
func (s *SQLiteStore) SaveHospital(ctx context.Context, h *model.Hospital) error {
	doc, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hospitals (id, doc) VALUES (?, ?)
         ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		h.ID, string(doc))
	return err
}

// SaveEmergency upserts the full emergency request document.
func (s *SQLiteStore) SaveEmergency(ctx context.Context, e *model.EmergencyRequest) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO emergencies (id, holder_id, created_at, doc) VALUES (?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET holder_id = excluded.holder_id, doc = excluded.doc`,
		e.ID, e.HolderID, e.CreatedAt.Unix(), string(doc))
	return err
}

// GetEmergency returns the request by id, or a NotFoundError.
func (s *SQLiteStore) GetEmergency(ctx context.Context, id string) (*model.EmergencyRequest, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM emergencies WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Kind: "emergency", ID: id}
	}
	if err != nil {
		return nil, err
	}
	var e model.EmergencyRequest
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		return nil, fmt.Errorf("unmarshal emergency: %w", err)
	}
	return &e, nil
}

// ListEmergencies returns the requests directed at one holder, oldest first.
func (s *SQLiteStore) ListEmergencies(ctx context.Context, holderID string) ([]*model.EmergencyRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM emergencies WHERE holder_id = ? ORDER BY created_at, id`, holderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.EmergencyRequest
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var e model.EmergencyRequest
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, fmt.Errorf("unmarshal emergency: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
