package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot describes a stored config.
type Snapshot struct {
	Name      string    `json:"name" doc:"Snapshot name" example:"night-ops"`
	StyleType string    `json:"styleType" doc:"Selected style of the snapshot" example:"dark"`
	SavedAt   time.Time `json:"savedAt" doc:"When the snapshot was last written"`
}

// SnapshotStore keeps named map style configs.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore wraps db. Call Migrate before use.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Migrate creates the snapshot table.
func (s *SnapshotStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS mapstyle_snapshots (
		name VARCHAR PRIMARY KEY,
		style_type VARCHAR NOT NULL,
		config VARCHAR NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migrate snapshots: %w", err)
	}
	return nil
}

// Save writes cfg under name, replacing an existing snapshot.
func (s *SnapshotStore) Save(ctx context.Context, name string, cfg mapstyle.SavedConfig) (Snapshot, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot %q: %w", name, err)
	}

	snap := Snapshot{Name: name, SavedAt: time.Now().UTC().Truncate(time.Microsecond)}
	if cfg.MapStyle != nil {
		snap.StyleType = cfg.MapStyle.StyleType
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO mapstyle_snapshots (name, style_type, config, saved_at) VALUES (?, ?, ?, ?)`,
		snap.Name, snap.StyleType, string(data), snap.SavedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return snap, nil
}

// Load returns the config stored under name.
func (s *SnapshotStore) Load(ctx context.Context, name string) (mapstyle.SavedConfig, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM mapstyle_snapshots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return mapstyle.SavedConfig{}, fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return mapstyle.SavedConfig{}, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	var cfg mapstyle.SavedConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return mapstyle.SavedConfig{}, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return cfg, nil
}

// List returns all snapshots ordered by name.
func (s *SnapshotStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, style_type, saved_at FROM mapstyle_snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Name, &snap.StyleType, &snap.SavedAt); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Delete removes the snapshot stored under name.
func (s *SnapshotStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mapstyle_snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	return nil
}
