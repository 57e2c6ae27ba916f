package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jboverfelt/activetrack/models"
	"github.com/pkg/errors"
)

// DateLayout is the format of snapshot keys
const DateLayout = "2006-01-02"

// Supported drivers
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Store represents a store of Snapshots keyed by calendar date.
// Store must be safe for use by concurrent goroutines.
type Store interface {
	// Upsert inserts the snapshot for date or replaces the stored one
	Upsert(ctx context.Context, date string, snap models.Snapshot) error
	// List returns snapshots newest first, capped at limit when limit > 0
	List(ctx context.Context, limit int) ([]models.Snapshot, error)
	// Latest returns the newest snapshot, or nil when the store is empty
	Latest(ctx context.Context) (*models.Snapshot, error)
	// ClearAll deletes every snapshot
	ClearAll(ctx context.Context) error
	Close() error
}

// Config selects and locates a Store backend
type Config struct {
	Driver string `validate:"omitempty,oneof=sqlite bolt memory"`
	Path   string
}

// Open creates the Store described by cfg, initializing its schema
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewInMemoryStore(), nil
	case DriverBolt, DriverSQLite, "":
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.Path == "" {
		return nil, errors.New("store path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	if cfg.Driver == DriverBolt {
		return NewBoltStore(cfg.Path)
	}

	return NewSQLiteStore(cfg.Path)
}

func validDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return errors.Wrapf(err, "invalid snapshot date %q", date)
	}

	return nil
}

// latest serves Latest as List(1)
func latest(ctx context.Context, s Store) (*models.Snapshot, error) {
	snaps, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}

	if len(snaps) == 0 {
		return nil, nil
	}

	return &snaps[0], nil
}
