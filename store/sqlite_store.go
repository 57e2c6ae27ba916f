package store

import (
	"context"
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jboverfelt/activetrack/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	snapshot_date TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_snapshots_date ON daily_snapshots(snapshot_date);
`

const upsertSnapshot = `
INSERT INTO daily_snapshots (snapshot_date, payload)
VALUES (?, ?)
ON CONFLICT(snapshot_date) DO UPDATE SET payload=excluded.payload`

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at path and makes sure
// the snapshot schema exists
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &sqliteStore{db: db}

	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	log.Infof("snapshot store initialized at %s", path)

	return s, nil
}

func (s *sqliteStore) initSchema(ctx context.Context) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, schema)
		return err
	})
}

func (s *sqliteStore) Upsert(ctx context.Context, date string, snap models.Snapshot) error {
	if err := validDate(date); err != nil {
		return err
	}

	snap.Date = date
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}

	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertSnapshot, date, string(payload)); err != nil {
			return errors.Wrapf(err, "failed to store snapshot %s", date)
		}
		return nil
	})
}

func (s *sqliteStore) List(ctx context.Context, limit int) ([]models.Snapshot, error) {
	query := "SELECT snapshot_date, payload FROM daily_snapshots ORDER BY snapshot_date DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query snapshots")
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		var date, payload string
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, errors.Wrap(err, "failed to scan snapshot")
		}

		var snap models.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, errors.Wrapf(err, "failed to decode snapshot %s", date)
		}

		snap.Date = date
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read snapshots")
	}

	return snaps, nil
}

func (s *sqliteStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	return latest(ctx, s)
}

func (s *sqliteStore) ClearAll(ctx context.Context) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM daily_snapshots"); err != nil {
			return errors.Wrap(err, "failed to delete snapshots")
		}
		return nil
	})
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
