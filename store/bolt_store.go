package store

import (
	"context"

	"github.com/boltdb/bolt"
	json "github.com/goccy/go-json"
	"github.com/jboverfelt/activetrack/models"
	"github.com/pkg/errors"
)

const snapshotBucket = "snapshots"

type boltStore struct {
	db *bolt.DB
}

// NewBoltStore opens the BoltDB file at path and returns
// a Store backed by it
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})

	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create snapshot bucket")
	}

	return &boltStore{db: db}, nil
}

// Bolt allows a single writer, so a Put inside Update is
// already atomic with respect to the date key
func (b *boltStore) Upsert(_ context.Context, date string, snap models.Snapshot) error {
	if err := validDate(date); err != nil {
		return err
	}

	snap.Date = date

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))

		if err != nil {
			return err
		}

		jsonStr, err := json.Marshal(snap)

		if err != nil {
			return err
		}

		return bucket.Put([]byte(date), jsonStr)
	})
}

// ISO dates sort lexicographically, so walking the cursor
// backwards yields newest first
func (b *boltStore) List(_ context.Context, limit int) ([]models.Snapshot, error) {
	var snaps []models.Snapshot

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))

		// if bucket hasn't been created, then there are no snapshots
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(snaps) >= limit {
				break
			}

			var s models.Snapshot
			if err := json.Unmarshal(v, &s); err != nil {
				return errors.Wrapf(err, "failed to decode snapshot %s", k)
			}

			s.Date = string(k)
			snaps = append(snaps, s)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return snaps, nil
}

func (b *boltStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	return latest(ctx, b)
}

func (b *boltStore) ClearAll(_ context.Context) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(snapshotBucket))

		if err != nil && err != bolt.ErrBucketNotFound {
			return err
		}

		_, err = tx.CreateBucket([]byte(snapshotBucket))

		return err
	})
}

func (b *boltStore) Close() error {
	return b.db.Close()
}
