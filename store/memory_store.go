package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jboverfelt/activetrack/models"
)

type inMemoryStore struct {
	snapshots map[string]models.Snapshot
	mutex     *sync.RWMutex
}

// NewInMemoryStore creates a new in memory snapshot store
func NewInMemoryStore() Store {
	return &inMemoryStore{
		snapshots: make(map[string]models.Snapshot),
		mutex:     &sync.RWMutex{},
	}
}

func (i *inMemoryStore) Upsert(_ context.Context, date string, snap models.Snapshot) error {
	if err := validDate(date); err != nil {
		return err
	}

	i.mutex.Lock()
	defer i.mutex.Unlock()

	snap.Date = date
	i.snapshots[date] = snap

	return nil
}

func (i *inMemoryStore) List(_ context.Context, limit int) ([]models.Snapshot, error) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	snaps := make([]models.Snapshot, 0, len(i.snapshots))
	for _, s := range i.snapshots {
		snaps = append(snaps, s)
	}

	sort.Slice(snaps, func(a, b int) bool {
		return snaps[a].Date > snaps[b].Date
	})

	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	return snaps, nil
}

func (i *inMemoryStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	return latest(ctx, i)
}

func (i *inMemoryStore) ClearAll(_ context.Context) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	i.snapshots = make(map[string]models.Snapshot)

	return nil
}

func (i *inMemoryStore) Close() error {
	return nil
}
