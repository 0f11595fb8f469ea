package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harshit21255/delhi-transit-buddy/internal/database"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrRoutingUnavailable is returned when no network data has been loaded yet
var ErrRoutingUnavailable = errors.New("routing data is not available yet")

// BuildFunc loads records and builds a fresh snapshot
type BuildFunc[T any] func(ctx context.Context) (*T, error)

// SnapshotCache owns one immutable network snapshot. Readers load the current
// pointer and keep using it; rebuilds construct a new value and swap it in.
type SnapshotCache[T any] struct {
	name     string
	build    BuildFunc[T]
	notifier *database.Notifier
	kinds    []database.EntityKind
	logger   *logrus.Logger

	current  atomic.Pointer[T]
	builtAt  atomic.Int64
	rebuilds atomic.Int64
	group    singleflight.Group
}

// NewSnapshotCache creates a cache that rebuilds whenever any of kinds changes
func NewSnapshotCache[T any](name string, build BuildFunc[T], notifier *database.Notifier, logger *logrus.Logger, kinds ...database.EntityKind) *SnapshotCache[T] {
	return &SnapshotCache[T]{
		name:     name,
		build:    build,
		notifier: notifier,
		kinds:    kinds,
		logger:   logger,
	}
}

// Get returns the current snapshot, building it synchronously on first use
func (c *SnapshotCache[T]) Get(ctx context.Context) (*T, error) {
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}
	return c.Rebuild(ctx)
}

// Peek returns the current snapshot without building, or nil
func (c *SnapshotCache[T]) Peek() *T {
	return c.current.Load()
}

// Rebuild builds a new snapshot and swaps it in. Concurrent callers share
// one build. On failure the previous snapshot stays in place.
func (c *SnapshotCache[T]) Rebuild(ctx context.Context) (*T, error) {
	snap, _, err := c.rebuild(ctx)
	return snap, err
}

// rebuild reports whether this call ran the build itself rather than
// joining one that was already in flight
func (c *SnapshotCache[T]) rebuild(ctx context.Context) (*T, bool, error) {
	led := false
	v, err, _ := c.group.Do(c.name, func() (interface{}, error) {
		led = true
		start := time.Now()
		// The build outlives any single caller that joined it
		snap, err := c.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.current.Store(snap)
		c.builtAt.Store(time.Now().UnixNano())
		c.rebuilds.Add(1)

		c.logger.WithFields(logrus.Fields{
			"snapshot": c.name,
			"duration": time.Since(start).String(),
		}).Info("Network snapshot rebuilt")
		return snap, nil
	})
	if err != nil {
		return nil, led, err
	}
	if !led {
		c.logger.WithField("snapshot", c.name).Debug("Joined in-flight rebuild")
	}
	return v.(*T), led, nil
}

// Refresh forces a rebuild, discarding the snapshot value
func (c *SnapshotCache[T]) Refresh(ctx context.Context) error {
	_, err := c.Rebuild(ctx)
	return err
}

// Watch rebuilds on every change notification until ctx is cancelled.
// Signals that arrive during a rebuild collapse into one follow-up rebuild.
func (c *SnapshotCache[T]) Watch(ctx context.Context) {
	changed, cancel := c.notifier.Subscribe(c.kinds...)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			c.logger.WithField("snapshot", c.name).Info("Snapshot watcher stopped")
			return
		case <-changed:
			c.rebuildAfterChange(ctx)
		}
	}
}

// rebuildAfterChange makes sure a build that started after the change lands.
// A joined build may have read the store before the change, so it is
// followed by one more; that one starts after the joined build finished.
func (c *SnapshotCache[T]) rebuildAfterChange(ctx context.Context) {
	_, led, err := c.rebuild(ctx)
	if err == nil && !led {
		_, _, err = c.rebuild(ctx)
	}
	if err == nil {
		return
	}
	if errors.Is(err, ErrRoutingUnavailable) {
		c.logger.WithField("snapshot", c.name).Debug("Skipping rebuild, no data yet")
		return
	}
	c.logger.WithError(err).WithField("snapshot", c.name).Error("Snapshot rebuild failed")
}

// Status describes the cache for diagnostics
func (c *SnapshotCache[T]) Status() SnapshotStatus {
	current := c.current.Load()
	status := SnapshotStatus{
		Name:     c.name,
		Ready:    current != nil,
		Rebuilds: c.rebuilds.Load(),
	}
	if sized, ok := any(current).(interface{ Size() int }); ok && current != nil {
		status.Size = sized.Size()
	}
	if ns := c.builtAt.Load(); ns != 0 {
		t := time.Unix(0, ns).UTC()
		status.BuiltAt = &t
	}
	return status
}

// SnapshotStatus is the diagnostic view of a snapshot cache
type SnapshotStatus struct {
	Name     string     `json:"name"`
	Ready    bool       `json:"ready"`
	Rebuilds int64      `json:"rebuilds"`
	Size     int        `json:"size"`
	BuiltAt  *time.Time `json:"built_at,omitempty"`
}

// NameIndex is a case-insensitive lookup table that reads through to a
// loader on a miss. Entries are never dropped; each snapshot owns its own.
type NameIndex[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
	load    func(ctx context.Context, name string) (T, error)
}

// NewNameIndex creates an index seeded with a copy of seed and backed by load
func NewNameIndex[T any](load func(ctx context.Context, name string) (T, error), seed map[string]T) *NameIndex[T] {
	entries := make(map[string]T, len(seed))
	for k, v := range seed {
		entries[k] = v
	}
	return &NameIndex[T]{
		entries: entries,
		load:    load,
	}
}

// Lookup returns the entry for the normalized key, loading it on a miss
func (i *NameIndex[T]) Lookup(ctx context.Context, key, name string) (T, error) {
	i.mu.RLock()
	v, ok := i.entries[key]
	i.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := i.load(ctx, name)
	if err != nil {
		var zero T
		return zero, err
	}

	i.mu.Lock()
	i.entries[key] = v
	i.mu.Unlock()
	return v, nil
}

// Len returns the number of cached entries
func (i *NameIndex[T]) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}
