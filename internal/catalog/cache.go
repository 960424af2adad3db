package catalog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultTTL is how long a snapshot is served before Get reloads it.
const DefaultTTL = time.Minute

// Logger defines the logging interface used by the Cache.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// snapshot is an immutable view of the whole library.
type snapshot struct {
	devices  []LibraryDevice
	loadedAt time.Time
	stale    bool
}

// Cache serves a time-to-live snapshot of the reference library.
//
// Readers never observe a partial list: a reload builds a fresh snapshot and
// publishes it with a single atomic store. Concurrent callers that find the
// snapshot stale may each reload; reloads are not serialised.
type Cache struct {
	repo   Repository
	ttl    time.Duration
	snap   atomic.Pointer[snapshot]
	now    func() time.Time
	logger Logger
}

// NewCache creates a cache over repo. A non-positive ttl uses DefaultTTL.
// Nothing is loaded until the first Get or Refresh.
func NewCache(repo Repository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// SetClock replaces the time source. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// TTL returns the configured snapshot lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns every library device, reloading when the snapshot has expired
// or was invalidated. The returned slice is shared and must not be modified.
//
// A failed reload is returned to the caller and the previous snapshot stays
// in place for the next attempt.
func (c *Cache) Get(ctx context.Context) ([]LibraryDevice, error) {
	if s := c.snap.Load(); s != nil && !s.stale && c.now().Sub(s.loadedAt) < c.ttl {
		return s.devices, nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads the library unconditionally and publishes the new snapshot.
func (c *Cache) Refresh(ctx context.Context) ([]LibraryDevice, error) {
	devices, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading library devices: %w", err)
	}
	if devices == nil {
		devices = []LibraryDevice{}
	}

	c.snap.Store(&snapshot{devices: devices, loadedAt: c.now()})
	c.logger.Debug("library cache refreshed", "count", len(devices))
	return devices, nil
}

// Invalidate marks the current snapshot stale so the next Get reloads.
func (c *Cache) Invalidate() {
	old := c.snap.Load()
	if old == nil {
		return
	}
	// CompareAndSwap so a concurrent Refresh is not overwritten with stale data.
	c.snap.CompareAndSwap(old, &snapshot{devices: old.devices, loadedAt: old.loadedAt, stale: true})
	c.logger.Info("library cache invalidated")
}

// LoadedAt returns when the current snapshot was loaded, or the zero time
// if nothing has been loaded yet.
func (c *Cache) LoadedAt() time.Time {
	if s := c.snap.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// GetByID returns a device from the current snapshot, falling back to the
// repository on a miss. Inactive devices are returned too.
// Returns ErrDeviceNotFound if the device does not exist.
func (c *Cache) GetByID(ctx context.Context, id string) (*LibraryDevice, error) {
	if s := c.snap.Load(); s != nil {
		for i := range s.devices {
			if s.devices[i].ID == id {
				d := s.devices[i]
				return &d, nil
			}
		}
	}
	return c.repo.GetByID(ctx, id)
}
