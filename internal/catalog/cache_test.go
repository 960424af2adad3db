package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockRepository counts List calls and can be told to fail.
type mockRepository struct {
	mu      sync.Mutex
	devices []LibraryDevice
	calls   int
	err     error
}

func (m *mockRepository) List(context.Context) ([]LibraryDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]LibraryDevice, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*LibraryDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.devices {
		if m.devices[i].ID == id {
			d := m.devices[i]
			return &d, nil
		}
	}
	return nil, ErrDeviceNotFound
}

func (m *mockRepository) Create(context.Context, *LibraryDevice) error { return nil }
func (m *mockRepository) Upsert(context.Context, *LibraryDevice) error { return nil }
func (m *mockRepository) SetActive(context.Context, string, bool) error {
	return nil
}

func (m *mockRepository) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockRepository) set(devices []LibraryDevice, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
	m.err = err
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, devices []LibraryDevice) (*Cache, *mockRepository, *fakeClock) {
	t.Helper()
	repo := &mockRepository{devices: devices}
	clock := &fakeClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(repo, time.Minute)
	cache.SetClock(clock.Now)
	return cache, repo, clock
}

func TestCache_GetServesSnapshotWithinTTL(t *testing.T) {
	cache, repo, clock := newTestCache(t, []LibraryDevice{{ID: "a", Make: "Apple", Model: "iPhone 11", Active: true}})
	ctx := context.Background()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	clock.Advance(59 * time.Second)
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if calls := repo.listCalls(); calls != 1 {
		t.Errorf("List called %d times, want 1", calls)
	}
}

func TestCache_GetReloadsWhenStale(t *testing.T) {
	cache, repo, clock := newTestCache(t, []LibraryDevice{{ID: "a"}})
	ctx := context.Background()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	repo.set([]LibraryDevice{{ID: "a"}, {ID: "b"}}, nil)
	clock.Advance(time.Minute)

	devices, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("Get() returned %d devices after expiry, want 2", len(devices))
	}
	if calls := repo.listCalls(); calls != 2 {
		t.Errorf("List called %d times, want 2", calls)
	}
	if !cache.LoadedAt().Equal(clock.Now()) {
		t.Errorf("LoadedAt() = %v, want %v", cache.LoadedAt(), clock.Now())
	}
}

func TestCache_Invalidate(t *testing.T) {
	cache, repo, _ := newTestCache(t, []LibraryDevice{{ID: "a"}})
	ctx := context.Background()

	// Invalidate before any load is a no-op.
	cache.Invalidate()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if calls := repo.listCalls(); calls != 2 {
		t.Errorf("List called %d times, want 2", calls)
	}
}

func TestCache_ReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	cache, repo, clock := newTestCache(t, []LibraryDevice{{ID: "a"}})
	ctx := context.Background()

	if _, err := cache.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	storeErr := errors.New("disk I/O error")
	repo.set(nil, storeErr)
	clock.Advance(2 * time.Minute)

	if _, err := cache.Get(ctx); !errors.Is(err, storeErr) {
		t.Fatalf("Get() error = %v, want wrapped store error", err)
	}

	// Previous snapshot is still reachable by ID.
	d, err := cache.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if d.ID != "a" {
		t.Errorf("GetByID() = %s, want a", d.ID)
	}
}

func TestCache_GetByIDFallsBackToRepository(t *testing.T) {
	cache, repo, _ := newTestCache(t, nil)
	repo.set([]LibraryDevice{{ID: "late", Active: false}}, nil)

	d, err := cache.GetByID(context.Background(), "late")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if d.ID != "late" {
		t.Errorf("GetByID() = %s, want late", d.ID)
	}

	if _, err := cache.GetByID(context.Background(), "nope"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID(nope) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestCache_EmptyLibraryIsNotNil(t *testing.T) {
	cache, _, _ := newTestCache(t, nil)

	devices, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if devices == nil {
		t.Error("Get() returned nil slice for empty library")
	}
}

func TestCache_ConcurrentGet(t *testing.T) {
	cache, _, clock := newTestCache(t, []LibraryDevice{{ID: "a"}, {ID: "b"}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				clock.Advance(time.Minute)
				cache.Invalidate()
			}
			devices, err := cache.Get(ctx)
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			if len(devices) != 2 {
				t.Errorf("Get() returned %d devices, want 2", len(devices))
			}
		}(i)
	}
	wg.Wait()
}

func TestNewCache_DefaultTTL(t *testing.T) {
	if got := NewCache(&mockRepository{}, 0).TTL(); got != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTTL)
	}
}
