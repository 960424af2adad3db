package mqtt

import (
	"cmp"
	"slices"
	"sync"
)

// route is one topic filter the client keeps subscribed.
type route struct {
	filter  string
	qos     byte
	handler MessageHandler
}

// routeTable holds the filters replayed after each reconnect. Sessions are
// clean, so the broker forgets them on every drop. The zero value is empty
// and ready to use.
type routeTable struct {
	mu     sync.RWMutex
	routes map[string]route
}

// put adds r, replacing any route with the same filter.
func (t *routeTable) put(r route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.routes == nil {
		t.routes = make(map[string]route)
	}
	t.routes[r.filter] = r
}

func (t *routeTable) drop(filter string) {
	t.mu.Lock()
	delete(t.routes, filter)
	t.mu.Unlock()
}

func (t *routeTable) has(filter string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.routes[filter]
	return ok
}

func (t *routeTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// ordered returns a copy of the table sorted by filter, so a replay does
// not hold the lock while waiting on the broker.
func (t *routeTable) ordered() []route {
	t.mu.RLock()
	out := make([]route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b route) int { return cmp.Compare(a.filter, b.filter) })
	return out
}
