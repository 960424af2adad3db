package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/tradein-core/internal/alias"
	"github.com/nerrad567/tradein-core/internal/catalog"
	"github.com/nerrad567/tradein-core/internal/infrastructure/config"
	"github.com/nerrad567/tradein-core/internal/infrastructure/database"
	"github.com/nerrad567/tradein-core/internal/infrastructure/logging"
	"github.com/nerrad567/tradein-core/internal/resolver"
	_ "github.com/nerrad567/tradein-core/migrations"
)

var testDevices = []catalog.LibraryDevice{
	{ID: "iphone-11-64", Make: "Apple", Model: "iPhone 11", Storage: "64GB", Category: "phone", Active: true},
	{ID: "iphone-11-128", Make: "Apple", Model: "iPhone 11", Storage: "128GB", Category: "phone", Active: true},
	{ID: "galaxy-s21-128", Make: "Samsung", Model: "Galaxy S21", Storage: "128GB", Category: "phone", Active: true},
	{ID: "galaxy-s8-64", Make: "Samsung", Model: "Galaxy S8", Storage: "64GB", Category: "phone", Active: false},
	{ID: "ipad-air-64", Make: "Apple", Model: "iPad Air", Storage: "64GB", Category: "tablet", Active: true},
}

type testEnv struct {
	srv      *Server
	handler  http.Handler
	cache    *catalog.Cache
	aliases  *alias.SQLiteRepository
	notifier *mockNotifier
	stats    *mockStats
	recorder *mockManifests
}

type mockNotifier struct {
	mu      sync.Mutex
	reasons []string
	err     error
}

func (m *mockNotifier) PublishCatalogChanged(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, reason)
	return m.err
}

type mockStats struct {
	counts map[string]int64
	window time.Duration
	err    error
}

func (m *mockStats) ResolutionCounts(_ context.Context, window time.Duration) (map[string]int64, error) {
	m.window = window
	return m.counts, m.err
}

type mockManifests struct {
	mu    sync.Mutex
	calls [][4]int
}

func (m *mockManifests) WriteManifestMetric(_ string, total, autoPriced, review, manual int) {
	m.mu.Lock()
	m.calls = append(m.calls, [4]int{total, autoPriced, review, manual})
	m.mu.Unlock()
}

type fixedStatus bool

func (f fixedStatus) IsConnected() bool { return bool(f) }

// failingLibrary makes every library read fail.
type failingLibrary struct{}

var errStoreDown = errors.New("store down")

func (failingLibrary) Get(context.Context) ([]catalog.LibraryDevice, error) {
	return nil, errStoreDown
}

func (failingLibrary) Refresh(context.Context) ([]catalog.LibraryDevice, error) {
	return nil, errStoreDown
}

func (failingLibrary) GetByID(context.Context, string) (*catalog.LibraryDevice, error) {
	return nil, errStoreDown
}

func (failingLibrary) LoadedAt() time.Time { return time.Time{} }

// setupTestDB opens a migrated SQLite database in a temp directory.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "tradein.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "discard"}, "test")
}

// newTestEnv wires the server to real SQLite-backed stores and engine.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := setupTestDB(t)
	repo := catalog.NewSQLiteRepository(db.DB)
	if _, err := catalog.Seed(ctx, repo, testDevices); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cache := catalog.NewCache(repo, time.Minute)
	aliases := alias.NewSQLiteRepository(db.DB)
	engine := resolver.NewEngine(cache, aliases, nil, resolver.Options{
		AutoAlias:    true,
		BatchWorkers: 2,
	})

	env := &testEnv{
		cache:    cache,
		aliases:  aliases,
		notifier: &mockNotifier{},
		stats:    &mockStats{counts: map[string]int64{"exact": 3, "alias": 2}},
		recorder: &mockManifests{},
	}

	srv, err := New(Deps{
		Config:       config.APIConfig{Host: "127.0.0.1", Port: 0},
		MaxBatchRows: 3,
		Logger:       testLogger(),
		Resolver:     engine,
		Library:      cache,
		Aliases:      aliases,
		Devices:      repo,
		DB:           db.DB,
		Notifier:     env.notifier,
		MQTT:         fixedStatus(true),
		Stats:        env.stats,
		Manifests:    env.recorder,
		Version:      "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	env.srv = srv
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	e := decode[Error](t, rec)
	if e.Status != status || e.Code != code || e.Message == "" {
		t.Errorf("error body = %+v, want status %d code %q", e, status, code)
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	env := newTestEnv(t)
	full := Deps{Logger: testLogger(), Resolver: env.srv.resolver, Library: env.cache, Aliases: env.aliases}

	tests := []struct {
		name   string
		mutate func(*Deps)
	}{
		{"logger", func(d *Deps) { d.Logger = nil }},
		{"resolver", func(d *Deps) { d.Resolver = nil }},
		{"library", func(d *Deps) { d.Library = nil }},
		{"aliases", func(d *Deps) { d.Aliases = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			if _, err := New(deps); err == nil {
				t.Errorf("New() without %s should fail", tt.name)
			}
		})
	}

	srv, err := New(full)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.maxBatchRows != defaultMaxBatchRows {
		t.Errorf("maxBatchRows = %d, want default %d", srv.maxBatchRows, defaultMaxBatchRows)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-client01")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-client01" {
		t.Errorf("X-Request-ID = %q, want req-client01", got)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/resolve/text", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	env.srv.cfg.CORS.AllowedOrigins = []string{"https://ops.example.com"}
	if env.srv.isAllowedOrigin("http://evil.example.com") {
		t.Error("origin outside the allow list accepted")
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	assertError(t, env.do(t, http.MethodGet, "/api/v1/nope", nil), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, env.do(t, http.MethodGet, "/api/v1/resolve/text", nil), http.StatusMethodNotAllowed, ErrCodeMethodNotAllow)
}

func TestResolveLibrary(t *testing.T) {
	env := newTestEnv(t)

	t.Run("exact match", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/resolve/library", resolveLibraryRequest{
			Make: "Apple", Model: "iPhone 11", Storage: "64GB", Category: "phone",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		res := decode[resolver.MatchResult](t, rec)
		if res.DeviceID != "iphone-11-64" || res.Confidence != resolver.ConfidenceHigh || res.Strategy != resolver.StrategyExact {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("missing storage asks for storage", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/resolve/library", resolveLibraryRequest{Make: "Apple", Model: "iPhone 11"})
		res := decode[resolver.MatchResult](t, rec)
		if !res.NeedsStorageSelection || res.DeviceID != "" {
			t.Fatalf("result = %+v, want storage selection", res)
		}
		if strings.Join(res.StorageOptions, ",") != "64GB,128GB" {
			t.Errorf("StorageOptions = %v", res.StorageOptions)
		}
	})

	t.Run("missing model is manual", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/resolve/library", resolveLibraryRequest{Make: "Apple"})
		res := decode[resolver.MatchResult](t, rec)
		if !res.NeedsManualSelection || res.Confidence != resolver.ConfidenceLow {
			t.Errorf("result = %+v, want manual", res)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		assertError(t, env.do(t, http.MethodPost, "/api/v1/resolve/library", "{"), http.StatusBadRequest, ErrCodeBadRequest)
	})
}

func TestResolveText_AutoAlias(t *testing.T) {
	env := newTestEnv(t)
	body := resolveTextRequest{Input: "Apple iPhone 11 64GB", Category: "phone"}

	first := decode[resolver.MatchResult](t, env.do(t, http.MethodPost, "/api/v1/resolve/text", body))
	if first.DeviceID != "iphone-11-64" || first.Confidence != resolver.ConfidenceHigh {
		t.Fatalf("first result = %+v", first)
	}
	if first.Strategy == resolver.StrategyAlias {
		t.Fatal("first resolution should not come from an alias")
	}

	second := decode[resolver.MatchResult](t, env.do(t, http.MethodPost, "/api/v1/resolve/text", body))
	if second.Strategy != resolver.StrategyAlias || second.DeviceID != "iphone-11-64" {
		t.Errorf("second result = %+v, want alias hit", second)
	}
}

func TestResolveText_NoMatch(t *testing.T) {
	env := newTestEnv(t)

	for _, input := range []string{"", "   ", "Acme Gizmo 3000"} {
		res := decode[resolver.MatchResult](t, env.do(t, http.MethodPost, "/api/v1/resolve/text", resolveTextRequest{Input: input}))
		if !res.NeedsManualSelection || res.DeviceID != "" {
			t.Errorf("input %q: result = %+v, want manual", input, res)
		}
	}
}

func TestResolveText_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	engine := resolver.NewEngine(failingLibrary{}, env.aliases, nil, resolver.Options{})
	srv, err := New(Deps{Logger: testLogger(), Resolver: engine, Library: failingLibrary{}, Aliases: env.aliases})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	env.handler = srv.Handler()

	rec := env.do(t, http.MethodPost, "/api/v1/resolve/text", resolveTextRequest{Input: "iphone 11"})
	assertError(t, rec, http.StatusInternalServerError, ErrCodeInternal)
	if strings.Contains(rec.Body.String(), errStoreDown.Error()) {
		t.Error("internal error detail leaked to the client")
	}

	assertError(t, env.do(t, http.MethodPost, "/api/v1/library/refresh", nil), http.StatusInternalServerError, ErrCodeInternal)
}

func TestResolveManifest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/resolve/manifest", resolveManifestRequest{
		Rows:     []string{"Apple iPhone 11 64GB", "iphone 11", "Acme Gizmo"},
		Category: "phone",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decode[resolveManifestResponse](t, rec)
	if len(resp.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Row != i {
			t.Errorf("results[%d].Row = %d", i, r.Row)
		}
	}
	if resp.Results[0].Result.DeviceID != "iphone-11-64" {
		t.Errorf("row 0 = %+v", resp.Results[0].Result)
	}
	if !resp.Results[1].Result.NeedsStorageSelection {
		t.Errorf("row 1 = %+v, want storage selection", resp.Results[1].Result)
	}
	if !resp.Results[2].Result.NeedsManualSelection {
		t.Errorf("row 2 = %+v, want manual", resp.Results[2].Result)
	}

	want := resolver.Summary{Total: 3, AutoPriced: 1, Review: 1, Manual: 1}
	got := resp.Summary
	if got.Total != want.Total || got.AutoPriced != want.AutoPriced || got.Review != want.Review || got.Manual != want.Manual {
		t.Errorf("summary = %+v, want %+v", got, want)
	}
	if len(env.recorder.calls) != 1 || env.recorder.calls[0] != [4]int{3, 1, 1, 1} {
		t.Errorf("manifest metric calls = %v", env.recorder.calls)
	}
}

func TestResolveManifest_Validation(t *testing.T) {
	env := newTestEnv(t)

	assertError(t, env.do(t, http.MethodPost, "/api/v1/resolve/manifest", resolveManifestRequest{}),
		http.StatusBadRequest, ErrCodeValidation)
	assertError(t, env.do(t, http.MethodPost, "/api/v1/resolve/manifest", resolveManifestRequest{Rows: []string{"a", "b", "c", "d"}}),
		http.StatusRequestEntityTooLarge, ErrCodeTooLarge)
}

func TestBodySizeLimit(t *testing.T) {
	env := newTestEnv(t)

	big := `{"input":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	assertError(t, env.do(t, http.MethodPost, "/api/v1/resolve/text", big), http.StatusRequestEntityTooLarge, ErrCodeTooLarge)
}

func TestAliases(t *testing.T) {
	env := newTestEnv(t)

	t.Run("save and resolve", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/aliases", saveAliasRequest{Alias: "IPH1164G", DeviceID: "iphone-11-64", CreatedBy: "ops"})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		res := decode[resolver.MatchResult](t, env.do(t, http.MethodPost, "/api/v1/resolve/text", resolveTextRequest{Input: "  iph1164g "}))
		if res.Strategy != resolver.StrategyAlias || res.DeviceID != "iphone-11-64" || res.DeviceName != "Apple iPhone 11" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("default created_by", func(t *testing.T) {
		env.do(t, http.MethodPost, "/api/v1/aliases", saveAliasRequest{Alias: "s21", DeviceID: "galaxy-s21-128"})
		a, err := env.aliases.Lookup(context.Background(), "s21")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if a.CreatedBy != defaultAliasCreatedBy {
			t.Errorf("CreatedBy = %q, want %q", a.CreatedBy, defaultAliasCreatedBy)
		}
	})

	t.Run("inactive device accepted", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/aliases", saveAliasRequest{Alias: "s8", DeviceID: "galaxy-s8-64"})
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		assertError(t, env.do(t, http.MethodPost, "/api/v1/aliases", saveAliasRequest{Alias: "x", DeviceID: "missing"}),
			http.StatusNotFound, ErrCodeNotFound)
	})

	t.Run("empty alias", func(t *testing.T) {
		assertError(t, env.do(t, http.MethodPost, "/api/v1/aliases", saveAliasRequest{Alias: "  ", DeviceID: "iphone-11-64"}),
			http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("list by device", func(t *testing.T) {
		body := decode[struct {
			Aliases []alias.Alias `json:"aliases"`
			Count   int           `json:"count"`
		}](t, env.do(t, http.MethodGet, "/api/v1/aliases?device_id=iphone-11-64", nil))
		if body.Count != 1 || body.Aliases[0].Text != "iph1164g" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("list all", func(t *testing.T) {
		body := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/v1/aliases", nil))
		if body["count"] != float64(3) {
			t.Errorf("count = %v, want 3", body["count"])
		}
	})
}

func TestLibrary(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"active only", "", 4},
		{"category", "?category=PHONE", 3},
		{"include inactive", "?include_inactive=true", 5},
		{"inactive in category", "?include_inactive=true&category=phone", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/library"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			body := decode[libraryResponse](t, rec)
			if body.Count != tt.want || len(body.Devices) != tt.want {
				t.Errorf("count = %d, want %d", body.Count, tt.want)
			}
			if body.LoadedAt == "" {
				t.Error("loaded_at missing after a load")
			}
		})
	}

	assertError(t, env.do(t, http.MethodGet, "/api/v1/library?include_inactive=maybe", nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestRefreshLibrary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Warm the cache, then add a device behind its back.
	env.do(t, http.MethodGet, "/api/v1/library", nil)
	repo := catalog.NewSQLiteRepository(env.srv.db)
	if err := repo.Create(ctx, &catalog.LibraryDevice{ID: "pixel-7-128", Make: "Google", Model: "Pixel 7", Storage: "128GB", Category: "phone", Active: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := decode[libraryResponse](t, env.do(t, http.MethodGet, "/api/v1/library", nil)).Count; got != 4 {
		t.Fatalf("cached count = %d, want 4 before refresh", got)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/library/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	if got := decode[libraryResponse](t, rec).Count; got != 6 {
		t.Errorf("refresh count = %d, want 6 (all devices)", got)
	}
	if len(env.notifier.reasons) != 1 || env.notifier.reasons[0] != "refresh" {
		t.Errorf("notifier reasons = %v", env.notifier.reasons)
	}

	if got := decode[libraryResponse](t, env.do(t, http.MethodGet, "/api/v1/library", nil)).Count; got != 5 {
		t.Errorf("count after refresh = %d, want 5", got)
	}

	env.notifier.err = errors.New("bus down")
	if rec := env.do(t, http.MethodPost, "/api/v1/library/refresh", nil); rec.Code != http.StatusOK {
		t.Errorf("refresh with failing notifier status = %d, want 200", rec.Code)
	}
}

func TestSetDeviceActive(t *testing.T) {
	env := newTestEnv(t)
	active := func(v bool) map[string]bool { return map[string]bool{"active": v} }

	rec := env.do(t, http.MethodPut, "/api/v1/library/iphone-11-64/active", active(false))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(env.notifier.reasons) != 1 || env.notifier.reasons[0] != "device_updated" {
		t.Errorf("notifier reasons = %v", env.notifier.reasons)
	}

	if got := decode[libraryResponse](t, env.do(t, http.MethodGet, "/api/v1/library", nil)).Count; got != 3 {
		t.Errorf("active count after deactivation = %d, want 3", got)
	}
	res := decode[resolver.MatchResult](t, env.do(t, http.MethodPost, "/api/v1/resolve/library", resolveLibraryRequest{
		Make: "Apple", Model: "iPhone 11", Storage: "64GB",
	}))
	if res.DeviceID == "iphone-11-64" {
		t.Errorf("deactivated device still matched: %+v", res)
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/library/iphone-11-64/active", active(true)); rec.Code != http.StatusNoContent {
		t.Errorf("reactivate status = %d", rec.Code)
	}
	if got := decode[libraryResponse](t, env.do(t, http.MethodGet, "/api/v1/library", nil)).Count; got != 4 {
		t.Errorf("active count after reactivation = %d, want 4", got)
	}

	assertError(t, env.do(t, http.MethodPut, "/api/v1/library/missing/active", active(false)), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, env.do(t, http.MethodPut, "/api/v1/library/iphone-11-64/active", map[string]string{}), http.StatusBadRequest, ErrCodeValidation)

	env.srv.devices = nil
	env.handler = env.srv.Handler()
	assertError(t, env.do(t, http.MethodPut, "/api/v1/library/iphone-11-64/active", active(false)), http.StatusServiceUnavailable, ErrCodeUnavailable)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode[SystemMetrics](t, rec)
	if m.Version != "test" {
		t.Errorf("Version = %q", m.Version)
	}
	if m.Library.Devices != 5 || m.Library.Active != 4 {
		t.Errorf("Library = %+v", m.Library)
	}
	if !m.MQTT.Enabled || !m.MQTT.Connected {
		t.Errorf("MQTT = %+v", m.MQTT)
	}
	if m.InfluxDB.Enabled {
		t.Errorf("InfluxDB = %+v, want disabled", m.InfluxDB)
	}
	if m.Runtime.Goroutines == 0 {
		t.Error("Runtime.Goroutines = 0")
	}
}

func TestResolutionStats(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/stats/resolutions?window=1h", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["total"] != float64(5) || body["window"] != "1h0m0s" {
		t.Errorf("body = %v", body)
	}
	if env.stats.window != time.Hour {
		t.Errorf("window = %v, want 1h", env.stats.window)
	}

	assertError(t, env.do(t, http.MethodGet, "/api/v1/stats/resolutions?window=-1h", nil), http.StatusBadRequest, ErrCodeBadRequest)

	env.stats.err = errors.New("flux error")
	assertError(t, env.do(t, http.MethodGet, "/api/v1/stats/resolutions", nil), http.StatusInternalServerError, ErrCodeInternal)

	env.srv.stats = nil
	env.handler = env.srv.Handler()
	assertError(t, env.do(t, http.MethodGet, "/api/v1/stats/resolutions", nil), http.StatusServiceUnavailable, ErrCodeUnavailable)
}

func TestRecoveryMiddleware(t *testing.T) {
	env := newTestEnv(t)

	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assertError(t, rec, http.StatusInternalServerError, ErrCodeInternal)
}

func TestServerLifecycle(t *testing.T) {
	env := newTestEnv(t)

	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v", err)
	}

	if err := env.srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := env.srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
	if err := env.srv.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
