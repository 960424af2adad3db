package api

import (
	"net/http"
	"runtime"
	"time"
)

// defaultStatsWindow is the resolution stats window when none is given.
const defaultStatsWindow = 24 * time.Hour

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Library       LibraryMetrics  `json:"library"`
	MQTT          BackendMetrics  `json:"mqtt"`
	InfluxDB      BackendMetrics  `json:"influxdb"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// LibraryMetrics describes the cached reference library snapshot.
type LibraryMetrics struct {
	Devices  int    `json:"devices"`
	Active   int    `json:"active"`
	LoadedAt string `json:"loaded_at,omitempty"`
}

// BackendMetrics reports an optional backend connection.
type BackendMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns runtime, library and backend metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		MQTT:     backendMetrics(s.mqtt),
		InfluxDB: backendMetrics(s.influx),
	}

	// A library failure here is not fatal; the counts stay zero.
	if devices, err := s.library.Get(r.Context()); err == nil {
		metrics.Library.Devices = len(devices)
		for _, d := range devices {
			if d.Active {
				metrics.Library.Active++
			}
		}
	} else {
		s.logger.Warn("library unavailable for metrics", "error", err)
	}
	if loaded := s.library.LoadedAt(); !loaded.IsZero() {
		metrics.Library.LoadedAt = loaded.UTC().Format(time.RFC3339)
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

// handleResolutionStats returns resolution counts per strategy from InfluxDB.
//
// Query parameters:
//   - window: Go duration, e.g. "1h" (default 24h)
func (s *Server) handleResolutionStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "resolution telemetry is disabled")
		return
	}

	window := defaultStatsWindow
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeBadRequest(w, "window must be a positive duration")
			return
		}
		window = d
	}

	counts, err := s.stats.ResolutionCounts(r.Context(), window)
	if err != nil {
		s.logger.Error("querying resolution stats failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to query resolution stats")
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window":      window.String(),
		"total":       total,
		"by_strategy": counts,
	})
}

func backendMetrics(status ConnectionStatus) BackendMetrics {
	if status == nil {
		return BackendMetrics{}
	}
	return BackendMetrics{Enabled: true, Connected: status.IsConnected()}
}
