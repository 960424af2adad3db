package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tradein-core/internal/catalog"
)

type libraryResponse struct {
	Devices  []catalog.LibraryDevice `json:"devices"`
	Count    int                     `json:"count"`
	LoadedAt string                  `json:"loaded_at,omitempty"`
}

// handleListLibrary returns the cached reference library.
//
// Query parameters:
//   - category: case-insensitive category filter
//   - include_inactive: "true" to include deactivated devices
func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	includeInactive := false
	if v := r.URL.Query().Get("include_inactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "include_inactive must be a boolean")
			return
		}
		includeInactive = b
	}
	category := r.URL.Query().Get("category")

	devices, err := s.library.Get(r.Context())
	if err != nil {
		s.logger.Error("loading library failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to load library")
		return
	}

	if includeInactive {
		devices = filterCategory(devices, category)
	} else {
		devices = catalog.FilterActive(devices, category)
	}
	writeJSON(w, http.StatusOK, s.libraryResponse(devices))
}

// handleRefreshLibrary reloads the library from the store and tells other
// instances to drop their snapshots.
func (s *Server) handleRefreshLibrary(w http.ResponseWriter, r *http.Request) {
	devices, err := s.library.Refresh(r.Context())
	if err != nil {
		s.logger.Error("refreshing library failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to refresh library")
		return
	}

	if s.notifier != nil {
		if err := s.notifier.PublishCatalogChanged("refresh"); err != nil {
			s.logger.Warn("publishing catalog change failed", "error", err)
		}
	}
	s.logger.Info("library refreshed", "devices", len(devices))

	writeJSON(w, http.StatusOK, s.libraryResponse(devices))
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

// handleSetDeviceActive activates or deactivates a library device.
//
// Deactivated devices stop matching but keep their aliases, which still
// resolve to them; GET /aliases?device_id= lists those for cleanup.
func (s *Server) handleSetDeviceActive(w http.ResponseWriter, r *http.Request) {
	if s.devices == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "library is read-only")
		return
	}

	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		writeValidationError(w, "active is required")
		return
	}

	id := chi.URLParam(r, "id")
	err := s.devices.SetActive(r.Context(), id, *req.Active)
	switch {
	case errors.Is(err, catalog.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
		return
	case err != nil:
		s.logger.Error("updating device failed", "error", err, "device_id", id, "request_id", requestID(r))
		writeInternalError(w, "failed to update device")
		return
	}
	s.logger.Info("device active state changed", "device_id", id, "active", *req.Active)

	if _, err := s.library.Refresh(r.Context()); err != nil {
		s.logger.Warn("refreshing library after device update failed", "error", err)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishCatalogChanged("device_updated"); err != nil {
			s.logger.Warn("publishing catalog change failed", "error", err)
		}
	}

	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) libraryResponse(devices []catalog.LibraryDevice) libraryResponse {
	resp := libraryResponse{Devices: devices, Count: len(devices)}
	if resp.Devices == nil {
		resp.Devices = []catalog.LibraryDevice{}
	}
	if loaded := s.library.LoadedAt(); !loaded.IsZero() {
		resp.LoadedAt = loaded.UTC().Format(time.RFC3339)
	}
	return resp
}

func filterCategory(devices []catalog.LibraryDevice, category string) []catalog.LibraryDevice {
	category = strings.TrimSpace(category)
	if category == "" {
		return devices
	}
	out := make([]catalog.LibraryDevice, 0, len(devices))
	for _, d := range devices {
		if strings.EqualFold(d.Category, category) {
			out = append(out, d)
		}
	}
	return out
}
