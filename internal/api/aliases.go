package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/tradein-core/internal/alias"
	"github.com/nerrad567/tradein-core/internal/catalog"
)

// defaultAliasCreatedBy is recorded when a request omits created_by.
const defaultAliasCreatedBy = "api"

type saveAliasRequest struct {
	Alias     string `json:"alias"`
	DeviceID  string `json:"device_id"`
	CreatedBy string `json:"created_by"`
}

// handleSaveAlias records an operator-confirmed mapping from raw text to a device.
func (s *Server) handleSaveAlias(w http.ResponseWriter, r *http.Request) {
	var req saveAliasRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		createdBy = defaultAliasCreatedBy
	}

	err := s.resolver.SaveAlias(r.Context(), req.Alias, req.DeviceID, createdBy)
	switch {
	case err == nil:
		writeJSON(w, http.StatusNoContent, nil)
	case errors.Is(err, alias.ErrInvalidAlias):
		writeValidationError(w, "alias and device_id are required")
	case errors.Is(err, catalog.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	default:
		s.logger.Error("saving alias failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to save alias")
	}
}

// handleListAliases returns aliases, optionally for one device_id.
func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	var (
		aliases []alias.Alias
		err     error
	)
	if deviceID := strings.TrimSpace(r.URL.Query().Get("device_id")); deviceID != "" {
		aliases, err = s.aliases.ListByDevice(r.Context(), deviceID)
	} else {
		aliases, err = s.aliases.List(r.Context())
	}
	if err != nil {
		s.logger.Error("listing aliases failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to list aliases")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"aliases": aliases, "count": len(aliases)})
}
