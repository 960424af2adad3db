package api

import (
	"net/http"

	"github.com/nerrad567/tradein-core/internal/resolver"
)

// defaultMaxBatchRows applies when Deps.MaxBatchRows is unset.
const defaultMaxBatchRows = 5000

type resolveLibraryRequest struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Storage  string `json:"storage"`
	Category string `json:"category"`
}

type resolveTextRequest struct {
	Input    string `json:"input"`
	Category string `json:"category"`
}

type resolveManifestRequest struct {
	Rows     []string `json:"rows"`
	Category string   `json:"category"`
}

type resolveManifestResponse struct {
	Results []resolver.RowResult `json:"results"`
	Summary resolver.Summary     `json:"summary"`
}

// handleResolveLibrary resolves structured make/model/storage fields, as
// returned by an IMEI lookup. Missing fields are not an error: the result
// asks for manual selection.
func (s *Server) handleResolveLibrary(w http.ResponseWriter, r *http.Request) {
	var req resolveLibraryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.resolver.MatchToLibrary(r.Context(), req.Make, req.Model, req.Storage, req.Category)
	if err != nil {
		s.logger.Error("structured resolution failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to resolve device")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleResolveText resolves a free-text device description.
func (s *Server) handleResolveText(w http.ResponseWriter, r *http.Request) {
	var req resolveTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.resolver.MatchDeviceString(r.Context(), req.Input, req.Category)
	if err != nil {
		s.logger.Error("text resolution failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "failed to resolve device")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleResolveManifest resolves every row of a trade-in manifest.
//
// Rows keep their position; the summary counts how many can be priced
// automatically and how many need review or manual matching.
func (s *Server) handleResolveManifest(w http.ResponseWriter, r *http.Request) {
	var req resolveManifestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Rows) == 0 {
		writeValidationError(w, "rows is required")
		return
	}
	if len(req.Rows) > s.maxBatchRows {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "too many rows in manifest")
		return
	}

	results, err := s.resolver.ResolveBatch(r.Context(), req.Rows, req.Category)
	if err != nil {
		s.logger.Error("manifest resolution failed",
			"error", err,
			"rows", len(req.Rows),
			"request_id", requestID(r),
		)
		writeInternalError(w, "failed to resolve manifest")
		return
	}

	summary := resolver.Summarise(results)
	if s.manifests != nil {
		s.manifests.WriteManifestMetric(req.Category, summary.Total, summary.AutoPriced, summary.Review, summary.Manual)
	}
	s.logger.Info("manifest resolved",
		"rows", summary.Total,
		"auto_priced", summary.AutoPriced,
		"review", summary.Review,
		"manual", summary.Manual,
	)

	writeJSON(w, http.StatusOK, resolveManifestResponse{Results: results, Summary: summary})
}
