package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/normapipe/normapipe/internal/logging"
	"github.com/normapipe/normapipe/internal/pipeline"
	"github.com/normapipe/normapipe/internal/record"
	"github.com/normapipe/normapipe/internal/rules"
	"github.com/normapipe/normapipe/internal/validate"
)

// handleHealth pings the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartRun launches an asynchronous pipeline run.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var params pipeline.RunParams
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	runID, err := s.service.StartRun(params)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	logging.FromContext(r.Context()).Info("run accepted", "run_id", runID, "pages", params.Pages)
	writeJSON(w, r, http.StatusAccepted, map[string]string{"run_id": runID})
}

// handleGetRun returns the status and, when finished, the result of a run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	snapshot, ok := s.service.GetRun(runID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, r, http.StatusOK, snapshot)
}

// validateRequest is the dry-run validation payload: a batch of raw
// records plus the entity whose rules apply.
type validateRequest struct {
	Entity  string       `json:"entity"`
	Columns []string     `json:"columns"`
	Records []record.Row `json:"records"`
}

type validateResponse struct {
	Report validate.Report `json:"report"`
	Valid  []record.Row    `json:"valid_records"`
}

// handleValidate validates a caller-supplied batch without writing.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Entity == "" {
		writeError(w, r, http.StatusBadRequest, "entity is required")
		return
	}

	frame := record.Frame{Columns: req.Columns, Rows: req.Records}
	if len(frame.Columns) == 0 {
		frame.Columns = columnsFromRows(req.Records)
	}

	clean, report, err := s.service.ValidateOnly(frame, req.Entity)
	if err != nil {
		var schemaErr *validate.SchemaError
		var configErr *rules.ConfigError
		switch {
		case errors.As(err, &schemaErr):
			writeError(w, r, http.StatusUnprocessableEntity, schemaErr.Error())
		case errors.As(err, &configErr):
			writeError(w, r, http.StatusInternalServerError, configErr.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, r, http.StatusOK, validateResponse{Report: report, Valid: clean.Rows})
}

// columnsFromRows derives a column set when the caller omits one. Order is
// unspecified, which only matters for required-column checks, not row
// processing.
func columnsFromRows(rows []record.Row) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// writeJSON encodes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}

// writeError writes a JSON error body and logs the full message.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("request failed", "status", status, "error", message)
	writeJSON(w, r, status, map[string]string{"error": message})
}
