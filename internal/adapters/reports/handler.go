package reports

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler provides HTTP access to stats reports and exports.
type Handler struct {
	Source  StatsSource
	Exports ExportScheduler
}

// NewHandler constructs a reports HTTP handler. Exports may be nil, which
// disables the export endpoints.
func NewHandler(source StatsSource, exports ExportScheduler) *Handler {
	return &Handler{Source: source, Exports: exports}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Source == nil {
		writeError(w, http.StatusInternalServerError, "stats source not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/reports/stats":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleStats(w, r)
	case strings.HasPrefix(path, "/api/v1/reports/exports"):
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		h.handleExports(w, r, path)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Source.RollStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, path string) {
	if path == "/api/v1/reports/exports" {
		switch r.Method {
		case http.MethodPost:
			h.handleExportCreate(w, r)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"exports": h.Exports.ListExports()})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if !strings.HasPrefix(path, "/api/v1/reports/exports/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(path, "/api/v1/reports/exports/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	record, ok := h.Exports.GetExport(id)
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

type exportRequest struct {
	Formats     []string `json:"formats"`
	RequestedBy string   `json:"requested_by"`
	Reason      string   `json:"reason"`
}

const emptyBodySentinel = "EOF"

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != emptyBodySentinel {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}

	formats := make([]ExportFormat, 0, len(req.Formats))
	for _, f := range req.Formats {
		formats = append(formats, ExportFormat(f))
	}

	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		Formats:     formats,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
