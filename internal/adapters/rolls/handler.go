// Package rolls exposes the inventory service over HTTP. Handlers stay
// thin: decode, delegate, map errors. All business decisions live in the
// service and the domain guards.
package rolls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"rollcore/internal/core"
	"rollcore/pkg/domain"
)

// Service is the slice of the inventory service the HTTP surface needs.
// *core.Service satisfies it.
type Service interface {
	CreateRoll(ctx context.Context, input domain.CreateRollInput) (domain.Roll, domain.Result, error)
	UpdateRoll(ctx context.Context, id string, patch domain.RollPatch) (domain.Roll, domain.Result, error)
	DeleteRoll(ctx context.Context, id string) (domain.Result, error)
	GetRoll(ctx context.Context, id string) (domain.Roll, error)
	ListRolls(ctx context.Context) ([]domain.Roll, error)
	AllowedTransitions(ctx context.Context, id string) ([]domain.RollStatus, error)
	CreateCatalog(ctx context.Context, catalog domain.Catalog) (domain.Catalog, domain.Result, error)
	DeleteCatalog(ctx context.Context, id string) (domain.Result, error)
	GetCatalog(ctx context.Context, id string) (domain.Catalog, error)
	ListCatalogs(ctx context.Context) ([]domain.Catalog, error)
}

// Handler routes the inventory API.
type Handler struct {
	Service Service
}

// NewHandler constructs the inventory HTTP handler.
func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "inventory service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/health":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	case path == "/api/v1/rolls":
		h.handleRollCollection(w, r)
	case strings.HasPrefix(path, "/api/v1/rolls/"):
		h.handleRollResource(w, r, strings.TrimPrefix(path, "/api/v1/rolls/"))
	case path == "/api/v1/catalogs":
		h.handleCatalogCollection(w, r)
	case strings.HasPrefix(path, "/api/v1/catalogs/"):
		h.handleCatalogResource(w, r, strings.TrimPrefix(path, "/api/v1/catalogs/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleRollCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var input domain.CreateRollInput
		if !decodeBody(w, r, &input) {
			return
		}
		roll, result, err := h.Service.CreateRoll(r.Context(), input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rollResponse(roll, result))
	case http.MethodGet:
		rolls, err := h.Service.ListRolls(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rolls": rolls})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleRollResource(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	switch {
	case len(segments) == 1 && segments[0] != "":
		h.handleRoll(w, r, segments[0])
	case len(segments) == 2 && segments[1] == "transitions":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		transitions, err := h.Service.AllowedTransitions(r.Context(), segments[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transitions": transitions})
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleRoll(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		roll, err := h.Service.GetRoll(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"roll": roll})
	case http.MethodPatch:
		var patch domain.RollPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		roll, result, err := h.Service.UpdateRoll(r.Context(), id, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rollResponse(roll, result))
	case http.MethodDelete:
		if _, err := h.Service.DeleteRoll(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleCatalogCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var catalog domain.Catalog
		if !decodeBody(w, r, &catalog) {
			return
		}
		created, result, err := h.Service.CreateCatalog(r.Context(), catalog)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		payload := map[string]any{"catalog": created}
		if violations := violationPayloads(result); len(violations) > 0 {
			payload["violations"] = violations
		}
		writeJSON(w, http.StatusCreated, payload)
	case http.MethodGet:
		catalogs, err := h.Service.ListCatalogs(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"catalogs": catalogs})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleCatalogResource(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		catalog, err := h.Service.GetCatalog(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"catalog": catalog})
	case http.MethodDelete:
		if _, err := h.Service.DeleteCatalog(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

const emptyBodySentinel = "EOF"

// decodeBody decodes the request body into dst. An empty body leaves dst at
// its zero value; the guards downstream decide whether that is acceptable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err.Error() != emptyBodySentinel {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func rollResponse(roll domain.Roll, result domain.Result) map[string]any {
	payload := map[string]any{"roll": roll}
	if violations := violationPayloads(result); len(violations) > 0 {
		payload["violations"] = violations
	}
	return payload
}

type violationPayload struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id,omitempty"`
}

func violationPayloads(result domain.Result) []violationPayload {
	if len(result.Violations) == 0 {
		return nil
	}
	out := make([]violationPayload, 0, len(result.Violations))
	for _, v := range result.Violations {
		out = append(out, violationPayload{
			Rule:     v.Rule,
			Severity: string(v.Severity),
			Message:  v.Message,
			Entity:   string(v.Entity),
			EntityID: v.EntityID,
		})
	}
	return out
}

// writeServiceError maps service failures onto the HTTP taxonomy: guard
// rejections are 422 with the guard payload passed through untouched, rule
// violations are 409, missing records 404, unknown statuses 400.
func writeServiceError(w http.ResponseWriter, err error) {
	var guard domain.GuardError
	if errors.As(err, &guard) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]any{
				"kind":    guard.Kind(),
				"message": guard.Error(),
				"details": guard,
			},
		})
		return
	}
	var violation domain.RuleViolationError
	if errors.As(err, &violation) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"message":    violation.Error(),
				"violations": violationPayloads(violation.Result),
			},
		})
		return
	}
	var inUse domain.CatalogInUseError
	if errors.As(err, &inUse) {
		writeError(w, http.StatusConflict, inUse.Error())
		return
	}
	var notFound core.ErrNotFound
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	}
	var unknownStatus core.ErrUnknownStatus
	if errors.As(err, &unknownStatus) {
		writeError(w, http.StatusBadRequest, unknownStatus.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
