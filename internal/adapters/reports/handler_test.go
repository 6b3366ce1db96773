package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var errBoom = errors.New("boom")

func newTestHandler(t *testing.T, source StatsSource) (*Handler, *Worker) {
	t.Helper()
	w := NewWorker(source, nil, nil)
	w.Start()
	t.Cleanup(func() { _ = w.Stop(context.Background()) })
	return NewHandler(source, w), w
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerStats(t *testing.T) {
	h, _ := newTestHandler(t, fakeSource{rolls: sampleRolls()})
	rec := doRequest(h, http.MethodGet, "/api/v1/reports/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Stats struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"by_status"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Stats.Total != 3 || payload.Stats.ByStatus["in_stock"] != 1 {
		t.Fatalf("unexpected stats payload %+v", payload)
	}
}

func TestHandlerStatsMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, fakeSource{})
	rec := doRequest(h, http.MethodPost, "/api/v1/reports/stats", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandlerStatsSourceError(t *testing.T) {
	h := NewHandler(fakeSource{statsErr: errBoom}, nil)
	rec := doRequest(h, http.MethodGet, "/api/v1/reports/stats", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandlerNotConfigured(t *testing.T) {
	h := &Handler{}
	rec := doRequest(h, http.MethodGet, "/api/v1/reports/stats", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without source, got %d", rec.Code)
	}

	h = NewHandler(fakeSource{}, nil)
	rec = doRequest(h, http.MethodGet, "/api/v1/reports/exports", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without scheduler, got %d", rec.Code)
	}
}

func TestHandlerExportLifecycle(t *testing.T) {
	h, w := newTestHandler(t, fakeSource{rolls: sampleRolls()})

	rec := doRequest(h, http.MethodPost, "/api/v1/reports/exports", `{"formats":["json"],"requested_by":"qa","reason":"weekly"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Export ExportRecord `json:"export"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.Export.ID == "" || created.Export.Status != ExportStatusQueued || created.Export.RequestedBy != "qa" {
		t.Fatalf("unexpected created record %+v", created.Export)
	}

	final := waitForTerminal(t, w, created.Export.ID)
	if final.Status != ExportStatusSucceeded {
		t.Fatalf("expected success, got %s (%s)", final.Status, final.Error)
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/reports/exports/"+created.Export.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fetched struct {
		Export ExportRecord `json:"export"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if fetched.Export.Status != ExportStatusSucceeded || len(fetched.Export.Artifacts) != 1 {
		t.Fatalf("unexpected fetched record %+v", fetched.Export)
	}

	rec = doRequest(h, http.MethodGet, "/api/v1/reports/exports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", rec.Code)
	}
	var listed struct {
		Exports []ExportRecord `json:"exports"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Exports) != 1 || listed.Exports[0].ID != created.Export.ID {
		t.Fatalf("unexpected list %+v", listed.Exports)
	}
}

func TestHandlerExportCreateDefaultsOnEmptyBody(t *testing.T) {
	h, _ := newTestHandler(t, fakeSource{rolls: sampleRolls()})
	rec := doRequest(h, http.MethodPost, "/api/v1/reports/exports", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 for empty body, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Export ExportRecord `json:"export"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created.Export.Formats) != 2 {
		t.Fatalf("expected default formats, got %+v", created.Export.Formats)
	}
}

func TestHandlerExportErrors(t *testing.T) {
	h, _ := newTestHandler(t, fakeSource{})

	if rec := doRequest(h, http.MethodPost, "/api/v1/reports/exports", "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 malformed, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodPost, "/api/v1/reports/exports", `{"formats":["xml"]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 unsupported format, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodPut, "/api/v1/reports/exports", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodDelete, "/api/v1/reports/exports/some-id", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 on export resource, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/api/v1/reports/exports/unknown-id", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 missing export, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/api/v1/reports/exports/id/extra", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 nested path, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodGet, "/api/v1/reports/other", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 unknown path, got %d", rec.Code)
	}
}

func TestHandlerTrailingSlash(t *testing.T) {
	h, _ := newTestHandler(t, fakeSource{rolls: sampleRolls()})
	rec := doRequest(h, http.MethodGet, "/api/v1/reports/stats/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected trailing slash to normalize, got %d", rec.Code)
	}
}
