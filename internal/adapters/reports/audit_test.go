package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSlogAuditLoggerEmitsJSONLines(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogAuditLogger(buf)
	logger.Record(context.Background(), AuditEntry{
		ID:         "a-1",
		Action:     "report_export",
		Actor:      "qa",
		ExportID:   "e-1",
		Status:     ExportStatusQueued,
		Reason:     "weekly",
		OccurredAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	})
	logger.Record(context.Background(), AuditEntry{
		ID:       "a-2",
		Action:   "report_export",
		ExportID: "e-1",
		Status:   ExportStatusFailed,
		Metadata: map[string]any{"error": "boom"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d: %q", len(lines), buf.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line is not JSON: %v", err)
	}
	if first["audit_id"] != "a-1" || first["export_id"] != "e-1" || first["status"] != "queued" {
		t.Fatalf("unexpected first line %v", first)
	}
	if first["reason"] != "weekly" {
		t.Fatalf("expected reason attribute, got %v", first)
	}
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line is not JSON: %v", err)
	}
	meta, ok := second["meta"].(map[string]any)
	if !ok || meta["error"] != "boom" {
		t.Fatalf("expected error metadata, got %v", second)
	}
}

func TestSlogAuditLoggerNilSafe(_ *testing.T) {
	var logger *SlogAuditLogger
	logger.Record(context.Background(), AuditEntry{ID: "x"})
	(&SlogAuditLogger{}).Record(context.Background(), AuditEntry{ID: "y"})
}

func TestMemoryAuditLogCopies(t *testing.T) {
	log := &MemoryAuditLog{}
	log.Record(context.Background(), AuditEntry{ID: "a"})
	entries := log.Entries()
	if len(entries) != 1 || entries[0].ID != "a" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	entries[0].ID = "mutated"
	if log.Entries()[0].ID != "a" {
		t.Fatalf("Entries must return a copy")
	}
}
