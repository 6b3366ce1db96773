package reports

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const auditActionExport = "report_export"

// AuditEntry captures audit trail metadata for report exports.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	ExportID   string         `json:"export_id"`
	Status     ExportStatus   `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// SlogAuditLogger writes audit entries as JSON lines through log/slog.
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger builds an audit logger emitting JSON lines to w.
func NewSlogAuditLogger(w io.Writer) *SlogAuditLogger {
	return &SlogAuditLogger{logger: slog.New(slog.NewJSONHandler(w, nil))}
}

// NewSlogAuditLoggerWith wraps an existing slog logger.
func NewSlogAuditLoggerWith(logger *slog.Logger) *SlogAuditLogger {
	return &SlogAuditLogger{logger: logger}
}

// Record emits one audit line. Metadata keys become attributes under "meta".
func (l *SlogAuditLogger) Record(ctx context.Context, entry AuditEntry) {
	if l == nil || l.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("audit_id", entry.ID),
		slog.String("action", entry.Action),
		slog.String("actor", entry.Actor),
		slog.String("export_id", entry.ExportID),
		slog.String("status", string(entry.Status)),
		slog.Time("occurred_at", entry.OccurredAt),
	}
	if entry.Reason != "" {
		attrs = append(attrs, slog.String("reason", entry.Reason))
	}
	if len(entry.Metadata) > 0 {
		attrs = append(attrs, slog.Any("meta", entry.Metadata))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "report export", attrs...)
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
