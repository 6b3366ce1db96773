// Package reports renders inventory stats reports and schedules asynchronous
// exports of them into blob storage.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rollcore/internal/blob"
	"rollcore/pkg/domain"
)

// ExportFormat names a report rendering.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact captures one stored report rendering.
type ExportArtifact struct {
	Key         string       `json:"key"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	URL         string       `json:"url,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ExportRecord tracks an export request and its resulting artifacts.
type ExportRecord struct {
	ID          string           `json:"id"`
	Formats     []ExportFormat   `json:"formats"`
	Status      ExportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ExportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by"`
	Reason      string           `json:"reason,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ExportInput represents an enqueue request for the worker.
type ExportInput struct {
	Formats     []ExportFormat
	RequestedBy string
	Reason      string
}

// ExportScheduler queues report export requests and exposes their status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
	ListExports() []ExportRecord
}

// StatsSource provides the inventory snapshots reports are rendered from.
// *core.Service satisfies it.
type StatsSource interface {
	RollStats(ctx context.Context) (domain.RollStats, error)
	ListRolls(ctx context.Context) ([]domain.Roll, error)
}

// CatalogSummary is the per-catalog breakdown carried by report artifacts.
type CatalogSummary struct {
	CatalogID         string                    `json:"catalog_id"`
	Rolls             int                       `json:"rolls"`
	TotalLengthMeters float64                   `json:"total_length_meters"`
	ByStatus          map[domain.RollStatus]int `json:"by_status"`
}

// statsReport is the full rendered payload. The JSON artifact carries it
// verbatim; the CSV artifact projects the catalog rows.
type statsReport struct {
	GeneratedAt       time.Time        `json:"generated_at"`
	Stats             domain.RollStats `json:"stats"`
	TotalLengthMeters float64          `json:"total_length_meters"`
	Catalogs          []CatalogSummary `json:"catalogs"`
}

// Worker executes report exports asynchronously. Records survive until the
// history limit evicts completed ones; queued and running jobs are never
// evicted.
type Worker struct {
	source StatsSource
	store  blob.Store
	audit  AuditLogger

	queue chan exportTask
	mu    sync.RWMutex
	jobs  map[string]*ExportRecord
	order []string
	limit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id string
}

// WorkerOption adjusts worker construction.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	queueSize    int
	historyLimit int
}

// WithQueueSize sets the pending-export queue capacity.
func WithQueueSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithHistoryLimit caps how many export records are retained.
func WithHistoryLimit(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.historyLimit = n
		}
	}
}

// NewWorker constructs an export worker. The audit logger may be nil.
func NewWorker(source StatsSource, store blob.Store, audit AuditLogger, opts ...WorkerOption) *Worker {
	cfg := workerOptions{queueSize: 32, historyLimit: 100}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan exportTask, cfg.queueSize),
		jobs:   make(map[string]*ExportRecord),
		limit:  cfg.historyLimit,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
func (w *Worker) EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error) {
	if w.source == nil {
		return ExportRecord{}, fmt.Errorf("stats source not configured")
	}
	formats, err := normalizeFormats(input.Formats)
	if err != nil {
		return ExportRecord{}, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	record := ExportRecord{
		ID:          id,
		Formats:     formats,
		Status:      ExportStatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	w.order = append(w.order, id)
	w.trimLocked()
	queuedSnapshot := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     auditActionExport,
		Actor:      input.RequestedBy,
		ExportID:   id,
		Status:     ExportStatusQueued,
		Reason:     input.Reason,
		OccurredAt: now,
	})

	select {
	case w.queue <- exportTask{id: id}:
	default:
		w.mu.Lock()
		delete(w.jobs, id)
		w.dropFromOrderLocked(id)
		w.mu.Unlock()
		w.recordAudit(ctx, AuditEntry{
			ID:         uuid.NewString(),
			Action:     auditActionExport,
			Actor:      input.RequestedBy,
			ExportID:   id,
			Status:     ExportStatusFailed,
			Metadata:   map[string]any{"error": "export queue full"},
			OccurredAt: now,
		})
		return ExportRecord{}, fmt.Errorf("export queue full")
	}

	return queuedSnapshot, nil
}

// GetExport returns a snapshot of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

// ListExports returns snapshots of retained records, newest first.
func (w *Worker) ListExports() []ExportRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]ExportRecord, 0, len(w.order))
	for i := len(w.order) - 1; i >= 0; i-- {
		if record, ok := w.jobs[w.order[i]]; ok {
			out = append(out, record.copy())
		}
	}
	return out
}

func (w *Worker) process(task exportTask) {
	record, ok := w.GetExport(task.id)
	if !ok {
		return
	}

	w.updateStatus(task.id, ExportStatusRunning)

	report, err := w.buildReport(w.ctx)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("build report: %v", err))
		return
	}

	artifacts := make([]ExportArtifact, 0, len(record.Formats))
	for _, format := range record.Formats {
		payload, contentType, name, err := materialize(format, report)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		artifact, err := w.storeArtifact(task.id, format, name, contentType, payload)
		if err != nil {
			w.fail(task.id, fmt.Sprintf("store artifact: %v", err))
			return
		}
		artifacts = append(artifacts, artifact)
	}

	w.complete(task.id, artifacts)
}

func (w *Worker) buildReport(ctx context.Context) (statsReport, error) {
	stats, err := w.source.RollStats(ctx)
	if err != nil {
		return statsReport{}, err
	}
	rolls, err := w.source.ListRolls(ctx)
	if err != nil {
		return statsReport{}, err
	}
	var totalLength float64
	for _, roll := range rolls {
		totalLength += roll.LengthMeters
	}
	return statsReport{
		GeneratedAt:       time.Now().UTC(),
		Stats:             stats,
		TotalLengthMeters: totalLength,
		Catalogs:          summarizeCatalogs(rolls),
	}, nil
}

func (w *Worker) storeArtifact(exportID string, format ExportFormat, name, contentType string, payload []byte) (ExportArtifact, error) {
	artifact := ExportArtifact{
		Key:         fmt.Sprintf("exports/%s/%s", exportID, name),
		Format:      format,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		CreatedAt:   time.Now().UTC(),
	}
	if w.store == nil {
		return artifact, nil
	}
	info, err := w.store.Put(w.ctx, artifact.Key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"export_id": exportID, "format": string(format)},
	})
	if err != nil {
		return ExportArtifact{}, err
	}
	if info.Size > 0 {
		artifact.SizeBytes = info.Size
	}
	if !info.LastModified.IsZero() {
		artifact.CreatedAt = info.LastModified
	}
	artifact.URL = info.URL
	if url, err := w.store.PresignURL(w.ctx, artifact.Key, blob.SignedURLOptions{}); err == nil {
		artifact.URL = url
	} else if !errors.Is(err, blob.ErrUnsupported) {
		return ExportArtifact{}, err
	}
	return artifact, nil
}

func (w *Worker) updateStatus(id string, status ExportStatus) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.UpdatedAt = now
	}
	w.mu.Unlock()
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	actor := ""
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
		actor = record.RequestedBy
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     auditActionExport,
		Actor:      actor,
		ExportID:   id,
		Status:     ExportStatusSucceeded,
		Metadata:   map[string]any{"artifacts": len(artifacts)},
		OccurredAt: now,
	})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	actor := ""
	if record, ok := w.jobs[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		actor = record.RequestedBy
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     auditActionExport,
		Actor:      actor,
		ExportID:   id,
		Status:     ExportStatusFailed,
		Metadata:   map[string]any{"error": reason},
		OccurredAt: now,
	})
}

func (w *Worker) recordAudit(ctx context.Context, entry AuditEntry) {
	if w.audit == nil {
		return
	}
	w.audit.Record(ctx, entry)
}

// trimLocked evicts the oldest terminal records beyond the history limit.
// Callers hold w.mu.
func (w *Worker) trimLocked() {
	for len(w.order) > w.limit {
		evicted := false
		for i, id := range w.order {
			record, ok := w.jobs[id]
			if !ok {
				w.order = append(w.order[:i], w.order[i+1:]...)
				evicted = true
				break
			}
			if record.Status == ExportStatusSucceeded || record.Status == ExportStatusFailed {
				delete(w.jobs, id)
				w.order = append(w.order[:i], w.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func (w *Worker) dropFromOrderLocked(id string) {
	for i, candidate := range w.order {
		if candidate == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return
		}
	}
}

func normalizeFormats(formats []ExportFormat) ([]ExportFormat, error) {
	if len(formats) == 0 {
		return []ExportFormat{FormatJSON, FormatCSV}, nil
	}
	out := make([]ExportFormat, 0, len(formats))
	seen := make(map[ExportFormat]struct{}, len(formats))
	for _, format := range formats {
		normalized := ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
		switch normalized {
		case FormatJSON, FormatCSV:
		default:
			return nil, fmt.Errorf("unsupported export format %q", format)
		}
		if _, duplicate := seen[normalized]; duplicate {
			continue
		}
		out = append(out, normalized)
		seen[normalized] = struct{}{}
	}
	return out, nil
}

func summarizeCatalogs(rolls []domain.Roll) []CatalogSummary {
	byCatalog := make(map[string]*CatalogSummary)
	for _, roll := range rolls {
		if roll.CatalogID == "" {
			continue
		}
		summary, ok := byCatalog[roll.CatalogID]
		if !ok {
			summary = &CatalogSummary{
				CatalogID: roll.CatalogID,
				ByStatus:  make(map[domain.RollStatus]int, len(domain.KnownStatuses())),
			}
			byCatalog[roll.CatalogID] = summary
		}
		summary.Rolls++
		summary.TotalLengthMeters += roll.LengthMeters
		summary.ByStatus[roll.Status]++
	}
	out := make([]CatalogSummary, 0, len(byCatalog))
	for _, summary := range byCatalog {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CatalogID < out[j].CatalogID })
	return out
}

func materialize(format ExportFormat, report statsReport) (payload []byte, contentType, name string, err error) {
	switch format {
	case FormatJSON:
		payload, err = json.Marshal(report)
		if err != nil {
			return nil, "", "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", "stats.json", nil
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		header := []string{"catalog_id", "rolls", "total_length_meters"}
		for _, status := range domain.KnownStatuses() {
			header = append(header, string(status))
		}
		if err := writer.Write(header); err != nil {
			return nil, "", "", err
		}
		for _, summary := range report.Catalogs {
			row := []string{summary.CatalogID, strconv.Itoa(summary.Rolls), formatFloat(summary.TotalLengthMeters)}
			for _, status := range domain.KnownStatuses() {
				row = append(row, strconv.Itoa(summary.ByStatus[status]))
			}
			if err := writer.Write(row); err != nil {
				return nil, "", "", err
			}
		}
		totals := []string{"total", strconv.Itoa(report.Stats.Total), formatFloat(report.TotalLengthMeters)}
		for _, status := range domain.KnownStatuses() {
			totals = append(totals, strconv.Itoa(report.Stats.ByStatus[status]))
		}
		if err := writer.Write(totals); err != nil {
			return nil, "", "", err
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, "", "", err
		}
		return buf.Bytes(), "text/csv", "stats.csv", nil
	default:
		return nil, "", "", fmt.Errorf("unsupported export format %s", format)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (r ExportRecord) copy() ExportRecord {
	dup := r
	dup.Formats = append([]ExportFormat(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	}
	return dup
}
