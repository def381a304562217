package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/scanner"
	"github.com/cayfen/webscan/internal/store"
	"github.com/cayfen/webscan/internal/urlutil"
)

// ErrTooManyScans is returned when the concurrent-scan cap is reached. The
// API maps it to 503.
var ErrTooManyScans = errors.New("too many scans in flight")

// ErrStoreUnavailable is returned when the scan repository cannot persist
// state. The API maps it to 503; no scan is started in that case.
var ErrStoreUnavailable = errors.New("scan store unavailable")

type ScanEventType string

const (
	ScanEventStatus ScanEventType = "status"
	ScanEventResult ScanEventType = "result"
)

// ScanEvent is one progress push for a running scan, consumed by the
// websocket handler.
type ScanEvent struct {
	ScanID string           `json:"scanId"`
	Type   ScanEventType    `json:"type"`
	Status model.ScanStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// Orchestrator owns scan lifecycle: it validates targets, persists records,
// and runs the scanner detached from the submitting request. The store is
// the source of truth; the in-memory maps only track live scans.
type Orchestrator struct {
	cfg    *Config
	store  store.Store
	engine *scanner.Engine
	logger logging.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	events  map[string]chan ScanEvent
	wg      sync.WaitGroup
}

func NewOrchestrator(cfg *Config, st store.Store, engine *scanner.Engine, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		logger:  logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		cancels: make(map[string]context.CancelFunc),
		events:  make(map[string]chan ScanEvent),
	}
}

// StartScan validates and normalizes the target, persists a pending record,
// and launches the scan detached from ctx: cancelling the submitting request
// does not cancel the scan.
func (o *Orchestrator) StartScan(ctx context.Context, rawURL string, scanType model.ScanType) (*model.Scan, error) {
	if scanType == "" {
		scanType = model.ScanTypeQuick
	}
	if !scanType.Valid() {
		return nil, fmt.Errorf("invalid scan type %q", scanType)
	}

	target, err := urlutil.NormalizeTarget(rawURL)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if len(o.cancels) >= o.cfg.MaxConcurrentScans {
		o.mu.Unlock()
		return nil, ErrTooManyScans
	}
	o.mu.Unlock()

	scan := &model.Scan{
		TargetURL: target,
		ScanType:  scanType,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("create scan record: %v: %w", err, ErrStoreUnavailable)
	}

	// The scan outlives the submitting request, so its context derives
	// from Background, bounded by the engine's own budget.
	scanCtx, cancel := context.WithCancel(context.Background())

	o.mu.Lock()
	if len(o.cancels) >= o.cfg.MaxConcurrentScans {
		o.mu.Unlock()
		cancel()
		// Lost the race for the last slot. The pending record is removed
		// again so the caller can retry cleanly.
		if delErr := o.store.Delete(context.Background(), scan.ID); delErr != nil {
			o.logger.Warn("orphaned pending scan",
				logging.Field{Key: "scan_id", Value: scan.ID},
				logging.Field{Key: "error", Value: delErr.Error()})
		}
		return nil, ErrTooManyScans
	}
	o.cancels[scan.ID] = cancel
	o.events[scan.ID] = make(chan ScanEvent, 16)
	o.mu.Unlock()

	o.emit(scan.ID, ScanEvent{ScanID: scan.ID, Type: ScanEventStatus, Status: model.StatusPending})

	o.wg.Add(1)
	go o.runScan(scanCtx, scan)

	o.logger.Info("scan accepted",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "target", Value: target},
		logging.Field{Key: "scan_type", Value: string(scanType)})
	return scan, nil
}

// runScan drives one scan to a terminal state. Any panic inside the pipeline
// fails the scan instead of crashing the process.
func (o *Orchestrator) runScan(ctx context.Context, scan *model.Scan) {
	started := time.Now()

	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("scan panicked",
				logging.Field{Key: "scan_id", Value: scan.ID},
				logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			o.finishScan(scan, started, nil, fmt.Errorf("internal error: %v", r))
		}
		o.release(scan.ID)
	}()

	scan.Status = model.StatusScanning
	if err := o.store.Update(ctx, scan); err != nil {
		o.logger.Warn("status update failed",
			logging.Field{Key: "scan_id", Value: scan.ID},
			logging.Field{Key: "error", Value: err.Error()})
	}
	o.emit(scan.ID, ScanEvent{ScanID: scan.ID, Type: ScanEventStatus, Status: model.StatusScanning})

	out, err := o.engine.Run(ctx, scan.TargetURL, scan.ScanType)
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("scan canceled: %w", ctx.Err())
	}
	o.finishScan(scan, started, &out, err)
}

// finishScan writes the terminal record and emits the final event. When err
// is non-nil the outcome is discarded and the scan fails.
func (o *Orchestrator) finishScan(scan *model.Scan, started time.Time, out *scanner.Outcome, err error) {
	now := time.Now().UTC()
	scan.ScanDuration = time.Since(started).Seconds()
	scan.CompletedAt = &now

	if err != nil {
		scan.Status = model.StatusFailed
		scan.ErrorMessage = err.Error()
	} else {
		scan.Status = model.StatusCompleted
		scan.Findings = out.Findings
		scan.Checks = out.Checks
		scan.SecurityScore = out.SecurityScore
		scan.Severity = out.Severity
		scan.Technologies = out.Technologies
		scan.SecurityHeaders = out.SecurityHeaders
		scan.SSLInfo = out.SSLInfo
		scan.Recommendations = out.Recommendations
	}

	// Persistence of the terminal state must not depend on the, possibly
	// canceled, scan context.
	if uerr := o.store.Update(context.Background(), scan); uerr != nil {
		o.logger.Error("terminal update failed",
			logging.Field{Key: "scan_id", Value: scan.ID},
			logging.Field{Key: "error", Value: uerr.Error()})
	}

	ev := ScanEvent{ScanID: scan.ID, Type: ScanEventResult, Status: scan.Status}
	if err != nil {
		ev.Error = err.Error()
	}
	o.emit(scan.ID, ev)

	o.logger.Info("scan finished",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "status", Value: string(scan.Status)},
		logging.Field{Key: "duration_s", Value: scan.ScanDuration})
}

// release drops the live-scan bookkeeping and closes the event channel so
// websocket readers terminate.
func (o *Orchestrator) release(scanID string) {
	o.mu.Lock()
	if cancel, ok := o.cancels[scanID]; ok {
		cancel()
		delete(o.cancels, scanID)
	}
	ch := o.events[scanID]
	delete(o.events, scanID)
	o.mu.Unlock()

	if ch != nil {
		close(ch)
	}
}

// emit pushes an event without blocking; slow consumers lose events rather
// than stalling the scan.
func (o *Orchestrator) emit(scanID string, ev ScanEvent) {
	o.mu.Lock()
	ch := o.events[scanID]
	o.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

// Events returns the live event channel for a scan, or nil when the scan is
// not running.
func (o *Orchestrator) Events(scanID string) <-chan ScanEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch, ok := o.events[scanID]
	if !ok {
		return nil
	}
	return ch
}

// GetScan returns the stored scan record.
func (o *Orchestrator) GetScan(ctx context.Context, id string) (*model.Scan, error) {
	return o.store.GetByID(ctx, id)
}

// ListScans returns recent scan summaries, newest first.
func (o *Orchestrator) ListScans(ctx context.Context) ([]model.ScanSummary, error) {
	return o.store.ListRecent(ctx, o.cfg.ListLimit)
}

// DeleteScan cancels the scan if it is still running and removes its record.
func (o *Orchestrator) DeleteScan(ctx context.Context, id string) error {
	o.CancelScan(id)
	return o.store.Delete(ctx, id)
}

// CancelScan stops a running scan; it fails with a cancellation error. A
// no-op for unknown or finished scans.
func (o *Orchestrator) CancelScan(id string) {
	o.mu.Lock()
	cancel := o.cancels[id]
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Ping reports whether the backing store is reachable.
func (o *Orchestrator) Ping(ctx context.Context) error {
	return o.store.Ping(ctx)
}

// Shutdown cancels all running scans and waits for them to reach a terminal
// state or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, cancel := range o.cancels {
		cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
