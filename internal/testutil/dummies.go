// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/store"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyResponse configures what DummyWebClient returns for one URL.
type DummyResponse struct {
	Status  int
	Headers http.Header
	Body    string
}

// DummyWebClient implements webclient.WebClient. Responses maps exact URLs
// to canned responses; unmatched URLs get a 404. Set FailURLs[url] = true to
// force a network error for a specific URL, or FailAll for every request.
type DummyWebClient struct {
	Responses     map[string]DummyResponse
	FailURLs      map[string]bool
	FailAll       bool
	ResponseDelay time.Duration

	mu       sync.Mutex
	Requests []*model.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailAll || (d.FailURLs != nil && d.FailURLs[req.URL]) {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	resp, ok := d.Responses[req.URL]
	if !ok {
		return &model.Response{
			Request:    req,
			Headers:    http.Header{},
			StatusCode: http.StatusNotFound,
			FetchedAt:  time.Now(),
		}, nil
	}
	headers := resp.Headers
	if headers == nil {
		headers = http.Header{}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &model.Response{
		Request:    req,
		Headers:    headers,
		Body:       []byte(resp.Body),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*model.Response, error) {
	return d.Do(ctx, &model.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestedURLs returns every URL the client has been asked for, in order.
func (d *DummyWebClient) RequestedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	urls := make([]string, len(d.Requests))
	for i, req := range d.Requests {
		urls[i] = req.URL
	}
	return urls
}

type errString struct{ s string }

func (e *errString) Error() string { return e.s }

// ─── Store ─────────────────────────────────────────────────────────────

// MemStore implements store.Store in memory.
type MemStore struct {
	mu    sync.Mutex
	scans map[string]*model.Scan

	// FailPing makes Ping report the store as down.
	FailPing bool
	// FailCreate makes Create fail, as if the backing database were gone.
	FailCreate bool
}

func NewMemStore() *MemStore {
	return &MemStore{scans: make(map[string]*model.Scan)}
}

func (m *MemStore) Create(_ context.Context, scan *model.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate {
		return errors.New("database is closed")
	}
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now().UTC()
	}
	cp := *scan
	m.scans[scan.ID] = &cp
	return nil
}

func (m *MemStore) Update(_ context.Context, scan *model.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scans[scan.ID]; !ok {
		return store.ErrScanNotFound
	}
	cp := *scan
	m.scans[scan.ID] = &cp
	return nil
}

func (m *MemStore) GetByID(_ context.Context, id string) (*model.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scan, ok := m.scans[id]
	if !ok {
		return nil, store.ErrScanNotFound
	}
	cp := *scan
	return &cp, nil
}

func (m *MemStore) ListRecent(_ context.Context, limit int) ([]model.ScanSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*model.Scan, 0, len(m.scans))
	for _, s := range m.scans {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]model.ScanSummary, len(all))
	for i, s := range all {
		out[i] = model.ScanSummary{
			ID:            s.ID,
			TargetURL:     s.TargetURL,
			ScanType:      s.ScanType,
			Status:        s.Status,
			SecurityScore: s.SecurityScore,
			Severity:      s.Severity,
			ScanDuration:  s.ScanDuration,
			CreatedAt:     s.CreatedAt,
			CompletedAt:   s.CompletedAt,
		}
	}
	return out, nil
}

func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scans[id]; !ok {
		return store.ErrScanNotFound
	}
	delete(m.scans, id)
	return nil
}

func (m *MemStore) Ping(_ context.Context) error {
	if m.FailPing {
		return &errString{"store down"}
	}
	return nil
}

func (m *MemStore) Close() error { return nil }
