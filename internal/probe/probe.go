// Package probe implements the probe catalog: each family is a bounded
// network check against the target producing zero or more findings and its
// budgeted check count. Probes never fail on expected network conditions;
// timeouts and refused connections are converted to passes or findings
// according to each family's policy.
package probe

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/webclient"
)

// Target carries everything a probe family needs. BaseBody holds the base
// page fetched exactly once by the engine; body-dependent families read it
// and never re-fetch.
type Target struct {
	URL      *url.URL
	Raw      string
	ScanType model.ScanType

	Reachable   bool
	BaseStatus  int
	BaseHeaders http.Header
	BaseBody    []byte

	// ParamURLs are additional same-host URLs with query strings collected
	// by the crawler during full scans. Injection families test them after
	// the target's own parameters.
	ParamURLs []string
}

// Result is one family's contribution to the scan. The checks counters
// always satisfy Passed+Failed==Total when Run returns.
type Result struct {
	Findings []model.Finding
	Checks   model.Checks

	// Family-specific auxiliary metadata; nil for families that do not
	// produce it.
	Technologies    []string
	SecurityHeaders map[string]string
	SSLInfo         *model.SSLInfo
}

// pass and fail record one check outcome.
func (r *Result) pass(n int) {
	r.Checks.Total += n
	r.Checks.Passed += n
}

func (r *Result) fail(n int) {
	r.Checks.Total += n
	r.Checks.Failed += n
}

func (r *Result) add(f model.Finding) {
	r.Findings = append(r.Findings, f)
}

// budget closes a findings-budgeted family: total checks are fixed and each
// finding (capped at the budget) consumes one failed check.
func (r *Result) budget(total int) {
	failed := len(r.Findings)
	if failed > total {
		failed = total
	}
	r.Checks = model.Checks{Total: total, Passed: total - failed, Failed: failed}
}

// Probe is one family of checks. Run must tolerate network failure per the
// family policy and only return an error for genuinely unexpected conditions;
// the engine then skips the family without aborting the scan.
type Probe interface {
	Name() string
	Run(ctx context.Context, tgt *Target) (Result, error)
}

// Client wraps the webclient with the outbound-request policy shared by all
// probe families: a global rate limit toward the target and a per-request
// deadline. One Client is used per scan.
type Client struct {
	wc      webclient.WebClient
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewClient builds a probe client. rps bounds sustained requests per second
// against the target; burst allows short fan-outs (parameter sub-probes).
func NewClient(wc webclient.WebClient, rps float64, burst int, logger logging.Logger) *Client {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &Client{
		wc:      wc,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.client"}),
	}
}

// Fetch issues one rate-limited request with the family's timeout. Network
// errors are returned to the caller, which applies the family policy.
func (c *Client) Fetch(ctx context.Context, method, rawURL string, timeout time.Duration) (*model.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.wc.Do(reqCtx, &model.Request{Method: method, URL: rawURL})
}

// Get is shorthand for Fetch with GET.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) (*model.Response, error) {
	return c.Fetch(ctx, http.MethodGet, rawURL, timeout)
}

// Head is shorthand for Fetch with HEAD.
func (c *Client) Head(ctx context.Context, rawURL string, timeout time.Duration) (*model.Response, error) {
	return c.Fetch(ctx, http.MethodHead, rawURL, timeout)
}
