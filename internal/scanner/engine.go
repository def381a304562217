// Package scanner runs the probe pipeline for one scan: the base page is
// fetched exactly once, body-dependent families fan out over it
// concurrently, and active families run inside the scan-wide time budget.
package scanner

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cayfen/webscan/internal/discovery"
	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/probe"
	"github.com/cayfen/webscan/internal/score"
	"github.com/cayfen/webscan/internal/webclient"
)

// Budgets are the wall-clock ceilings per scan type. A scan that exhausts
// its budget fails with a timeout error rather than reporting a partial
// outcome as complete.
const (
	QuickScanBudget = 2 * time.Minute
	FullScanBudget  = 5 * time.Minute
)

// Outcome is everything one finished pipeline run contributes to the scan
// record. Checks satisfy Passed+Failed==Total across all completed families.
type Outcome struct {
	Findings        []model.Finding
	Checks          model.Checks
	Technologies    []string
	SecurityHeaders map[string]string
	SSLInfo         *model.SSLInfo
	SecurityScore   int
	Severity        model.Severity
	Recommendations []string
}

// Engine owns the probe instances for one deployment. Engines are safe for
// concurrent scans; per-scan state lives on the Target.
type Engine struct {
	client  *probe.Client
	catalog *probe.Catalog
	crawler *discovery.Crawler
	logger  logging.Logger

	// QuickBudget and FullBudget bound one scan's wall-clock time. They
	// default to the package budgets and are overridable per deployment.
	QuickBudget time.Duration
	FullBudget  time.Duration

	reachability   *probe.ReachabilityProbe
	headers        *probe.HeadersProbe
	sqli           *probe.SQLiProbe
	xss            *probe.XSSProbe
	upload         *probe.UploadProbe
	leakage        *probe.LeakageProbe
	tech           *probe.TechProbe
	sensitiveFiles *probe.SensitiveFilesProbe
	ssl            *probe.SSLProbe
	accessControl  *probe.AccessControlProbe
	endpoints      *probe.EndpointsProbe
}

// NewEngine builds the pipeline on top of a web client. rps and burst bound
// outbound request rate toward any one target.
func NewEngine(wc webclient.WebClient, rps float64, burst int, logger logging.Logger) *Engine {
	catalog := probe.DefaultCatalog()
	client := probe.NewClient(wc, rps, burst, logger)
	return &Engine{
		client:         client,
		catalog:        catalog,
		QuickBudget:    QuickScanBudget,
		FullBudget:     FullScanBudget,
		crawler:        discovery.NewCrawler(client, logger),
		logger:         logger.With(logging.Field{Key: "component", Value: "scanner"}),
		reachability:   probe.NewReachabilityProbe(client, logger),
		headers:        probe.NewHeadersProbe(catalog, logger),
		sqli:           probe.NewSQLiProbe(client, catalog, logger),
		xss:            probe.NewXSSProbe(client, catalog, logger),
		upload:         probe.NewUploadProbe(client, catalog, logger),
		leakage:        probe.NewLeakageProbe(catalog, logger),
		tech:           probe.NewTechProbe(catalog, logger),
		sensitiveFiles: probe.NewSensitiveFilesProbe(client, catalog, logger),
		ssl:            probe.NewSSLProbe(logger),
		accessControl:  probe.NewAccessControlProbe(client, catalog, logger),
		endpoints:      probe.NewEndpointsProbe(client, catalog, logger),
	}
}

// Budget returns the wall-clock ceiling for a scan type.
func (e *Engine) Budget(t model.ScanType) time.Duration {
	if t == model.ScanTypeFull {
		return e.FullBudget
	}
	return e.QuickBudget
}

// Run executes the full pipeline against target, which must already be
// normalized. It returns an error when the target URL cannot be parsed or
// when the scan budget runs out mid-pipeline; an unreachable target is a
// completed outcome, not an error.
func (e *Engine) Run(ctx context.Context, target string, scanType model.ScanType) (Outcome, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Outcome{}, fmt.Errorf("parse target %q: %w", target, err)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, e.Budget(scanType))
	defer cancel()

	tgt := &probe.Target{URL: u, Raw: target, ScanType: scanType}
	var out Outcome

	// Phase 1: single base fetch. Everything downstream reads its result.
	e.runProbe(ctx, e.reachability, tgt, &out)

	if tgt.Reachable && scanType == model.ScanTypeFull {
		e.crawl(ctx, tgt)
	}

	// Phase 2: families working off the base response, in parallel. The
	// injection families issue their own rate-limited sub-requests.
	e.runConcurrent(ctx, tgt, &out,
		e.headers, e.sqli, e.xss, e.upload, e.leakage, e.tech, e.sensitiveFiles)

	// Phase 3: transport security.
	e.runProbe(ctx, e.ssl, tgt, &out)

	// Phase 4: active path probing, full scans only.
	if scanType == model.ScanTypeFull {
		e.runConcurrent(ctx, tgt, &out, e.accessControl, e.endpoints)
	}

	// A budget expiry means families were cut off mid-flight; the partial
	// outcome must not be reported as a completed scan. An expired parent
	// context is the caller's cancellation and is handled there.
	if parent.Err() == nil && ctx.Err() != nil {
		return Outcome{}, fmt.Errorf("scan budget of %s exhausted: %w", e.Budget(scanType), ctx.Err())
	}

	out.SecurityScore = score.Score(out.Checks)
	out.Severity = score.DeriveSeverity(out.Findings)
	out.Recommendations = score.Recommendations(out.Findings)

	e.logger.Info("scan pipeline finished",
		logging.Field{Key: "target", Value: target},
		logging.Field{Key: "scan_type", Value: string(scanType)},
		logging.Field{Key: "score", Value: out.SecurityScore},
		logging.Field{Key: "findings", Value: len(out.Findings)})
	return out, nil
}

func (e *Engine) crawl(ctx context.Context, tgt *probe.Target) {
	pages, err := e.crawler.Crawl(ctx, tgt.Raw)
	if err != nil {
		e.logger.Warn("crawl failed",
			logging.Field{Key: "target", Value: tgt.Raw},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	tgt.ParamURLs = pages.ParamURLs
}

// runProbe executes one family and merges its result. A family returning an
// error is skipped without failing the scan.
func (e *Engine) runProbe(ctx context.Context, p probe.Probe, tgt *probe.Target, out *Outcome) {
	res, err := p.Run(ctx, tgt)
	if err != nil {
		e.logger.Warn("probe family failed, skipping",
			logging.Field{Key: "probe", Value: p.Name()},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	mergeResult(out, res)
}

// runConcurrent fans a set of families out over the shared target. Families
// in one group only read the Target, so no locking beyond the outcome merge
// is needed.
func (e *Engine) runConcurrent(ctx context.Context, tgt *probe.Target, out *Outcome, probes ...probe.Probe) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range probes {
		wg.Add(1)
		go func(p probe.Probe) {
			defer wg.Done()
			res, err := p.Run(ctx, tgt)
			if err != nil {
				e.logger.Warn("probe family failed, skipping",
					logging.Field{Key: "probe", Value: p.Name()},
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			mu.Lock()
			mergeResult(out, res)
			mu.Unlock()
		}(p)
	}
	wg.Wait()
}

func mergeResult(out *Outcome, res probe.Result) {
	out.Findings = append(out.Findings, res.Findings...)
	out.Checks.Add(res.Checks)
	out.Technologies = append(out.Technologies, res.Technologies...)
	if res.SecurityHeaders != nil {
		out.SecurityHeaders = res.SecurityHeaders
	}
	if res.SSLInfo != nil {
		out.SSLInfo = res.SSLInfo
	}
}
