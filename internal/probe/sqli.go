package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/urlutil"
)

const (
	sqliTimeout     = 5 * time.Second
	sqliCheckBudget = 5

	// maxParamProbes bounds how many parameterized URLs one scan injects
	// into, including crawler-discovered ones on full scans.
	maxParamProbes = 8

	// paramWorkers bounds concurrent in-flight injection requests.
	paramWorkers = 5

	// bodyDeltaRatio is the response-size change treated as suspicious.
	// The heuristic is probabilistic: dynamic pages can trip it without an
	// injection, so the finding it produces is high, not critical.
	bodyDeltaRatio = 0.5

	// similaritySample bounds how much body is fed to the diff when
	// computing the similarity evidence.
	similaritySample = 4096
)

// SQLiProbe tests for SQL injection two ways: database error text leaking
// into the base response, and per-parameter injection of a canonical payload
// checked for fresh error text or a large response-size delta against the
// baseline body.
type SQLiProbe struct {
	client  *Client
	catalog *Catalog
	logger  logging.Logger
}

func NewSQLiProbe(client *Client, catalog *Catalog, logger logging.Logger) *SQLiProbe {
	return &SQLiProbe{
		client:  client,
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.sqli"}),
	}
}

func (p *SQLiProbe) Name() string { return "sql-injection" }

func (p *SQLiProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable {
		res.budget(0)
		return res, nil
	}

	// Error text already present without any payload means the page leaks
	// database internals as-is.
	if sig := p.matchSQLError(string(tgt.BaseBody)); sig != "" {
		res.add(model.Finding{
			Type:           "SQL Injection Vulnerability",
			Severity:       model.SeverityCritical,
			Description:    "The page exposes database error messages in its response body.",
			Recommendation: "Disable verbose database errors in production and use parameterized queries.",
			Evidence:       fmt.Sprintf("SQL error signature %q found in base response", sig),
			URL:            tgt.Raw,
		})
	}

	findings := p.testParameters(ctx, tgt)
	res.Findings = append(res.Findings, findings...)

	res.budget(sqliCheckBudget)
	p.logger.Debug("sql injection checks completed",
		logging.Field{Key: "findings", Value: len(res.Findings)})
	return res, nil
}

// testParameters re-requests each parameterized URL with the canonical
// payload substituted into one parameter at a time, bounded by paramWorkers
// concurrent requests.
func (p *SQLiProbe) testParameters(ctx context.Context, tgt *Target) []model.Finding {
	type probeCase struct {
		rawURL string
		param  string
	}

	var cases []probeCase
	for _, raw := range injectionTargets(tgt) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		for param := range u.Query() {
			cases = append(cases, probeCase{rawURL: raw, param: param})
		}
	}
	if len(cases) > maxParamProbes {
		cases = cases[:maxParamProbes]
	}
	if len(cases) == 0 {
		return nil
	}

	baseline := string(tgt.BaseBody)

	var (
		mu       sync.Mutex
		findings []model.Finding
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, paramWorkers)

	for _, c := range cases {
		wg.Add(1)
		go func(c probeCase) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fs := p.testOneParameter(ctx, c.rawURL, c.param, baseline)
			if len(fs) == 0 {
				return
			}
			mu.Lock()
			findings = append(findings, fs...)
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return findings
}

func (p *SQLiProbe) testOneParameter(ctx context.Context, rawURL, param, baseline string) []model.Finding {
	testURL, err := urlutil.WithParam(rawURL, param, p.catalog.SQLiPayload)
	if err != nil {
		return nil
	}

	resp, err := p.client.Get(ctx, testURL, sqliTimeout)
	if err != nil {
		// Unreachable while injecting: the parameter is not exploitable
		// evidence either way, treat as pass.
		return nil
	}
	body := string(resp.Body)

	var findings []model.Finding
	if sig := p.matchSQLError(body); sig != "" {
		findings = append(findings, model.Finding{
			Type:           "SQL Injection Vulnerability",
			Severity:       model.SeverityCritical,
			Description:    fmt.Sprintf("Injecting a SQL payload into parameter %q produced a database error.", param),
			Recommendation: "Use parameterized queries (prepared statements) for all database access.",
			Evidence:       fmt.Sprintf("SQL error signature %q after payload %s", sig, p.catalog.SQLiPayload),
			URL:            rawURL,
			Parameter:      param,
		})
		return findings
	}

	if delta, ok := bodyDelta(baseline, body); ok {
		findings = append(findings, model.Finding{
			Type:           "Possible SQL Injection",
			Severity:       model.SeverityHigh,
			Description:    fmt.Sprintf("The response size changed by %.0f%% when parameter %q was injected, which can indicate a boolean-based injection.", delta*100, param),
			Recommendation: "Use parameterized queries and verify the parameter against an allowlist.",
			Evidence:       fmt.Sprintf("baseline %d bytes, injected %d bytes, similarity %.0f%%", len(baseline), len(body), similarity(baseline, body)*100),
			URL:            rawURL,
			Parameter:      param,
		})
	}
	return findings
}

func (p *SQLiProbe) matchSQLError(body string) string {
	lower := strings.ToLower(body)
	for _, sig := range p.catalog.SQLErrorSignatures {
		if strings.Contains(lower, sig) {
			return sig
		}
	}
	return ""
}

// bodyDelta reports the relative size change between baseline and probed
// bodies and whether it exceeds bodyDeltaRatio.
func bodyDelta(baseline, probed string) (float64, bool) {
	if len(baseline) == 0 {
		return 0, false
	}
	delta := float64(len(probed)-len(baseline)) / float64(len(baseline))
	if delta < 0 {
		delta = -delta
	}
	return delta, delta > bodyDeltaRatio
}

// similarity computes a character-level similarity ratio between two bodies,
// sampled to keep the diff bounded on large pages.
func similarity(a, b string) float64 {
	if len(a) > similaritySample {
		a = a[:similaritySample]
	}
	if len(b) > similaritySample {
		b = b[:similaritySample]
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	return 1 - float64(distance)/float64(longest)
}

// injectionTargets lists the URLs whose parameters this scan injects into:
// the target itself plus, on full scans, parameterized URLs the crawler
// found.
func injectionTargets(tgt *Target) []string {
	targets := []string{tgt.Raw}
	if tgt.ScanType == model.ScanTypeFull {
		targets = append(targets, tgt.ParamURLs...)
	}
	return targets
}
