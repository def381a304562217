package probe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
)

// LeakageProbe scans the base body for quoted secret-like keywords such as
// "password" or "api_key" appearing in inline data. A single check: any hit
// fails it with one high finding listing the keywords seen.
type LeakageProbe struct {
	catalog *Catalog
	logger  logging.Logger
}

func NewLeakageProbe(catalog *Catalog, logger logging.Logger) *LeakageProbe {
	return &LeakageProbe{
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.leakage"}),
	}
}

func (p *LeakageProbe) Name() string { return "information-leakage" }

func (p *LeakageProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable {
		return res, nil
	}

	body := strings.ToLower(string(tgt.BaseBody))
	hits := make(map[string]bool)
	for _, kw := range p.catalog.LeakKeywords {
		// Quoted occurrences only: a login form mentioning "password" in
		// prose is expected, a JSON literal "password": is not.
		if strings.Contains(body, `"`+kw+`"`) || strings.Contains(body, `'`+kw+`'`) {
			hits[kw] = true
		}
	}

	if len(hits) == 0 {
		res.pass(1)
		return res, nil
	}

	keywords := make([]string, 0, len(hits))
	for kw := range hits {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	res.fail(1)
	res.add(model.Finding{
		Type:           "Information Leakage",
		Severity:       model.SeverityHigh,
		Description:    "The page embeds secret-like keys in its source.",
		Recommendation: "Keep credentials and API keys out of client-delivered markup and scripts.",
		Evidence:       fmt.Sprintf("quoted keywords in page source: %s", strings.Join(keywords, ", ")),
		URL:            tgt.Raw,
	})
	return res, nil
}
