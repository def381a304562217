package probe

import (
	"context"
	"fmt"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
)

// HeadersProbe checks the base response for the required security headers.
// One check per header: presence is a pass, absence a medium finding. The
// probe performs no network I/O of its own.
type HeadersProbe struct {
	catalog *Catalog
	logger  logging.Logger
}

func NewHeadersProbe(catalog *Catalog, logger logging.Logger) *HeadersProbe {
	return &HeadersProbe{
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.headers"}),
	}
}

func (p *HeadersProbe) Name() string { return "security-headers" }

func (p *HeadersProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	res := Result{SecurityHeaders: make(map[string]string, len(p.catalog.SecurityHeaders))}
	if !tgt.Reachable {
		return res, nil
	}

	for _, sig := range p.catalog.SecurityHeaders {
		value := tgt.BaseHeaders.Get(sig.Name)
		if value != "" {
			res.SecurityHeaders[sig.Name] = value
			res.pass(1)
			continue
		}
		res.fail(1)
		res.add(model.Finding{
			Type:           "Missing Security Header",
			Severity:       model.SeverityMedium,
			Description:    sig.Description,
			Recommendation: sig.Recommendation,
			Evidence:       fmt.Sprintf("Header %q absent from response", sig.Name),
			URL:            tgt.Raw,
		})
	}

	p.logger.Debug("header checks completed",
		logging.Field{Key: "present", Value: res.Checks.Passed},
		logging.Field{Key: "missing", Value: res.Checks.Failed})
	return res, nil
}
