package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/urlutil"
)

const endpointTimeout = 5 * time.Second

// EndpointsProbe checks for exposed operational endpoints such as /.git or
// /server-status during full scans. One check per endpoint; a 2xx answer is
// a medium finding.
type EndpointsProbe struct {
	client  *Client
	catalog *Catalog
	logger  logging.Logger
}

func NewEndpointsProbe(client *Client, catalog *Catalog, logger logging.Logger) *EndpointsProbe {
	return &EndpointsProbe{
		client:  client,
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.endpoints"}),
	}
}

func (p *EndpointsProbe) Name() string { return "exposed-endpoints" }

func (p *EndpointsProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable || tgt.ScanType != model.ScanTypeFull {
		return res, nil
	}

	for _, ep := range p.catalog.ExposedEndpoints {
		probeURL := urlutil.WithPath(tgt.URL, ep)
		resp, err := p.client.Head(ctx, probeURL, endpointTimeout)
		if err != nil {
			res.pass(1)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			res.pass(1)
			continue
		}
		res.fail(1)
		res.add(model.Finding{
			Type:           "Exposed Endpoint",
			Severity:       model.SeverityMedium,
			Description:    fmt.Sprintf("The operational endpoint %s is publicly reachable.", ep),
			Recommendation: "Restrict operational and debug endpoints to internal networks or remove them.",
			Evidence:       fmt.Sprintf("HEAD %s returned %d", ep, resp.StatusCode),
			URL:            probeURL,
		})
	}

	p.logger.Debug("endpoint checks completed",
		logging.Field{Key: "exposed", Value: res.Checks.Failed})
	return res, nil
}
