package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/urlutil"
)

const (
	accessCtrlTimeout     = 5 * time.Second
	accessCtrlCheckBudget = 10
)

// AccessControlProbe requests conventionally-protected paths without
// credentials during full scans. A 2xx on an admin-style path is a critical
// finding; a 2xx on an object-reference path is a high one.
type AccessControlProbe struct {
	client  *Client
	catalog *Catalog
	logger  logging.Logger
}

func NewAccessControlProbe(client *Client, catalog *Catalog, logger logging.Logger) *AccessControlProbe {
	return &AccessControlProbe{
		client:  client,
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.accesscontrol"}),
	}
}

func (p *AccessControlProbe) Name() string { return "access-control" }

func (p *AccessControlProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable || tgt.ScanType != model.ScanTypeFull {
		res.budget(0)
		return res, nil
	}

	for _, sp := range p.catalog.SensitivePaths {
		probeURL := urlutil.WithPath(tgt.URL, sp.Path)
		resp, err := p.client.Get(ctx, probeURL, accessCtrlTimeout)
		if err != nil {
			// No answer reveals nothing; the path counts as protected.
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			continue
		}

		severity := model.SeverityCritical
		findingType := "Unprotected Admin Interface"
		desc := fmt.Sprintf("The path %s is reachable without authentication.", sp.Path)
		rec := "Require authentication and role checks before serving administrative pages."
		if sp.IDOR {
			severity = model.SeverityHigh
			findingType = "Insecure Direct Object Reference"
			desc = fmt.Sprintf("The object endpoint %s returns data without authentication.", sp.Path)
			rec = "Authorize every object access against the requesting user, not just the identifier."
		}
		res.add(model.Finding{
			Type:           findingType,
			Severity:       severity,
			Description:    desc,
			Recommendation: rec,
			Evidence:       fmt.Sprintf("GET %s returned %d %s", sp.Path, resp.StatusCode, http.StatusText(resp.StatusCode)),
			URL:            probeURL,
		})
	}

	res.budget(accessCtrlCheckBudget)
	p.logger.Debug("access control checks completed",
		logging.Field{Key: "findings", Value: len(res.Findings)})
	return res, nil
}
