package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/urlutil"
)

const sensitiveFileTimeout = 5 * time.Second

// SensitiveFilesProbe issues HEAD requests for conventionally-secret files.
// One check per probed path; a 2xx answer is a high finding. At most
// sensitiveFileLimit paths are probed per scan.
type SensitiveFilesProbe struct {
	client  *Client
	catalog *Catalog
	logger  logging.Logger
}

func NewSensitiveFilesProbe(client *Client, catalog *Catalog, logger logging.Logger) *SensitiveFilesProbe {
	return &SensitiveFilesProbe{
		client:  client,
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.sensitivefiles"}),
	}
}

func (p *SensitiveFilesProbe) Name() string { return "sensitive-files" }

func (p *SensitiveFilesProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable {
		return res, nil
	}

	paths := p.catalog.SensitiveFiles
	if len(paths) > sensitiveFileLimit {
		paths = paths[:sensitiveFileLimit]
	}

	for _, path := range paths {
		probeURL := urlutil.WithPath(tgt.URL, path)
		resp, err := p.client.Head(ctx, probeURL, sensitiveFileTimeout)
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
			Type:           "Exposed Sensitive File",
			Severity:       model.SeverityHigh,
			Description:    fmt.Sprintf("The file %s is publicly downloadable.", path),
			Recommendation: "Block access to configuration and version-control files at the web server level.",
			Evidence:       fmt.Sprintf("HEAD %s returned %d", path, resp.StatusCode),
			URL:            probeURL,
		})
	}

	p.logger.Debug("sensitive file checks completed",
		logging.Field{Key: "exposed", Value: res.Checks.Failed})
	return res, nil
}
