package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/urlutil"
)

const (
	uploadTimeout     = 5 * time.Second
	uploadCheckBudget = 3
)

// UploadProbe inspects file upload exposure: file inputs on the base page
// without a type restriction, and conventional upload endpoints answering
// OPTIONS with POST allowed.
type UploadProbe struct {
	client  *Client
	catalog *Catalog
	logger  logging.Logger
}

func NewUploadProbe(client *Client, catalog *Catalog, logger logging.Logger) *UploadProbe {
	return &UploadProbe{
		client:  client,
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.upload"}),
	}
}

func (p *UploadProbe) Name() string { return "file-upload" }

func (p *UploadProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable {
		res.budget(0)
		return res, nil
	}

	p.checkFileInputs(tgt, &res)
	p.checkUploadEndpoints(ctx, tgt, &res)

	res.budget(uploadCheckBudget)
	p.logger.Debug("upload checks completed",
		logging.Field{Key: "findings", Value: len(res.Findings)})
	return res, nil
}

// checkFileInputs reports every file input once at low severity and flags
// inputs whose accept attribute is missing or permits everything at high.
func (p *UploadProbe) checkFileInputs(tgt *Target, res *Result) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(tgt.BaseBody)))
	if err != nil {
		return
	}
	inputs := doc.Find(`input[type="file"]`)
	if inputs.Length() > 0 {
		res.add(model.Finding{
			Type:           "File Upload Form Present",
			Severity:       model.SeverityLow,
			Description:    fmt.Sprintf("The page contains %d file upload input(s).", inputs.Length()),
			Recommendation: "Validate uploaded content server-side: content type, magic bytes, and size limits.",
			URL:            tgt.Raw,
		})
	}
	inputs.Each(func(_ int, in *goquery.Selection) {
		accept, _ := in.Attr("accept")
		accept = strings.TrimSpace(accept)
		if accept != "" && accept != "*/*" && accept != "*" {
			return
		}
		name, _ := in.Attr("name")
		res.add(model.Finding{
			Type:           "Unrestricted File Upload Form",
			Severity:       model.SeverityHigh,
			Description:    "A file upload input accepts any file type.",
			Recommendation: "Restrict accepted types client-side and validate content type and magic bytes server-side.",
			Evidence:       fmt.Sprintf("input name=%q has no restrictive accept attribute", name),
			URL:            tgt.Raw,
		})
	})
}

// checkUploadEndpoints sends OPTIONS to the conventional upload paths and
// flags the ones that advertise POST.
func (p *UploadProbe) checkUploadEndpoints(ctx context.Context, tgt *Target, res *Result) {
	for _, path := range p.catalog.UploadPaths {
		probeURL := urlutil.WithPath(tgt.URL, path)
		resp, err := p.client.Fetch(ctx, http.MethodOptions, probeURL, uploadTimeout)
		if err != nil {
			continue
		}
		if resp.StatusCode >= 400 {
			continue
		}
		allow := strings.ToUpper(resp.Headers.Get("Allow"))
		if !strings.Contains(allow, http.MethodPost) {
			continue
		}
		res.add(model.Finding{
			Type:           "Open Upload Endpoint",
			Severity:       model.SeverityMedium,
			Description:    fmt.Sprintf("The endpoint %s accepts POST uploads.", path),
			Recommendation: "Require authentication on upload endpoints and validate uploaded content.",
			Evidence:       fmt.Sprintf("OPTIONS %s returned %d with Allow: %s", path, resp.StatusCode, allow),
			URL:            probeURL,
		})
	}
}
