package probe

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/urlutil"
)

const (
	xssTimeout     = 5 * time.Second
	xssCheckBudget = 5
)

// XSSProbe looks for cross-site scripting exposure: dangerous inline script
// patterns in the base page, forms without obvious CSRF protection, and
// verbatim reflection of an injected script payload in query parameters.
type XSSProbe struct {
	client  *Client
	catalog *Catalog
	logger  logging.Logger
}

func NewXSSProbe(client *Client, catalog *Catalog, logger logging.Logger) *XSSProbe {
	return &XSSProbe{
		client:  client,
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.xss"}),
	}
}

func (p *XSSProbe) Name() string { return "cross-site-scripting" }

func (p *XSSProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable {
		res.budget(0)
		return res, nil
	}

	base := string(tgt.BaseBody)
	for _, pat := range p.catalog.DangerousPatterns {
		if pat.Re.MatchString(base) {
			res.add(model.Finding{
				Type:           "Dangerous JavaScript Pattern",
				Severity:       model.SeverityHigh,
				Description:    fmt.Sprintf("The page uses %s, which can enable DOM-based XSS if fed attacker-controlled input.", pat.Name),
				Recommendation: "Avoid injecting untrusted data into the DOM; prefer textContent and sanitize HTML with a vetted library.",
				Evidence:       fmt.Sprintf("pattern %q matched in page source", pat.Name),
				URL:            tgt.Raw,
			})
		}
	}

	p.checkForms(tgt, &res)

	for _, f := range p.testReflection(ctx, tgt) {
		res.add(f)
	}

	res.budget(xssCheckBudget)
	p.logger.Debug("xss checks completed",
		logging.Field{Key: "findings", Value: len(res.Findings)})
	return res, nil
}

// checkForms reports form presence once at low severity, then flags POST
// forms that carry no hidden token field, a rough proxy for missing CSRF
// protection.
func (p *XSSProbe) checkForms(tgt *Target, res *Result) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(tgt.BaseBody)))
	if err != nil {
		return
	}
	forms := doc.Find("form")
	if forms.Length() > 0 {
		res.add(model.Finding{
			Type:           "HTML Form Present",
			Severity:       model.SeverityLow,
			Description:    fmt.Sprintf("The page contains %d form(s) accepting user input.", forms.Length()),
			Recommendation: "Validate and encode all form input server-side.",
			URL:            tgt.Raw,
		})
	}
	forms.Each(func(_ int, form *goquery.Selection) {
		method, _ := form.Attr("method")
		if !strings.EqualFold(method, "post") {
			return
		}
		hasToken := false
		form.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
			name, _ := in.Attr("name")
			name = strings.ToLower(name)
			if strings.Contains(name, "csrf") || strings.Contains(name, "token") {
				hasToken = true
			}
		})
		if hasToken {
			return
		}
		action, _ := form.Attr("action")
		res.add(model.Finding{
			Type:           "Form Without CSRF Token",
			Severity:       model.SeverityMedium,
			Description:    "A POST form carries no hidden CSRF token field.",
			Recommendation: "Include a per-session anti-CSRF token in every state-changing form.",
			Evidence:       fmt.Sprintf("form action=%q has no hidden csrf/token input", action),
			URL:            tgt.Raw,
		})
	})
}

// testReflection injects the script payload into each query parameter and
// checks whether it comes back in the response. A verbatim echo is an
// exploitable reflected XSS; an HTML-encoded echo still signals the
// parameter reaches the page unvalidated.
func (p *XSSProbe) testReflection(ctx context.Context, tgt *Target) []model.Finding {
	var findings []model.Finding
	probed := 0
	for _, raw := range injectionTargets(tgt) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		for param := range u.Query() {
			if probed >= maxParamProbes {
				return findings
			}
			probed++
			if f, ok := p.testOneReflection(ctx, raw, param); ok {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

func (p *XSSProbe) testOneReflection(ctx context.Context, rawURL, param string) (model.Finding, bool) {
	testURL, err := urlutil.WithParam(rawURL, param, p.catalog.XSSPayload)
	if err != nil {
		return model.Finding{}, false
	}
	resp, err := p.client.Get(ctx, testURL, xssTimeout)
	if err != nil {
		return model.Finding{}, false
	}
	body := string(resp.Body)

	if strings.Contains(body, p.catalog.XSSPayload) {
		return model.Finding{
			Type:           "Reflected XSS Vulnerability",
			Severity:       model.SeverityCritical,
			Description:    fmt.Sprintf("Parameter %q reflects a script payload verbatim into the page.", param),
			Recommendation: "HTML-encode all user input before rendering and deploy a Content-Security-Policy.",
			Evidence:       fmt.Sprintf("payload %s echoed unencoded", p.catalog.XSSPayload),
			URL:            rawURL,
			Parameter:      param,
		}, true
	}

	// Partial reflection: a fragment of the payload survives even though
	// the exact payload did not come back, e.g. quotes stripped or tags
	// encoded away.
	lower := strings.ToLower(body)
	if strings.Contains(lower, "alert") || strings.Contains(lower, "<script") {
		return model.Finding{
			Type:           "Possible XSS Vulnerability",
			Severity:       model.SeverityHigh,
			Description:    fmt.Sprintf("Parameter %q is reflected into the page after partial encoding.", param),
			Recommendation: "Apply context-aware output encoding to every reflected parameter.",
			Evidence:       "payload marker reflected with tags altered",
			URL:            rawURL,
			Parameter:      param,
		}, true
	}
	return model.Finding{}, false
}
