package probe_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/probe"
	"github.com/cayfen/webscan/internal/testutil"
	"github.com/cayfen/webscan/internal/urlutil"
)

func newClient(wc *testutil.DummyWebClient) *probe.Client {
	return probe.NewClient(wc, 1000, 100, &testutil.DummyLogger{})
}

func newTarget(raw string, body string, headers http.Header) *probe.Target {
	u, _ := url.Parse(raw)
	if headers == nil {
		headers = http.Header{}
	}
	return &probe.Target{
		URL:         u,
		Raw:         raw,
		ScanType:    model.ScanTypeQuick,
		Reachable:   true,
		BaseStatus:  200,
		BaseHeaders: headers,
		BaseBody:    []byte(body),
	}
}

func checksConsistent(t *testing.T, res probe.Result) {
	t.Helper()
	if res.Checks.Passed+res.Checks.Failed != res.Checks.Total {
		t.Errorf("checks inconsistent: %+v", res.Checks)
	}
}

func findingTypes(res probe.Result) []string {
	types := make([]string, len(res.Findings))
	for i, f := range res.Findings {
		types[i] = f.Type
	}
	return types
}

func hasFinding(res probe.Result, typ string) bool {
	for _, f := range res.Findings {
		if f.Type == typ {
			return true
		}
	}
	return false
}

// ─── Reachability ──────────────────────────────────────────────────────

func TestReachability_Unreachable(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{FailAll: true}
	p := probe.NewReachabilityProbe(newClient(wc), &testutil.DummyLogger{})

	tgt := newTarget("http://down.test/", "", nil)
	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if tgt.Reachable {
		t.Error("target should be marked unreachable")
	}
	if res.Checks.Failed != 1 {
		t.Errorf("expected 1 failed check, got %+v", res.Checks)
	}
	if !hasFinding(res, "Connection Error") {
		t.Errorf("expected Connection Error finding, got %v", findingTypes(res))
	}
	if res.Findings[0].Severity != model.SeverityCritical {
		t.Errorf("expected critical severity, got %s", res.Findings[0].Severity)
	}
}

func TestReachability_PopulatesBaseResponse(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://up.test/": {
				Body:    "<html>hello</html>",
				Headers: http.Header{"Server": []string{"nginx"}},
			},
		},
	}
	p := probe.NewReachabilityProbe(newClient(wc), &testutil.DummyLogger{})

	tgt := &probe.Target{Raw: "http://up.test/", ScanType: model.ScanTypeQuick}
	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if !tgt.Reachable {
		t.Fatal("target should be reachable")
	}
	if string(tgt.BaseBody) != "<html>hello</html>" {
		t.Errorf("base body not captured: %q", tgt.BaseBody)
	}
	if res.Checks.Passed != 1 || res.Checks.Total != 1 {
		t.Errorf("expected 1/1 passed, got %+v", res.Checks)
	}
}

// ─── Security headers ──────────────────────────────────────────────────

func TestHeaders_AllMissing(t *testing.T) {
	t.Parallel()

	p := probe.NewHeadersProbe(probe.DefaultCatalog(), &testutil.DummyLogger{})
	tgt := newTarget("https://bare.test/", "<html></html>", http.Header{})

	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Total != 7 || res.Checks.Failed != 7 {
		t.Errorf("expected 7/7 failed, got %+v", res.Checks)
	}
	if len(res.Findings) != 7 {
		t.Errorf("expected 7 findings, got %d", len(res.Findings))
	}
	for _, f := range res.Findings {
		if f.Type != "Missing Security Header" {
			t.Errorf("unexpected finding type %q", f.Type)
		}
		if f.Severity != model.SeverityMedium {
			t.Errorf("expected medium severity, got %s", f.Severity)
		}
	}
}

func TestHeaders_AllPresent(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	for _, name := range []string{
		"Content-Security-Policy", "X-Frame-Options",
		"X-Content-Type-Options", "Strict-Transport-Security",
		"X-XSS-Protection", "Referrer-Policy", "Permissions-Policy",
	} {
		headers.Set(name, "value")
	}

	p := probe.NewHeadersProbe(probe.DefaultCatalog(), &testutil.DummyLogger{})
	res, err := p.Run(context.Background(), newTarget("https://hardened.test/", "", headers))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Passed != 7 || res.Checks.Failed != 0 {
		t.Errorf("expected 7/7 passed, got %+v", res.Checks)
	}
	if len(res.SecurityHeaders) != 7 {
		t.Errorf("expected 7 recorded headers, got %d", len(res.SecurityHeaders))
	}
}

// ─── SQL injection ─────────────────────────────────────────────────────

func TestSQLi_ErrorInBaseBody(t *testing.T) {
	t.Parallel()

	p := probe.NewSQLiProbe(newClient(&testutil.DummyWebClient{}), probe.DefaultCatalog(), &testutil.DummyLogger{})
	tgt := newTarget("http://db.test/", "You have an error in your SQL syntax near 'x'", nil)

	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if !hasFinding(res, "SQL Injection Vulnerability") {
		t.Fatalf("expected SQL finding, got %v", findingTypes(res))
	}
	if res.Checks.Total != 5 {
		t.Errorf("expected 5-check budget, got %+v", res.Checks)
	}
}

func TestSQLi_ParameterInjection(t *testing.T) {
	t.Parallel()

	raw := "http://db.test/product?id=1"
	catalog := probe.DefaultCatalog()
	injected, err := urlutil.WithParam(raw, "id", catalog.SQLiPayload)
	if err != nil {
		t.Fatal(err)
	}

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			raw:      {Body: "<html>Product 1</html>"},
			injected: {Body: "Warning: mysql_fetch_array() expects parameter 1"},
		},
	}
	p := probe.NewSQLiProbe(newClient(wc), catalog, &testutil.DummyLogger{})

	tgt := newTarget(raw, "<html>Product 1</html>", nil)
	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if !hasFinding(res, "SQL Injection Vulnerability") {
		t.Fatalf("expected injection finding, got %v", findingTypes(res))
	}
	var found model.Finding
	for _, f := range res.Findings {
		if f.Type == "SQL Injection Vulnerability" {
			found = f
		}
	}
	if found.Parameter != "id" {
		t.Errorf("expected parameter id, got %q", found.Parameter)
	}
	if found.Severity != model.SeverityCritical {
		t.Errorf("expected critical, got %s", found.Severity)
	}
}

func TestSQLi_CleanTarget(t *testing.T) {
	t.Parallel()

	raw := "http://clean.test/page?id=1"
	catalog := probe.DefaultCatalog()
	injected, _ := urlutil.WithParam(raw, "id", catalog.SQLiPayload)

	body := "<html>Normal page content</html>"
	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			raw:      {Body: body},
			injected: {Body: body},
		},
	}
	p := probe.NewSQLiProbe(newClient(wc), catalog, &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget(raw, body, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if len(res.Findings) != 0 {
		t.Errorf("expected no findings, got %v", findingTypes(res))
	}
	if res.Checks.Passed != 5 {
		t.Errorf("expected 5/5 passed, got %+v", res.Checks)
	}
}

// ─── Cross-site scripting ──────────────────────────────────────────────

func TestXSS_ReflectedParameter(t *testing.T) {
	t.Parallel()

	raw := "http://shop.test/search?q=widgets"
	catalog := probe.DefaultCatalog()
	injected, err := urlutil.WithParam(raw, "q", catalog.XSSPayload)
	if err != nil {
		t.Fatal(err)
	}

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			injected: {Body: "<html>You searched for: " + catalog.XSSPayload + "</html>"},
		},
	}
	p := probe.NewXSSProbe(newClient(wc), catalog, &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget(raw, "<html>results</html>", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if !hasFinding(res, "Reflected XSS Vulnerability") {
		t.Fatalf("expected reflected XSS finding, got %v", findingTypes(res))
	}
	for _, f := range res.Findings {
		if f.Type == "Reflected XSS Vulnerability" {
			if f.Severity != model.SeverityCritical {
				t.Errorf("expected critical, got %s", f.Severity)
			}
			if f.Parameter != "q" {
				t.Errorf("expected parameter q, got %q", f.Parameter)
			}
		}
	}
}

func TestXSS_DangerousPatternsAndForms(t *testing.T) {
	t.Parallel()

	body := `<html>
<script>document.write(location.hash); el.innerHTML = data;</script>
<form method="post" action="/contact"><input type="text" name="email"></form>
</html>`
	p := probe.NewXSSProbe(newClient(&testutil.DummyWebClient{}), probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://dyn.test/", body, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if !hasFinding(res, "Dangerous JavaScript Pattern") {
		t.Errorf("expected dangerous pattern finding, got %v", findingTypes(res))
	}
	for _, f := range res.Findings {
		if f.Type == "Dangerous JavaScript Pattern" && f.Severity != model.SeverityHigh {
			t.Errorf("expected high severity pattern finding, got %s", f.Severity)
		}
	}
	if !hasFinding(res, "HTML Form Present") {
		t.Errorf("expected form presence finding, got %v", findingTypes(res))
	}
	if !hasFinding(res, "Form Without CSRF Token") {
		t.Errorf("expected CSRF finding, got %v", findingTypes(res))
	}
}

func TestXSS_PartialReflection(t *testing.T) {
	t.Parallel()

	// The server strips the quotes, so the exact payload never comes back
	// but its alert fragment does.
	raw := "http://strip.test/page?q=1"
	catalog := probe.DefaultCatalog()
	injected, err := urlutil.WithParam(raw, "q", catalog.XSSPayload)
	if err != nil {
		t.Fatal(err)
	}

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			injected: {Body: "<html>You searched for: alert(XSS)</html>"},
		},
	}
	p := probe.NewXSSProbe(newClient(wc), catalog, &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget(raw, "<html>results</html>", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if hasFinding(res, "Reflected XSS Vulnerability") {
		t.Fatalf("quote-stripped echo must not count as verbatim, got %v", findingTypes(res))
	}
	if !hasFinding(res, "Possible XSS Vulnerability") {
		t.Fatalf("expected partial reflection finding, got %v", findingTypes(res))
	}
	for _, f := range res.Findings {
		if f.Type == "Possible XSS Vulnerability" && f.Severity != model.SeverityHigh {
			t.Errorf("expected high severity, got %s", f.Severity)
		}
	}
}

func TestXSS_BudgetCapsFailures(t *testing.T) {
	t.Parallel()

	// Body trips all five dangerous patterns plus a tokenless POST form;
	// failures cap at the family budget.
	body := `<html>
<script>eval(x); document.write(y); el.innerHTML = z;</script>
<div onclick=go() href="javascript:run()">x</div>
<a href="javascript:run()">y</a>
<form method="post"><input type="text" name="a"></form>
<form method="post"><input type="text" name="b"></form>
</html>`
	p := probe.NewXSSProbe(newClient(&testutil.DummyWebClient{}), probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://busy.test/", body, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Total != 5 {
		t.Errorf("expected 5-check budget, got %+v", res.Checks)
	}
	if res.Checks.Failed != 5 {
		t.Errorf("expected failures capped at 5, got %+v", res.Checks)
	}
	if len(res.Findings) <= 5 {
		t.Errorf("expected more findings than budget, got %d", len(res.Findings))
	}
}

// ─── Sensitive files ───────────────────────────────────────────────────

func TestSensitiveFiles_ExposedEnv(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://leaky.test/.env": {Status: 200, Body: "DB_PASSWORD=x"},
		},
	}
	p := probe.NewSensitiveFilesProbe(newClient(wc), probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://leaky.test/", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Total != 10 {
		t.Errorf("expected 10 probed paths, got %+v", res.Checks)
	}
	if res.Checks.Failed != 1 {
		t.Errorf("expected exactly 1 exposed file, got %+v", res.Checks)
	}
	if !hasFinding(res, "Exposed Sensitive File") {
		t.Fatalf("expected exposed file finding, got %v", findingTypes(res))
	}
	if res.Findings[0].Severity != model.SeverityHigh {
		t.Errorf("expected high severity, got %s", res.Findings[0].Severity)
	}
}

// ─── SSL/TLS ───────────────────────────────────────────────────────────

func TestSSL_PlainHTTP(t *testing.T) {
	t.Parallel()

	p := probe.NewSSLProbe(&testutil.DummyLogger{})
	res, err := p.Run(context.Background(), newTarget("http://plain.test/", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.SSLInfo == nil || res.SSLInfo.Enabled {
		t.Errorf("expected sslInfo.enabled=false, got %+v", res.SSLInfo)
	}
	if res.Checks.Failed != 1 || res.Checks.Total != 1 {
		t.Errorf("expected 1/1 failed, got %+v", res.Checks)
	}
	if !hasFinding(res, "No SSL/TLS Encryption") {
		t.Fatalf("expected missing TLS finding, got %v", findingTypes(res))
	}
	if res.Findings[0].Severity != model.SeverityCritical {
		t.Errorf("expected critical, got %s", res.Findings[0].Severity)
	}
}

// ─── Information leakage ───────────────────────────────────────────────

func TestLeakage_QuotedKeywords(t *testing.T) {
	t.Parallel()

	body := `<script>var cfg = {"api_key": "abc", "secret": "s3"};</script>`
	p := probe.NewLeakageProbe(probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://cfg.test/", body, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if !hasFinding(res, "Information Leakage") {
		t.Fatalf("expected leakage finding, got %v", findingTypes(res))
	}
	if res.Findings[0].Severity != model.SeverityHigh {
		t.Errorf("expected high severity, got %s", res.Findings[0].Severity)
	}
	if !strings.Contains(res.Findings[0].Evidence, "api_key") {
		t.Errorf("expected api_key in evidence, got %q", res.Findings[0].Evidence)
	}
}

func TestLeakage_PlainProseIsClean(t *testing.T) {
	t.Parallel()

	body := `<html><label>Password</label><p>Enter your password to continue.</p></html>`
	p := probe.NewLeakageProbe(probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://login.test/", body, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Findings) != 0 {
		t.Errorf("unquoted keyword should not leak, got %v", findingTypes(res))
	}
	if res.Checks.Passed != 1 {
		t.Errorf("expected 1 passed check, got %+v", res.Checks)
	}
}

// ─── Technology detection ──────────────────────────────────────────────

func TestTech_HeaderAndBodyFingerprints(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("Server", "nginx/1.25")
	headers.Set("X-Powered-By", "PHP/8.2")
	body := `<html><div class="wp-content"></div><script src="jquery.min.js"></script></html>`

	p := probe.NewTechProbe(probe.DefaultCatalog(), &testutil.DummyLogger{})
	res, err := p.Run(context.Background(), newTarget("http://blog.test/", body, headers))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]bool{"nginx": true, "PHP": true, "WordPress": true, "jQuery": true}
	for _, tech := range res.Technologies {
		delete(want, tech)
	}
	if len(want) != 0 {
		t.Errorf("missing technologies %v, detected %v", want, res.Technologies)
	}
	if res.Checks.Total != 0 {
		t.Errorf("technology detection must not contribute checks, got %+v", res.Checks)
	}
	if len(res.Findings) != 0 {
		t.Errorf("technology detection must not produce findings, got %v", findingTypes(res))
	}
}

// ─── Access control & exposed endpoints (full scans) ───────────────────

func TestAccessControl_QuickScanSkips(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{}
	p := probe.NewAccessControlProbe(newClient(wc), probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://site.test/", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Checks.Total != 0 || len(res.Findings) != 0 {
		t.Errorf("quick scan must skip access control, got %+v", res)
	}
	if len(wc.RequestedURLs()) != 0 {
		t.Errorf("quick scan must not probe paths, requested %v", wc.RequestedURLs())
	}
}

func TestAccessControl_OpenAdminAndIDOR(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://open.test/admin":       {Status: 200, Body: "<h1>Admin</h1>"},
			"http://open.test/api/users/1": {Status: 200, Body: `{"id":1}`},
		},
	}
	p := probe.NewAccessControlProbe(newClient(wc), probe.DefaultCatalog(), &testutil.DummyLogger{})

	tgt := newTarget("http://open.test/", "", nil)
	tgt.ScanType = model.ScanTypeFull
	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Total != 10 {
		t.Errorf("expected 10-check budget, got %+v", res.Checks)
	}
	if !hasFinding(res, "Unprotected Admin Interface") {
		t.Errorf("expected admin finding, got %v", findingTypes(res))
	}
	if !hasFinding(res, "Insecure Direct Object Reference") {
		t.Errorf("expected IDOR finding, got %v", findingTypes(res))
	}
	for _, f := range res.Findings {
		switch f.Type {
		case "Unprotected Admin Interface":
			if f.Severity != model.SeverityCritical {
				t.Errorf("admin finding should be critical, got %s", f.Severity)
			}
		case "Insecure Direct Object Reference":
			if f.Severity != model.SeverityHigh {
				t.Errorf("IDOR finding should be high, got %s", f.Severity)
			}
		}
	}
}

func TestEndpoints_ExposedGitDir(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://repo.test/.git": {Status: 200},
		},
	}
	p := probe.NewEndpointsProbe(newClient(wc), probe.DefaultCatalog(), &testutil.DummyLogger{})

	tgt := newTarget("http://repo.test/", "", nil)
	tgt.ScanType = model.ScanTypeFull
	res, err := p.Run(context.Background(), tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Total != 8 {
		t.Errorf("expected one check per endpoint, got %+v", res.Checks)
	}
	if res.Checks.Failed != 1 || !hasFinding(res, "Exposed Endpoint") {
		t.Errorf("expected one exposed endpoint, got %+v / %v", res.Checks, findingTypes(res))
	}
}

// ─── Upload ────────────────────────────────────────────────────────────

func TestUpload_UnrestrictedFileInput(t *testing.T) {
	t.Parallel()

	body := `<html><form><input type="file" name="doc"></form></html>`
	p := probe.NewUploadProbe(newClient(&testutil.DummyWebClient{}), probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://files.test/", body, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checksConsistent(t, res)

	if res.Checks.Total != 3 {
		t.Errorf("expected 3-check budget, got %+v", res.Checks)
	}
	if !hasFinding(res, "File Upload Form Present") {
		t.Errorf("expected presence finding, got %v", findingTypes(res))
	}
	if !hasFinding(res, "Unrestricted File Upload Form") {
		t.Errorf("expected upload finding, got %v", findingTypes(res))
	}
	for _, f := range res.Findings {
		if f.Type == "Unrestricted File Upload Form" && f.Severity != model.SeverityHigh {
			t.Errorf("unrestricted upload should be high, got %s", f.Severity)
		}
	}
}

func TestUpload_OpenEndpoint(t *testing.T) {
	t.Parallel()

	wc := &testutil.DummyWebClient{
		Responses: map[string]testutil.DummyResponse{
			"http://files.test/upload": {
				Status:  204,
				Headers: http.Header{"Allow": []string{"GET, POST, OPTIONS"}},
			},
		},
	}
	p := probe.NewUploadProbe(newClient(wc), probe.DefaultCatalog(), &testutil.DummyLogger{})

	res, err := p.Run(context.Background(), newTarget("http://files.test/", "<html></html>", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasFinding(res, "Open Upload Endpoint") {
		t.Errorf("expected open endpoint finding, got %v", findingTypes(res))
	}
}
