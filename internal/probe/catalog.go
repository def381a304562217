package probe

import "regexp"

// Catalog holds the signature tables the probe families match against.
// Detection data is kept here, separate from probe behavior, so new
// signatures can be added without touching the orchestration code.
type Catalog struct {
	// SecurityHeaders are checked for presence on the base response, one
	// check per header.
	SecurityHeaders []HeaderSignature

	// SQLErrorSignatures are matched case-insensitively against response
	// bodies to detect database errors leaking to the client.
	SQLErrorSignatures []string

	// SQLiPayload replaces each query parameter value during injection
	// testing.
	SQLiPayload string

	// XSSPayload replaces each query parameter value during reflection
	// testing.
	XSSPayload string

	// DangerousPatterns flag risky client-side constructs in the base body.
	DangerousPatterns []PatternSignature

	// UploadPaths are conventional upload endpoints probed with OPTIONS.
	UploadPaths []string

	// SensitivePaths are probed unauthenticated during full scans.
	SensitivePaths []SensitivePath

	// SensitiveFiles are conventionally-secret paths probed with HEAD; only
	// the first sensitiveFileLimit entries are tested per scan.
	SensitiveFiles []string

	// LeakKeywords are matched as quoted strings in the base body.
	LeakKeywords []string

	// ExposedEndpoints are probed with HEAD during full scans.
	ExposedEndpoints []string

	// TechFingerprints passively identify server software and frameworks.
	TechFingerprints []TechFingerprint
}

// HeaderSignature is one required security header with its remediation text.
type HeaderSignature struct {
	Name           string
	Description    string
	Recommendation string
}

// PatternSignature is a named regular expression flagging a dangerous
// client-side construct.
type PatternSignature struct {
	Name string
	Re   *regexp.Regexp
}

// SensitivePath is an access-control probe target. IDOR-style paths produce
// high-severity findings on success, admin-style paths critical ones.
type SensitivePath struct {
	Path string
	IDOR bool
}

// TechFingerprint matches a technology either in a response header or as a
// substring of the body (both lowercased before matching).
type TechFingerprint struct {
	Name           string
	Header         string
	HeaderContains string
	BodyContains   string
}

// sensitiveFileLimit bounds how many SensitiveFiles entries one scan probes.
const sensitiveFileLimit = 10

// DefaultCatalog returns the built-in signature tables.
func DefaultCatalog() *Catalog {
	return &Catalog{
		SecurityHeaders: []HeaderSignature{
			{
				Name:           "Content-Security-Policy",
				Description:    "Content-Security-Policy header is missing, leaving the site without a script-source allowlist.",
				Recommendation: "Define a Content-Security-Policy that restricts script and frame sources.",
			},
			{
				Name:           "X-Frame-Options",
				Description:    "X-Frame-Options header is missing, allowing the page to be framed for clickjacking.",
				Recommendation: "Set X-Frame-Options to DENY or SAMEORIGIN.",
			},
			{
				Name:           "X-Content-Type-Options",
				Description:    "X-Content-Type-Options header is missing, allowing MIME-type sniffing.",
				Recommendation: "Set X-Content-Type-Options to nosniff.",
			},
			{
				Name:           "Strict-Transport-Security",
				Description:    "Strict-Transport-Security header is missing, so browsers may downgrade to HTTP.",
				Recommendation: "Set Strict-Transport-Security with a max-age of at least one year.",
			},
			{
				Name:           "X-XSS-Protection",
				Description:    "X-XSS-Protection header is missing.",
				Recommendation: "Set X-XSS-Protection to '1; mode=block' for legacy browsers.",
			},
			{
				Name:           "Referrer-Policy",
				Description:    "Referrer-Policy header is missing, so full URLs may leak to third parties.",
				Recommendation: "Set Referrer-Policy to strict-origin-when-cross-origin or stricter.",
			},
			{
				Name:           "Permissions-Policy",
				Description:    "Permissions-Policy header is missing, leaving powerful browser features unrestricted.",
				Recommendation: "Set a Permissions-Policy disabling unused browser features.",
			},
		},
		SQLErrorSignatures: []string{
			"sql syntax",
			"mysql_fetch",
			"mysqli_",
			"you have an error in your sql syntax",
			"warning: mysql",
			"unclosed quotation mark",
			"quoted string not properly terminated",
			"sqlstate[",
			"postgresql error",
			"pg_query",
			"ora-01756",
			"ora-00933",
			"sqlite error",
			"microsoft ole db provider for sql server",
			"odbc sql server driver",
		},
		SQLiPayload: `' OR '1'='1`,
		XSSPayload:  `<script>alert('XSS')</script>`,
		DangerousPatterns: []PatternSignature{
			{Name: "eval call", Re: regexp.MustCompile(`(?i)\beval\s*\(`)},
			{Name: "innerHTML assignment", Re: regexp.MustCompile(`(?i)\.innerHTML\s*=`)},
			{Name: "document.write call", Re: regexp.MustCompile(`(?i)document\.write\s*\(`)},
			{Name: "inline event handler", Re: regexp.MustCompile(`(?i)<[^>]+\son(?:click|load|error|mouseover|focus|submit)\s*=`)},
			{Name: "javascript: URI", Re: regexp.MustCompile(`(?i)href\s*=\s*["']javascript:`)},
		},
		UploadPaths: []string{
			"/upload",
			"/api/upload",
			"/file-upload",
			"/files/upload",
		},
		SensitivePaths: []SensitivePath{
			{Path: "/admin"},
			{Path: "/admin/"},
			{Path: "/administrator"},
			{Path: "/admin/login"},
			{Path: "/admin/dashboard"},
			{Path: "/phpmyadmin"},
			{Path: "/wp-admin"},
			{Path: "/api/users/1", IDOR: true},
			{Path: "/api/user/1", IDOR: true},
			{Path: "/api/admin/users", IDOR: true},
		},
		SensitiveFiles: []string{
			"/.env",
			"/.git/config",
			"/wp-config.php",
			"/config.php",
			"/.htaccess",
			"/web.config",
			"/backup.sql",
			"/database.sql",
			"/.DS_Store",
			"/composer.json",
			"/package.json",
			"/.gitignore",
		},
		LeakKeywords: []string{
			"password",
			"api_key",
			"secret",
			"token",
			"private",
		},
		ExposedEndpoints: []string{
			"/admin",
			"/.git",
			"/.env",
			"/backup",
			"/phpinfo.php",
			"/server-status",
			"/actuator",
			"/debug",
		},
		TechFingerprints: []TechFingerprint{
			{Name: "nginx", Header: "Server", HeaderContains: "nginx"},
			{Name: "Apache", Header: "Server", HeaderContains: "apache"},
			{Name: "Microsoft IIS", Header: "Server", HeaderContains: "iis"},
			{Name: "Cloudflare", Header: "Server", HeaderContains: "cloudflare"},
			{Name: "PHP", Header: "X-Powered-By", HeaderContains: "php"},
			{Name: "ASP.NET", Header: "X-Powered-By", HeaderContains: "asp.net"},
			{Name: "Express", Header: "X-Powered-By", HeaderContains: "express"},
			{Name: "WordPress", BodyContains: "wp-content"},
			{Name: "Drupal", BodyContains: "drupal"},
			{Name: "Joomla", BodyContains: "joomla"},
			{Name: "React", BodyContains: "data-reactroot"},
			{Name: "Vue.js", BodyContains: "data-v-app"},
			{Name: "Angular", BodyContains: "ng-version"},
			{Name: "jQuery", BodyContains: "jquery"},
			{Name: "Bootstrap", BodyContains: "bootstrap"},
			{Name: "Google Analytics", BodyContains: "google-analytics.com"},
			{Name: "Google Tag Manager", BodyContains: "googletagmanager.com"},
		},
	}
}
