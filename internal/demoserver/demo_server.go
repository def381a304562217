// Package demoserver is a deliberately configurable scan target used for
// demonstrations and end-to-end testing. In vulnerable mode it reflects
// query parameters, leaks database error text, and exposes conventional
// admin paths; in safe mode the same pages are served hardened.
package demoserver

import (
	"fmt"
	"html"
	"net/http"
	"strings"
)

// DemoServer is the demo scan target.
type DemoServer struct {
	cfg Config
}

func NewDemoServer(cfg Config) *DemoServer {
	return &DemoServer{cfg: cfg}
}

// Handler returns the demo site as an http.Handler, suitable both for
// ListenAndServe and for httptest servers.
func (s *DemoServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/search", s.searchHandler)
	mux.HandleFunc("/product", s.productHandler)
	mux.HandleFunc("/contact", s.contactHandler)
	mux.HandleFunc("/upload", s.uploadHandler)

	if s.vulnerable() {
		mux.HandleFunc("/admin", s.adminHandler)
		mux.HandleFunc("/.env", s.envHandler)
	}

	return mux
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo server (%s mode) starting on http://localhost%s\n", s.cfg.Mode, addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *DemoServer) vulnerable() bool {
	return s.cfg.Mode != ModeSafe
}

// secureHeaders sets the full header set in safe mode and nothing in
// vulnerable mode.
func (s *DemoServer) secureHeaders(w http.ResponseWriter) {
	if s.vulnerable() {
		w.Header().Set("X-Powered-By", "PHP/7.4.3")
		w.Header().Set("Server", "Apache/2.4.41")
		return
	}
	h := w.Header()
	h.Set("Content-Security-Policy", "default-src 'self'")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Strict-Transport-Security", "max-age=31536000")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "geolocation=(), camera=()")
}

func (s *DemoServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.secureHeaders(w)
	w.Header().Set("Content-Type", "text/html")

	secrets := ""
	if s.vulnerable() {
		secrets = `<script>var config = {"api_key": "sk-demo-1234", "secret": "hunter2"};</script>`
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>Demo Shop</title>%s</head>
<body>
<h1>Demo Shop</h1>
<a href="/search?q=widgets">Search</a>
<a href="/product?id=1">Product 1</a>
<a href="/contact">Contact</a>
<a href="/upload">Upload</a>
<div class="wp-content">powered by jquery and bootstrap</div>
</body>
</html>`, secrets)
}

// searchHandler reflects the q parameter. Vulnerable mode echoes it raw,
// safe mode HTML-escapes it.
func (s *DemoServer) searchHandler(w http.ResponseWriter, r *http.Request) {
	s.secureHeaders(w)
	w.Header().Set("Content-Type", "text/html")

	q := r.URL.Query().Get("q")
	if !s.vulnerable() {
		q = html.EscapeString(q)
	}
	fmt.Fprintf(w, `<html><body><h1>Search results</h1><p>You searched for: %s</p></body></html>`, q)
}

// productHandler simulates a database-backed page. An injected quote in the
// id parameter produces MySQL error text in vulnerable mode.
func (s *DemoServer) productHandler(w http.ResponseWriter, r *http.Request) {
	s.secureHeaders(w)
	w.Header().Set("Content-Type", "text/html")

	id := r.URL.Query().Get("id")
	if s.vulnerable() && strings.Contains(id, "'") {
		fmt.Fprintf(w, `<html><body>You have an error in your SQL syntax; check the manual that corresponds to your MySQL server version for the right syntax to use near '%s'</body></html>`, html.EscapeString(id))
		return
	}
	fmt.Fprintf(w, `<html><body><h1>Product %s</h1><p>A fine product.</p></body></html>`, html.EscapeString(id))
}

func (s *DemoServer) contactHandler(w http.ResponseWriter, r *http.Request) {
	s.secureHeaders(w)
	w.Header().Set("Content-Type", "text/html")

	token := ""
	if !s.vulnerable() {
		token = `<input type="hidden" name="csrf_token" value="demo-token">`
	}
	fmt.Fprintf(w, `<html><body>
<form method="post" action="/contact">
%s
<input type="text" name="email">
<textarea name="message"></textarea>
<button type="submit">Send</button>
</form>
</body></html>`, token)
}

func (s *DemoServer) uploadHandler(w http.ResponseWriter, r *http.Request) {
	s.secureHeaders(w)

	if r.Method == http.MethodOptions {
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	accept := ""
	if !s.vulnerable() {
		accept = ` accept="image/png,image/jpeg"`
	}
	fmt.Fprintf(w, `<html><body>
<form method="post" action="/upload" enctype="multipart/form-data">
<input type="file" name="attachment"%s>
<button type="submit">Upload</button>
</form>
</body></html>`, accept)
}

func (s *DemoServer) adminHandler(w http.ResponseWriter, r *http.Request) {
	s.secureHeaders(w)
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<html><body><h1>Admin Dashboard</h1><p>Users: 42</p></body></html>`)
}

func (s *DemoServer) envHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "DB_PASSWORD=demo-password\nAPI_SECRET=demo-secret\n")
}
