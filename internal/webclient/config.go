package webclient

import "time"

type Backend string

const (
	BackendNetHTTP  Backend = "nethttp"
	BackendChromedp Backend = "chromedp"
)

// Config selects and tunes the webclient backend. Timeout is the transport
// level ceiling; probes impose their own tighter per-family deadlines through
// the request context.
type Config struct {
	Backend   Backend
	Timeout   time.Duration
	UserAgent string

	// InsecureSkipVerify disables TLS certificate verification. Scanning a
	// target with a broken certificate must still produce findings instead
	// of a transport error.
	InsecureSkipVerify bool
}

// DefaultConfig returns the backend configuration used when the caller does
// not override anything.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendNetHTTP,
		Timeout:            30 * time.Second,
		UserAgent:          "webscan/1.0 (+security scanner)",
		InsecureSkipVerify: true,
	}
}
