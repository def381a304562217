package model

import (
	"net/http"
	"time"
)

// Request is the backend-agnostic outbound request shape used by webclient
// implementations.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the normalized response produced by a webclient backend. Body
// is fully read before the response is returned.
type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}
