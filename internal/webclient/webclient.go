// Package webclient abstracts the HTTP fetching backend used by probes.
// The default backend is net/http; a chromedp backend is available for
// targets that only render content through JavaScript.
package webclient

import (
	"context"

	"github.com/cayfen/webscan/internal/model"
)

type WebClient interface {
	Do(ctx context.Context, req *model.Request) (*model.Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*model.Response, error)

	Close() error
}
