package webclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
)

// ChromedpClient renders pages through a headless browser. Only GET is
// supported; probes that need other methods fall back to the nethttp backend
// through the Client wrapper.
type ChromedpClient struct {
	cfg       Config
	logger    logging.Logger
	allocCtx  context.Context
	allocStop context.CancelFunc
}

// NewChromedpClient starts a shared browser allocator. Tabs are created per
// request and torn down when the request context ends.
func NewChromedpClient(cfg Config, logger logging.Logger) (WebClient, error) {
	componentLogger := logger.With(logging.Field{Key: "component", Value: "webclient.chromedp"})

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("ignore-certificate-errors", cfg.InsecureSkipVerify),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocStop := chromedp.NewExecAllocator(context.Background(), opts...)

	componentLogger.Info("created chromedp webclient")
	return &ChromedpClient{
		cfg:       cfg,
		logger:    componentLogger,
		allocCtx:  allocCtx,
		allocStop: allocStop,
	}, nil
}

func (cdc *ChromedpClient) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("chromedp backend supports GET only, got %s", m)
	}

	tabCtx, cancelTab := chromedp.NewContext(cdc.allocCtx)
	defer cancelTab()
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithDeadline(tabCtx, deadline)
		defer cancel()
	}

	// Capture status and headers of the document response while the
	// navigation is in flight.
	var (
		mu      sync.Mutex
		status  = http.StatusOK
		headers = http.Header{}
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		status = int(resp.Response.Status)
		for k, v := range resp.Response.Headers {
			if s, ok := v.(string); ok {
				headers.Set(k, s)
			}
		}
	})

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(req.URL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		cdc.logger.Debug("chromedp navigation failed",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return &model.Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    headers,
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

// Get is a convenience method for simple GET requests
func (cdc *ChromedpClient) Get(ctx context.Context, url string) (*model.Response, error) {
	return cdc.Do(ctx, &model.Request{Method: http.MethodGet, URL: url})
}

func (cdc *ChromedpClient) Close() error {
	cdc.allocStop()
	cdc.logger.Debug("closing chromedp webclient")
	return nil
}
