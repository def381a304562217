package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/cayfen/webscan/internal/logging"
	"github.com/cayfen/webscan/internal/model"
)

const reachabilityTimeout = 10 * time.Second

// ReachabilityProbe performs the single base-page fetch every scan starts
// with. Unlike the other families its network failure is itself a finding:
// an unreachable target is a critical result, not a skipped check. On
// success it populates the shared base body on the Target for the
// body-dependent families.
type ReachabilityProbe struct {
	client *Client
	logger logging.Logger
}

func NewReachabilityProbe(client *Client, logger logging.Logger) *ReachabilityProbe {
	return &ReachabilityProbe{
		client: client,
		logger: logger.With(logging.Field{Key: "component", Value: "probe.reachability"}),
	}
}

func (p *ReachabilityProbe) Name() string { return "reachability" }

func (p *ReachabilityProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result

	resp, err := p.client.Get(ctx, tgt.Raw, reachabilityTimeout)
	if err != nil {
		p.logger.Info("base fetch failed",
			logging.Field{Key: "url", Value: tgt.Raw},
			logging.Field{Key: "error", Value: err.Error()})
		tgt.Reachable = false
		res.fail(1)
		res.add(model.Finding{
			Type:           "Connection Error",
			Severity:       model.SeverityCritical,
			Description:    fmt.Sprintf("The target could not be reached: %v", err),
			Recommendation: "Verify the URL is correct and the server is online and accepting connections.",
			URL:            tgt.Raw,
		})
		return res, nil
	}

	tgt.Reachable = true
	tgt.BaseStatus = resp.StatusCode
	tgt.BaseHeaders = resp.Headers
	tgt.BaseBody = resp.Body
	res.pass(1)

	p.logger.Debug("base fetch completed",
		logging.Field{Key: "url", Value: tgt.Raw},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "body_bytes", Value: len(resp.Body)})
	return res, nil
}
