package probe

import (
	"context"
	"strings"

	"github.com/cayfen/webscan/internal/logging"
)

// TechProbe passively fingerprints server software and frontend frameworks
// from the base response. It contributes no checks and no findings, only the
// technologies list.
type TechProbe struct {
	catalog *Catalog
	logger  logging.Logger
}

func NewTechProbe(catalog *Catalog, logger logging.Logger) *TechProbe {
	return &TechProbe{
		catalog: catalog,
		logger:  logger.With(logging.Field{Key: "component", Value: "probe.tech"}),
	}
}

func (p *TechProbe) Name() string { return "technology-detection" }

func (p *TechProbe) Run(ctx context.Context, tgt *Target) (Result, error) {
	var res Result
	if !tgt.Reachable {
		return res, nil
	}

	body := strings.ToLower(string(tgt.BaseBody))
	seen := make(map[string]bool)
	for _, fp := range p.catalog.TechFingerprints {
		if seen[fp.Name] {
			continue
		}
		matched := false
		if fp.Header != "" {
			value := strings.ToLower(tgt.BaseHeaders.Get(fp.Header))
			matched = value != "" && strings.Contains(value, fp.HeaderContains)
		} else if fp.BodyContains != "" {
			matched = strings.Contains(body, fp.BodyContains)
		}
		if matched {
			seen[fp.Name] = true
			res.Technologies = append(res.Technologies, fp.Name)
		}
	}

	p.logger.Debug("technology detection completed",
		logging.Field{Key: "detected", Value: len(res.Technologies)})
	return res, nil
}
