// Package score turns probe results into the scan's summary values. All
// functions are pure so the same findings and checks always produce the same
// score, severity, and recommendations.
package score

import (
	"math"

	"github.com/cayfen/webscan/internal/model"
)

// Score is the percentage of checks that passed, rounded half up. A scan
// with no checks at all scores 0.
func Score(checks model.Checks) int {
	if checks.Total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(checks.Passed) / float64(checks.Total)))
}

// DeriveSeverity is the highest severity among the findings. A clean scan is
// low severity.
func DeriveSeverity(findings []model.Finding) model.Severity {
	max := model.SeverityLow
	for _, f := range findings {
		max = max.Max(f.Severity)
	}
	return max
}

// Recommendations collects the distinct recommendation texts across the
// findings, in first-seen order, most severe findings first.
func Recommendations(findings []model.Finding) []string {
	ordered := make([]model.Finding, len(findings))
	copy(ordered, findings)

	// Stable sort by severity rank, descending; ties keep finding order.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Severity.Rank() > ordered[j-1].Severity.Rank(); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	seen := make(map[string]bool)
	var recs []string
	for _, f := range ordered {
		if f.Recommendation == "" || seen[f.Recommendation] {
			continue
		}
		seen[f.Recommendation] = true
		recs = append(recs, f.Recommendation)
	}
	return recs
}
