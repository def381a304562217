package model

// Severity is the ordinal severity bucket used for both individual findings
// and the aggregated scan severity: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of s. Unknown severities rank below low.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// Finding is one detected issue. Type is a free-form category label
// (e.g. "SQL Injection Vulnerability", "Missing Security Header").
// Evidence, URL and Parameter are optional supporting detail.
type Finding struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Evidence       string   `json:"evidence,omitempty"`
	URL            string   `json:"url,omitempty"`
	Parameter      string   `json:"parameter,omitempty"`
}
