package model

import "time"

// ScanType controls which probe families run.
type ScanType string

const (
	ScanTypeQuick ScanType = "quick"
	ScanTypeFull  ScanType = "full"
)

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	return t == ScanTypeQuick || t == ScanTypeFull
}

// ScanStatus is the forward-only scan state machine:
// pending -> scanning -> {completed, failed}.
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusScanning  ScanStatus = "scanning"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
)

// Terminal reports whether s is a terminal state.
func (s ScanStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Checks counts the score-relevant checks a scan has run. The invariant
// Passed + Failed == Total holds whenever a probe family has fully completed.
type Checks struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Add merges the counters of other into c.
func (c *Checks) Add(other Checks) {
	c.Total += other.Total
	c.Passed += other.Passed
	c.Failed += other.Failed
}

// SSLInfo describes the transport security observed on the target.
type SSLInfo struct {
	Enabled  bool   `json:"enabled"`
	Protocol string `json:"protocol,omitempty"`
}

// Scan is one security assessment run against one target URL. Findings and
// Checks are mutated only by the orchestrator instance that owns the scan id
// and are frozen once the status is terminal.
type Scan struct {
	ID              string            `json:"id"`
	TargetURL       string            `json:"targetUrl"`
	ScanType        ScanType          `json:"scanType"`
	Status          ScanStatus        `json:"status"`
	Findings        []Finding         `json:"findings"`
	Checks          Checks            `json:"checks"`
	SecurityScore   int               `json:"securityScore"`
	Severity        Severity          `json:"severity,omitempty"`
	Technologies    []string          `json:"technologies,omitempty"`
	SecurityHeaders map[string]string `json:"securityHeaders,omitempty"`
	SSLInfo         *SSLInfo          `json:"sslInfo,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	ScanDuration    float64           `json:"scanDuration"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	CompletedAt     *time.Time        `json:"completedAt"`
}

// ScanSummary is the reduced listing shape returned by the collection
// endpoint: identity, lifecycle and score fields only.
type ScanSummary struct {
	ID            string     `json:"id"`
	TargetURL     string     `json:"targetUrl"`
	ScanType      ScanType   `json:"scanType"`
	Status        ScanStatus `json:"status"`
	SecurityScore int        `json:"securityScore"`
	Severity      Severity   `json:"severity,omitempty"`
	ScanDuration  float64    `json:"scanDuration"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt"`
}
