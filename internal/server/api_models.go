package server

import "github.com/cayfen/webscan/internal/model"

// StartScanRequest is the payload submitting a new scan.
type StartScanRequest struct {
	TargetURL string `json:"targetUrl" example:"https://example.com"`
	ScanType  string `json:"scanType" example:"quick"`
}

// StartScanResponse acknowledges an accepted scan.
type StartScanResponse struct {
	Success       bool   `json:"success" example:"true"`
	ScanID        string `json:"scanId" example:"7f9c24e5-43a0-4f44-81a8-8a9d6b0f42c1"`
	TargetURL     string `json:"targetUrl" example:"https://example.com"`
	EstimatedTime string `json:"estimatedTime" example:"30-60 seconds"`
}

// GetScanResponse wraps a single scan record.
type GetScanResponse struct {
	Success bool        `json:"success" example:"true"`
	Scan    *model.Scan `json:"scan"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"scan not found"`
}
