package models

import "time"

// FetchRecord is one backend-client fetch outcome. Only metadata is recorded,
// never response payloads.
type FetchRecord struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"endpoint"`
	Survey     string    `json:"survey,omitempty"`
	Source     Source    `json:"source"`
	StatusCode int       `json:"status_code"`
	Records    int       `json:"records"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// FetchSummary aggregates fetch records per endpoint and source.
type FetchSummary struct {
	Endpoint     string  `json:"endpoint"`
	Source       Source  `json:"source"`
	Fetches      int64   `json:"fetches"`
	Records      int64   `json:"records"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}
