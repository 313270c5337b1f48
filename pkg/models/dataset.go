package models

// Source tags where a dataset came from.
type Source string

const (
	// SourceLive is a fresh, complete fetch from the backend.
	SourceLive Source = "live"
	// SourceCached is a non-expired entry served from the in-process cache.
	SourceCached Source = "cached"
	// SourceSample is the bundled fallback dataset, served when the backend
	// is unreachable or returns something undecodable.
	SourceSample Source = "sample"
	// SourceLiveTruncated is live data cut off at the accumulation ceiling.
	SourceLiveTruncated Source = "live-truncated"
)

// IsFallback reports whether the dataset is sample data rather than backend
// data.
func (s Source) IsFallback() bool { return s == SourceSample }

// Pagination is the backend's list-endpoint pagination metadata.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// Dataset is the unit the backend client hands to the presentation layer:
// a slice of responses plus where they came from.
type Dataset struct {
	Source    Source     `json:"source"`
	Responses []Response `json:"responses"`
	// Truncated marks a dataset cut off at the accumulation ceiling. It is
	// carried separately from Source so the flag survives cache replay,
	// where Source becomes "cached".
	Truncated  bool       `json:"truncated,omitempty"`
	Pagination Pagination `json:"pagination"`
}

// ListEnvelope is the backend's JSON shape for list endpoints.
type ListEnvelope struct {
	Data       []Response `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ColumnarEnvelope is the backend's columnar variant, returned for
// format=parquet requests.
type ColumnarEnvelope struct {
	Columns    map[string][]string `json:"columns"`
	Pagination Pagination          `json:"pagination"`
}

// ErrorEnvelope is the backend's error body.
type ErrorEnvelope struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Health is the /api/health payload.
type Health struct {
	Status string `json:"status"`
}
