package models

import (
	"net/url"
	"strconv"
)

// Payload formats the backend can be asked for.
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// Filter is the set of optional predicates shaping a single fetch. A Filter
// must not be mutated after it has been used to key a cache lookup.
type Filter struct {
	Survey     string
	Gender     string
	AgeGroup   string
	Employment string
	StartDate  string // YYYY-MM-DD
	EndDate    string // YYYY-MM-DD
	Limit      int
	Offset     int
	// MaxRecords is the logical window the caller wants across pages.
	// Zero means a single page.
	MaxRecords int
	Format     string
	Full       bool
}

// Params renders the filter as query parameters. url.Values.Encode sorts by
// name, which keeps cache keys deterministic.
func (f Filter) Params() url.Values {
	v := url.Values{}
	if f.Survey != "" {
		v.Set("survey", f.Survey)
	}
	if f.Gender != "" {
		v.Set("gender", f.Gender)
	}
	if f.AgeGroup != "" {
		v.Set("age_group", f.AgeGroup)
	}
	if f.Employment != "" {
		v.Set("employment", f.Employment)
	}
	if f.StartDate != "" {
		v.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		v.Set("end_date", f.EndDate)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.Format != "" {
		v.Set("format", f.Format)
	}
	if f.Full {
		v.Set("full", "true")
	}
	return v
}

// WithOffset returns a copy advanced to the given offset, leaving the
// original untouched.
func (f Filter) WithOffset(offset int) Filter {
	f.Offset = offset
	return f
}

// Matches reports whether a response satisfies the filter's demographic and
// date predicates. Used for client-side narrowing of an already loaded
// dataset.
func (f Filter) Matches(r Response) bool {
	if f.Gender != "" && r.Gender != f.Gender {
		return false
	}
	if f.AgeGroup != "" && r.AgeGroup != f.AgeGroup {
		return false
	}
	if f.Employment != "" && r.EmploymentStatus != f.Employment {
		return false
	}
	if f.StartDate != "" && r.Timestamp.Format("2006-01-02") < f.StartDate {
		return false
	}
	if f.EndDate != "" && r.Timestamp.Format("2006-01-02") > f.EndDate {
		return false
	}
	return true
}
