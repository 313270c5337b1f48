package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/ansebmr/surveydash/pkg/cache"
	"github.com/ansebmr/surveydash/pkg/models"
	"github.com/ansebmr/surveydash/pkg/sample"
)

// Fetch returns responses for a survey via /api/responses. The filter's
// Survey field is mandatory; everything else is optional. The returned
// dataset is tagged with its source and is never nil on a nil error.
func (c *Client) Fetch(ctx context.Context, f models.Filter) (*models.Dataset, error) {
	if f.Survey == "" {
		return nil, ErrMissingSurvey
	}
	return c.fetchList(ctx, "/api/responses", f, f.Survey), nil
}

// FetchSurvey returns responses for one survey via /api/survey/<title>.
func (c *Client) FetchSurvey(ctx context.Context, title string, f models.Filter) (*models.Dataset, error) {
	if title == "" {
		return nil, ErrMissingSurvey
	}
	f.Survey = ""
	return c.fetchList(ctx, "/api/survey/"+url.PathEscape(title), f, title), nil
}

// FetchGroup returns combined responses for all surveys sharing a title
// prefix via /api/survey-group/<prefix>.
func (c *Client) FetchGroup(ctx context.Context, prefix string, f models.Filter) (*models.Dataset, error) {
	if prefix == "" {
		return nil, ErrMissingSurvey
	}
	f.Survey = ""
	return c.fetchList(ctx, "/api/survey-group/"+url.PathEscape(prefix), f, prefix), nil
}

// fetchList drives one list fetch through the cache, the coalescing group,
// and the pagination loop. It always returns a usable dataset.
func (c *Client) fetchList(ctx context.Context, endpoint string, f models.Filter, survey string) *models.Dataset {
	start := time.Now()
	key := cache.HashKey(endpoint, f.Params())

	if c.cache != nil {
		if payload, ok := c.cache.Get(key); ok {
			var ds models.Dataset
			if err := json.Unmarshal(payload, &ds); err == nil {
				ds.Source = models.SourceCached
				c.record(ctx, endpoint, survey, models.SourceCached, 0, len(ds.Responses), start)
				return &ds
			}
			// Corrupt entry; fall through and refetch.
		}
	}

	ds, _ := c.flight.do(key, func() (*models.Dataset, error) {
		return c.fetchPages(ctx, endpoint, key, f, survey, start), nil
	})
	return ds
}

// fetchPages accumulates pages until the backend reports no more data, the
// requested window is filled, or the accumulation ceiling is hit.
func (c *Client) fetchPages(ctx context.Context, endpoint, key string, f models.Filter, survey string, start time.Time) *models.Dataset {
	limit := f.Limit
	if limit <= 0 {
		limit = c.pageLimit
		f.Limit = limit
	}

	// The logical window never exceeds the ceiling: full-dataset requests
	// are bounded by design.
	window := limit
	if f.Full || f.MaxRecords > c.maxRecords {
		window = c.maxRecords
	} else if f.MaxRecords > 0 {
		window = f.MaxRecords
	}

	var all []models.Response
	var pg models.Pagination
	offset := f.Offset
	truncated := false
	lastStatus := 0

	for {
		env, status, err := c.fetchPage(ctx, endpoint, f.WithOffset(offset))
		lastStatus = status
		if err != nil {
			log.Printf("fetch %s failed (survey=%q status=%d): %v; serving sample data", endpoint, survey, status, err)
			ds := c.sampleFallback(f, survey, window)
			c.record(ctx, endpoint, survey, models.SourceSample, status, len(ds.Responses), start)
			return ds
		}

		all = append(all, env.Data...)
		pg = env.Pagination

		// An empty page with hasMore set would loop forever; treat it as end
		// of data.
		if !pg.HasMore || len(env.Data) == 0 {
			break
		}
		if len(all) >= window {
			// Ceiling reached with data left upstream: truncate and flag,
			// so callers can show a partial-data notice instead of silently
			// under-reporting.
			truncated = window >= c.maxRecords
			break
		}
		offset += limit
	}

	if len(all) > window {
		all = all[:window]
	}

	source := models.SourceLive
	if truncated {
		source = models.SourceLiveTruncated
	}

	ds := &models.Dataset{Source: source, Responses: all, Truncated: truncated, Pagination: pg}

	if c.cache != nil {
		if payload, err := json.Marshal(ds); err == nil {
			c.cache.Put(key, payload)
		}
	}
	c.record(ctx, endpoint, survey, source, lastStatus, len(all), start)
	return ds
}

// fetchPage issues one page request and decodes the envelope. Any non-2xx
// status or malformed body is reported as an error, regardless of which of
// the backend's failure shapes came back.
func (c *Client) fetchPage(ctx context.Context, endpoint string, f models.Filter) (*models.ListEnvelope, int, error) {
	res, err := c.do(ctx, endpoint, f.Params())
	if err != nil {
		return nil, 0, err
	}

	if res.statusCode < 200 || res.statusCode >= 300 {
		var errEnv models.ErrorEnvelope
		if json.Unmarshal(res.body, &errEnv) == nil && errEnv.Error != "" {
			return nil, res.statusCode, fmt.Errorf("backend error: %s", errEnv.Error)
		}
		return nil, res.statusCode, fmt.Errorf("backend returned %d", res.statusCode)
	}

	if f.Format == models.FormatParquet {
		env, err := decodeColumnar(res.body)
		if err != nil {
			return nil, res.statusCode, err
		}
		return env, res.statusCode, nil
	}

	var env models.ListEnvelope
	if err := json.Unmarshal(res.body, &env); err != nil {
		return nil, res.statusCode, fmt.Errorf("decode response: %w", err)
	}
	if env.Data == nil {
		return nil, res.statusCode, fmt.Errorf("response has no data array")
	}
	return &env, res.statusCode, nil
}

// decodeColumnar converts the backend's columnar payload into row form. The
// decode fails closed: any missing or ragged column is an error, never a
// partially filled record.
func decodeColumnar(body []byte) (*models.ListEnvelope, error) {
	var env models.ColumnarEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode columnar response: %w", err)
	}
	if env.Columns == nil {
		return nil, fmt.Errorf("columnar response has no columns")
	}

	n := -1
	for name, col := range env.Columns {
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("ragged column %q: %d values, want %d", name, len(col), n)
		}
	}
	if n <= 0 {
		return &models.ListEnvelope{Data: []models.Response{}, Pagination: env.Pagination}, nil
	}

	col := func(name string, i int) string {
		if values, ok := env.Columns[name]; ok {
			return values[i]
		}
		return ""
	}

	data := make([]models.Response, n)
	for i := 0; i < n; i++ {
		r := models.Response{
			ProfileID:        col("profile_id", i),
			SurveyTitle:      col("survey_title", i),
			Question:         col("survey_question", i),
			Answer:           col("response", i),
			Gender:           col("gender", i),
			AgeGroup:         col("age_group", i),
			MonthlySalary:    col("monthly_salary", i),
			EmploymentStatus: col("employment_status", i),
			HomeProvince:     col("home_province", i),
			SemSegment:       col("sem_segment", i),
		}
		if ts := col("timestamp", i); ts != "" {
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
			}
			r.Timestamp = parsed
		}
		data[i] = r
	}
	return &models.ListEnvelope{Data: data, Pagination: env.Pagination}, nil
}

// sampleFallback builds a sample dataset shaped by the failed request: same
// survey title, same demographic predicates, capped at the requested window.
func (c *Client) sampleFallback(f models.Filter, survey string, window int) *models.Dataset {
	all := sample.Responses(survey, c.sampleSize)

	kept := make([]models.Response, 0, len(all))
	for _, r := range all {
		if f.Matches(r) {
			kept = append(kept, r)
		}
	}
	if window > 0 && len(kept) > window {
		kept = kept[:window]
	}

	return &models.Dataset{
		Source:    models.SourceSample,
		Responses: kept,
		Pagination: models.Pagination{
			Total:  int64(len(kept)),
			Limit:  f.Limit,
			Offset: 0,
		},
	}
}
