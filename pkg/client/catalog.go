package client

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/ansebmr/surveydash/pkg/cache"
	"github.com/ansebmr/surveydash/pkg/export"
	"github.com/ansebmr/surveydash/pkg/models"
	"github.com/ansebmr/surveydash/pkg/sample"
)

// surveysEnvelope is the /api/surveys index payload.
type surveysEnvelope struct {
	Surveys []models.Survey `json:"surveys"`
}

// Surveys returns the lightweight surveys index, falling back to the sample
// index when the backend is unavailable.
func (c *Client) Surveys(ctx context.Context) ([]models.Survey, models.Source) {
	start := time.Now()
	var env surveysEnvelope
	source, status, err := c.getJSON(ctx, "/api/surveys", nil, &env)
	if err != nil || env.Surveys == nil {
		if err != nil {
			log.Printf("fetch /api/surveys failed (status=%d): %v; serving sample index", status, err)
		}
		surveys := sample.Surveys()
		c.record(ctx, "/api/surveys", "", models.SourceSample, status, len(surveys), start)
		return surveys, models.SourceSample
	}
	c.record(ctx, "/api/surveys", "", source, status, len(env.Surveys), start)
	return env.Surveys, source
}

// Summary returns the survey summary, or a summary derived from the sample
// index on failure.
func (c *Client) Summary(ctx context.Context) (*models.SurveySummary, models.Source) {
	start := time.Now()
	var summary models.SurveySummary
	source, status, err := c.getJSON(ctx, "/api/survey-summary", nil, &summary)
	if err != nil {
		log.Printf("fetch /api/survey-summary failed (status=%d): %v; serving sample summary", status, err)
		surveys := sample.Surveys()
		var total int64
		for _, s := range surveys {
			total += s.ResponseCount
		}
		c.record(ctx, "/api/survey-summary", "", models.SourceSample, status, len(surveys), start)
		return &models.SurveySummary{Surveys: surveys, TotalResponses: total}, models.SourceSample
	}
	c.record(ctx, "/api/survey-summary", "", source, status, len(summary.Surveys), start)
	return &summary, source
}

// questionsEnvelope is the /api/survey-questions payload.
type questionsEnvelope struct {
	Data []models.Question `json:"data"`
}

// Questions returns the question catalog for all surveys.
func (c *Client) Questions(ctx context.Context) ([]models.Question, models.Source) {
	start := time.Now()
	var env questionsEnvelope
	source, status, err := c.getJSON(ctx, "/api/survey-questions", nil, &env)
	if err != nil || env.Data == nil {
		if err != nil {
			log.Printf("fetch /api/survey-questions failed (status=%d): %v; serving sample questions", status, err)
		}
		questions := sampleQuestions()
		c.record(ctx, "/api/survey-questions", "", models.SourceSample, status, len(questions), start)
		return questions, models.SourceSample
	}
	c.record(ctx, "/api/survey-questions", "", source, status, len(env.Data), start)
	return env.Data, source
}

func sampleQuestions() []models.Question {
	var out []models.Question
	seen := map[string]bool{}
	for _, r := range sample.Responses("", 8) {
		if !seen[r.Question] {
			seen[r.Question] = true
			out = append(out, models.Question{SurveyTitle: r.SurveyTitle, Text: r.Question})
		}
	}
	return out
}

// DemographicValues returns the demographic vocabulary from /api/demographics.
func (c *Client) DemographicValues(ctx context.Context) (models.Demographics, models.Source) {
	start := time.Now()
	var demo models.Demographics
	source, status, err := c.getJSON(ctx, "/api/demographics", nil, &demo)
	if err != nil || len(demo) == 0 {
		if err != nil {
			log.Printf("fetch /api/demographics failed (status=%d): %v; serving sample demographics", status, err)
		}
		c.record(ctx, "/api/demographics", "", models.SourceSample, status, 0, start)
		return sample.DemographicValues(), models.SourceSample
	}
	c.record(ctx, "/api/demographics", "", source, status, 0, start)
	return demo, source
}

// Vocab returns the answer vocabulary document from /api/vocab.
func (c *Client) Vocab(ctx context.Context) (map[string]any, models.Source) {
	return c.getDocument(ctx, "/api/vocab")
}

// Schema returns the backend's schema document from /api/schema.
func (c *Client) Schema(ctx context.Context) (map[string]any, models.Source) {
	return c.getDocument(ctx, "/api/schema")
}

func (c *Client) getDocument(ctx context.Context, path string) (map[string]any, models.Source) {
	start := time.Now()
	var doc map[string]any
	source, status, err := c.getJSON(ctx, path, nil, &doc)
	if err != nil || doc == nil {
		if err != nil {
			log.Printf("fetch %s failed (status=%d): %v", path, status, err)
		}
		c.record(ctx, path, "", models.SourceSample, status, 0, start)
		return map[string]any{}, models.SourceSample
	}
	c.record(ctx, path, "", source, status, 0, start)
	return doc, source
}

// Ping reports whether the backend is reachable and healthy.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.do(ctx, "/api/health", nil)
	if err != nil || res.statusCode != 200 {
		return false
	}
	var h models.Health
	if err := json.Unmarshal(res.body, &h); err != nil {
		return false
	}
	return h.Status == "ok"
}

// SurveyOptions merges the surveys index and the summary into a deduplicated,
// sorted list of titles. A non-empty prefix narrows the list to one survey
// group; if nothing matches the prefix, the full list is returned so pages
// never render an empty selector.
func (c *Client) SurveyOptions(ctx context.Context, prefix string) []string {
	seen := map[string]bool{}
	var titles []string

	add := func(title string) {
		if title != "" && !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
	}

	surveys, _ := c.Surveys(ctx)
	for _, s := range surveys {
		add(s.Title)
	}
	summary, _ := c.Summary(ctx)
	for _, s := range summary.Surveys {
		add(s.Title)
	}
	sort.Strings(titles)

	if prefix != "" {
		var matched []string
		for _, t := range titles {
			if strings.HasPrefix(strings.ToLower(t), strings.ToLower(prefix)) {
				matched = append(matched, t)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	return titles
}

// ProfileSurveyCSV returns the profile-survey report as CSV text. On failure
// the sample dataset is rendered to CSV, so exports keep working offline.
func (c *Client) ProfileSurveyCSV(ctx context.Context) ([]byte, models.Source) {
	start := time.Now()
	endpoint := "/api/reporting/profile-survey"
	params := models.Filter{Format: models.FormatCSV}.Params()

	key := cache.HashKey(endpoint, params)
	if c.cache != nil {
		if payload, ok := c.cache.Get(key); ok {
			c.record(ctx, endpoint, "", models.SourceCached, 0, 0, start)
			return payload, models.SourceCached
		}
	}

	res, err := c.do(ctx, endpoint, params)
	if err != nil || res.statusCode < 200 || res.statusCode >= 300 {
		status := 0
		if res != nil {
			status = res.statusCode
		}
		log.Printf("fetch %s failed (status=%d): %v; serving sample CSV", endpoint, status, err)
		body, csvErr := export.CSV(sample.Responses("", c.sampleSize))
		if csvErr != nil {
			body = nil
		}
		c.record(ctx, endpoint, "", models.SourceSample, status, 0, start)
		return body, models.SourceSample
	}

	if c.cache != nil {
		c.cache.Put(key, res.body)
	}
	c.record(ctx, endpoint, "", models.SourceLive, res.statusCode, 0, start)
	return res.body, models.SourceLive
}
