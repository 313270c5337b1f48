package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ansebmr/surveydash/pkg/cache"
	"github.com/ansebmr/surveydash/pkg/client"
	"github.com/ansebmr/surveydash/pkg/config"
	"github.com/ansebmr/surveydash/pkg/export"
	"github.com/ansebmr/surveydash/pkg/models"
)

// newTestServer wires a dashboard Server against a fake survey backend.
func newTestServer(t *testing.T, backend http.Handler) *Server {
	t.Helper()

	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = upstream.URL
	cfg.Backend.Timeout = config.Duration(5 * time.Second)
	cfg.Sample.Records = 40

	ch := cache.New(cfg.Cache.TTL.Std())
	return New(cfg, client.New(cfg, ch, nil), ch, nil)
}

// surveyBackend is a healthy fake backend with one survey worth of responses.
func surveyBackend(t *testing.T, responses []models.Response) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("/api/surveys", func(w http.ResponseWriter, r *http.Request) {
		titles := map[string]bool{}
		var surveys []models.Survey
		for _, resp := range responses {
			if !titles[resp.SurveyTitle] {
				titles[resp.SurveyTitle] = true
				surveys = append(surveys, models.Survey{Title: resp.SurveyTitle, ResponseCount: 1})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"surveys": surveys})
	})
	mux.HandleFunc("/api/survey-summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.SurveySummary{})
	})
	mux.HandleFunc("/api/responses", func(w http.ResponseWriter, r *http.Request) {
		survey := r.URL.Query().Get("survey")
		var matched []models.Response
		for _, resp := range responses {
			if resp.SurveyTitle == survey {
				matched = append(matched, resp)
			}
		}
		json.NewEncoder(w).Encode(models.ListEnvelope{
			Data:       matched,
			Pagination: models.Pagination{Total: int64(len(matched)), Limit: 1000},
		})
	})
	return mux
}

func sampleResponses(survey string, n int) []models.Response {
	out := make([]models.Response, n)
	for i := range out {
		out[i] = models.Response{
			ProfileID:   fmt.Sprintf("p%03d", i),
			SurveyTitle: survey,
			Question:    "Do you have medical aid?",
			Answer:      []string{"Yes", "No"}[i%2],
			Gender:      []string{"Male", "Female"}[i%2],
			AgeGroup:    "25-34",
			Timestamp:   time.Date(2024, 3, 1, i, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, nil))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestHealthzDegradedStaysUp(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	upstream.Close() // backend is gone

	cfg := config.Default()
	cfg.Backend.BaseURL = upstream.URL
	cfg.Backend.Timeout = config.Duration(time.Second)
	srv := New(cfg, client.New(cfg, nil, nil), nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when degraded", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Errorf("body = %s, want degraded", rec.Body.String())
	}
}

func TestPageServesLiveData(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, sampleResponses("SB055_Health", 10)))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/health?survey=SB055_Health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Surveydash-Source"); got != string(models.SourceLive) {
		t.Errorf("source header = %q, want live", got)
	}

	var page pageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Overview.TotalResponses != 10 {
		t.Errorf("total responses = %d, want 10", page.Overview.TotalResponses)
	}
	if len(page.Questions) != 1 || page.Questions[0].Question != "Do you have medical aid?" {
		t.Errorf("questions = %+v", page.Questions)
	}
	if _, ok := page.Demographics["gender"]; !ok {
		t.Error("missing gender distribution")
	}
	if page.Partial || page.Notice != "" {
		t.Errorf("unexpected partial/notice: %v %q", page.Partial, page.Notice)
	}
}

func TestPageResolvesSurveyFromIndex(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, sampleResponses("SB055_Health", 4)))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var page pageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Survey != "SB055_Health" {
		t.Errorf("survey = %q, want SB055_Health from index", page.Survey)
	}
	if page.Overview.TotalResponses != 4 {
		t.Errorf("total responses = %d, want 4", page.Overview.TotalResponses)
	}
}

func TestPageFallsBackToSample(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	})
	srv := newTestServer(t, backend)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/health?survey=SB055_Health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Surveydash-Source"); got != string(models.SourceSample) {
		t.Errorf("source header = %q, want sample", got)
	}
	var page pageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Notice == "" {
		t.Error("expected sample-data notice")
	}
	if page.Overview.TotalResponses == 0 {
		t.Error("sample fallback produced no responses")
	}
}

func TestPagePartialHeaderOnTruncation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/responses", func(w http.ResponseWriter, r *http.Request) {
		// Always more data upstream: the client must stop at its ceiling.
		json.NewEncoder(w).Encode(models.ListEnvelope{
			Data:       sampleResponses("SB055_Health", 2),
			Pagination: models.Pagination{Total: 100000, Limit: 2, HasMore: true},
		})
	})

	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = upstream.URL
	cfg.Backend.Timeout = config.Duration(5 * time.Second)
	cfg.Fetch.PageLimit = 2
	cfg.Fetch.MaxRecords = 6
	ch := cache.New(cfg.Cache.TTL.Std())
	srv := New(cfg, client.New(cfg, ch, nil), ch, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/health?survey=SB055_Health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Surveydash-Source"); got != string(models.SourceLiveTruncated) {
		t.Errorf("source header = %q, want live-truncated", got)
	}
	if rec.Header().Get("X-Surveydash-Partial") != "true" {
		t.Error("missing X-Surveydash-Partial header")
	}
	var page pageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Overview.TotalResponses != 6 {
		t.Errorf("total responses = %d, want ceiling 6", page.Overview.TotalResponses)
	}
	if page.Notice == "" {
		t.Error("expected partial-data notice")
	}

	// A re-render within the TTL is served from cache; the partial-data
	// warning must survive the replay.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/health?survey=SB055_Health", nil))

	if got := rec.Header().Get("X-Surveydash-Source"); got != string(models.SourceCached) {
		t.Errorf("source header = %q, want cached on re-render", got)
	}
	if rec.Header().Get("X-Surveydash-Partial") != "true" {
		t.Error("cached re-render dropped the X-Surveydash-Partial header")
	}
	page = pageResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if !page.Partial || page.Notice == "" {
		t.Errorf("cached re-render dropped the partial notice: partial=%v notice=%q", page.Partial, page.Notice)
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	responses := sampleResponses("SB055_Health", 5)
	responses[0].Answer = `Yes, "definitely"` // exercise quoting through the handler
	srv := newTestServer(t, surveyBackend(t, responses))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/csv?survey=SB055_Health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "responses.csv") {
		t.Errorf("content disposition = %q", cd)
	}

	parsed, err := export.ParseCSV(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 5 {
		t.Fatalf("parsed %d rows, want 5", len(parsed))
	}
	if parsed[0].Answer != `Yes, "definitely"` {
		t.Errorf("answer = %q, quoting lost in transit", parsed[0].Answer)
	}
}

func TestExportJSON(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, sampleResponses("SB055_Health", 3)))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/json?survey=SB055_Health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out []models.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Errorf("exported %d responses, want 3", len(out))
	}
}

func TestExportIgnoresMalformedLimit(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, sampleResponses("SB055_Health", 3)))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/json?survey=SB055_Health&limit=abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out []models.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Errorf("exported %d responses, want 3 with the bad limit ignored", len(out))
	}
}

func TestExportRejectsMissingSurvey(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, nil))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/csv", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "survey parameter is required") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestIndexListsPages(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, nil))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Pages []string `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Pages) != len(Categories) {
		t.Errorf("pages = %v, want %d entries", body.Pages, len(Categories))
	}
}

func TestCacheClearEndpoint(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, sampleResponses("SB055_Health", 5)))

	// Populate the cache with one fetch.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/health?survey=SB055_Health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("page render failed: %d", rec.Code)
	}
	if srv.cache.Stats().Entries == 0 {
		t.Fatal("expected cache entries after a page render")
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cache/clear", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Cleared string            `json:"cleared"`
		Cache   models.CacheStats `json:"cache"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Cleared != "all" {
		t.Errorf("cleared = %q, want all", out.Cleared)
	}
	if out.Cache.Entries != 0 {
		t.Errorf("entries = %d after clear, want 0", out.Cache.Entries)
	}
}

func TestMetaReportsDegradedSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/schema", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tables":["responses"]}`)
	})
	// /api/vocab is not served: that call falls back while schema stays live.
	srv := newTestServer(t, mux)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Surveydash-Source"); got != string(models.SourceSample) {
		t.Errorf("source header = %q, want sample when any document fell back", got)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := newTestServer(t, surveyBackend(t, nil))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
