// Package dashboard serves the survey dashboard: one page endpoint per
// survey category, export downloads, and operational stats. Page handlers
// consume the backend client's datasets and return chart-ready JSON.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ansebmr/surveydash/pkg/cache"
	"github.com/ansebmr/surveydash/pkg/client"
	"github.com/ansebmr/surveydash/pkg/config"
	"github.com/ansebmr/surveydash/pkg/history"
	"github.com/ansebmr/surveydash/pkg/models"
)

// Server is the dashboard HTTP server.
type Server struct {
	cfg     *config.Config
	client  *client.Client
	cache   *cache.Cache
	history history.Log
	mux     *http.ServeMux
}

// New creates a dashboard Server wired with all dependencies. The cache and
// history log may be nil.
func New(cfg *config.Config, c *client.Client, ch *cache.Cache, h history.Log) *Server {
	s := &Server{
		cfg:     cfg,
		client:  c,
		cache:   ch,
		history: h,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/surveys", s.handleSurveys)
	s.mux.HandleFunc("/demographics", s.handleDemographics)
	s.mux.HandleFunc("/questions", s.handleQuestions)
	s.mux.HandleFunc("/meta", s.handleMeta)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/cache/clear", s.handleCacheClear)
	s.mux.HandleFunc("/export/csv", s.handleExportCSV)
	s.mux.HandleFunc("/export/json", s.handleExportJSON)
	s.mux.HandleFunc("/export/profile-survey.csv", s.handleProfileReport)
	for _, cat := range Categories {
		s.mux.HandleFunc("/pages/"+cat.Slug, s.handlePage(cat))
	}
	s.mux.HandleFunc("/", s.handleIndex)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Request-ID", uuid.NewString())
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the dashboard server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("surveydash listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	pages := make([]string, 0, len(Categories))
	for _, cat := range Categories {
		pages = append(pages, "/pages/"+cat.Slug)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  "surveydash",
		"pages": pages,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "degraded"
	if s.client.Ping(r.Context()) {
		status = "ok"
	}
	// Degraded is still 200: the dashboard keeps working on sample data.
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, source := s.client.Surveys(r.Context())
	w.Header().Set("X-Surveydash-Source", string(source))
	writeJSON(w, http.StatusOK, map[string]any{
		"source":  source,
		"surveys": surveys,
	})
}

func (s *Server) handleDemographics(w http.ResponseWriter, r *http.Request) {
	demo, source := s.client.DemographicValues(r.Context())
	w.Header().Set("X-Surveydash-Source", string(source))
	writeJSON(w, http.StatusOK, map[string]any{
		"source":       source,
		"demographics": demo,
	})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, source := s.client.Questions(r.Context())
	w.Header().Set("X-Surveydash-Source", string(source))
	writeJSON(w, http.StatusOK, map[string]any{
		"source":    source,
		"questions": questions,
	})
}

// handleMeta bundles the backend's vocab and schema documents. The reported
// source is the worse of the two, so a sample fallback is never masked.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	vocab, vocabSource := s.client.Vocab(r.Context())
	schema, source := s.client.Schema(r.Context())
	if vocabSource.IsFallback() {
		source = vocabSource
	}
	w.Header().Set("X-Surveydash-Source", string(source))
	writeJSON(w, http.StatusOK, map[string]any{
		"source": source,
		"vocab":  vocab,
		"schema": schema,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{}
	if s.cache != nil {
		out["cache"] = s.cache.Stats()
	}
	if s.history != nil {
		since := time.Now().UTC().Add(-24 * time.Hour)
		summary, err := s.history.Summary(r.Context(), since)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "history summary failed")
			return
		}
		out["fetches"] = summary
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCacheClear empties the response cache of the running server.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}
	if s.cache == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "cache is disabled")
		return
	}

	expiredOnly := r.URL.Query().Get("expired") == "true"
	s.cache.Clear(expiredOnly)

	scope := "all"
	if expiredOnly {
		scope = "expired"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cleared": scope,
		"cache":   s.cache.Stats(),
	})
}

func (s *Server) handleProfileReport(w http.ResponseWriter, r *http.Request) {
	body, source := s.client.ProfileSurveyCSV(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="profile-survey.csv"`)
	w.Header().Set("X-Surveydash-Source", string(source))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// loadSlice resolves the request's filter and fetches the dataset it
// describes. Only a missing survey id is an error.
func (s *Server) loadSlice(r *http.Request) (*models.Dataset, models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Survey:     q.Get("survey"),
		Gender:     q.Get("gender"),
		AgeGroup:   q.Get("age_group"),
		Employment: q.Get("employment"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Format:     q.Get("format"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if q.Get("full") == "true" {
		f.Full = true
	}

	ds, err := s.client.Fetch(r.Context(), f)
	return ds, f, err
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, models.FormatCSV)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, models.FormatJSON)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":%q,"code":%d}`+"\n", message, code)
}

// writeFetchError maps a fetch error to a response. ErrMissingSurvey is the
// only hard stop the dashboard surfaces.
func writeFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, client.ErrMissingSurvey) {
		writeJSONError(w, http.StatusBadRequest, "survey parameter is required; pick one from /surveys")
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
