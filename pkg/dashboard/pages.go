package dashboard

import (
	"net/http"

	"github.com/ansebmr/surveydash/pkg/export"
	"github.com/ansebmr/surveydash/pkg/models"
	"github.com/ansebmr/surveydash/pkg/stats"
)

// Category is one dashboard page over a family of surveys.
type Category struct {
	Slug  string
	Title string
	// Prefix narrows the survey selector to one survey group (e.g. FI027 for
	// funeral cover). Empty means all surveys.
	Prefix string
	// Group fetches the whole survey group in one request instead of a
	// single survey.
	Group bool
}

// Categories lists the dashboard pages, one per survey family.
var Categories = []Category{
	{Slug: "health", Title: "Health Surveys", Prefix: "SB055"},
	{Slug: "profile", Title: "Profile Survey", Prefix: "SB055_Profile"},
	{Slug: "funeral-cover", Title: "Funeral Cover", Prefix: "FI027", Group: true},
	{Slug: "brands", Title: "Brands", Prefix: ""},
	{Slug: "convenience-store", Title: "Convenience Stores", Prefix: "CS"},
	{Slug: "cellphone", Title: "Cellphone Survey", Prefix: "CP"},
}

// pageResponse is the chart-ready payload a page handler returns.
type pageResponse struct {
	Page         string                   `json:"page"`
	Survey       string                   `json:"survey"`
	Source       models.Source            `json:"source"`
	Partial      bool                     `json:"partial"`
	Notice       string                   `json:"notice,omitempty"`
	Overview     stats.Overview           `json:"overview"`
	Demographics map[string][]stats.Count `json:"demographics"`
	Questions    []questionBlock          `json:"questions"`
}

type questionBlock struct {
	Question string        `json:"question"`
	Answers  []stats.Count `json:"answers"`
}

var pageDimensions = []string{
	stats.DimGender,
	stats.DimAgeGroup,
	stats.DimSalary,
	stats.DimEmployment,
	stats.DimProvince,
	stats.DimSegment,
}

// handlePage builds the handler for one category page. A render is one or
// two synchronous client calls: resolve the survey, fetch its responses,
// then compute everything else in memory.
func (s *Server) handlePage(cat Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		survey := q.Get("survey")
		if survey == "" {
			options := s.client.SurveyOptions(r.Context(), cat.Prefix)
			if len(options) == 0 {
				writeJSONError(w, http.StatusBadRequest, "no surveys available; pass ?survey=")
				return
			}
			survey = options[0]
		}

		f := models.Filter{
			Gender:     q.Get("gender"),
			AgeGroup:   q.Get("age_group"),
			Employment: q.Get("employment"),
			StartDate:  q.Get("start_date"),
			EndDate:    q.Get("end_date"),
			Full:       true,
		}

		var ds *models.Dataset
		var err error
		if cat.Group && q.Get("survey") == "" {
			ds, err = s.client.FetchGroup(r.Context(), cat.Prefix, f)
		} else {
			f.Survey = survey
			ds, err = s.client.Fetch(r.Context(), f)
		}
		if err != nil {
			writeFetchError(w, err)
			return
		}

		// Demographic predicates were sent upstream too, but sample and
		// group data still need the client-side pass.
		responses := stats.Apply(f, ds.Responses)

		resp := pageResponse{
			Page:         cat.Slug,
			Survey:       survey,
			Source:       ds.Source,
			Partial:      ds.Truncated,
			Overview:     stats.Summarize(responses),
			Demographics: map[string][]stats.Count{},
		}
		if resp.Partial {
			resp.Notice = "partial data: the record ceiling was reached before the full dataset loaded"
		} else if ds.Source.IsFallback() {
			resp.Notice = "backend unavailable: showing bundled sample data"
		}

		for _, dim := range pageDimensions {
			if counts := stats.DemographicDistribution(responses, dim); counts != nil {
				resp.Demographics[dim] = counts
			}
		}
		for _, question := range stats.Questions(responses) {
			resp.Questions = append(resp.Questions, questionBlock{
				Question: question,
				Answers:  stats.AnswerDistribution(responses, question),
			})
		}

		w.Header().Set("X-Surveydash-Source", string(ds.Source))
		if resp.Partial {
			w.Header().Set("X-Surveydash-Partial", "true")
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleExport streams the currently described slice as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	ds, f, err := s.loadSlice(r)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	responses := stats.Apply(f, ds.Responses)

	var body []byte
	var contentType, filename string
	switch format {
	case models.FormatCSV:
		body, err = export.CSV(responses)
		contentType, filename = "text/csv", "responses.csv"
	default:
		body, err = export.JSON(responses)
		contentType, filename = "application/json", "responses.json"
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Surveydash-Source", string(ds.Source))
	if ds.Truncated {
		w.Header().Set("X-Surveydash-Partial", "true")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
