// Package export renders a loaded dataset slice as CSV or JSON downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ansebmr/surveydash/pkg/models"
)

// Header is the CSV header row, matching the Response attribute names.
var Header = []string{
	"profile_id",
	"survey_title",
	"survey_question",
	"response",
	"gender",
	"age_group",
	"monthly_salary",
	"employment_status",
	"home_province",
	"sem_segment",
	"timestamp",
}

// CSV renders responses as comma-delimited text with a header row.
// encoding/csv handles quoting of embedded commas, quotes and newlines.
func CSV(responses []models.Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range responses {
		rec := []string{
			r.ProfileID,
			r.SurveyTitle,
			r.Question,
			r.Answer,
			r.Gender,
			r.AgeGroup,
			r.MonthlySalary,
			r.EmploymentStatus,
			r.HomeProvince,
			r.SemSegment,
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// JSON renders responses as a JSON array of Response-shaped objects.
func JSON(responses []models.Response) ([]byte, error) {
	return json.MarshalIndent(responses, "", "  ")
}

// ParseCSV decodes CSV text produced by CSV back into responses.
func ParseCSV(data []byte) ([]models.Response, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}
	if len(rows[0]) != len(Header) {
		return nil, fmt.Errorf("csv has %d columns, want %d", len(rows[0]), len(Header))
	}

	out := make([]models.Response, 0, len(rows)-1)
	for i, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[10])
		if err != nil {
			return nil, fmt.Errorf("row %d: parse timestamp %q: %w", i+1, row[10], err)
		}
		out = append(out, models.Response{
			ProfileID:        row[0],
			SurveyTitle:      row[1],
			Question:         row[2],
			Answer:           row[3],
			Gender:           row[4],
			AgeGroup:         row[5],
			MonthlySalary:    row[6],
			EmploymentStatus: row[7],
			HomeProvince:     row[8],
			SemSegment:       row[9],
			Timestamp:        ts,
		})
	}
	return out, nil
}
