package export

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ansebmr/surveydash/pkg/models"
)

func testResponses() []models.Response {
	return []models.Response{
		{
			ProfileID:        "p-001",
			SurveyTitle:      "FI027_Funeral_Cover",
			Question:         `Do you have cover, and if so, "full" cover?`,
			Answer:           "Yes, full cover",
			Gender:           "Female",
			AgeGroup:         "26-35",
			MonthlySalary:    "5001-10000",
			EmploymentStatus: "Employed",
			HomeProvince:     "Gauteng",
			SemSegment:       "SEM 4-6",
			Timestamp:        time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			ProfileID:   "p-002",
			SurveyTitle: "FI027_Funeral_Cover",
			Question:    "Why not?",
			Answer:      "Too expensive, and also\nI don't trust providers",
			Timestamp:   time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := testResponses()

	data, err := CSV(in)
	if err != nil {
		t.Fatal(err)
	}

	out, err := ParseCSV(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestCSVHeader(t *testing.T) {
	data, err := CSV(nil)
	if err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(string(data), "\n", 2)[0]
	want := strings.Join(Header, ",")
	if first != want {
		t.Errorf("header %q, want %q", first, want)
	}
}

func TestCSVQuoting(t *testing.T) {
	data, err := CSV(testResponses())
	if err != nil {
		t.Fatal(err)
	}
	// Embedded quotes must be doubled inside a quoted field.
	if !strings.Contains(string(data), `"Do you have cover, and if so, ""full"" cover?"`) {
		t.Errorf("quotes not escaped:\n%s", data)
	}
}

func TestJSONExport(t *testing.T) {
	data, err := JSON(testResponses())
	if err != nil {
		t.Fatal(err)
	}

	var out []models.Response
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(testResponses(), out) {
		t.Error("JSON round trip mismatch")
	}
}

func TestParseCSVRejectsBadHeader(t *testing.T) {
	if _, err := ParseCSV([]byte("a,b,c\n1,2,3\n")); err == nil {
		t.Error("expected error for wrong column count")
	}
	if _, err := ParseCSV([]byte("")); err == nil {
		t.Error("expected error for empty input")
	}
}
