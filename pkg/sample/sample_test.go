package sample

import (
	"reflect"
	"testing"
)

func TestResponsesDeterministic(t *testing.T) {
	a := Responses("S1", 50)
	b := Responses("S1", 50)
	if !reflect.DeepEqual(a, b) {
		t.Error("generated responses differ between calls")
	}
}

func TestResponsesSchemaComplete(t *testing.T) {
	for _, r := range Responses("", 10) {
		if r.SurveyTitle != DefaultSurvey {
			t.Fatalf("survey title %q, want %q", r.SurveyTitle, DefaultSurvey)
		}
		if r.ProfileID == "" || r.Question == "" || r.Answer == "" ||
			r.Gender == "" || r.AgeGroup == "" || r.MonthlySalary == "" ||
			r.EmploymentStatus == "" || r.HomeProvince == "" ||
			r.SemSegment == "" || r.Timestamp.IsZero() {
			t.Fatalf("incomplete sample record: %+v", r)
		}
	}
}

func TestDemographicValuesCoverDimensions(t *testing.T) {
	demo := DemographicValues()
	for _, dim := range []string{"gender", "age_group", "monthly_salary", "employment_status", "home_province", "sem_segment"} {
		if len(demo[dim]) == 0 {
			t.Errorf("no values for %s", dim)
		}
	}
}
