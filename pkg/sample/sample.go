// Package sample provides the bundled fallback dataset served when the
// backend is unreachable. The data is deterministic and schema-identical to
// live responses, so every downstream computation works unchanged.
package sample

import (
	"fmt"
	"time"

	"github.com/ansebmr/surveydash/pkg/models"
)

// DefaultSurvey is the survey title stamped on generated responses when the
// caller did not scope the request.
const DefaultSurvey = "Sample Survey 2024"

var (
	questions = []string{
		"How is your overall health?",
		"Do you exercise regularly?",
		"How many hours do you sleep?",
		"What is your stress level?",
	}
	answers          = []string{"Excellent", "Good", "Fair", "Poor"}
	genders          = []string{"Male", "Female"}
	ageGroups        = []string{"18-25", "26-35", "36-45", "46-55", "56+"}
	salaries         = []string{"0-5000", "5001-10000", "10001-20000", "20001+"}
	employmentStates = []string{"Employed", "Unemployed", "Student", "Retired"}
	provinces        = []string{"Gauteng", "Western Cape", "KwaZulu-Natal", "Eastern Cape", "Limpopo"}
	segments         = []string{"SEM 1-3", "SEM 4-6", "SEM 7-10"}
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Responses generates n sample responses for the given survey title. An empty
// title uses DefaultSurvey. Output is fully determined by its arguments.
func Responses(survey string, n int) []models.Response {
	if survey == "" {
		survey = DefaultSurvey
	}
	out := make([]models.Response, n)
	for i := 0; i < n; i++ {
		out[i] = models.Response{
			ProfileID:        fmt.Sprintf("sample-%04d", i+1),
			SurveyTitle:      survey,
			Question:         questions[i%len(questions)],
			Answer:           answers[(i/len(questions))%len(answers)],
			Gender:           genders[i%len(genders)],
			AgeGroup:         ageGroups[i%len(ageGroups)],
			MonthlySalary:    salaries[i%len(salaries)],
			EmploymentStatus: employmentStates[i%len(employmentStates)],
			HomeProvince:     provinces[i%len(provinces)],
			SemSegment:       segments[i%len(segments)],
			Timestamp:        epoch.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

// Surveys returns the sample surveys index.
func Surveys() []models.Survey {
	return []models.Survey{
		{Title: "Customer Satisfaction", ResponseCount: 40, EarliestDate: "2024-01-01", LatestDate: "2024-03-31"},
		{Title: "Employee Engagement", ResponseCount: 35, EarliestDate: "2024-01-02", LatestDate: "2024-03-30"},
		{Title: "Product Feedback", ResponseCount: 25, EarliestDate: "2024-01-03", LatestDate: "2024-03-29"},
		{Title: DefaultSurvey, ResponseCount: 1000, EarliestDate: "2024-01-01", LatestDate: "2024-02-11"},
	}
}

// DemographicValues returns the sample demographic vocabulary.
func DemographicValues() models.Demographics {
	return models.Demographics{
		"gender":            genders,
		"age_group":         ageGroups,
		"monthly_salary":    salaries,
		"employment_status": employmentStates,
		"home_province":     provinces,
		"sem_segment":       segments,
	}
}
