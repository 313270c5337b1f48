package models

import "time"

// Survey describes one questionnaire instance as reported by the surveys index.
type Survey struct {
	Title         string `json:"title"`
	ResponseCount int64  `json:"response_count"`
	EarliestDate  string `json:"earliest_date,omitempty"`
	LatestDate    string `json:"latest_date,omitempty"`
}

// Response is one respondent's answer to one question within a survey.
// Responses are immutable facts; they are filtered and aggregated in memory
// but never mutated.
type Response struct {
	ProfileID        string    `json:"profile_id"`
	SurveyTitle      string    `json:"survey_title"`
	Question         string    `json:"survey_question"`
	Answer           string    `json:"response"`
	Gender           string    `json:"gender,omitempty"`
	AgeGroup         string    `json:"age_group,omitempty"`
	MonthlySalary    string    `json:"monthly_salary,omitempty"`
	EmploymentStatus string    `json:"employment_status,omitempty"`
	HomeProvince     string    `json:"home_province,omitempty"`
	SemSegment       string    `json:"sem_segment,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// SurveySummary is the domain-specific object returned by /api/survey-summary.
type SurveySummary struct {
	Surveys        []Survey `json:"surveys"`
	TotalResponses int64    `json:"total_responses"`
	GeneratedAt    string   `json:"generated_at,omitempty"`
}

// Question is one entry from /api/survey-questions.
type Question struct {
	SurveyTitle string `json:"survey_title"`
	Text        string `json:"survey_question"`
}

// Demographics maps a demographic dimension (gender, age_group, ...) to the
// values the backend knows for it.
type Demographics map[string][]string
