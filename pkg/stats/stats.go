// Package stats computes the derived statistics the dashboard pages render:
// distributions, rates and dataset overviews. All computation is in memory
// over an already loaded dataset.
package stats

import (
	"math"
	"sort"

	"github.com/ansebmr/surveydash/pkg/models"
)

// Count is one bucket of a distribution.
type Count struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Overview summarizes a loaded dataset.
type Overview struct {
	TotalResponses int    `json:"total_responses"`
	UniqueProfiles int    `json:"unique_profiles"`
	Questions      int    `json:"questions"`
	EarliestDate   string `json:"earliest_date,omitempty"`
	LatestDate     string `json:"latest_date,omitempty"`
}

// Demographic dimensions a distribution can be computed over.
const (
	DimGender     = "gender"
	DimAgeGroup   = "age_group"
	DimSalary     = "monthly_salary"
	DimEmployment = "employment_status"
	DimProvince   = "home_province"
	DimSegment    = "sem_segment"
)

// Apply narrows responses to those matching the filter's demographic and
// date predicates.
func Apply(f models.Filter, responses []models.Response) []models.Response {
	out := make([]models.Response, 0, len(responses))
	for _, r := range responses {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes the dataset overview.
func Summarize(responses []models.Response) Overview {
	o := Overview{TotalResponses: len(responses)}

	profiles := map[string]bool{}
	questions := map[string]bool{}
	for _, r := range responses {
		profiles[r.ProfileID] = true
		questions[r.Question] = true
		if r.Timestamp.IsZero() {
			continue
		}
		date := r.Timestamp.Format("2006-01-02")
		if o.EarliestDate == "" || date < o.EarliestDate {
			o.EarliestDate = date
		}
		if date > o.LatestDate {
			o.LatestDate = date
		}
	}
	o.UniqueProfiles = len(profiles)
	o.Questions = len(questions)
	return o
}

// Questions returns the sorted unique question texts in a dataset.
func Questions(responses []models.Response) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range responses {
		if r.Question != "" && !seen[r.Question] {
			seen[r.Question] = true
			out = append(out, r.Question)
		}
	}
	sort.Strings(out)
	return out
}

// AnswerDistribution counts answers to one question, most frequent first.
func AnswerDistribution(responses []models.Response, question string) []Count {
	var values []string
	for _, r := range responses {
		if r.Question == question {
			values = append(values, r.Answer)
		}
	}
	return Distribution(values)
}

// DemographicDistribution counts responses per value of one demographic
// dimension. Empty values are bucketed as "Unknown". Ordered dimensions
// (age groups, salary bands) sort by value; the rest sort by count.
func DemographicDistribution(responses []models.Response, dim string) []Count {
	values := make([]string, 0, len(responses))
	for _, r := range responses {
		v := demographicValue(r, dim)
		if v == "" {
			v = "Unknown"
		}
		values = append(values, v)
	}

	counts := Distribution(values)
	if dim == DimAgeGroup || dim == DimSalary {
		sort.Slice(counts, func(i, j int) bool { return counts[i].Value < counts[j].Value })
	}
	return counts
}

func demographicValue(r models.Response, dim string) string {
	switch dim {
	case DimGender:
		return r.Gender
	case DimAgeGroup:
		return r.AgeGroup
	case DimSalary:
		return r.MonthlySalary
	case DimEmployment:
		return r.EmploymentStatus
	case DimProvince:
		return r.HomeProvince
	case DimSegment:
		return r.SemSegment
	}
	return ""
}

// Distribution counts string values, most frequent first, with percentages
// rounded to one decimal. Ties break alphabetically for stable output.
func Distribution(values []string) []Count {
	if len(values) == 0 {
		return nil
	}

	byValue := map[string]int{}
	for _, v := range values {
		byValue[v]++
	}

	out := make([]Count, 0, len(byValue))
	total := float64(len(values))
	for v, n := range byValue {
		out = append(out, Count{
			Value:   v,
			Count:   n,
			Percent: math.Round(float64(n)/total*1000) / 10,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Rate returns the percentage of responses to a question that gave one of
// the listed answers, rounded to one decimal. Used for headline metrics like
// "has funeral cover".
func Rate(responses []models.Response, question string, answers ...string) float64 {
	want := map[string]bool{}
	for _, a := range answers {
		want[a] = true
	}

	var total, matched int
	for _, r := range responses {
		if r.Question != question {
			continue
		}
		total++
		if want[r.Answer] {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*1000) / 10
}
