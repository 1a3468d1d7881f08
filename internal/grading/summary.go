package grading

// Scorecard is the slice of a student record that summaries need.
type Scorecard struct {
	Marks  map[string]int
	Grade  string
	Status string
}

type SubjectAverage struct {
	Subject string  `json:"subject"`
	Average float64 `json:"average"`
}

// Summary aggregates a set of scorecards for the dashboard chart and counters.
type Summary struct {
	Count           int              `json:"count"`
	Passed          int              `json:"passed"`
	Failed          int              `json:"failed"`
	SubjectAverages []SubjectAverage `json:"subject_averages"`
	GradeCounts     map[string]int   `json:"grade_counts"`
}

// Summarize averages every subject across the cards (a missing subject
// counts as 0) and tallies grades and statuses.
func Summarize(subjects []string, cards []Scorecard) Summary {
	s := Summary{
		Count:           len(cards),
		SubjectAverages: make([]SubjectAverage, 0, len(subjects)),
		GradeCounts:     make(map[string]int, len(Grades)),
	}
	for _, g := range Grades {
		s.GradeCounts[g] = 0
	}

	totals := make([]int, len(subjects))
	for _, c := range cards {
		for i, subject := range subjects {
			totals[i] += c.Marks[subject]
		}
		s.GradeCounts[c.Grade]++
		if c.Status == StatusPass {
			s.Passed++
		} else {
			s.Failed++
		}
	}

	for i, subject := range subjects {
		avg := 0.0
		if len(cards) > 0 {
			avg = Round2(float64(totals[i]) / float64(len(cards)))
		}
		s.SubjectAverages = append(s.SubjectAverages, SubjectAverage{Subject: subject, Average: avg})
	}
	return s
}
