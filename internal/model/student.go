package model

import (
	"time"

	"studentperf/internal/grading"
)

// Subjects is the fixed, ordered subject list. The order defines positional
// marks payloads and the export columns.
var Subjects = []string{"Math", "Physics", "Chemistry", "English", "Computer"}

// Marks maps a subject name to its score.
type Marks map[string]int

// Student is one roster record. Avg, Grade and Status are derived from Marks
// and only ever set by Recalculate.
type Student struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null"`
	Roll      string    `gorm:"index"`
	Marks     Marks     `gorm:"serializer:json"`
	Avg       float64
	Grade     string
	Status    string
	CreatedAt time.Time
}

// Recalculate refreshes the derived fields from the current marks.
func (s *Student) Recalculate() {
	s.Avg, s.Grade, s.Status = grading.Compute(s.Marks)
}

// Clone returns a copy that shares no state with s.
func (s Student) Clone() Student {
	c := s
	if s.Marks != nil {
		c.Marks = make(Marks, len(s.Marks))
		for k, v := range s.Marks {
			c.Marks[k] = v
		}
	}
	return c
}

// Ordered returns the scores in subject order, 0 for any missing subject.
func (m Marks) Ordered() []int {
	out := make([]int, len(Subjects))
	for i, subject := range Subjects {
		out[i] = m[subject]
	}
	return out
}

// MarksFromList zips scores positionally against Subjects. Extra scores are
// dropped and subjects without a score get 0.
func MarksFromList(scores []int) Marks {
	m := make(Marks, len(Subjects))
	for i, subject := range Subjects {
		if i < len(scores) {
			m[subject] = scores[i]
		} else {
			m[subject] = 0
		}
	}
	return m
}

// StudentView is the JSON shape every roster endpoint returns.
type StudentView struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Roll      string  `json:"roll"`
	Marks     []int   `json:"marks"`
	Avg       float64 `json:"avg"`
	Grade     string  `json:"grade"`
	Status    string  `json:"status"`
	CreatedAt float64 `json:"created_at"`
}

// View renders the record for the API. created_at is Unix seconds.
func (s Student) View() StudentView {
	return StudentView{
		ID:        s.ID,
		Name:      s.Name,
		Roll:      s.Roll,
		Marks:     s.Marks.Ordered(),
		Avg:       s.Avg,
		Grade:     s.Grade,
		Status:    s.Status,
		CreatedAt: float64(s.CreatedAt.UnixNano()) / float64(time.Second),
	}
}

func Views(students []Student) []StudentView {
	out := make([]StudentView, 0, len(students))
	for _, s := range students {
		out = append(out, s.View())
	}
	return out
}

// Scorecards projects records for grading.Summarize.
func Scorecards(students []Student) []grading.Scorecard {
	out := make([]grading.Scorecard, 0, len(students))
	for _, s := range students {
		out = append(out, grading.Scorecard{Marks: s.Marks, Grade: s.Grade, Status: s.Status})
	}
	return out
}
