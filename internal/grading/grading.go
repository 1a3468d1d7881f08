package grading

import "math"

// Letter grades, best first.
const (
	GradeAPlus = "A+"
	GradeA     = "A"
	GradeB     = "B"
	GradeC     = "C"
	GradeD     = "D"
	GradeF     = "F"
)

const (
	StatusPass = "Pass"
	StatusFail = "Fail"
)

// PassMark is the minimum score (per subject and on average) for a Pass.
const PassMark = 35

// Grades lists every letter grade in descending order.
var Grades = []string{GradeAPlus, GradeA, GradeB, GradeC, GradeD, GradeF}

var thresholds = []struct {
	min   float64
	grade string
}{
	{90, GradeAPlus},
	{80, GradeA},
	{70, GradeB},
	{60, GradeC},
	{50, GradeD},
}

// Compute derives the rounded average, letter grade and pass/fail status
// from a subject -> score mapping. An empty mapping averages to 0 and fails.
func Compute(marks map[string]int) (avg float64, grade string, status string) {
	if len(marks) == 0 {
		return 0, GradeF, StatusFail
	}

	total := 0
	lowest := math.MaxInt
	for _, score := range marks {
		total += score
		if score < lowest {
			lowest = score
		}
	}

	avg = Round2(float64(total) / float64(len(marks)))
	grade = GradeFor(avg)

	status = StatusFail
	if lowest >= PassMark && avg >= PassMark {
		status = StatusPass
	}
	return avg, grade, status
}

// GradeFor maps an average onto the letter grade scale.
func GradeFor(avg float64) string {
	for _, t := range thresholds {
		if avg >= t.min {
			return t.grade
		}
	}
	return GradeF
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
