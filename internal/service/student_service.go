package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studentperf/internal/grading"
	"studentperf/internal/model"
	"studentperf/internal/repository"
)

// StudentFilter narrows the roster. Search is a case-insensitive substring
// of name or roll; Grade must match exactly. Empty fields match everything.
type StudentFilter struct {
	Search string
	Grade  string
}

func (f StudentFilter) Match(s model.Student) bool {
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.Roll), q) {
			return false
		}
	}
	if f.Grade != "" && s.Grade != f.Grade {
		return false
	}
	return true
}

type StudentService struct {
	repo   repository.StudentRepository
	logger *zap.Logger
}

func NewStudentService(repo repository.StudentRepository, logger *zap.Logger) *StudentService {
	return &StudentService{repo: repo, logger: logger}
}

func (s *StudentService) ListStudents(ctx context.Context) ([]model.Student, error) {
	return s.repo.List(ctx)
}

func (s *StudentService) GetStudent(ctx context.Context, id int64) (*model.Student, error) {
	return s.repo.Get(ctx, id)
}

func (s *StudentService) CreateStudent(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	student, err := s.repo.Create(ctx, in.Name, in.Roll, in.Marks)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.Int64("id", student.ID), zap.String("roll", student.Roll))
	return student, nil
}

// UpdateStudent returns repository.ErrStudentNotFound for unknown ids.
func (s *StudentService) UpdateStudent(ctx context.Context, id int64, in model.StudentInput) (*model.Student, error) {
	student, err := s.repo.Update(ctx, id, in.Name, in.Roll, in.Marks)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student updated", zap.Int64("id", id))
	return student, nil
}

func (s *StudentService) DeleteStudent(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("student deleted", zap.Int64("id", id))
	return nil
}

// FilterStudents returns the matching records in roster order.
func (s *StudentService) FilterStudents(ctx context.Context, f StudentFilter) ([]model.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := students[:0]
	for _, st := range students {
		if f.Match(st) {
			out = append(out, st)
		}
	}
	return out, nil
}

// Summary aggregates the filtered roster for the dashboard.
func (s *StudentService) Summary(ctx context.Context, f StudentFilter) (*grading.Summary, error) {
	students, err := s.FilterStudents(ctx, f)
	if err != nil {
		return nil, err
	}
	summary := grading.Summarize(model.Subjects, model.Scorecards(students))
	return &summary, nil
}

type seedStudent struct {
	name   string
	roll   string
	scores []int
}

var sampleRoster = []seedStudent{
	{"Aishwarya", "CSB101", []int{82, 78, 75, 88, 90}},
	{"Bharath", "CSB102", []int{65, 59, 70, 72, 68}},
	{"Chitra", "CSB103", []int{92, 95, 94, 90, 96}},
	{"Dinesh", "CSB104", []int{45, 50, 40, 55, 48}},
}

// SeedSample adds the demo roster.
func (s *StudentService) SeedSample(ctx context.Context) error {
	for _, st := range sampleRoster {
		if _, err := s.repo.Create(ctx, st.name, st.roll, model.MarksFromList(st.scores)); err != nil {
			return fmt.Errorf("seed %s: %w", st.roll, err)
		}
	}
	s.logger.Info("sample roster seeded", zap.Int("count", len(sampleRoster)))
	return nil
}
