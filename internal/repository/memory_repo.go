package repository

import (
	"context"
	"sync"
	"time"

	"studentperf/internal/model"
)

// MemoryStudentRepository keeps the roster in a slice for the life of the
// process.
type MemoryStudentRepository struct {
	mu       sync.RWMutex
	students []model.Student
	nextID   int64
	now      func() time.Time
}

func NewMemoryStudentRepository() *MemoryStudentRepository {
	return &MemoryStudentRepository{nextID: 1, now: time.Now}
}

func (r *MemoryStudentRepository) Create(_ context.Context, name, roll string, marks model.Marks) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := model.Student{
		ID:        r.nextID,
		Name:      name,
		Roll:      roll,
		Marks:     copyMarks(marks),
		CreatedAt: r.now(),
	}
	s.Recalculate()

	r.students = append(r.students, s)
	r.nextID++

	out := s.Clone()
	return &out, nil
}

func (r *MemoryStudentRepository) Update(_ context.Context, id int64, name, roll string, marks model.Marks) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.students {
		if r.students[i].ID != id {
			continue
		}
		s := &r.students[i]
		s.Name = name
		s.Roll = roll
		s.Marks = copyMarks(marks)
		s.Recalculate()

		out := s.Clone()
		return &out, nil
	}
	return nil, ErrStudentNotFound
}

func (r *MemoryStudentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.students[:0]
	for _, s := range r.students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	// clear the tail so removed records can be collected
	for i := len(kept); i < len(r.students); i++ {
		r.students[i] = model.Student{}
	}
	r.students = kept
	return nil
}

func (r *MemoryStudentRepository) List(_ context.Context) ([]model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (r *MemoryStudentRepository) Get(_ context.Context, id int64) (*model.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.students {
		if s.ID == id {
			out := s.Clone()
			return &out, nil
		}
	}
	return nil, ErrStudentNotFound
}
