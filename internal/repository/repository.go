package repository

import (
	"context"
	"errors"

	"studentperf/internal/model"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentRepository is the roster store. Implementations assign ids that are
// never reused, recompute derived fields on every write, keep insertion
// order and serialize concurrent callers.
type StudentRepository interface {
	Create(ctx context.Context, name, roll string, marks model.Marks) (*model.Student, error)
	// Update replaces name, roll and marks wholesale. It returns
	// ErrStudentNotFound when no record has the id.
	Update(ctx context.Context, id int64, name, roll string, marks model.Marks) (*model.Student, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Student, error)
	Get(ctx context.Context, id int64) (*model.Student, error)
}

func copyMarks(marks model.Marks) model.Marks {
	out := make(model.Marks, len(marks))
	for k, v := range marks {
		out[k] = v
	}
	return out
}
