package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"studentperf/internal/model"
)

// GormStudentRepository stores the roster through GORM. Ids come from an
// in-process counter rather than the database so a deleted id is never
// handed out again.
type GormStudentRepository struct {
	mu     sync.Mutex
	db     *gorm.DB
	nextID int64
	now    func() time.Time
}

func NewGormStudentRepository(db *gorm.DB) (*GormStudentRepository, error) {
	var maxID int64
	if err := db.Model(&model.Student{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return nil, fmt.Errorf("read max student id: %w", err)
	}
	return &GormStudentRepository{db: db, nextID: maxID + 1, now: time.Now}, nil
}

func (r *GormStudentRepository) Create(ctx context.Context, name, roll string, marks model.Marks) (*model.Student, error) {
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

	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	r.nextID++
	return &s, nil
}

func (r *GormStudentRepository) Update(ctx context.Context, id int64, name, roll string, marks model.Marks) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Name = name
	s.Roll = roll
	s.Marks = copyMarks(marks)
	s.Recalculate()

	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return nil, fmt.Errorf("update student %d: %w", id, err)
	}
	return s, nil
}

func (r *GormStudentRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.WithContext(ctx).Delete(&model.Student{}, id).Error; err != nil {
		return fmt.Errorf("delete student %d: %w", id, err)
	}
	return nil
}

func (r *GormStudentRepository) List(ctx context.Context) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var students []model.Student
	if err := r.db.WithContext(ctx).Order("id asc").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (r *GormStudentRepository) Get(ctx context.Context, id int64) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.find(ctx, id)
}

func (r *GormStudentRepository) find(ctx context.Context, id int64) (*model.Student, error) {
	var s model.Student
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student %d: %w", id, err)
	}
	return &s, nil
}
