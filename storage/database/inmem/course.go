package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) index(id string) int {
	for i, crs := range repo.db.table {
		if crs.ID == id {
			return i
		}
	}
	return -1
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, len(repo.db.table))
	for i, crs := range repo.db.table {
		courses[i] = crs.Copy()
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if i := repo.index(id); i >= 0 {
		return repo.db.table[i].Copy(), nil
	}
	return course.Course{}, course.ErrNotFound
}

// CreateCourse lists crs first.
func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs = crs.Copy()
	repo.db.table = append([]course.Course{crs}, repo.db.table...)
	return crs.Copy(), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	i := repo.index(crs.ID)
	if i < 0 {
		return course.Course{}, course.ErrNotFound
	}
	crs.CreatedAt = repo.db.table[i].CreatedAt
	repo.db.table[i] = crs.Copy()
	return crs.Copy(), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	i := repo.index(id)
	if i < 0 {
		return course.ErrNotFound
	}
	repo.db.table = append(repo.db.table[:i:i], repo.db.table[i+1:]...)
	return nil
}
