package course

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrForbidden      = errors.New("course belongs to another instructor")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

var AllStatuses = []Status{StatusDraft, StatusReview, StatusPublished}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusPublished:
		return true
	default:
		return false
	}
}

// Catalog enumerations.
var (
	Categories = []string{
		"Web Development",
		"Mobile Development",
		"Data Science",
		"Design",
		"Marketing",
		"Business",
		"Photography",
		"Music",
		"JavaScript",
		"DevOps",
	}

	Levels = []string{
		"Beginner",
		"Intermediate",
		"Advanced",
		"All Levels",
	}
)

const (
	DefaultLanguage = "English"
	DefaultImage    = "https://images.pexels.com/photos/1181263/pexels-photo-1181263.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2"
)

type Lesson struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title" validate:"required,notblank"`
	Description string `json:"description" yaml:"description"`
	Duration    string `json:"duration" yaml:"duration"`
	VideoURL    string `json:"videoUrl" yaml:"videoUrl"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

type Course struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title" validate:"required,notblank"`
	Description   string    `json:"description" yaml:"description" validate:"required,notblank"`
	Image         string    `json:"image" yaml:"image" validate:"omitempty,url"`
	Category      string    `json:"category" yaml:"category" validate:"required,category"`
	Level         string    `json:"level" yaml:"level" validate:"required,level"`
	Language      string    `json:"language,omitempty" yaml:"language"`
	Duration      string    `json:"duration" yaml:"duration"`
	Instructor    string    `json:"instructor" yaml:"instructor"`
	InstructorID  string    `json:"instructorId" yaml:"instructorId"`
	Status        Status    `json:"status" yaml:"status" validate:"status"`
	Featured      bool      `json:"featured" yaml:"featured"`
	Price         float64   `json:"price" yaml:"price" validate:"gte=0"`
	Rating        float64   `json:"rating" yaml:"rating"`
	StudentsCount int       `json:"studentsCount" yaml:"studentsCount"`
	Lessons       []Lesson  `json:"lessons" yaml:"lessons" validate:"min=1,dive"`
	CreatedAt     time.Time `json:"createdAt" yaml:"-"` // UTC
	UpdatedAt     time.Time `json:"updatedAt" yaml:"-"` // UTC
}

// LessonIndex returns the position of the lesson in the course, or -1.
func (c Course) LessonIndex(lessonID string) int {
	for i, l := range c.Lessons {
		if l.ID == lessonID {
			return i
		}
	}
	return -1
}

// Copy returns a deep copy of the course.
func (c Course) Copy() Course {
	c.Lessons = append([]Lesson(nil), c.Lessons...)
	return c
}

// Repository is the course store. Listings are ordered newest first, seeded courses keep their seed order.
type Repository interface {
	QueryAllCourses(ctx context.Context) ([]Course, error)
	GetCourseByID(ctx context.Context, id string) (Course, error)
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	UpdateCourse(ctx context.Context, crs Course) (Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// CatalogFilter narrows the catalog. Empty fields match everything.
type CatalogFilter struct {
	Search     string   `query:"search"`
	Categories []string `query:"category"`
	Levels     []string `query:"level"`
}

// ManageFilter narrows an instructor's course list. Status "all" or "" matches every status.
type ManageFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
}

// Update holds the partial fields of an edited course. Nil fields are left untouched.
type Update struct {
	Title       *string  `json:"title" validate:"omitempty,notblank"`
	Description *string  `json:"description" validate:"omitempty,notblank"`
	Image       *string  `json:"image" validate:"omitempty,url"`
	Category    *string  `json:"category" validate:"omitempty,category"`
	Level       *string  `json:"level" validate:"omitempty,level"`
	Language    *string  `json:"language"`
	Duration    *string  `json:"duration"`
	Status      *Status  `json:"status" validate:"omitempty,status"`
	Featured    *bool    `json:"featured"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Lessons     []Lesson `json:"lessons" validate:"omitempty,min=1,dive"`
}

func (u Update) apply(crs *Course) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&crs.Title, u.Title)
	setStr(&crs.Description, u.Description)
	setStr(&crs.Image, u.Image)
	setStr(&crs.Category, u.Category)
	setStr(&crs.Level, u.Level)
	setStr(&crs.Language, u.Language)
	setStr(&crs.Duration, u.Duration)
	if u.Status != nil {
		crs.Status = *u.Status
	}
	if u.Featured != nil {
		crs.Featured = *u.Featured
	}
	if u.Price != nil {
		crs.Price = *u.Price
	}
	if u.Lessons != nil {
		crs.Lessons = append([]Lesson(nil), u.Lessons...)
	}
}
