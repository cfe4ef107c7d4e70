package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// ProgressSource reports how far the student went in each course, in percent.
type ProgressSource interface {
	CourseProgress(ctx context.Context) (map[string]int, error)
}

type Service struct {
	repo     Repository
	progress ProgressSource
	validate *validator.Validate
}

// NewService returns a course Service. progress may be nil, every course is then at 0%.
func NewService(repo Repository, progress ProgressSource, validate *validator.Validate) *Service {
	return &Service{repo: repo, progress: progress, validate: validate}
}

func (s *Service) progressOf(ctx context.Context) (map[string]int, error) {
	if s.progress == nil {
		return map[string]int{}, nil
	}
	prog, err := s.progress.CourseProgress(ctx)
	return prog, errors.Wrap(err, "querying course progress")
}

// Catalog lists the published courses matching filter.
func (s *Service) Catalog(ctx context.Context, filter CatalogFilter) ([]Course, error) {
	courses, err := s.repo.QueryAllCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	search := core.CleanString(filter.Search)
	res := make([]Course, 0, len(courses))
	for _, crs := range courses {
		if crs.Status != StatusPublished {
			continue
		}
		if search != "" && !core.ContainsFold(crs.Title, search) && !core.ContainsFold(crs.Description, search) {
			continue
		}
		if !anyOf(filter.Categories, crs.Category) || !anyOf(filter.Levels, crs.Level) {
			continue
		}
		res = append(res, crs)
	}
	return res, nil
}

// anyOf reports whether value is one of the selected ones. Nothing selected matches everything.
func anyOf(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

type Detail struct {
	Course   Course `json:"course"`
	Enrolled bool   `json:"enrolled"`
	Progress int    `json:"progress"`
}

// visible returns the course if usr may see it: published, or one they are enrolled in.
func (s *Service) visible(ctx context.Context, id string, usr user.User) (Course, error) {
	crs, err := s.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Status != StatusPublished && !usr.IsEnrolled(crs.ID) {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

// Detail returns the course seen by usr. It fails with ErrNotFound when the course is missing or hidden.
func (s *Service) Detail(ctx context.Context, id string, usr user.User) (Detail, error) {
	crs, err := s.visible(ctx, id, usr)
	if err != nil {
		return Detail{}, err
	}

	det := Detail{Course: crs, Enrolled: usr.IsEnrolled(crs.ID)}
	if det.Enrolled {
		prog, err := s.progressOf(ctx)
		if err != nil {
			return Detail{}, err
		}
		det.Progress = prog[crs.ID]
	}
	det.Course.Lessons = markCompleted(crs.Lessons, usr)
	return det, nil
}

func markCompleted(lessons []Lesson, usr user.User) []Lesson {
	res := make([]Lesson, len(lessons))
	for i, l := range lessons {
		l.Completed = l.Completed || usr.HasCompleted(l.ID)
		res[i] = l
	}
	return res
}

// Enroll returns the profile update enrolling usr in the course. changed is false when already enrolled.
func (s *Service) Enroll(ctx context.Context, id string, usr user.User) (up user.UpdateProfile, changed bool, err error) {
	if _, err = s.visible(ctx, id, usr); err != nil {
		return up, false, err
	}
	enrolled, changed := user.AppendUnique(usr.EnrolledCourses, id)
	up.EnrolledCourses = enrolled
	return up, changed, nil
}

type LessonView struct {
	Course Course  `json:"course"`
	Lesson Lesson  `json:"lesson"`
	Index  int     `json:"index"`
	Prev   *Lesson `json:"prev"`
	Next   *Lesson `json:"next"`
}

// Lesson returns the lesson with its neighbours.
// It fails with ErrNotFound for a missing course and ErrLessonNotFound for a missing lesson.
func (s *Service) Lesson(ctx context.Context, courseID, lessonID string, usr user.User) (LessonView, error) {
	crs, err := s.visible(ctx, courseID, usr)
	if err != nil {
		return LessonView{}, err
	}
	crs.Lessons = markCompleted(crs.Lessons, usr)

	idx := crs.LessonIndex(lessonID)
	if idx < 0 {
		return LessonView{}, ErrLessonNotFound
	}

	view := LessonView{Course: crs, Lesson: crs.Lessons[idx], Index: idx}
	if idx > 0 {
		prev := crs.Lessons[idx-1]
		view.Prev = &prev
	}
	if idx < len(crs.Lessons)-1 {
		next := crs.Lessons[idx+1]
		view.Next = &next
	}
	return view, nil
}

// Completion is the outcome of completing a lesson.
type Completion struct {
	Update   user.UpdateProfile `json:"-"`
	Changed  bool               `json:"-"`
	Next     string             `json:"next,omitempty"`
	Finished bool               `json:"finished"`
}

// CompleteLesson marks the lesson completed for usr and points to the next one.
func (s *Service) CompleteLesson(ctx context.Context, courseID, lessonID string, usr user.User) (Completion, error) {
	view, err := s.Lesson(ctx, courseID, lessonID, usr)
	if err != nil {
		return Completion{}, err
	}

	var comp Completion
	comp.Update.CompletedLessons, comp.Changed = user.AppendUnique(usr.CompletedLessons, lessonID)
	if view.Next != nil {
		comp.Next = fmt.Sprintf("/courses/%s/lessons/%s", courseID, view.Next.ID)
	} else {
		comp.Finished = true
	}
	return comp, nil
}

// InstructorCourses lists the courses owned by instructorID matching filter.
func (s *Service) InstructorCourses(ctx context.Context, instructorID string, filter ManageFilter) ([]Course, error) {
	courses, err := s.repo.QueryAllCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	search := core.CleanString(filter.Search)
	status := core.CleanString(filter.Status, true /* lower */)
	res := make([]Course, 0)
	for _, crs := range courses {
		if crs.InstructorID != instructorID {
			continue
		}
		if search != "" && !core.ContainsFold(crs.Title, search) {
			continue
		}
		if status != "" && status != "all" && string(crs.Status) != status {
			continue
		}
		res = append(res, crs)
	}
	return res, nil
}

// Owned returns the course when it belongs to instructorID.
func (s *Service) Owned(ctx context.Context, instructorID, id string) (Course, error) {
	crs, err := s.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.InstructorID != instructorID {
		return Course{}, ErrForbidden
	}
	return crs, nil
}

func (s *Service) Delete(ctx context.Context, instructorID, id string) error {
	if _, err := s.Owned(ctx, instructorID, id); err != nil {
		return err
	}
	return errors.Wrap(s.repo.DeleteCourse(ctx, id), "deleting course")
}

// Duplicate copies an owned course. The copy is listed first.
func (s *Service) Duplicate(ctx context.Context, instructorID, id string) (Course, error) {
	crs, err := s.Owned(ctx, instructorID, id)
	if err != nil {
		return Course{}, err
	}

	dup := crs.Copy()
	dup.ID = fmt.Sprintf("%s-copy-%s", crs.ID, strings.SplitN(uuid.NewString(), "-", 2)[0])
	dup.Title = crs.Title + " (Copy)"
	dup.CreatedAt = time.Now().UTC()
	dup.UpdatedAt = dup.CreatedAt

	dup, err = s.repo.CreateCourse(ctx, dup)
	return dup, errors.Wrap(err, "creating course")
}

// Update merges up into an owned course.
func (s *Service) Update(ctx context.Context, instructorID, id string, up Update) (Course, error) {
	if err := s.validate.Struct(up); err != nil {
		return Course{}, err
	}
	crs, err := s.Owned(ctx, instructorID, id)
	if err != nil {
		return Course{}, err
	}

	up.apply(&crs)
	for i := range crs.Lessons {
		if crs.Lessons[i].ID == "" {
			crs.Lessons[i].ID = uuid.NewString()
		}
	}
	crs.UpdatedAt = time.Now().UTC()

	crs, err = s.repo.UpdateCourse(ctx, crs)
	return crs, errors.Wrap(err, "updating course")
}

// create stores a new course owned by the instructor.
func (s *Service) create(ctx context.Context, crs Course, owner user.User) (Course, error) {
	now := time.Now().UTC()
	crs.ID = uuid.NewString()
	crs.Instructor = owner.Name
	crs.InstructorID = owner.ID
	crs.CreatedAt = now
	crs.UpdatedAt = now

	crs, err := s.repo.CreateCourse(ctx, crs)
	return crs, errors.Wrap(err, "creating course")
}
