// Package dashboard computes the summaries shown on the student, profile and instructor pages.
package dashboard

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type (
	StudentStats struct {
		TotalCoursesEnrolled int     `json:"totalCoursesEnrolled" yaml:"totalCoursesEnrolled"`
		CompletedCourses     int     `json:"completedCourses" yaml:"completedCourses"`
		TotalHoursLearned    float64 `json:"totalHoursLearned" yaml:"totalHoursLearned"`
		CertificatesEarned   int     `json:"certificatesEarned" yaml:"certificatesEarned"`
		AverageScore         float64 `json:"averageScore" yaml:"averageScore"`
	}

	InstructorStats struct {
		TotalStudents        int     `json:"totalStudents" yaml:"totalStudents"`
		TotalCourses         int     `json:"totalCourses" yaml:"totalCourses"`
		TotalRevenue         float64 `json:"totalRevenue" yaml:"totalRevenue"`
		CourseCompletionRate float64 `json:"courseCompletionRate" yaml:"courseCompletionRate"`
		AverageRating        float64 `json:"averageRating" yaml:"averageRating"`
	}

	// Activity is the learning time of one week day.
	Activity struct {
		Name  string  `json:"name" yaml:"name"`
		Hours float64 `json:"hours" yaml:"hours"`
	}

	// Revenue is the income of one month.
	Revenue struct {
		Name    string  `json:"name" yaml:"name"`
		Revenue float64 `json:"revenue" yaml:"revenue"`
	}
)

// Source provides the sample statistics the dashboards display.
type Source interface {
	course.ProgressSource
	StudentStats(ctx context.Context) (StudentStats, error)
	InstructorStats(ctx context.Context) (InstructorStats, error)
	WeeklyActivity(ctx context.Context) ([]Activity, error)
	Revenue(ctx context.Context) ([]Revenue, error)
}

// CourseProgress is a course with the student's progress in it.
type CourseProgress struct {
	course.Course
	Progress int `json:"progress"`
}

type Student struct {
	Enrolled       []CourseProgress `json:"enrolled"`
	InProgress     []CourseProgress `json:"inProgress"`
	Continue       *CourseProgress  `json:"continue"`
	ContinueLesson *course.Lesson   `json:"continueLesson"`
	Recent         *CourseProgress  `json:"recent"`
	Stats          StudentStats     `json:"stats"`
	Activity       []Activity       `json:"activity"`
}

type Profile struct {
	User            user.User        `json:"user"`
	Enrolled        []CourseProgress `json:"enrolled"`
	Completed       []CourseProgress `json:"completed"`
	AverageProgress int              `json:"averageProgress"`
}

// StatusCount is the number of courses in one status and its share of all courses, in percent.
type StatusCount struct {
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"`
}

type Instructor struct {
	Courses  []course.Course               `json:"courses"`
	ByStatus map[course.Status]StatusCount `json:"byStatus"`
	Stats    InstructorStats               `json:"stats"`
	Revenue  []Revenue                     `json:"revenue"`
}

type Service struct {
	courses course.Repository
	src     Source
}

func NewService(courses course.Repository, src Source) *Service {
	return &Service{courses: courses, src: src}
}

// enrolled returns the courses usr is enrolled in, in catalog order, with their progress.
func (s *Service) enrolled(ctx context.Context, usr user.User) ([]CourseProgress, error) {
	courses, err := s.courses.QueryAllCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	prog, err := s.src.CourseProgress(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying course progress")
	}

	res := make([]CourseProgress, 0, len(usr.EnrolledCourses))
	for _, crs := range courses {
		if usr.IsEnrolled(crs.ID) {
			res = append(res, CourseProgress{Course: crs, Progress: prog[crs.ID]})
		}
	}
	return res, nil
}

func (s *Service) Student(ctx context.Context, usr user.User) (Student, error) {
	enrolled, err := s.enrolled(ctx, usr)
	if err != nil {
		return Student{}, err
	}

	dash := Student{Enrolled: enrolled, InProgress: make([]CourseProgress, 0)}
	for _, cp := range enrolled {
		if cp.Progress > 0 && cp.Progress < 100 {
			dash.InProgress = append(dash.InProgress, cp)
		}
	}
	sort.SliceStable(dash.InProgress, func(i, j int) bool {
		return dash.InProgress[i].Progress > dash.InProgress[j].Progress
	})

	if len(dash.InProgress) > 0 {
		next := dash.InProgress[0]
		for _, l := range next.Lessons {
			if !l.Completed && !usr.HasCompleted(l.ID) {
				lesson := l
				dash.Continue = &next
				dash.ContinueLesson = &lesson
				break
			}
		}
	}
	if len(enrolled) > 0 {
		recent := enrolled[0]
		dash.Recent = &recent
	}

	if dash.Stats, err = s.src.StudentStats(ctx); err != nil {
		return Student{}, errors.Wrap(err, "querying student stats")
	}
	if dash.Activity, err = s.src.WeeklyActivity(ctx); err != nil {
		return Student{}, errors.Wrap(err, "querying weekly activity")
	}
	return dash, nil
}

func (s *Service) Profile(ctx context.Context, usr user.User) (Profile, error) {
	enrolled, err := s.enrolled(ctx, usr)
	if err != nil {
		return Profile{}, err
	}

	prof := Profile{User: usr.Sanitized(), Enrolled: enrolled, Completed: make([]CourseProgress, 0)}
	var total int
	for _, cp := range enrolled {
		total += cp.Progress
		if cp.Progress == 100 {
			prof.Completed = append(prof.Completed, cp)
		}
	}
	if len(enrolled) > 0 {
		prof.AverageProgress = int(float64(total)/float64(len(enrolled)) + 0.5)
	}
	return prof, nil
}

func (s *Service) Instructor(ctx context.Context, usr user.User) (Instructor, error) {
	courses, err := s.courses.QueryAllCourses(ctx)
	if err != nil {
		return Instructor{}, errors.Wrap(err, "querying courses")
	}

	dash := Instructor{Courses: make([]course.Course, 0), ByStatus: make(map[course.Status]StatusCount, len(course.AllStatuses))}
	for _, crs := range courses {
		if crs.InstructorID == usr.ID {
			dash.Courses = append(dash.Courses, crs)
		}
	}

	total := len(dash.Courses)
	if total == 0 {
		total = 1
	}
	for _, status := range course.AllStatuses {
		var cnt int
		for _, crs := range dash.Courses {
			if crs.Status == status {
				cnt++
			}
		}
		dash.ByStatus[status] = StatusCount{Count: cnt, Ratio: float64(cnt) / float64(total) * 100}
	}

	if dash.Stats, err = s.src.InstructorStats(ctx); err != nil {
		return Instructor{}, errors.Wrap(err, "querying instructor stats")
	}
	if dash.Revenue, err = s.src.Revenue(ctx); err != nil {
		return Instructor{}, errors.Wrap(err, "querying revenue")
	}
	return dash, nil
}
