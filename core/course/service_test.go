package course_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/tests"
)

var ctx = context.Background()

var (
	john = user.User{
		ID:               testutil.StudentID,
		Name:             "John Doe",
		Role:             user.RoleStudent,
		EnrolledCourses:  []string{"1", "2", "3"},
		CompletedLessons: []string{"1-1", "1-2", "2-1"},
	}
	jane = user.User{ID: testutil.InstructorID, Name: "Jane Smith", Role: user.RoleInstructor}
)

func setup(t *testing.T) (*course.Service, course.Repository) {
	db := testutil.OpenDB(t)
	repo := inmemdb.NewCourseRepository(db)
	return course.NewService(repo, inmemdb.NewStatsRepository(db), testutil.NewValidate()), repo
}

func ids(courses []course.Course) []string {
	res := make([]string, 0, len(courses))
	for _, crs := range courses {
		res = append(res, crs.ID)
	}
	return res
}

func TestService_Catalog(t *testing.T) {
	svc, _ := setup(t)

	tests := []struct {
		name   string
		filter course.CatalogFilter
		want   []string
	}{
		{name: "published only", want: []string{"1", "2", "4", "5"}},
		{name: "search title", filter: course.CatalogFilter{Search: "REACT"}, want: []string{"2"}},
		{name: "search description", filter: course.CatalogFilter{Search: "dart"}, want: []string{"5"}},
		{name: "categories", filter: course.CatalogFilter{Categories: []string{"Design", "JavaScript"}}, want: []string{"2", "4"}},
		{name: "levels", filter: course.CatalogFilter{Levels: []string{"Beginner"}}, want: []string{"1", "4"}},
		{name: "combined", filter: course.CatalogFilter{Search: "learn", Levels: []string{"Beginner"}}, want: []string{"1", "4"}},
		{name: "draft category hidden", filter: course.CatalogFilter{Categories: []string{"Data Science"}}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Catalog(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_Detail(t *testing.T) {
	svc, _ := setup(t)

	tests := []struct {
		name         string
		id           string
		usr          user.User
		wantErr      error
		wantEnrolled bool
		wantProgress int
	}{
		{name: "enrolled", id: "1", usr: john, wantEnrolled: true, wantProgress: 66},
		{name: "not enrolled", id: "4", usr: john},
		{name: "draft course of enrolled student", id: "3", usr: john, wantEnrolled: true},
		{name: "draft course hidden", id: "3", usr: user.User{ID: "9", Role: user.RoleStudent}, wantErr: course.ErrNotFound},
		{name: "missing", id: "42", usr: john, wantErr: course.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := svc.Detail(ctx, tt.id, tt.usr)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, det.Course.ID)
			assert.Equal(t, tt.wantEnrolled, det.Enrolled)
			assert.Equal(t, tt.wantProgress, det.Progress)
		})
	}
}

func TestService_Enroll(t *testing.T) {
	svc, _ := setup(t)

	up, changed, err := svc.Enroll(ctx, "4", john)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"1", "2", "3", "4"}, up.EnrolledCourses)
	assert.Equal(t, []string{"1", "2", "3"}, john.EnrolledCourses, "input is not mutated")

	_, changed, err = svc.Enroll(ctx, "1", john)
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = svc.Enroll(ctx, "6", john)
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))
}

func TestService_Lesson(t *testing.T) {
	svc, _ := setup(t)

	tests := []struct {
		name      string
		courseID  string
		lessonID  string
		wantErr   error
		wantIndex int
		wantPrev  string
		wantNext  string
	}{
		{name: "first", courseID: "1", lessonID: "1-1", wantIndex: 0, wantNext: "1-2"},
		{name: "middle", courseID: "1", lessonID: "1-2", wantIndex: 1, wantPrev: "1-1", wantNext: "1-3"},
		{name: "last", courseID: "1", lessonID: "1-3", wantIndex: 2, wantPrev: "1-2"},
		{name: "single", courseID: "3", lessonID: "3-1", wantIndex: 0},
		{name: "missing lesson", courseID: "1", lessonID: "9-9", wantErr: course.ErrLessonNotFound},
		{name: "missing course", courseID: "42", lessonID: "1-1", wantErr: course.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.Lesson(ctx, tt.courseID, tt.lessonID, john)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lessonID, view.Lesson.ID)
			assert.Equal(t, tt.wantIndex, view.Index)
			if tt.wantPrev == "" {
				assert.Nil(t, view.Prev)
			} else {
				require.NotNil(t, view.Prev)
				assert.Equal(t, tt.wantPrev, view.Prev.ID)
			}
			if tt.wantNext == "" {
				assert.Nil(t, view.Next)
			} else {
				require.NotNil(t, view.Next)
				assert.Equal(t, tt.wantNext, view.Next.ID)
			}
		})
	}
}

func TestService_CompleteLesson(t *testing.T) {
	svc, _ := setup(t)

	comp, err := svc.CompleteLesson(ctx, "2", "2-1", john)
	require.NoError(t, err)
	assert.False(t, comp.Changed)
	assert.Equal(t, "/courses/2/lessons/2-2", comp.Next)
	assert.False(t, comp.Finished)

	comp, err = svc.CompleteLesson(ctx, "2", "2-2", john)
	require.NoError(t, err)
	assert.True(t, comp.Changed)
	assert.Equal(t, []string{"1-1", "1-2", "2-1", "2-2"}, comp.Update.CompletedLessons)
	assert.Empty(t, comp.Next)
	assert.True(t, comp.Finished)
}

func TestService_InstructorCourses(t *testing.T) {
	svc, _ := setup(t)

	tests := []struct {
		name   string
		filter course.ManageFilter
		want   []string
	}{
		{name: "all", want: []string{"1", "2", "5"}},
		{name: "explicit all", filter: course.ManageFilter{Status: "all"}, want: []string{"1", "2", "5"}},
		{name: "search", filter: course.ManageFilter{Search: "flutter"}, want: []string{"5"}},
		{name: "status", filter: course.ManageFilter{Status: "draft"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.InstructorCourses(ctx, jane.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_DeleteAndDuplicate(t *testing.T) {
	svc, repo := setup(t)

	assert.Equal(t, course.ErrForbidden, errors.Cause(svc.Delete(ctx, jane.ID, "3")))
	assert.Equal(t, course.ErrNotFound, errors.Cause(svc.Delete(ctx, jane.ID, "42")))

	dup, err := svc.Duplicate(ctx, jane.ID, "1")
	require.NoError(t, err)
	assert.Regexp(t, `^1-copy-[0-9a-f]{8}$`, dup.ID)
	assert.Equal(t, "Introduction to Web Development (Copy)", dup.Title)
	assert.Len(t, dup.Lessons, 3)

	_, err = svc.Duplicate(ctx, jane.ID, "6")
	assert.Equal(t, course.ErrForbidden, errors.Cause(err))

	all, err := repo.QueryAllCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, dup.ID, all[0].ID, "the copy is listed first")

	require.NoError(t, svc.Delete(ctx, jane.ID, "1"))
	_, err = repo.GetCourseByID(ctx, "1")
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	got, err := svc.InstructorCourses(ctx, jane.ID, course.ManageFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{dup.ID, "2", "5"}, ids(got))
}

func TestService_Update(t *testing.T) {
	svc, _ := setup(t)
	title := "Web Development 101"
	price := 19.5
	status := course.StatusReview

	crs, err := svc.Update(ctx, jane.ID, "1", course.Update{Title: &title, Price: &price, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, title, crs.Title)
	assert.Equal(t, price, crs.Price)
	assert.Equal(t, course.StatusReview, crs.Status)
	assert.Equal(t, "Beginner", crs.Level, "unset fields are kept")

	level := "Expert"
	_, err = svc.Update(ctx, jane.ID, "1", course.Update{Level: &level})
	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs))
	assert.Equal(t, "level", vErrs[0].Field())

	_, err = svc.Update(ctx, jane.ID, "1", course.Update{Lessons: []course.Lesson{{Title: ""}}})
	assert.Error(t, err)

	_, err = svc.Update(ctx, jane.ID, "6", course.Update{Title: &title})
	assert.Equal(t, course.ErrForbidden, errors.Cause(err))
}
