package inmemdb_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/tests"
)

var ctx = context.Background()

func TestOpen_Seed(t *testing.T) {
	db := testutil.OpenDB(t)

	users, err := inmemdb.NewUserRepository(db).QueryAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "John Doe", users[0].Name)
	assert.Equal(t, user.RoleStudent, users[0].Role)
	assert.Equal(t, []string{"1", "2", "3"}, users[0].EnrolledCourses)
	assert.Equal(t, user.RoleInstructor, users[1].Role)
	assert.Equal(t, []string{"1", "2"}, users[1].Courses)
	assert.NoError(t, users[1].CheckPassword(testutil.SeedPassword), "seed passwords are hashed")

	courses, err := inmemdb.NewCourseRepository(db).QueryAllCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 6)
	assert.Equal(t, "1", courses[0].ID)
	assert.Len(t, courses[0].Lessons, 3)
	assert.Equal(t, course.StatusReview, courses[5].Status)
	for _, crs := range courses {
		assert.NoError(t, testutil.NewValidate().Struct(crs), crs.ID)
	}

	stats := inmemdb.NewStatsRepository(db)
	prog, err := stats.CourseProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 66, "2": 50, "3": 0, "5": 10}, prog)
}

func TestUserRepository(t *testing.T) {
	repo := inmemdb.NewUserRepository(testutil.OpenDB(t))

	usr := testutil.CreateUser(t, repo, "Ann", "ann@example.com", "secret", user.RoleStudent)
	assert.Equal(t, "3", usr.ID)

	_, err := repo.CreateUser(ctx, user.User{Name: "Dup", Email: "ann@example.com"})
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := repo.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = repo.GetUserByEmail(ctx, "ANN@example.com")
	assert.Equal(t, user.ErrNotFound, err, "lookups expect cleaned emails")

	// returned users are copies
	got.EnrolledCourses = append(got.EnrolledCourses, "1")
	again, err := repo.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Empty(t, again.EnrolledCourses)

	again.Name = "Annie"
	again.PasswordHash = nil
	updated, err := repo.UpdateUser(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.NoError(t, updated.CheckPassword("secret"), "credential is kept")

	again.Email = testutil.StudentEmail
	_, err = repo.UpdateUser(ctx, again)
	assert.Equal(t, user.ErrEmailExists, err)

	_, err = repo.UpdateUser(ctx, user.User{ID: "42"})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestCourseRepository(t *testing.T) {
	repo := inmemdb.NewCourseRepository(testutil.OpenDB(t))

	crs, err := repo.CreateCourse(ctx, course.Course{ID: "new", Title: "New", Lessons: []course.Lesson{{ID: "n-1"}}})
	require.NoError(t, err)
	all, err := repo.QueryAllCourses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "new", all[0].ID)

	crs.Lessons[0].Title = "mutated"
	got, err := repo.GetCourseByID(ctx, "new")
	require.NoError(t, err)
	assert.Empty(t, got.Lessons[0].Title, "stored lessons are copies")

	got.Title = "Renamed"
	_, err = repo.UpdateCourse(ctx, got)
	require.NoError(t, err)
	got, _ = repo.GetCourseByID(ctx, "new")
	assert.Equal(t, "Renamed", got.Title)

	_, err = repo.UpdateCourse(ctx, course.Course{ID: "nope"})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	require.NoError(t, repo.DeleteCourse(ctx, "new"))
	assert.Equal(t, course.ErrNotFound, repo.DeleteCourse(ctx, "new"))
	all, _ = repo.QueryAllCourses(ctx)
	assert.Len(t, all, 6)
}
