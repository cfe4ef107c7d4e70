// Package inmemdb is an in-memory database seeded with the sample dataset. Nothing survives a restart.
package inmemdb

import (
	"context"
	_ "embed"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/user"
)

//go:embed seed.yaml
var seedData []byte

type (
	DB struct {
		user   *userTable
		course *courseTable
		stats  *statsTable
	}

	userTable struct {
		table  map[string]*user.User
		order  []string
		lastPK int
		mutex  sync.RWMutex
	}

	// courseTable keeps courses in listing order, newest first.
	courseTable struct {
		table []course.Course
		mutex sync.RWMutex
	}

	statsTable struct {
		progress        map[string]int
		studentStats    dashboard.StudentStats
		instructorStats dashboard.InstructorStats
		weeklyActivity  []dashboard.Activity
		revenue         []dashboard.Revenue
	}
)

type (
	seedUser struct {
		ID               string   `yaml:"id"`
		Name             string   `yaml:"name"`
		Email            string   `yaml:"email"`
		Password         string   `yaml:"password"`
		Role             string   `yaml:"role"`
		Avatar           string   `yaml:"avatar"`
		EnrolledCourses  []string `yaml:"enrolledCourses"`
		CompletedLessons []string `yaml:"completedLessons"`
		Courses          []string `yaml:"courses"`
	}

	seed struct {
		Users           []seedUser                `yaml:"users"`
		Courses         []course.Course           `yaml:"courses"`
		Progress        map[string]int            `yaml:"progress"`
		StudentStats    dashboard.StudentStats    `yaml:"studentStats"`
		InstructorStats dashboard.InstructorStats `yaml:"instructorStats"`
		WeeklyActivity  []dashboard.Activity      `yaml:"weeklyActivity"`
		Revenue         []dashboard.Revenue       `yaml:"revenue"`
	}
)

// Open returns a database loaded with the sample dataset.
func Open() (*DB, error) {
	var s seed
	if err := yaml.Unmarshal(seedData, &s); err != nil {
		return nil, errors.Wrap(err, "decoding seed data")
	}

	db := &DB{
		user:   &userTable{table: make(map[string]*user.User, len(s.Users))},
		course: &courseTable{table: make([]course.Course, 0, len(s.Courses))},
		stats: &statsTable{
			progress:        s.Progress,
			studentStats:    s.StudentStats,
			instructorStats: s.InstructorStats,
			weeklyActivity:  s.WeeklyActivity,
			revenue:         s.Revenue,
		},
	}

	now := time.Now().UTC()
	for _, su := range s.Users {
		role, err := user.ParseRole(su.Role)
		if err != nil {
			return nil, errors.Wrapf(err, "seeding user %s", su.ID)
		}
		usr := user.User{
			ID:               su.ID,
			Name:             su.Name,
			Email:            su.Email,
			Role:             role,
			Avatar:           su.Avatar,
			EnrolledCourses:  su.EnrolledCourses,
			CompletedLessons: su.CompletedLessons,
			Courses:          su.Courses,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := usr.SetPassword(su.Password); err != nil {
			return nil, errors.Wrapf(err, "hashing password of user %s", su.ID)
		}
		db.user.insert(&usr)
		if pk, err := strconv.Atoi(usr.ID); err == nil && pk > db.user.lastPK {
			db.user.lastPK = pk
		}
	}

	for _, crs := range s.Courses {
		crs.CreatedAt = now
		crs.UpdatedAt = now
		db.course.table = append(db.course.table, crs)
	}
	return db, nil
}

func (t *userTable) insert(usr *user.User) {
	t.table[usr.ID] = usr
	t.order = append(t.order, usr.ID)
}

type statsRepository struct {
	db *statsTable
}

// NewStatsRepository returns the source of the dashboards' sample statistics.
func NewStatsRepository(db *DB) dashboard.Source {
	return &statsRepository{db: db.stats}
}

func (repo *statsRepository) CourseProgress(_ context.Context) (map[string]int, error) {
	prog := make(map[string]int, len(repo.db.progress))
	for id, pct := range repo.db.progress {
		prog[id] = pct
	}
	return prog, nil
}

func (repo *statsRepository) StudentStats(_ context.Context) (dashboard.StudentStats, error) {
	return repo.db.studentStats, nil
}

func (repo *statsRepository) InstructorStats(_ context.Context) (dashboard.InstructorStats, error) {
	return repo.db.instructorStats, nil
}

func (repo *statsRepository) WeeklyActivity(_ context.Context) ([]dashboard.Activity, error) {
	return append([]dashboard.Activity(nil), repo.db.weeklyActivity...), nil
}

func (repo *statsRepository) Revenue(_ context.Context) ([]dashboard.Revenue, error) {
	return append([]dashboard.Revenue(nil), repo.db.revenue...), nil
}
