package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/route"
	"github.com/trezcool/darasa/core/theme"
	"github.com/trezcool/darasa/core/user"
)

// Page is the view-model of a rendered page.
type Page struct {
	Page  string      `json:"page"`
	Title string      `json:"title"`
	Theme theme.Theme `json:"theme"`
	User  *user.User  `json:"user"`
	Data  interface{} `json:"data"`
}

func render(ctx echo.Context, name string, data interface{}) error {
	var r route.Route
	for _, rt := range route.Table {
		if rt.Name == name {
			r = rt
			break
		}
	}
	c := getClient(ctx)
	return ctx.JSON(http.StatusOK, Page{
		Page:  r.Name,
		Title: r.Title,
		Theme: c.theme.Theme(),
		User:  c.user(),
		Data:  data,
	})
}

type catalogData struct {
	Courses    []course.Course      `json:"courses"`
	Filter     course.CatalogFilter `json:"filter"`
	Categories []string             `json:"categories"`
	Levels     []string             `json:"levels"`
}

type manageData struct {
	Courses []course.Course     `json:"courses"`
	Filter  course.ManageFilter `json:"filter"`
}

type courseFormData struct {
	Course     *course.Course  `json:"course,omitempty"`
	Steps      []string        `json:"steps,omitempty"`
	Categories []string        `json:"categories"`
	Levels     []string        `json:"levels"`
	Statuses   []course.Status `json:"statuses"`
}

// registerPages returns the handler of every page of route.Table, by name.
func (s *Server) registerPages() map[string]echo.HandlerFunc {
	courses := s.deps.Courses
	dashboards := s.deps.Dashboards

	static := func(name string) echo.HandlerFunc {
		return func(ctx echo.Context) error { return render(ctx, name, nil) }
	}

	return map[string]echo.HandlerFunc{
		"login":          static("login"),
		"register":       static("register"),
		"forgotPassword": static("forgotPassword"),

		"dashboard": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			dash, err := dashboards.Student(ctx.Request().Context(), usr)
			if err != nil {
				return errors.Wrap(err, "building student dashboard")
			}
			return render(ctx, "dashboard", dash)
		},

		"courses": func(ctx echo.Context) error {
			var filter course.CatalogFilter
			if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &filter); err != nil {
				return errors.Wrap(err, "binding to CatalogFilter")
			}
			list, err := courses.Catalog(ctx.Request().Context(), filter)
			if err != nil {
				return errors.Wrap(err, "querying catalog")
			}
			return render(ctx, "courses", catalogData{
				Courses:    list,
				Filter:     filter,
				Categories: course.Categories,
				Levels:     course.Levels,
			})
		},

		"course": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			det, err := courses.Detail(ctx.Request().Context(), ctx.Param("courseId"), usr)
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return ctx.Redirect(http.StatusFound, route.PathCourses)
				}
				return errors.Wrap(err, "getting course detail")
			}
			return render(ctx, "course", det)
		},

		"lesson": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			courseID := ctx.Param("courseId")
			view, err := courses.Lesson(ctx.Request().Context(), courseID, ctx.Param("lessonId"), usr)
			switch errors.Cause(err) {
			case nil:
				return render(ctx, "lesson", view)
			case course.ErrNotFound:
				return ctx.Redirect(http.StatusFound, route.PathCourses)
			case course.ErrLessonNotFound:
				return ctx.Redirect(http.StatusFound, route.Build(route.PathCourse, route.Params{"courseId": courseID}))
			default:
				return errors.Wrap(err, "getting lesson")
			}
		},

		"profile": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			prof, err := dashboards.Profile(ctx.Request().Context(), usr)
			if err != nil {
				return errors.Wrap(err, "building profile")
			}
			return render(ctx, "profile", prof)
		},

		"editProfile": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			return render(ctx, "editProfile", usr)
		},

		"instructorDashboard": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			dash, err := dashboards.Instructor(ctx.Request().Context(), usr)
			if err != nil {
				return errors.Wrap(err, "building instructor dashboard")
			}
			return render(ctx, "instructorDashboard", dash)
		},

		"instructorCourses": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			var filter course.ManageFilter
			if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &filter); err != nil {
				return errors.Wrap(err, "binding to ManageFilter")
			}
			if filter.Status == "" {
				filter.Status = "all"
			}
			list, err := courses.InstructorCourses(ctx.Request().Context(), usr.ID, filter)
			if err != nil {
				return errors.Wrap(err, "querying instructor courses")
			}
			return render(ctx, "instructorCourses", manageData{Courses: list, Filter: filter})
		},

		"createCourse": func(ctx echo.Context) error {
			return render(ctx, "createCourse", courseFormData{
				Steps:      course.Steps,
				Categories: course.Categories,
				Levels:     course.Levels,
				Statuses:   course.AllStatuses,
			})
		},

		"editCourse": func(ctx echo.Context) error {
			usr, _ := contextUser(ctx)
			crs, err := courses.Owned(ctx.Request().Context(), usr.ID, ctx.Param("courseId"))
			switch errors.Cause(err) {
			case nil:
				return render(ctx, "editCourse", courseFormData{
					Course:     &crs,
					Categories: course.Categories,
					Levels:     course.Levels,
					Statuses:   course.AllStatuses,
				})
			case course.ErrNotFound, course.ErrForbidden:
				return ctx.Redirect(http.StatusFound, route.PathInstructorCourses)
			default:
				return errors.Wrap(err, "getting course")
			}
		},
	}
}
