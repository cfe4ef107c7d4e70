package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/route"
)

// CourseResponse is a course plus where the client goes next.
type CourseResponse struct {
	Course   *course.Course `json:"course,omitempty"`
	Redirect string         `json:"redirect,omitempty"`
}

type instructorApi struct {
	svc *course.Service
}

func registerInstructorAPI(app *echo.Echo, deps Deps) {
	api := instructorApi{svc: deps.Courses}

	instructor := areaMiddleware(route.AreaInstructor)
	g := app.Group(route.PathInstructorCourses + "/:courseId")
	g.DELETE("", api.destroy, instructor)
	g.POST("/duplicate", api.duplicate, instructor)
	g.PUT("/edit", api.update, instructor)
}

// Handlers

func (api *instructorApi) destroy(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), usr.ID, ctx.Param("courseId")); err != nil {
		return courseError(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *instructorApi) duplicate(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	dup, err := api.svc.Duplicate(ctx.Request().Context(), usr.ID, ctx.Param("courseId"))
	if err != nil {
		return courseError(err, "duplicating course")
	}
	return ctx.JSON(http.StatusCreated, CourseResponse{Course: &dup})
}

func (api *instructorApi) update(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	var data course.Update
	if err := ctx.Bind(&data); err != nil {
		return courseError(err, "binding to course.Update")
	}
	crs, err := api.svc.Update(ctx.Request().Context(), usr.ID, ctx.Param("courseId"), data)
	if err != nil {
		return courseError(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, CourseResponse{Course: &crs, Redirect: route.PathInstructorCourses})
}
