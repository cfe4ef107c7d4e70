package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/route"
)

var errBadLessonIndex = core.NewValidationError(nil, core.FieldError{Field: "index", Error: "must be a lesson index"})

type wizardApi struct {
	wizards *course.Wizards
}

func registerWizardAPI(app *echo.Echo, deps Deps) {
	api := wizardApi{wizards: deps.Wizards}

	instructor := areaMiddleware(route.AreaInstructor)
	app.POST(route.PathCreateCourse, api.start, instructor)

	g := app.Group(route.PathCreateCourse + "/:wizardId")
	g.GET("", api.retrieve, instructor)
	g.PATCH("", api.update, instructor)
	g.POST("/next", api.next, instructor)
	g.POST("/prev", api.prev, instructor)
	g.POST("/lessons", api.addLesson, instructor)
	g.PATCH("/lessons/:index", api.updateLesson, instructor)
	g.DELETE("/lessons/:index", api.removeLesson, instructor)
	g.POST("/submit", api.submit, instructor)
	g.POST("/draft", api.saveDraft, instructor)
}

func lessonIndex(ctx echo.Context) (int, error) {
	idx, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return 0, errBadLessonIndex
	}
	return idx, nil
}

// step runs op on the wizard of the context user and sends its new state.
func (api *wizardApi) step(ctx echo.Context, doing string, op func(id, ownerID string) (course.Wizard, error)) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	w, err := op(ctx.Param("wizardId"), usr.ID)
	if err != nil {
		return courseError(err, doing)
	}
	return ctx.JSON(http.StatusOK, w)
}

// Handlers

func (api *wizardApi) start(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.wizards.Start(usr))
}

func (api *wizardApi) retrieve(ctx echo.Context) error {
	return api.step(ctx, "getting wizard", api.wizards.Get)
}

func (api *wizardApi) next(ctx echo.Context) error {
	return api.step(ctx, "moving to next step", api.wizards.Next)
}

func (api *wizardApi) prev(ctx echo.Context) error {
	return api.step(ctx, "moving to previous step", api.wizards.Prev)
}

func (api *wizardApi) addLesson(ctx echo.Context) error {
	return api.step(ctx, "adding lesson", api.wizards.AddLesson)
}

func (api *wizardApi) update(ctx echo.Context) error {
	var data course.Update
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to course.Update")
	}
	return api.step(ctx, "updating wizard", func(id, ownerID string) (course.Wizard, error) {
		return api.wizards.Update(id, ownerID, data)
	})
}

func (api *wizardApi) updateLesson(ctx echo.Context) error {
	idx, err := lessonIndex(ctx)
	if err != nil {
		return err
	}
	var data course.LessonUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to course.LessonUpdate")
	}
	return api.step(ctx, "updating lesson", func(id, ownerID string) (course.Wizard, error) {
		return api.wizards.UpdateLesson(id, ownerID, idx, data)
	})
}

func (api *wizardApi) removeLesson(ctx echo.Context) error {
	idx, err := lessonIndex(ctx)
	if err != nil {
		return err
	}
	return api.step(ctx, "removing lesson", func(id, ownerID string) (course.Wizard, error) {
		return api.wizards.RemoveLesson(id, ownerID, idx)
	})
}

func (api *wizardApi) submit(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.wizards.Submit(ctx.Request().Context(), ctx.Param("wizardId"), usr)
	if err != nil {
		return courseError(err, "submitting course")
	}
	return ctx.JSON(http.StatusCreated, CourseResponse{Course: &crs, Redirect: route.PathInstructorCourses})
}

func (api *wizardApi) saveDraft(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}
	crs, err := api.wizards.SaveDraft(ctx.Request().Context(), ctx.Param("wizardId"), usr)
	if err != nil {
		return courseError(err, "saving draft")
	}
	return ctx.JSON(http.StatusCreated, CourseResponse{Course: &crs, Redirect: route.PathInstructorCourses})
}
