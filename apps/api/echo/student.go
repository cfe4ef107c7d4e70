package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/route"
	"github.com/trezcool/darasa/core/user"
)

type EnrollResponse struct {
	Enrolled bool   `json:"enrolled"`
	Redirect string `json:"redirect"`
}

type CompletionResponse struct {
	course.Completion
	Redirect string `json:"redirect"`
}

type studentApi struct {
	svc *course.Service
}

func registerStudentAPI(app *echo.Echo, deps Deps) {
	api := studentApi{svc: deps.Courses}

	student := areaMiddleware(route.AreaStudent)
	g := app.Group(route.PathCourse)
	g.POST("/enroll", api.enroll, student)
	g.POST("/lessons/:lessonId/complete", api.completeLesson, student)
}

// saveProgress applies a progress update to the stored user and the session.
func saveProgress(ctx echo.Context, up user.UpdateProfile) error {
	res, err := getClient(ctx).session.UpdateProfile(ctx.Request().Context(), up)
	if err != nil {
		return errors.Wrap(err, "saving progress")
	}
	if !res.Success {
		return core.NewValidationError(errors.New(res.Error))
	}
	return nil
}

// Handlers

func (api *studentApi) enroll(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	courseID := ctx.Param("courseId")
	up, changed, err := api.svc.Enroll(ctx.Request().Context(), courseID, usr)
	if err != nil {
		return courseError(err, "enrolling")
	}
	if changed {
		if err := saveProgress(ctx, up); err != nil {
			return err
		}
	}

	return ctx.JSON(http.StatusOK, EnrollResponse{
		Enrolled: true,
		Redirect: route.Build(route.PathCourse, route.Params{"courseId": courseID}),
	})
}

func (api *studentApi) completeLesson(ctx echo.Context) error {
	usr, err := contextUser(ctx)
	if err != nil {
		return err
	}

	courseID := ctx.Param("courseId")
	comp, err := api.svc.CompleteLesson(ctx.Request().Context(), courseID, ctx.Param("lessonId"), usr)
	if err != nil {
		return courseError(err, "completing lesson")
	}
	if comp.Changed {
		if err := saveProgress(ctx, comp.Update); err != nil {
			return err
		}
	}

	resp := CompletionResponse{Completion: comp, Redirect: comp.Next}
	if comp.Finished {
		resp.Redirect = route.Build(route.PathCourse, route.Params{"courseId": courseID})
	}
	return ctx.JSON(http.StatusOK, resp)
}
