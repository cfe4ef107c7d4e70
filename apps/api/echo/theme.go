package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/theme"
)

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type ThemeResponse struct {
	Theme theme.Theme `json:"theme"`
}

func registerThemeAPI(app *echo.Echo) {
	g := app.Group("/theme")
	g.GET("", getTheme)
	g.PUT("", setTheme)
	g.POST("/toggle", toggleTheme)
}

func getTheme(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ThemeResponse{Theme: getClient(ctx).theme.Theme()})
}

func toggleTheme(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ThemeResponse{Theme: getClient(ctx).theme.Toggle()})
}

func setTheme(ctx echo.Context) error {
	var data ThemeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ThemeRequest")
	}
	t, err := theme.Parse(data.Theme)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "theme", Error: "must be light or dark"})
	}

	mgr := getClient(ctx).theme
	if err := mgr.Set(t); err != nil {
		return errors.Wrap(err, "setting theme")
	}
	return ctx.JSON(http.StatusOK, ThemeResponse{Theme: mgr.Theme()})
}
