package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/route"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SessionResponse is a session.Result plus where the client goes next.
type SessionResponse struct {
	session.Result
	Redirect string `json:"redirect,omitempty"`
}

type sessionApi struct {
	validate *validator.Validate
}

func registerSessionAPI(app *echo.Echo, deps Deps) {
	api := sessionApi{validate: deps.Validate}

	app.POST(route.PathLogin, api.login)
	app.POST(route.PathRegister, api.register)
	app.POST(route.PathForgotPassword, api.resetPassword)
	app.POST("/logout", api.logout)
	app.PUT(route.PathEditProfile, api.updateProfile, areaMiddleware(route.AreaStudent))
}

// respond sends a successful Result with the home of its user, a failed one as a 400.
func respond(ctx echo.Context, res session.Result) error {
	if !res.Success {
		return ctx.JSON(http.StatusBadRequest, SessionResponse{Result: res})
	}
	resp := SessionResponse{Result: res}
	if res.User != nil {
		resp.Redirect = route.Home(res.User.Role)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Handlers

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := getClient(ctx).session.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return respond(ctx, res)
}

func (api *sessionApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := getClient(ctx).session.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return respond(ctx, res)
}

func (api *sessionApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := getClient(ctx).session.ResetPassword(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return respond(ctx, res)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if err := getClient(ctx).session.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{
		Result:   session.Result{Success: true},
		Redirect: route.PathLogin,
	})
}

func (api *sessionApi) updateProfile(ctx echo.Context) error {
	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	res, err := getClient(ctx).session.UpdateProfile(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	if !res.Success {
		return respond(ctx, res)
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Result: res, Redirect: route.PathProfile})
}
