package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/route"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/theme"
	"github.com/trezcool/darasa/core/user"
)

const (
	contextClientKey = "client"

	headerPrefersColorScheme = "Sec-CH-Prefers-Color-Scheme"
	headerTheme              = "X-Theme"
)

// client is the per request view of one browser: its local storage, session and theme.
type client struct {
	storage *cookieStorage
	session *session.Session
	theme   *theme.Manager
}

// user returns the current user, nil when anonymous.
func (c *client) user() *user.User {
	if usr, ok := c.session.CurrentUser(); ok {
		return &usr
	}
	return nil
}

func getClient(ctx echo.Context) *client {
	c, _ := ctx.Get(contextClientKey).(*client)
	return c
}

// clientMiddleware restores the session and theme of the requesting client.
func (s *Server) clientMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		storage := newCookieStorage(ctx, s.deps.Conf)

		opts := []session.Option{session.WithLogger(s.deps.Logger)}
		if s.deps.MailSvc != nil {
			opts = append(opts, session.WithMailer(s.deps.MailSvc))
		}
		sess := session.New(s.deps.Users, storage, opts...)
		if err := sess.Init(ctx.Request().Context()); err != nil {
			return errors.Wrap(err, "restoring session")
		}

		ctx.Response().Header().Add(echo.HeaderVary, headerPrefersColorScheme)
		ctx.Response().Header().Set("Accept-CH", headerPrefersColorScheme)
		applier := theme.ApplierFunc(func(t theme.Theme) {
			ctx.Response().Header().Set(headerTheme, string(t))
		})
		thm := theme.New(storage, headerPreference(ctx.Request()), applier, s.deps.Logger)

		ctx.Set(contextClientKey, &client{storage: storage, session: sess, theme: thm})
		return next(ctx)
	}
}

// headerPreference reads the color scheme client hint.
func headerPreference(req *http.Request) theme.PlatformPreference {
	return func() (theme.Theme, bool) {
		hint := strings.Trim(req.Header.Get(headerPrefersColorScheme), `" `)
		if t, err := theme.Parse(hint); err == nil {
			return t, true
		}
		return "", false
	}
}

// pageMiddleware redirects away from pages the client may not see.
func pageMiddleware(r route.Route) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if to := route.Guard(r.Area, getClient(ctx).user()); to != "" {
				return ctx.Redirect(http.StatusFound, to)
			}
			return next(ctx)
		}
	}
}

// areaMiddleware rejects actions of anonymous clients and of users of another role.
func areaMiddleware(area route.Area) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr := getClient(ctx).user()
			if usr == nil {
				return errUnauthorized
			}
			if route.Guard(area, usr) != "" {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// contextUser returns the user let through by areaMiddleware.
func contextUser(ctx echo.Context) (user.User, error) {
	if usr := getClient(ctx).user(); usr != nil {
		return *usr, nil
	}
	return user.User{}, errUnauthorized
}
