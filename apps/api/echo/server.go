package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/route"
	"github.com/trezcool/darasa/core/user"
)

// Deps are the services the Server is built upon.
type Deps struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	MailSvc    core.EmailService
	Users      user.Repository
	Courses    *course.Service
	Wizards    *course.Wizards
	Dashboards *dashboard.Service
}

type Server struct {
	deps     Deps
	app      *echo.Echo
	shutdown chan os.Signal
	errors   chan error
}

func NewServer(deps Deps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.clientMiddleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET(route.PathRoot, redirectTo(route.PathDashboard))
	s.app.RouteNotFound("/*", notFound)

	pages := s.registerPages()
	for _, r := range route.Table {
		s.app.GET(r.Pattern, pages[r.Name], pageMiddleware(r))
	}

	registerSessionAPI(s.app, s.deps)
	registerThemeAPI(s.app)
	registerStudentAPI(s.app, s.deps)
	registerInstructorAPI(s.app, s.deps)
	registerWizardAPI(s.app, s.deps)
}

// Start listens until the server is shut down. Listening errors are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func redirectTo(path string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusFound, path)
	}
}

// notFound sends unknown pages to the dashboard. Unknown actions are 404s.
func notFound(ctx echo.Context) error {
	if ctx.Request().Method == http.MethodGet {
		return ctx.Redirect(http.StatusFound, route.PathDashboard)
	}
	return errHttpNotFound
}
