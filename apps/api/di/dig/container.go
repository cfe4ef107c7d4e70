package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

// ServerParam gathers the dependencies of the echo server.
type ServerParam struct {
	dig.In

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

func newStdLogger() *log.Logger {
	return log.New(os.Stdout, "API : ", log.LstdFlags)
}

func newLogger(std *log.Logger, conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(std, conf)
}

func newDB(logger core.Logger) *inmemdb.DB {
	db, err := inmemdb.Open()
	if err != nil {
		logger.Fatal("seeding database", err)
	}
	return db
}

func newEmailService(conf *core.Config, std *log.Logger, logger core.Logger) core.EmailService {
	return emailsvc.NewService(conf, std, logger)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := core.NewValidate(translator)
	user.RegisterValidators(validate, translator)
	course.RegisterValidators(validate, translator)
	return validate
}

func newWizards(conf *core.Config, svc *course.Service) *course.Wizards {
	return course.NewWizards(svc, conf.Wizard.SubmitDelay, conf.Wizard.DraftDelay)
}

func newServer(p ServerParam) *echoapi.Server {
	return echoapi.NewServer(echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		MailSvc:    p.MailSvc,
		Users:      p.Users,
		Courses:    p.Courses,
		Wizards:    p.Wizards,
		Dashboards: p.Dashboards,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newStdLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDB))
	must(c.Provide(inmemdb.NewUserRepository))
	must(c.Provide(inmemdb.NewCourseRepository))
	must(c.Provide(inmemdb.NewStatsRepository))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(func(repo course.Repository, src dashboard.Source, validate *validator.Validate) *course.Service {
		return course.NewService(repo, src, validate)
	}))
	must(c.Provide(newWizards))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
