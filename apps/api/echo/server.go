package echoapi

import (
	"context"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/go-playground/locales/en"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/core/staff"
	"github.com/trezcool/shulesite/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc     *user.Service
		ContentSvc  *content.Service
		PostSvc     *post.Service
		StaffSvc    *staff.Service
		SettingsSvc *settings.Service
		MailSvc     core.EmailService
		Cache       core.Cache
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts       *Options
		app        *echo.Echo
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:       opts,
		app:        echo.New(),
		shutdownCh: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	validate := validator.New()
	enLocale := en.New()
	uniTranslator := ut.New(enLocale, enLocale)
	translator, _ := uniTranslator.GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, conf, s.opts.UserSvc, validate, translator)

	admin := v1.Group("/admin", jwt)
	registerContentAPI(admin, s.opts.ContentSvc, validate)
	registerPostAPI(admin, s.opts.PostSvc, validate)
	registerStaffAPI(admin, s.opts.StaffSvc, validate)
	registerSettingsAPI(admin, s.opts.SettingsSvc, validate)

	registerPublicAPI(v1.Group("/site"), s.opts, validate)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// ShutdownSignal exposes the channel the error handler pokes on fatal errors;
// main selects on it alongside OS signals.
func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

func (s *server) signalShutdown() {
	s.shutdownCh <- os.Interrupt
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to ShuleSite API!")
}
