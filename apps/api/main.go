package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trezcool/shulesite/apps/api/echo"
	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/core/staff"
	"github.com/trezcool/shulesite/core/user"
	"github.com/trezcool/shulesite/services/email"
	"github.com/trezcool/shulesite/services/logger"
	"github.com/trezcool/shulesite/storage/cache"
	"github.com/trezcool/shulesite/storage/database"
	"github.com/trezcool/shulesite/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)
	conf := core.NewConfig(core.Getwd())

	var logger core.Logger
	if conf.Debug || conf.TestMode {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()

	// set up cache
	appCache := core.NewNopCache()
	if !conf.Redis.Disabled {
		appCache, err = cache.NewRedisCache(conf, logger)
		errAndDie(std, err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	txBeginner := database.NewTxBeginner(db)
	usrSvc := user.NewService(conf, sqlxrepos.NewUserRepository(db), mailSvc)
	contentSvc := content.NewService(txBeginner, sqlxrepos.NewContentRepository(db), appCache)
	postSvc := post.NewService(sqlxrepos.NewPostRepository(db))
	staffSvc := staff.NewService(txBeginner, sqlxrepos.NewStaffRepository(db))
	settingsSvc := settings.NewService(sqlxrepos.NewSettingsRepository(db), appCache)

	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:        conf,
			Logger:      logger,
			UserSvc:     usrSvc,
			ContentSvc:  contentSvc,
			PostSvc:     postSvc,
			StaffSvc:    staffSvc,
			SettingsSvc: settingsSvc,
			MailSvc:     mailSvc,
			Cache:       appCache,
		},
	)

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- app.Start() }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		errAndDie(std, err)
	case sig := <-mergeSignals(shutdown, app.ShutdownSignal()):
		std.Printf("shutting down: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err = app.Stop(ctx); err != nil {
			std.Printf("graceful shutdown failed: %v", err)
		}
	}
}

func mergeSignals(chans ...<-chan os.Signal) <-chan os.Signal {
	out := make(chan os.Signal, 1)
	for _, ch := range chans {
		ch := ch
		go func() {
			for sig := range ch {
				out <- sig
			}
		}()
	}
	return out
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
