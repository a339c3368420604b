package main

import (
	"log"
	"os"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/user"
	"github.com/trezcool/shulesite/services/email"
	"github.com/trezcool/shulesite/storage/database"
	"github.com/trezcool/shulesite/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig(core.Getwd())

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	usrRepo := sqlxrepos.NewUserRepository(db)

	// start CLI
	cli := commandLine{
		db:          db,
		conf:        conf,
		usrRepo:     usrRepo,
		usrSvc:      user.NewService(conf, usrRepo, emailsvc.NewConsoleService(conf)),
		contentRepo: sqlxrepos.NewContentRepository(db),
		postRepo:    sqlxrepos.NewPostRepository(db),
		staffRepo:   sqlxrepos.NewStaffRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
