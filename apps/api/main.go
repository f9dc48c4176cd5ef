package main

import (
	"log"
	"os"

	echoapi "github.com/darasa-app/darasa/apps/api/echo"
	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/homework"
	"github.com/darasa-app/darasa/core/user"
	emailsvc "github.com/darasa-app/darasa/services/email"
	logsvc "github.com/darasa-app/darasa/services/logger"
	remindersvc "github.com/darasa-app/darasa/services/reminder"
	"github.com/darasa-app/darasa/storage/database"
	sqlxrepos "github.com/darasa-app/darasa/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug || core.Conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(logger, err)
	defer db.Close()
	errAndDie(logger, database.Ping(db))
	errAndDie(logger, database.Migrate(db))

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	grpSvc := group.NewService(sqlxrepos.NewGroupRepository(db))
	hwSvc := homework.NewService(sqlxrepos.NewHomeworkRepository(db))

	// deadline reminders
	poller := remindersvc.NewPoller(hwSvc, grpSvc, mailSvc, logger)
	poller.Start()
	defer poller.Stop()

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:        core.Conf.Server.Addr(),
			Logger:      logger,
			UserSvc:     usrSvc,
			GroupSvc:    grpSvc,
			HomeworkSvc: hwSvc,
		},
	)
	app.Start()
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
