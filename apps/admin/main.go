package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/certificate"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/database"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)
	defer appLogger.Close()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	errAndDie(database.Ping(ctx, db))
	cancel()

	// set up services
	usrRepo := sqlxrepos.NewUserRepository(db)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	enrRepo := sqlxrepos.NewEnrollmentRepository(db)
	certRepo := sqlxrepos.NewCertificateRepository(db)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}
	core.ParseEmailTemplates(appLogger, false /* strict */)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:        db.DB,
		conf:      conf,
		out:       os.Stdout,
		validate:  validate,
		usrSvc:    user.NewService(usrRepo),
		usrRepo:   usrRepo,
		courseSvc: course.NewService(courseRepo),
		certSvc:   certificate.NewService(certRepo, usrRepo, courseRepo, enrRepo, mailSvc, appLogger, conf),
	}
	err = cli.run(os.Args)
	if dbErr := db.Close(); dbErr != nil {
		logger.Printf("closing db: %v", dbErr)
	}
	if err != nil {
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
