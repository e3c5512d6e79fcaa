package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/admin"
	"github.com/findmytutor/findmytutor/core/tutor"
	emailsvc "github.com/findmytutor/findmytutor/services/email"
	logsvc "github.com/findmytutor/findmytutor/services/logger"
	"github.com/findmytutor/findmytutor/storage/database"
	mongorepos "github.com/findmytutor/findmytutor/storage/database/mongodb"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "ADMIN"), conf)
	logger.Enable(!conf.Debug)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	admin.InitValidators(validate, translator)

	cli := commandLine{
		conf:       conf,
		mailSvc:    emailsvc.New(conf, logger),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}

	// set up DB
	if needsDB(os.Args) {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
		db, err := database.Open(ctx, conf)
		cancel()
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		cli.db = db
		cli.tutorSvc = tutor.NewService(mongorepos.NewTutorRepository(db, logger))
	}

	err := cli.run(os.Args)

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	_ = database.Close(ctx)

	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
