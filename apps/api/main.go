package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/findmytutor/findmytutor/apps/api/echo"
	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/admin"
	"github.com/findmytutor/findmytutor/core/tutor"
	logsvc "github.com/findmytutor/findmytutor/services/logger"
	"github.com/findmytutor/findmytutor/services/throttle"
	"github.com/findmytutor/findmytutor/storage/database"
	mongorepos "github.com/findmytutor/findmytutor/storage/database/mongodb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "API"), conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "DB"), conf)
	dbLogger.Enable(!conf.Debug)

	if err := conf.CheckSecrets(); err != nil {
		logger.Fatal(fmt.Sprintf("checking secrets: %v", err), err)
	}

	// anything that can Fatal runs before the DB is opened
	creds, err := admin.NewCredentials(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading admin credentials: %v", err), err)
	}

	limiter, err := throttle.New(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up login throttle: %v", err), err)
	}

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	db, err := database.Open(ctx, conf)
	if err == nil {
		if err = database.Migrate(ctx, db); err != nil {
			_ = database.Close(ctx)
		}
	}
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err = database.Close(ctx); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	tutorSvc := tutor.NewService(mongorepos.NewTutorRepository(db, dbLogger))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	admin.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			TutorSvc:    tutorSvc,
			Credentials: creds,
			Limiter:     limiter,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
