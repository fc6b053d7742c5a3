package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	dashapi "github.com/doe69john/SmartAttendanceSMU-sub001/apps/dashboard/echo"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/live"
	"github.com/doe69john/SmartAttendanceSMU-sub001/services/backend"
	logsvc "github.com/doe69john/SmartAttendanceSMU-sub001/services/logger"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	if err := conf.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DASH : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up services
	cli := backend.NewClient(conf, logger)
	cli.SetToken(conf.Backend.Token)
	cli.OnUnauthorized(func() {
		logger.Warn("backend session expired, set a fresh token and restart")
	})

	monitors := live.NewRegistry(conf, logger, cli)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err))
		}
	}()

	// =========================================================================
	// Start Dashboard Service

	server := dashapi.NewServer(
		dashapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Monitors:   monitors,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err))

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Stop(ctx); err != nil {
			logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err))
		}
	}
}
