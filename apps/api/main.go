package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	dig_container "github.com/strikeric11/grellic/apps/api/di/dig"
	echoapi "github.com/strikeric11/grellic/apps/api/echo"
	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
	cachesvc "github.com/strikeric11/grellic/services/cache"
)

type deps struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	DBLoggerParam dig_container.DBLoggerParam
	DB            *sqlx.DB
	Cache         *cachesvc.ViewCache
	Validate      *validator.Validate
	Translator    ut.Translator
	Registry      *prometheus.Registry
	Watcher       *clock.Watcher
	Server        *echoapi.Server
}

func main() {
	c := dig_container.New()
	must(c.Invoke(run))
}

func run(d deps) {
	conf, apiLogger := d.Conf, d.Logger

	// =========================================================================
	// Initialize App

	apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

	if err := core.InitValidators(d.Validate, d.Translator); err != nil {
		apiLogger.Fatal(fmt.Sprintf("initializing validators: %v", err), err)
	}

	defer func() {
		if d.DB == nil {
			return
		}
		if err := d.DB.Close(); err != nil {
			d.DBLoggerParam.Logger.Fatal("Failed to close", err)
		}
	}()
	defer func() { _ = d.Cache.Close() }()
	defer apiLogger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - clock & runtime metrics.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("clockSource").Set(conf.Clock.Source)
	http.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Server Clock

	if err := d.Watcher.Start(context.Background()); err != nil {
		apiLogger.Fatal(fmt.Sprintf("starting clock watcher: %v", err), err)
	}
	defer d.Watcher.Stop()

	// =========================================================================
	// Start API Service

	go d.Server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-d.Server.Errors():
		apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-d.Server.ShutdownSignal():
		apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err := d.Server.Shutdown(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = d.Server.Close(); err != nil {
				apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
