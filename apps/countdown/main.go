package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/strikeric11/grellic/apps"
	"github.com/strikeric11/grellic/core"
	logsvc "github.com/strikeric11/grellic/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewStdLogger(log.New(os.Stderr, "CLOCK : ", log.LstdFlags), conf.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commandLine{
		conf:   conf,
		out:    os.Stdout,
		logger: logger,
	}
	if err := cli.rootCmd().ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())
		stop()
		os.Exit(apps.ExitCode(err))
	}
}
