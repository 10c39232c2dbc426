package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/storage/database"
	sqlxrepos "github.com/strikeric11/grellic/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	if conf.Database.Engine == database.EngineMemory {
		logger.Fatal("the admin CLI needs a SQL database (database.engine is \"memory\")")
	}

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	db, err := database.Open(ctx, conf.Database)
	cancel()
	errAndDie(err)

	// start CLI
	cli := commandLine{
		db:        db,
		schedRepo: sqlxrepos.NewScheduleRepository(db),
		out:       os.Stdout,
	}
	err = cli.run(context.Background(), os.Args)
	_ = db.Close()
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
