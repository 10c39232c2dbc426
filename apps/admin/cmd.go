package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/strikeric11/grellic/core/schedule"
	"github.com/strikeric11/grellic/storage/database"
)

var (
	migrateFunc = database.Migrate // mockable

	errHelp = errors.New("help provided")
)

type scheduleCreator interface {
	Create(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error)
}

type commandLine struct {
	db        *sqlx.DB
	schedRepo scheduleCreator
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the database")
	_, _ = fmt.Fprintln(cli.out, "  addschedule -kind lesson|exam -title TITLE -start RFC3339 [-end RFC3339] - add a lesson or exam")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(ctx, cli.db, args[2], args[3:]...)
	case "addschedule":
		return cli.addSchedule(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addSchedule(ctx context.Context, args []string) error {
	cmd := flag.NewFlagSet("addschedule", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	kind := cmd.String("kind", string(schedule.KindLesson), "lesson or exam")
	title := cmd.String("title", "", "The lesson/exam title.")
	start := cmd.String("start", "", "Start time (RFC 3339).")
	end := cmd.String("end", "", "Optional end time (RFC 3339). Without one the lesson/exam stays open once started.")
	if err := cmd.Parse(args); err != nil {
		return errHelp
	}

	s := schedule.Schedule{Kind: schedule.Kind(*kind), Title: *title}
	if (s.Kind != schedule.KindLesson && s.Kind != schedule.KindExam) || s.Title == "" || *start == "" {
		cmd.Usage()
		return errHelp
	}
	var err error
	if s.StartAt, err = time.Parse(time.RFC3339, *start); err != nil {
		return fmt.Errorf("invalid -start: %v", err)
	}
	if *end != "" {
		endAt, err := time.Parse(time.RFC3339, *end)
		if err != nil {
			return fmt.Errorf("invalid -end: %v", err)
		}
		if !endAt.After(s.StartAt) {
			return errors.New("-end must be after -start")
		}
		s.EndAt = null.TimeFrom(endAt)
	}

	if s, err = cli.schedRepo.Create(ctx, s); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cli.out, "added %s %q: %s\n", s.Kind, s.Title, s.ID)
	return err
}
