package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikeric11/grellic/core/schedule"
	inmemdb "github.com/strikeric11/grellic/storage/database/inmem"
)

type inmemCreator struct {
	repo *inmemdb.ScheduleRepository
}

func (c inmemCreator) Create(_ context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	return c.repo.Create(s)
}

func setup() (*commandLine, *inmemdb.ScheduleRepository, *bytes.Buffer) {
	var out bytes.Buffer
	repo := inmemdb.NewScheduleRepository(inmemdb.Open())
	return &commandLine{schedRepo: inmemCreator{repo}, out: &out}, repo, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		assert.ErrorContains(t, err, tt.wantErrStr)
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup()

	orig := migrateFunc
	defer func() { migrateFunc = orig }()
	migrateFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(context.Background(), args))
		})
	}
}

func Test_commandLine_addSchedule(t *testing.T) {
	tests := []cliTest{
		{name: "no args", args: []string{"addschedule"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"addschedule", "-room", "12"}, wantErr: errHelp},
		{name: "unknown kind", args: []string{"addschedule", "-kind", "party", "-title", "Fun", "-start", "2024-01-11T08:00:00Z"}, wantErr: errHelp},
		{name: "invalid start", args: []string{"addschedule", "-title", "Biology", "-start", "tomorrow"}, wantErrStr: `invalid -start: parsing time "tomorrow"`},
		{name: "end before start", args: []string{"addschedule", "-title", "Biology", "-start", "2024-01-11T08:00:00Z", "-end", "2024-01-11T07:00:00Z"}, wantErrStr: "-end must be after -start"},
		{name: "lesson", args: []string{"addschedule", "-title", "Biology", "-start", "2024-01-11T08:00:00Z"}},
		{name: "exam", args: []string{"addschedule", "-kind", "exam", "-title", "Algebra", "-start", "2024-01-11T17:00:00+08:00", "-end", "2024-01-11T18:30:00+08:00"}},
	}
	cli, repo, _ := setup()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(context.Background(), args))
		})
	}

	from := time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)
	scheds, err := repo.ListUpcoming(context.Background(), from, from.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, scheds, 2)
	assert.Equal(t, "Biology", scheds[0].Title)
	assert.False(t, scheds[0].EndAt.Valid)
	assert.Equal(t, "Algebra", scheds[1].Title)
	assert.Equal(t, schedule.KindExam, scheds[1].Kind)
	assert.Equal(t, 90*time.Minute, scheds[1].EndAt.Time.Sub(scheds[1].StartAt))
}
