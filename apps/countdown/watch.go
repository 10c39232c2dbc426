package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/strikeric11/grellic/apps"
	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
	"github.com/strikeric11/grellic/services/timesrc"
)

var (
	isTerminalFunc = term.IsTerminal                             // mockable
	newLocalClock  = func() bclock.Clock { return bclock.New() } // mockable
)

const targetID = "target"

type watchOptions struct {
	source     string
	server     string
	target     string
	direction  string
	every      time.Duration
	stale      time.Duration
	offset     time.Duration
	compensate bool
	exit       bool
}

func (cli *commandLine) watchCmd() *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a live countdown synced with the server clock",
		Example: "  countdown watch --server http://localhost:8000 --target 2024-01-21T20:00:00+08:00\n" +
			"  countdown watch --source ntp --target 2024-01-11T08:00:00Z --direction since",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.watch(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.source, "source", timesrc.SourceHTTP, "time source: http, ntp or system")
	f.StringVar(&opts.server, "server", cli.conf.Clock.ServerURL, "base URL of the API (http source)")
	f.StringVar(&opts.target, "target", "", "RFC 3339 timestamp to count down to (or up from)")
	f.StringVar(&opts.direction, "direction", clock.UntilTarget.String(), "until or since")
	f.DurationVar(&opts.every, "every", cli.conf.Clock.TickInterval, "tick interval")
	f.DurationVar(&opts.stale, "stale", cli.conf.Clock.StaleAfter, "resync once the last sync is this old")
	f.DurationVar(&opts.offset, "offset", cli.conf.Clock.DisplayOffset, "display zone offset from UTC")
	f.BoolVar(&opts.compensate, "compensate", cli.conf.Clock.CompensateLatency, "add half the sync round trip to the server time")
	f.BoolVar(&opts.exit, "exit", false, "exit once the target is reached")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (cli *commandLine) watch(ctx context.Context, opts watchOptions) error {
	at, err := time.Parse(time.RFC3339Nano, opts.target)
	if err != nil {
		return apps.NewArgumentError(fmt.Sprintf("--target must be RFC 3339, eg. 2024-01-11T16:30:00+08:00 (got %q)", opts.target))
	}
	direction, err := clock.ParseDirection(opts.direction)
	if err != nil {
		return apps.NewArgumentError(err.Error())
	}

	src, err := timesrc.New(core.ClockConfig{
		Source:      core.CleanString(opts.source, true),
		ServerURL:   opts.server,
		NTPServer:   cli.conf.Clock.NTPServer,
		SyncTimeout: cli.conf.Clock.SyncTimeout,
	})
	if err != nil {
		return apps.NewArgumentError(err.Error())
	}
	c, err := clock.New(src, clock.Options{
		StaleAfter:        opts.stale,
		CompensateLatency: opts.compensate,
		Local:             newLocalClock(),
	})
	if err != nil {
		return err
	}
	c.Watch(clock.Target{ID: targetID, At: at, Direction: direction})

	r := newRenderer(cli.out, clock.NewDisplay(opts.offset))
	reached := make(chan struct{})
	w := clock.NewWatcher(c, clock.WatcherOptions{
		Interval:    opts.every,
		SyncTimeout: cli.conf.Clock.SyncTimeout,
		Logger:      cli.logger,
		OnTick: func(now time.Time) {
			r.render(now, clock.ComputeDuration(at, now, direction))
		},
		OnThresholdCrossed: func(clock.Target) {
			if opts.exit {
				close(reached)
			}
		},
	})

	r.loading()
	if err = w.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-reached:
	}
	w.Stop() // no render may follow the closing newline
	r.done()
	return nil
}

// renderer rewrites a single line on terminals, and prints one line per tick otherwise.
type renderer struct {
	out      io.Writer
	display  clock.Display
	terminal bool
	rendered bool
}

func newRenderer(out io.Writer, display clock.Display) *renderer {
	r := &renderer{out: out, display: display}
	if f, ok := out.(*os.File); ok {
		r.terminal = isTerminalFunc(int(f.Fd()))
	}
	return r
}

func (r *renderer) line(s string) {
	if r.terminal {
		_, _ = fmt.Fprint(r.out, "\r\033[K"+s)
	} else {
		_, _ = fmt.Fprintln(r.out, s)
	}
	r.rendered = true
}

func (r *renderer) loading() { r.line("Loading...") }

func (r *renderer) render(now time.Time, d time.Duration) {
	r.line(fmt.Sprintf("%s | %s %s %s",
		clock.FormatCountdown(d), r.display.Weekday(now), r.display.Date(now), r.display.ClockTime(now)))
}

func (r *renderer) done() {
	if r.terminal && r.rendered {
		_, _ = fmt.Fprintln(r.out)
	}
}
