package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/strikeric11/grellic/apps"
	"github.com/strikeric11/grellic/core"
	"github.com/strikeric11/grellic/core/clock"
)

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	logger core.Logger
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "countdown",
		Short:         "Server-synchronized countdowns",
		Version:       cli.conf.Build,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(cli.out)
	root.AddCommand(cli.watchCmd(), cli.secondsCmd(), cli.clockCmd(), cli.showCmd())
	return root
}

func (cli *commandLine) secondsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "seconds HH:MM:SS|MM:SS",
		Short:   "Convert a clock duration to seconds",
		Example: "  countdown seconds 01:30:00",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := clock.DurationToSeconds(args[0])
			if err != nil {
				return apps.NewArgumentError(err.Error())
			}
			_, err = fmt.Fprintln(cli.out, secs)
			return err
		},
	}
}

func (cli *commandLine) clockCmd() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "clock SECONDS",
		Short: "Convert seconds to a HH:MM:SS clock duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := strconv.Atoi(args[0])
			if err != nil || secs < 0 {
				return apps.NewArgumentError(fmt.Sprintf("SECONDS must be a whole number (got %q)", args[0]))
			}
			_, err = fmt.Fprintln(cli.out, clock.SecondsToDuration(secs, compact))
			return err
		},
	}
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "omit a zero hour (MM:SS)")
	return cmd
}

func (cli *commandLine) showCmd() *cobra.Command {
	var offset time.Duration
	cmd := &cobra.Command{
		Use:   "show TIMESTAMP",
		Short: "Show an RFC 3339 timestamp as clock time, date & weekday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse(time.RFC3339Nano, args[0])
			if err != nil {
				return apps.NewArgumentError(fmt.Sprintf("TIMESTAMP must be RFC 3339, eg. 2024-01-11T16:30:00+08:00 (got %q)", args[0]))
			}
			d := clock.NewDisplay(offset)
			_, err = fmt.Fprintf(cli.out, "%s\n%s\n%s\n", d.ClockTime(t), d.Date(t), d.Weekday(t))
			return err
		},
	}
	cmd.Flags().DurationVar(&offset, "offset", cli.conf.Clock.DisplayOffset, "display zone offset from UTC")
	return cmd
}
