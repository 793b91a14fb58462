// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/runlight"
	"github.com/warthog618/runlight/sim"
	"golang.org/x/sys/unix"
)

func init() {
	monCmd.Flags().BoolVarP(&monOpts.FallingEdge, "falling-edge", "f", false, "detect only falling edge events")
	monCmd.Flags().BoolVarP(&monOpts.RisingEdge, "rising-edge", "r", false, "detect only rising edge events")
	monCmd.Flags().UintVarP(&monOpts.NumEvents, "num-events", "n", 0, "exit after n edges")
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display event details")
	monCmd.SetHelpTemplate(monCmd.HelpTemplate() + extendedMonHelp)
	rootCmd.AddCommand(monCmd)
}

var extendedMonHelp = `
By default both rising and falling edge events are detected and reported.
`

var (
	monCmd = &cobra.Command{
		Use:   "mon <channel1>...",
		Short: "Monitor the level of a digital input or inputs",
		Long:  `Wait for edge events on digital inputs and print them to standard output.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  mon,
	}
	monOpts = struct {
		RisingEdge  bool
		FallingEdge bool
		Quiet       bool
		NumEvents   uint
	}{}
)

type event struct {
	Time    time.Time
	Channel uint8
	Level   bool
}

func monEdge() (runlight.Edge, error) {
	switch {
	case monOpts.RisingEdge && monOpts.FallingEdge:
		return runlight.EdgeNone, errors.New("can't filter both falling-edge and rising-edge events")
	case monOpts.RisingEdge:
		return runlight.EdgeRising, nil
	case monOpts.FallingEdge:
		return runlight.EdgeFalling, nil
	default:
		return runlight.EdgeBoth, nil
	}
}

func mon(cmd *cobra.Command, args []string) error {
	edge, err := monEdge()
	if err != nil {
		return err
	}
	cc, err := parseChannels(args)
	if err != nil {
		return err
	}
	b, log, err := openBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Release()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	evtchan := make(chan event)
	eh := func(ch uint8, level bool) {
		select {
		case evtchan <- event{Time: time.Now(), Channel: ch, Level: level}:
		case <-ctx.Done():
		}
	}
	drv := b.Driver()
	for _, c := range cc {
		if err := drv.RegisterInterrupt(c, edge, eh); err != nil {
			return errors.Wrapf(err, "watch channel %d", c)
		}
		defer drv.UnregisterInterrupt(c)
	}
	if sb, ok := drv.(*sim.Board); ok {
		go pulseInputs(ctx, sb, os.Stdin, log)
	}
	monWait(ctx, os.Stdout, evtchan)
	// unblock any handler still sending
	stop()
	return nil
}

func monWait(ctx context.Context, w io.Writer, evtchan <-chan event) {
	count := uint(0)
	for {
		select {
		case evt := <-evtchan:
			if !monOpts.Quiet {
				fmt.Fprintf(w, "event:%3d %-7s %s\n", evt.Channel, edgeName(evt.Level), evt.Time.Format(time.RFC3339Nano))
			}
			count++
			if monOpts.NumEvents > 0 && count >= monOpts.NumEvents {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func edgeName(level bool) string {
	if level {
		return runlight.EdgeRising.String()
	}
	return runlight.EdgeFalling.String()
}
