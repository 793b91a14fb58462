// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// runlight runs a running light on the digital outputs of an I/O board.
//
// The light moves left, stops or moves right on rising edges of digital
// inputs 0, 1 and 2, and the rate is set by analog input 0.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/runlight"
	"github.com/warthog618/runlight/sim"
	"golang.org/x/sys/unix"
)

const version = "2.00"

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("driver", "d", "sim", "the board driver [sim|rpi|modbus]")
	pf.StringP("config-file", "c", "", "read configuration from the JSON file")
	pf.BoolP("verbose", "v", false, "log driver interactions")
}

var rootCmd = &cobra.Command{
	Use:   "runlight",
	Short: "runlight runs a running light on the digital outputs of an I/O board",
	Long: `runlight runs a running light on the digital outputs of an I/O board.

Rising edges on digital inputs 0, 1 and 2 move the light left, stop it, and
move it right.  Analog input 0 sets the rate.  The light runs until the run
switch is set to stop or the process is signalled.

With the sim driver, entering a digital input channel number on standard
input pulses that input.`,
	Args:          cobra.NoArgs,
	RunE:          run,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "runlight: %s\n", err)
		os.Exit(1)
	}
}

func printBanner(w io.Writer) {
	rule := strings.Repeat("*", 68)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  Running light demo application for the runlight board drivers")
	fmt.Fprintf(w, "  Version: %s\n", version)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func run(cmd *cobra.Command, args []string) error {
	drv, log, err := setup(cmd)
	if err != nil {
		return err
	}
	printBanner(os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	s := runlight.NewState()
	b, err := runlight.Start(drv, s, runlight.WithLogger(log))
	if err != nil {
		return err
	}
	defer b.Close()
	printInfo(os.Stdout, b.Version(), b.HardwareInfo())
	if sb, ok := drv.(*sim.Board); ok {
		go pulseInputs(ctx, sb, os.Stdin, log)
	}
	return runlight.NewLoop(b, s).Run(ctx)
}
