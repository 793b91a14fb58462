// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/runlight"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report the driver version and the board I/O configuration",
	Args:  cobra.NoArgs,
	RunE:  info,
}

func info(cmd *cobra.Command, args []string) error {
	b, _, err := openBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Release()
	printInfo(os.Stdout, b.Version(), b.HardwareInfo())
	return nil
}

func printInfo(w io.Writer, v runlight.Version, hw runlight.HardwareInfo) {
	rule := strings.Repeat("*", 68)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  I/O Driver version: %s\n", v)
	fmt.Fprintf(w, "  PCB Revision:       %d\n", hw.PCBRevision)
	fmt.Fprintln(w, "  IO configuration:")
	fmt.Fprintf(w, "    Digital In:  %d\n", hw.DigitalInputs)
	fmt.Fprintf(w, "    Digital Out: %d\n", hw.DigitalOutputs)
	fmt.Fprintf(w, "    Relay:       %d\n", hw.Relays)
	fmt.Fprintf(w, "    Analog In:   %d\n", hw.AnalogInputs)
	fmt.Fprintf(w, "    Analog Out:  %d\n", hw.AnalogOutputs)
	fmt.Fprintf(w, "    Counter:     %d\n", hw.Counters)
	fmt.Fprintf(w, "    A/B Encoder: %d\n", hw.Encoders)
	fmt.Fprintf(w, "    PWM/PTO:     %d\n", hw.PWMs)
	fmt.Fprintf(w, "    TempSensor:  %d\n", hw.TempSensors)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}
