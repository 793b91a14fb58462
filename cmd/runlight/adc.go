// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/runlight"
)

func init() {
	rootCmd.AddCommand(adcCmd)
}

var adcCmd = &cobra.Command{
	Use:     "adc [<channel1>...]",
	Short:   "Read an analog input or inputs",
	Long:    `Read analog inputs, by default all of them, and report the running light delay each reading would select.`,
	Example: "  runlight adc 0",
	RunE:    adc,
}

func adc(cmd *cobra.Command, args []string) error {
	cc, err := parseChannels(args)
	if err != nil {
		return err
	}
	b, _, err := openBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Release()
	if len(cc) == 0 {
		cc = allChannels(int(b.HardwareInfo().AnalogInputs))
	}
	for _, c := range cc {
		v, err := b.Driver().AnalogInput(c)
		if err != nil {
			return errors.Wrapf(err, "analog input %d", c)
		}
		fmt.Printf("ch%d=%d delay=%s\n", c, v, runlight.Delay(v))
	}
	return nil
}
