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
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	getCmd.Flags().BoolVarP(&getOpts.All, "all", "a", false, "get the levels of all digital inputs")
	getCmd.Flags().BoolVarP(&getOpts.Short, "short", "s", false, "single line output format")
	rootCmd.AddCommand(getCmd)
}

var (
	getCmd = &cobra.Command{
		Use:     "get <channel1>...",
		Short:   "Read the level of a digital input or inputs",
		Example: "  runlight get 0 2",
		PreRunE: preget,
		RunE:    get,
	}
	getOpts = struct {
		Short bool
		All   bool
	}{}
)

func preget(cmd *cobra.Command, args []string) error {
	if !getOpts.All {
		return cobra.MinimumNArgs(1)(cmd, args)
	}
	return nil
}

func get(cmd *cobra.Command, args []string) error {
	var cc []uint8
	if !getOpts.All {
		var err error
		if cc, err = parseChannels(args); err != nil {
			return err
		}
	}
	b, _, err := openBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Release()
	if getOpts.All {
		cc = allChannels(int(b.HardwareInfo().DigitalInputs))
	}
	vv := make([]bool, len(cc))
	for i, c := range cc {
		if vv[i], err = b.Driver().DigitalInput(c); err != nil {
			return errors.Wrapf(err, "digital input %d", c)
		}
	}
	if getOpts.Short {
		printValuesShort(os.Stdout, vv)
	} else {
		printValues(os.Stdout, cc, vv)
	}
	return nil
}

func printValues(w io.Writer, cc []uint8, vv []bool) {
	for i, c := range cc {
		fmt.Fprintf(w, "channel %2d: %t\n", c, vv[i])
	}
}

func printValuesShort(w io.Writer, vv []bool) {
	for i, v := range vv {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, level2Int(v))
	}
	fmt.Fprintln(w)
}

func allChannels(n int) []uint8 {
	cc := make([]uint8, n)
	for i := range cc {
		cc[i] = uint8(i)
	}
	return cc
}

func parseChannels(args []string) ([]uint8, error) {
	cc := []uint8(nil)
	for _, arg := range args {
		c, err := parseChannel(arg)
		if err != nil {
			return nil, err
		}
		cc = append(cc, c)
	}
	return cc, nil
}

func parseChannel(arg string) (uint8, error) {
	c, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return 0, errors.Errorf("can't parse channel '%s'", arg)
	}
	return uint8(c), nil
}

func level2Int(v bool) int {
	if v {
		return 1
	}
	return 0
}
