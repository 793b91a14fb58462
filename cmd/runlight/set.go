// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	setCmd.SetHelpTemplate(setCmd.HelpTemplate() + extendedSetHelp)
	rootCmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:     "set <channel1>=<level1>...",
	Short:   "Set the level of a digital output or outputs",
	Args:    cobra.MinimumNArgs(1),
	RunE:    set,
	Example: "  runlight set 0=high 3=0",
}

var extendedSetHelp = `
Levels:
  Levels may be [high|hi|true|1|low|lo|false|0] and are case insensitive.

The outputs retain their levels after the command exits.
`

func set(cmd *cobra.Command, args []string) error {
	cc := []uint8(nil)
	vv := []bool(nil)
	for _, arg := range args {
		c, v, err := parseChannelLevel(arg)
		if err != nil {
			return err
		}
		cc = append(cc, c)
		vv = append(vv, v)
	}
	b, _, err := openBoard(cmd)
	if err != nil {
		return err
	}
	defer b.Release()
	for i, v := range vv {
		if err := b.Driver().SetDigitalOutput(cc[i], v); err != nil {
			return errors.Wrapf(err, "digital output %d", cc[i])
		}
	}
	return nil
}

func parseChannelLevel(arg string) (uint8, bool, error) {
	aa := strings.Split(arg, "=")
	if len(aa) != 2 {
		return 0, false, errors.Errorf("invalid channel<->level mapping: %s", arg)
	}
	c, err := parseChannel(aa[0])
	if err != nil {
		return 0, false, err
	}
	v, err := parseLevel(aa[1])
	if err != nil {
		return 0, false, err
	}
	return c, v, nil
}

func parseLevel(arg string) (bool, error) {
	if l, ok := levelNames[strings.ToLower(arg)]; ok {
		return l, nil
	}
	return false, errors.Errorf("can't parse level '%s'", arg)
}

var levelNames = map[string]bool{
	"high":  true,
	"hi":    true,
	"true":  true,
	"1":     true,
	"low":   false,
	"lo":    false,
	"false": false,
	"0":     false,
}
