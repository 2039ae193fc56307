// Package cmd wires the shdlc CLI together with cobra (§6.2), grounded on
// the teacher's pkg/cmd package: a package-scope rootCmd that subcommand
// files register themselves onto from their own init(), plus a small set
// of GetX flag-accessor helpers that exit cleanly rather than letting a
// cobra flag-parsing error (a programmer error, not a user one — every
// flag this CLI reads is registered by its own init()) surface as a Go
// error value at every call site.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GetFlag reads an expected bool flag.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString reads an expected string flag.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint reads an expected unsigned integer flag.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray reads an expected repeatable string flag (e.g. -I).
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}
