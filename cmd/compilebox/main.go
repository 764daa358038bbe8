// Package main is the compilebox command line tool.
//
// It runs a single source file through the same sandbox the server uses,
// which is handy for checking a toolchain setup without starting a transport.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "compilebox",
	Short: "Compile and run C-family and Java snippets in a disposable workspace",
	Long: `compilebox compiles untrusted C-family or Java source with the host toolchain,
runs the result under a wall-clock budget and prints the combined output.

Configuration is read from ./config.yaml, ./config/config.yaml or --config,
and can be overridden with COMPILEBOX_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a config file (YAML)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
