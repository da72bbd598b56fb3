// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// jardesigner is the operator CLI for the simulation server. It talks to
// the HTTP API; it never touches simulator processes directly.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mooseneuro/jardesigner/pkg/logging"
)

var (
	serverURL string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "jardesigner",
	Short: "Operate a jardesigner simulation server",
	Long: `Command-line operations against a running jardesigner simulation server.

Examples:
  jardesigner health
  jardesigner launch --client alice --config model.json
  jardesigner status 41234
  jardesigner reset 41234`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger := logging.New(logging.Config{
			Level:   logging.ParseLevel(logLevel),
			Service: "jardesigner-cli",
		})
		slog.SetDefault(logger.Slog())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s",
		"http://localhost:5000", "Simulation server base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
