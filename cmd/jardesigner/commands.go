// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	launchClientID   string
	launchConfigPath string
	launchWait       bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the simulation server is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		if err := newAPIClient(serverURL).health(ctx); err != nil {
			return err
		}
		fmt.Println("server is healthy")
		return nil
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch a simulation from a config file",
	Long: `Reads a simulation config JSON file and launches it on the server.

With --wait the command polls until the simulation finishes and reports
the final state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configData, err := os.ReadFile(launchConfigPath)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if !json.Valid(configData) {
			return fmt.Errorf("config file %s is not valid JSON", launchConfigPath)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client := newAPIClient(serverURL)
		res, err := client.launch(ctx, launchClientID, configData)
		if err != nil {
			return err
		}
		fmt.Printf("launched: pid=%d channel=%s artifact=%s\n",
			res.PID, res.DataChannelID, res.SVGFilename)

		if !launchWait {
			return nil
		}
		return waitForCompletion(cmd.Context(), client, res.PID)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <pid>",
	Short: "Report the status of a launched simulation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("pid must be an integer: %q", args[0])
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		status, err := newAPIClient(serverURL).status(ctx, pid)
		if err != nil {
			return err
		}
		fmt.Println(status)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <pid>",
	Short: "Terminate a running simulation by pid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("pid must be an integer: %q", args[0])
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		msg, err := newAPIClient(serverURL).reset(ctx, pid)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	launchCmd.Flags().StringVarP(&launchClientID, "client", "c", "",
		"Client id owning the simulation")
	launchCmd.Flags().StringVarP(&launchConfigPath, "config", "f", "",
		"Path to the simulation config JSON")
	launchCmd.Flags().BoolVar(&launchWait, "wait", false,
		"Poll until the simulation finishes")
	_ = launchCmd.MarkFlagRequired("client")
	_ = launchCmd.MarkFlagRequired("config")
}

// waitForCompletion polls the status endpoint until the process leaves
// the running state.
func waitForCompletion(ctx context.Context, client *apiClient, pid int) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status, err := client.status(ctx, pid)
			if err != nil {
				return err
			}
			if status != "running" {
				fmt.Printf("finished: %s\n", status)
				return nil
			}
		}
	}
}
