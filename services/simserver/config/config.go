// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads simulation server configuration.
//
// Configuration comes from three layers, lowest precedence first:
// built-in defaults, an optional YAML file (JARDESIGNER_CONFIG), and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the simulation server configuration.
type Config struct {
	// Port the HTTP/WebSocket server listens on.
	Port string `yaml:"port"`

	// BaseDir is the server working directory; temp configs and uploads
	// live underneath it unless overridden.
	BaseDir string `yaml:"base_dir"`

	// TempConfigDir receives the per-launch simulation config files.
	TempConfigDir string `yaml:"temp_config_dir"`

	// UploadsDir is the root of per-client session directories.
	UploadsDir string `yaml:"uploads_dir"`

	Simulator SimulatorConfig `yaml:"simulator"`
}

// SimulatorConfig describes how the external simulator is invoked.
type SimulatorConfig struct {
	// Command is the argv prefix for the simulator. The supervisor
	// appends the config path, --plotFile, --data-channel-id, and
	// --session-path arguments.
	Command []string `yaml:"command"`

	// ArtifactName is the output file the simulator is expected to write
	// into the session directory. Its presence is the completion signal.
	ArtifactName string `yaml:"artifact_name"`

	// TerminateTimeout bounds the graceful-termination wait before the
	// supervisor escalates to a forced kill.
	TerminateTimeout time.Duration `yaml:"terminate_timeout"`

	// ExtraEnv entries (KEY=VALUE) appended to the child environment.
	ExtraEnv []string `yaml:"extra_env"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:          "5000",
		BaseDir:       ".",
		TempConfigDir: "temp_configs",
		UploadsDir:    "user_uploads",
		Simulator: SimulatorConfig{
			Command:          []string{"python3", "-u", "-m", "jardesigner.jardesigner"},
			ArtifactName:     "plot.svg",
			TerminateTimeout: 5 * time.Second,
		},
	}
}

// Load builds the effective configuration. The YAML file named by
// JARDESIGNER_CONFIG is optional; a missing variable means defaults plus
// environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("JARDESIGNER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if len(cfg.Simulator.Command) == 0 {
		return cfg, fmt.Errorf("simulator command must not be empty")
	}
	if cfg.Simulator.ArtifactName == "" {
		cfg.Simulator.ArtifactName = "plot.svg"
	}
	if cfg.Simulator.TerminateTimeout <= 0 {
		cfg.Simulator.TerminateTimeout = 5 * time.Second
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JARDESIGNER_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("JARDESIGNER_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("JARDESIGNER_TEMP_CONFIG_DIR"); v != "" {
		cfg.TempConfigDir = v
	}
	if v := os.Getenv("JARDESIGNER_UPLOADS_DIR"); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv("JARDESIGNER_SIM_COMMAND"); v != "" {
		cfg.Simulator.Command = strings.Fields(v)
	}
	if v := os.Getenv("JARDESIGNER_ARTIFACT_NAME"); v != "" {
		cfg.Simulator.ArtifactName = v
	}
	if v := os.Getenv("JARDESIGNER_TERMINATE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Simulator.TerminateTimeout = d
		}
	}
}
