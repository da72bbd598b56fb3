// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JARDESIGNER_CONFIG", "")
	t.Setenv("JARDESIGNER_PORT", "")
	t.Setenv("JARDESIGNER_SIM_COMMAND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "user_uploads", cfg.UploadsDir)
	assert.Equal(t, "plot.svg", cfg.Simulator.ArtifactName)
	assert.Equal(t, 5*time.Second, cfg.Simulator.TerminateTimeout)
	assert.NotEmpty(t, cfg.Simulator.Command)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jardesigner.yaml")
	data := []byte(`
port: "8080"
uploads_dir: /srv/jardesigner/uploads
simulator:
  command: ["moose-sim", "--headless"]
  artifact_name: result.svg
  terminate_timeout: 10s
`)
	require.NoError(t, os.WriteFile(path, data, 0o640))
	t.Setenv("JARDESIGNER_CONFIG", path)
	t.Setenv("JARDESIGNER_PORT", "")
	t.Setenv("JARDESIGNER_SIM_COMMAND", "")
	t.Setenv("JARDESIGNER_ARTIFACT_NAME", "")
	t.Setenv("JARDESIGNER_TERMINATE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/srv/jardesigner/uploads", cfg.UploadsDir)
	assert.Equal(t, []string{"moose-sim", "--headless"}, cfg.Simulator.Command)
	assert.Equal(t, "result.svg", cfg.Simulator.ArtifactName)
	assert.Equal(t, 10*time.Second, cfg.Simulator.TerminateTimeout)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jardesigner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`port: "8080"`), 0o640))
	t.Setenv("JARDESIGNER_CONFIG", path)
	t.Setenv("JARDESIGNER_PORT", "9999")
	t.Setenv("JARDESIGNER_SIM_COMMAND", "fake-sim --flag")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, []string{"fake-sim", "--flag"}, cfg.Simulator.Command)
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("JARDESIGNER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
