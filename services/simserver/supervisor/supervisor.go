// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package supervisor spawns, tracks, and terminates external simulation
// processes.
//
// # Invariants
//
// For a given client the index holds at most one pid, and that pid is
// always present in the registry. Launching pre-empts the client's prior
// process synchronously, so no two processes for the same client ever run
// concurrently. Data-channel ids are freshly generated per launch and
// never reused.
//
// # Concurrency
//
// The registry and client index are guarded by one mutex; launches for
// the same client additionally serialize on a per-client lock so rapid
// repeated launch calls cannot interleave. Blocking work (spawn, bounded
// termination wait, pipe draining) happens outside the request path's
// shared state.
package supervisor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mooseneuro/jardesigner/pkg/validation"
	"github.com/mooseneuro/jardesigner/services/simserver/config"
	"github.com/mooseneuro/jardesigner/services/simserver/observability"
	"github.com/mooseneuro/jardesigner/services/simserver/session"
)

// Publisher is the relay surface the supervisor needs: it only publishes.
type Publisher interface {
	Publish(channelID string, payload any) int
}

// LaunchResult carries the identifiers a caller needs to poll status and
// join the data channel.
type LaunchResult struct {
	PID           int    `json:"pid"`
	DataChannelID string `json:"data_channel_id"`
	ArtifactName  string `json:"svg_filename"`
}

// Supervisor owns the process registry and the client index.
type Supervisor struct {
	cfg       config.SimulatorConfig
	tempDir   string
	sessions  *session.Store
	publisher Publisher
	metrics   *observability.SimMetrics

	mu         sync.Mutex
	procs      map[int]*SimProcess
	clientSims map[string]int

	// launchMu guards launchLocks; each client gets its own launch lock.
	launchMu    sync.Mutex
	launchLocks map[string]*sync.Mutex
}

// New creates a Supervisor. tempDir receives per-launch config files and
// is created if absent.
func New(cfg config.SimulatorConfig, tempDir string, sessions *session.Store, publisher Publisher) (*Supervisor, error) {
	abs, err := filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("resolve temp config dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create temp config dir %s: %w", abs, err)
	}
	return &Supervisor{
		cfg:         cfg,
		tempDir:     abs,
		sessions:    sessions,
		publisher:   publisher,
		metrics:     observability.Metrics(),
		procs:       make(map[int]*SimProcess),
		clientSims:  make(map[string]int),
		launchLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Supervisor) clientLock(clientID string) *sync.Mutex {
	s.launchMu.Lock()
	defer s.launchMu.Unlock()
	lock, ok := s.launchLocks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		s.launchLocks[clientID] = lock
	}
	return lock
}

// Launch starts a new simulation for clientID, pre-empting any process the
// client already has. On failure no registry entries are created.
func (s *Supervisor) Launch(clientID string, configPayload json.RawMessage) (*LaunchResult, error) {
	if len(configPayload) == 0 {
		return nil, fmt.Errorf("%w: missing config_data", ErrInvalidRequest)
	}
	if err := validation.ValidateClientID(clientID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Serialize launches per client so a rapid second launch cannot
	// interleave with the first one's registration.
	lock := s.clientLock(clientID)
	lock.Lock()
	defer lock.Unlock()

	// Pre-empt the prior process, if any, before spawning a new one.
	if pid, ok := s.ActivePID(clientID); ok {
		slog.Info("Pre-empting previous simulation", "client_id", clientID, "pid", pid)
		s.Terminate(pid)
	}

	tempPath := filepath.Join(s.tempDir, fmt.Sprintf("config_%s.json", uuid.New().String()))
	if err := os.WriteFile(tempPath, configPayload, 0o640); err != nil {
		return nil, fmt.Errorf("%w: write temp config: %v", ErrLaunchFailed, err)
	}

	sessionDir, err := s.sessions.EnsureDir(clientID)
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	channelID := uuid.New().String()
	artifactPath := filepath.Join(sessionDir, s.cfg.ArtifactName)

	args := make([]string, 0, len(s.cfg.Command)+7)
	args = append(args, s.cfg.Command[1:]...)
	args = append(args, tempPath,
		"--plotFile", artifactPath,
		"--data-channel-id", channelID,
		"--session-path", sessionDir,
	)

	cmd := exec.Command(s.cfg.Command[0], args...)
	cmd.Env = append(os.Environ(), s.cfg.ExtraEnv...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	if err := cmd.Start(); err != nil {
		os.Remove(tempPath)
		s.metrics.LaunchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	proc := &SimProcess{
		PID:            cmd.Process.Pid,
		ClientID:       clientID,
		DataChannelID:  channelID,
		TempConfigPath: tempPath,
		ArtifactName:   s.cfg.ArtifactName,
		StartTime:      time.Now(),
		cmd:            cmd,
		stdin:          stdin,
		done:           make(chan struct{}),
	}

	// Reaper: Wait must run exactly once per child.
	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.done)
	}()

	s.mu.Lock()
	s.procs[proc.PID] = proc
	s.clientSims[clientID] = proc.PID
	s.mu.Unlock()

	s.metrics.LaunchesTotal.WithLabelValues("success").Inc()
	s.metrics.ActiveSimulations.Inc()

	s.startStreamers(proc, stdout, stderr)
	if s.publisher != nil {
		go s.watchArtifact(proc, sessionDir)
	}

	slog.Info("Launched simulation",
		"client_id", clientID, "pid", proc.PID,
		"data_channel_id", channelID, "config", tempPath)

	return &LaunchResult{
		PID:           proc.PID,
		DataChannelID: channelID,
		ArtifactName:  s.cfg.ArtifactName,
	}, nil
}

// Terminate stops the process registered under pid. Idempotent: false for
// an unknown pid. The registry entry is removed on return regardless of
// how the OS-level termination went; a graceful SIGTERM is given
// TerminateTimeout to take effect before escalating to SIGKILL.
func (s *Supervisor) Terminate(pid int) bool {
	s.mu.Lock()
	proc, ok := s.procs[pid]
	if !ok {
		s.mu.Unlock()
		s.metrics.TerminationsTotal.WithLabelValues("not_found").Inc()
		return false
	}
	delete(s.procs, pid)
	if current, ok := s.clientSims[proc.ClientID]; ok && current == pid {
		delete(s.clientSims, proc.ClientID)
	}
	s.mu.Unlock()

	s.metrics.ActiveSimulations.Dec()
	defer s.removeTempConfig(proc)

	if proc.Exited() {
		s.metrics.TerminationsTotal.WithLabelValues("already_exited").Inc()
		return true
	}

	slog.Info("Terminating simulation", "pid", pid, "client_id", proc.ClientID)
	if err := proc.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		slog.Warn("SIGTERM failed", "pid", pid, "error", err)
	}
	if proc.waitTimeout(s.cfg.TerminateTimeout) {
		s.metrics.TerminationsTotal.WithLabelValues("graceful").Inc()
		return true
	}

	// Escalation: the reference backend accepted a leaked process here;
	// we force-kill instead so a wedged simulator cannot outlive its
	// registry entry.
	slog.Warn("Graceful termination timed out, killing",
		"pid", pid, "timeout", s.cfg.TerminateTimeout)
	if err := proc.cmd.Process.Kill(); err != nil {
		slog.Error("SIGKILL failed", "pid", pid, "error", err)
	}
	proc.waitTimeout(time.Second)
	s.metrics.TerminationsTotal.WithLabelValues("killed").Inc()
	return true
}

// TerminateClient terminates the client's active process, if any.
func (s *Supervisor) TerminateClient(clientID string) bool {
	pid, ok := s.ActivePID(clientID)
	if !ok {
		return false
	}
	return s.Terminate(pid)
}

// ActivePID returns the client's registered pid, if any.
func (s *Supervisor) ActivePID(clientID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.clientSims[clientID]
	return pid, ok
}

// Status reports the lifecycle state for pid. For an exited process the
// expected artifact's presence in the owning client's session directory
// decides between completed and completed_error.
func (s *Supervisor) Status(pid int) Status {
	s.mu.Lock()
	proc, ok := s.procs[pid]
	s.mu.Unlock()
	if !ok {
		return StatusNotFound
	}
	if !proc.Exited() {
		return StatusRunning
	}

	artifact, err := s.sessions.FilePath(proc.ClientID, proc.ArtifactName)
	if err != nil {
		return StatusCompletedError
	}
	if _, err := os.Stat(artifact); err == nil {
		return StatusCompleted
	}
	return StatusCompletedError
}

// SendCommand relays an interactive command to the child's stdin as one
// JSON line. Unknown pids and exited processes drop the command silently;
// that is the documented contract of the command relay.
func (s *Supervisor) SendCommand(pid int, command string, params map[string]any) {
	s.mu.Lock()
	proc, ok := s.procs[pid]
	s.mu.Unlock()
	if !ok || proc.Exited() {
		slog.Debug("Dropping command for absent or exited process",
			"pid", pid, "command", command)
		s.metrics.CommandsTotal.WithLabelValues("dropped").Inc()
		return
	}

	if params == nil {
		params = map[string]any{}
	}
	line, err := json.Marshal(map[string]any{"command": command, "params": params})
	if err != nil {
		slog.Warn("Failed to encode command", "pid", pid, "command", command, "error", err)
		s.metrics.CommandsTotal.WithLabelValues("dropped").Inc()
		return
	}
	line = append(line, '\n')

	if err := proc.writeLine(line); err != nil {
		slog.Warn("Failed to write command to stdin", "pid", pid, "error", err)
		s.metrics.CommandsTotal.WithLabelValues("dropped").Inc()
		return
	}
	s.metrics.CommandsTotal.WithLabelValues("sent").Inc()
}

// Snapshot returns a copy of the client index, for the index route.
func (s *Supervisor) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.clientSims))
	for client, pid := range s.clientSims {
		out[client] = pid
	}
	return out
}

// Shutdown terminates every registered process. Used on server exit.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	pids := make([]int, 0, len(s.procs))
	for pid := range s.procs {
		pids = append(pids, pid)
	}
	s.mu.Unlock()
	for _, pid := range pids {
		s.Terminate(pid)
	}
}

func (s *Supervisor) removeTempConfig(proc *SimProcess) {
	if proc.TempConfigPath == "" {
		return
	}
	if err := os.Remove(proc.TempConfigPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove temp config",
			"pid", proc.PID, "path", proc.TempConfigPath, "error", err)
	}
}
