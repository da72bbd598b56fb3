// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package supervisor

import (
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

var (
	// ErrLaunchFailed wraps the OS error when the simulator cannot spawn.
	ErrLaunchFailed = errors.New("failed to launch simulation")

	// ErrInvalidRequest marks launches with missing client id or payload.
	ErrInvalidRequest = errors.New("invalid launch request")
)

// Status is the lifecycle state reported for a simulation process.
type Status string

const (
	// StatusRunning means the process is registered and has not exited.
	StatusRunning Status = "running"

	// StatusCompleted means the process exited and the artifact exists.
	StatusCompleted Status = "completed"

	// StatusCompletedError means the process exited without producing
	// the artifact. The exit code is deliberately not consulted; the
	// artifact file is the sole success signal.
	StatusCompletedError Status = "completed_error"

	// StatusNotFound means the pid is not in the registry.
	StatusNotFound Status = "not_found"
)

// SimProcess is one spawned simulator, exclusively owned by the
// Supervisor's registry. The client index holds only the pid.
type SimProcess struct {
	PID            int
	ClientID       string
	DataChannelID  string
	TempConfigPath string
	ArtifactName   string
	StartTime      time.Time

	cmd   *exec.Cmd
	stdin io.WriteCloser

	// stdinMu serializes interactive command writes.
	stdinMu sync.Mutex

	// done is closed by the reaper goroutine once Wait returns.
	done    chan struct{}
	waitErr error
}

// Exited reports whether the process has been reaped.
func (p *SimProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// waitTimeout blocks until the process exits or the timeout elapses,
// returning true when it exited in time.
func (p *SimProcess) waitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

// Done exposes the exit notification channel (closed on reap).
func (p *SimProcess) Done() <-chan struct{} { return p.done }

// writeLine writes one line to the child's stdin. The pipe is unbuffered
// on our side, so the child observes the line immediately.
func (p *SimProcess) writeLine(line []byte) error {
	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()
	_, err := p.stdin.Write(line)
	return err
}
