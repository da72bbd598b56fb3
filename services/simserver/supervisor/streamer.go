// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package supervisor

import (
	"bufio"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single simulator output line. Lines beyond this
// are reported as a scan error rather than silently truncated.
const maxLineSize = 1024 * 1024

// startStreamers drains the child's stdout and stderr concurrently,
// logging each line tagged with pid and stream. Draining must outlive the
// request that launched the process, so both readers run in their own
// goroutines until the pipes close on exit.
func (s *Supervisor) startStreamers(proc *SimProcess, stdout, stderr io.Reader) {
	var g errgroup.Group
	g.Go(func() error {
		s.drain(proc, "stdout", stdout)
		return nil
	})
	g.Go(func() error {
		s.drain(proc, "stderr", stderr)
		return nil
	})
	go func() {
		_ = g.Wait()
		slog.Debug("Output streams closed", "pid", proc.PID, "client_id", proc.ClientID)
	}()
}

func (s *Supervisor) drain(proc *SimProcess, stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	logger := slog.Default().With("pid", proc.PID, "client_id", proc.ClientID, "stream", stream)
	for scanner.Scan() {
		logger.Info(scanner.Text())
		s.metrics.StreamLinesTotal.WithLabelValues(stream).Inc()
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Output stream read failed", "error", err)
	}
}
