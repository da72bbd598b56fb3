// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package supervisor

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchArtifact announces the expected artifact on the process's data
// channel as soon as the simulator writes it, so clients do not have to
// poll the status endpoint for it. The watch ends when the artifact is
// seen or the process exits; a final stat covers an artifact written in
// the race between the last event and process exit.
func (s *Supervisor) watchArtifact(proc *SimProcess, sessionDir string) {
	artifact := filepath.Join(sessionDir, proc.ArtifactName)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("Artifact watcher unavailable", "pid", proc.PID, "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(sessionDir); err != nil {
		slog.Warn("Cannot watch session directory",
			"pid", proc.PID, "dir", sessionDir, "error", err)
		return
	}

	// The artifact may predate the watch (immediate rewrite of a prior
	// run's output).
	if s.announceIfPresent(proc, artifact) {
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != artifact {
				continue
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				if s.announceIfPresent(proc, artifact) {
					return
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Artifact watcher error", "pid", proc.PID, "error", err)
		case <-proc.Done():
			s.announceIfPresent(proc, artifact)
			return
		}
	}
}

func (s *Supervisor) announceIfPresent(proc *SimProcess, artifact string) bool {
	info, err := os.Stat(artifact)
	if err != nil || info.Size() == 0 {
		return false
	}
	delivered := s.publisher.Publish(proc.DataChannelID, map[string]any{
		"event":     "artifact_ready",
		"pid":       proc.PID,
		"filename":  proc.ArtifactName,
		"client_id": proc.ClientID,
	})
	slog.Info("Artifact ready", "pid", proc.PID,
		"filename", proc.ArtifactName, "delivered", delivered)
	return true
}
