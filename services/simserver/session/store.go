// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session manages per-client working directories.
//
// Every connected client owns exactly one directory under the configured
// uploads root. Uploads, fetched neuron data, and simulation artifacts all
// live inside it, and the whole tree is removed when the client disconnects.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mooseneuro/jardesigner/pkg/validation"
)

// Store maps client ids to exclusive session directories under a root.
//
// Thread Safety: Safe for concurrent use. All operations delegate to the
// filesystem; MkdirAll and RemoveAll are safe to race per POSIX semantics.
type Store struct {
	root string
}

// NewStore creates a session store rooted at dir, creating dir if needed.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads root %s: %w", abs, err)
	}
	return &Store{root: abs}, nil
}

// Root returns the uploads root directory.
func (s *Store) Root() string { return s.root }

// Path returns the session directory for clientID without creating it.
// The client id is validated so the result can never escape the root.
func (s *Store) Path(clientID string) (string, error) {
	if err := validation.ValidateClientID(clientID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, clientID), nil
}

// EnsureDir creates the session directory for clientID if absent and
// returns its path.
func (s *Store) EnsureDir(clientID string) (string, error) {
	dir, err := s.Path(clientID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create session dir for %s: %w", clientID, err)
	}
	return dir, nil
}

// Exists reports whether a session directory exists for clientID.
func (s *Store) Exists(clientID string) bool {
	dir, err := s.Path(clientID)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// FilePath resolves filename inside the client's session directory.
// The filename is reduced to its base name first, so traversal via the
// filename is not possible.
func (s *Store) FilePath(clientID, filename string) (string, error) {
	dir, err := s.Path(clientID)
	if err != nil {
		return "", err
	}
	base, err := validation.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, base), nil
}

// Remove recursively deletes the client's session directory. Removing a
// directory that does not exist is not an error.
func (s *Store) Remove(clientID string) error {
	dir, err := s.Path(clientID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove session dir for %s: %w", clientID, err)
	}
	slog.Info("Removed session directory", "client_id", clientID, "dir", dir)
	return nil
}
