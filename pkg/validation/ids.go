// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// filesystem paths or subprocess arguments. Using these validators prevents
// path traversal and argument injection.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// clientIDPattern matches valid client identifiers.
// Client ids are generated by the frontend and become directory names under
// the uploads root, so the allowed alphabet is deliberately narrow.
var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// channelIDPattern matches data-channel identifiers (UUIDs in practice,
// but any opaque token from the same alphabet is accepted).
var channelIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,127}$`)

// ValidateClientID validates a client identifier before it is used as a
// path component or subprocess argument.
//
// Valid client ids:
//   - 1-64 characters
//   - Letters, digits, underscores, hyphens
//   - Must start with a letter or digit
//
// Returns an error if the id is invalid.
//
// Example:
//
//	if err := validation.ValidateClientID(clientID); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateClientID(clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client id cannot be empty")
	}
	if !clientIDPattern.MatchString(clientID) {
		return fmt.Errorf("invalid client id: %q (must be 1-64 alphanumeric chars, underscores, or hyphens)", clientID)
	}
	return nil
}

// ValidateChannelID validates a data-channel identifier.
func ValidateChannelID(channelID string) error {
	if channelID == "" {
		return fmt.Errorf("data channel id cannot be empty")
	}
	if !channelIDPattern.MatchString(channelID) {
		return fmt.Errorf("invalid data channel id: %q", channelID)
	}
	return nil
}

// SanitizeFilename reduces a user-supplied filename to a safe base name.
//
// Strips any directory components, rejects empty results, dotfiles that
// collapse to "." or "..", and names containing NUL. The returned name is
// safe to join under a session directory.
func SanitizeFilename(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("invalid filename")
	}
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", name)
	}
	return base, nil
}

// safeNamePattern keeps characters allowed in stored artifact names.
var safeNamePattern = regexp.MustCompile(`[^\w\-.]`)

// SafeName rewrites an arbitrary display name into a filesystem-safe name,
// replacing disallowed characters with underscores. fallback is used when
// nothing survives the rewrite.
func SafeName(name, fallback string) string {
	safe := safeNamePattern.ReplaceAllString(strings.TrimSpace(name), "_")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		return fallback
	}
	return safe
}
