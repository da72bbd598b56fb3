// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"strings"
	"testing"
)

func TestValidateClientID(t *testing.T) {
	valid := []string{
		"abc",
		"client-123",
		"A1",
		"u_9f3c",
		strings.Repeat("a", 64),
	}
	for _, id := range valid {
		if err := ValidateClientID(id); err != nil {
			t.Errorf("ValidateClientID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{
		"",
		"../etc",
		"a/b",
		"a b",
		".hidden",
		"-leading",
		strings.Repeat("a", 65),
		"nul\x00byte",
	}
	for _, id := range invalid {
		if err := ValidateClientID(id); err == nil {
			t.Errorf("ValidateClientID(%q) = nil, want error", id)
		}
	}
}

func TestValidateChannelID(t *testing.T) {
	if err := ValidateChannelID("3f1f6a2e-8d7b-4c9a-9a64-1d2f3e4a5b6c"); err != nil {
		t.Errorf("uuid channel id rejected: %v", err)
	}
	if err := ValidateChannelID(""); err == nil {
		t.Error("empty channel id accepted")
	}
	if err := ValidateChannelID("bad/channel"); err == nil {
		t.Error("channel id with slash accepted")
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Run("keeps plain names", func(t *testing.T) {
		got, err := SanitizeFilename("plot.svg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "plot.svg" {
			t.Errorf("got %q, want %q", got, "plot.svg")
		}
	})

	t.Run("strips directories", func(t *testing.T) {
		got, err := SanitizeFilename("../../etc/passwd")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "passwd" {
			t.Errorf("got %q, want %q", got, "passwd")
		}
	})

	t.Run("rejects traversal-only names", func(t *testing.T) {
		for _, name := range []string{"", ".", "..", "   "} {
			if _, err := SanitizeFilename(name); err == nil {
				t.Errorf("SanitizeFilename(%q) accepted", name)
			}
		}
	})
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"my neuron (CNG)": "my_neuron__CNG",
		"plain.swc":       "plain.swc",
		"///":             "neuron_0",
		"":                "neuron_0",
	}
	for in, want := range cases {
		if got := SafeName(in, "neuron_0"); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}
