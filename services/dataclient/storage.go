// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mooseneuro/jardesigner/pkg/validation"
)

// ErrNeuronNotFound reports a neuron absent from a client's selection.
var ErrNeuronNotFound = errors.New("neuron not found")

// Storage lays out the local morphology store:
//
//	root/
//	  swc/neuromorpho/   shared SWC downloads, one file per neuron
//	  metadata/          per-client JSON metadata selections
type Storage struct {
	root string

	// mu serializes metadata read-modify-write cycles per store.
	mu sync.Mutex
}

// NewStorage creates the store layout under root.
func NewStorage(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	for _, dir := range []string{
		filepath.Join(abs, "swc", "neuromorpho"),
		filepath.Join(abs, "metadata"),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &Storage{root: abs}, nil
}

// Root returns the storage root.
func (s *Storage) Root() string { return s.root }

func (s *Storage) swcDir() string      { return filepath.Join(s.root, "swc", "neuromorpho") }
func (s *Storage) metadataDir() string { return filepath.Join(s.root, "metadata") }

func (s *Storage) metadataPath(clientName string) (string, error) {
	if err := validation.ValidateClientID(clientName); err != nil {
		return "", err
	}
	return filepath.Join(s.metadataDir(), clientName+".json"), nil
}

// SaveSWC writes one neuron's morphology into the shared SWC pool. The
// file name is derived from the neuron name; an existing file is
// overwritten (downloads are idempotent).
func (s *Storage) SaveSWC(neuronName string, body []byte) (string, error) {
	name := validation.SafeName(neuronName, "neuron")
	path := filepath.Join(s.swcDir(), name+".swc")
	if err := os.WriteFile(path, body, 0o640); err != nil {
		return "", fmt.Errorf("write swc for %s: %w", neuronName, err)
	}
	return path, nil
}

// HasSWC reports whether a neuron's morphology is already in the pool.
func (s *Storage) HasSWC(neuronName string) bool {
	name := validation.SafeName(neuronName, "neuron")
	_, err := os.Stat(filepath.Join(s.swcDir(), name+".swc"))
	return err == nil
}

// AppendClientMetadata merges neurons into the client's stored selection,
// de-duplicating by neuron name.
func (s *Storage) AppendClientMetadata(clientName string, neurons []NeuronMetadata) error {
	path, err := s.metadataPath(clientName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadMetadata(path)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(existing))
	for _, n := range existing {
		seen[n.NeuronName] = true
	}
	for _, n := range neurons {
		if !seen[n.NeuronName] {
			existing = append(existing, n)
			seen[n.NeuronName] = true
		}
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", clientName, err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write metadata for %s: %w", clientName, err)
	}
	return nil
}

// ClientMetadata returns the client's stored selection. A client with no
// saved metadata gets an empty slice, not an error.
func (s *Storage) ClientMetadata(clientName string) ([]NeuronMetadata, error) {
	path, err := s.metadataPath(clientName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMetadata(path)
}

func (s *Storage) loadMetadata(path string) ([]NeuronMetadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []NeuronMetadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	var neurons []NeuronMetadata
	if err := json.Unmarshal(data, &neurons); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	return neurons, nil
}

// DeleteClientMetadata removes the client's stored selection. Deleting a
// selection that does not exist is not an error.
func (s *Storage) DeleteClientMetadata(clientName string) error {
	path, err := s.metadataPath(clientName)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete metadata for %s: %w", clientName, err)
	}
	return nil
}

// DeleteClientNeuron removes one neuron from the client's stored
// selection. The pooled SWC file is deleted too, but only once no
// remaining client references the neuron.
func (s *Storage) DeleteClientNeuron(clientName, neuronName string) error {
	path, err := s.metadataPath(clientName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	neurons, err := s.loadMetadata(path)
	if err != nil {
		return err
	}
	kept := make([]NeuronMetadata, 0, len(neurons))
	for _, n := range neurons {
		if n.NeuronName != neuronName {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(neurons) {
		return fmt.Errorf("%w: %s", ErrNeuronNotFound, neuronName)
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", clientName, err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write metadata for %s: %w", clientName, err)
	}

	referenced, err := s.neuronReferenced(neuronName)
	if err != nil {
		return err
	}
	if !referenced {
		name := validation.SafeName(neuronName, "neuron")
		swc := filepath.Join(s.swcDir(), name+".swc")
		if err := os.Remove(swc); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete swc for %s: %w", neuronName, err)
		}
	}
	return nil
}

// neuronReferenced scans every client's metadata for the neuron.
// Callers hold mu.
func (s *Storage) neuronReferenced(neuronName string) (bool, error) {
	entries, err := os.ReadDir(s.metadataDir())
	if err != nil {
		return false, fmt.Errorf("list metadata dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		neurons, err := s.loadMetadata(filepath.Join(s.metadataDir(), e.Name()))
		if err != nil {
			return false, err
		}
		for _, n := range neurons {
			if n.NeuronName == neuronName {
				return true, nil
			}
		}
	}
	return false, nil
}

// Clients lists every client with stored metadata.
func (s *Storage) Clients() ([]string, error) {
	entries, err := os.ReadDir(s.metadataDir())
	if err != nil {
		return nil, fmt.Errorf("list metadata dir: %w", err)
	}
	var clients []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		clients = append(clients, e.Name()[:len(e.Name())-len(".json")])
	}
	return clients, nil
}

// Info reports disk usage of the store's subtrees.
func (s *Storage) Info() (StorageInfo, error) {
	swc, err := dirSize(s.swcDir())
	if err != nil {
		return StorageInfo{}, err
	}
	meta, err := dirSize(s.metadataDir())
	if err != nil {
		return StorageInfo{}, err
	}
	return StorageInfo{SWCBytes: swc, MetadataBytes: meta}, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	return total, nil
}
