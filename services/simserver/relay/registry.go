// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package relay

import "sync"

// Registry maps live connection ids to the client id they registered as.
// A connection that never sends a register event has no entry and its
// disconnect is a no-op beyond dropping channel subscriptions.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]string
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]string)}
}

// Register associates a connection with a client id. Last write wins when
// a connection registers twice.
func (r *Registry) Register(connID, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[connID] = clientID
}

// Resolve returns the client id for a connection, if registered.
func (r *Registry) Resolve(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clientID, ok := r.clients[connID]
	return clientID, ok
}

// Remove drops the connection's entry. Unknown connections are ignored.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connID)
}

// Snapshot returns a copy of the connection-to-client map.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.clients))
	for conn, client := range r.clients {
		out[conn] = client
	}
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
