// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package relay implements the data-channel pub/sub layer.
//
// A running simulation publishes results tagged with its data-channel id;
// every websocket connection that joined that channel receives the payload.
// Delivery is fire-and-forget: there is no buffering and no replay, and a
// publish to a channel with no subscribers is silently dropped. Callers
// must join before data is expected to arrive.
package relay

import (
	"log/slog"
	"sync"
)

// Sender delivers a relayed payload to one subscriber connection.
// Implementations must be safe for concurrent use; the relay may call
// Send from any goroutine.
type Sender interface {
	Send(payload any) error
}

// Relay maps data-channel ids to subscriber sets.
//
// Thread Safety: all operations are guarded by a single RWMutex, so Join
// is atomic with respect to the subscriber set observed by Publish.
type Relay struct {
	mu sync.RWMutex
	// channel id -> connection id -> sender
	subscribers map[string]map[string]Sender
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{subscribers: make(map[string]map[string]Sender)}
}

// Join subscribes a connection to a channel. Idempotent; joining the same
// channel twice replaces the stored sender.
func (r *Relay) Join(connID, channelID string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subscribers[channelID]
	if !ok {
		set = make(map[string]Sender)
		r.subscribers[channelID] = set
	}
	set[connID] = sender
	slog.Info("Connection joined data channel",
		"conn_id", connID, "channel_id", channelID, "subscribers", len(set))
}

// Publish delivers payload to every connection currently subscribed to
// channelID and returns the number of deliveries attempted. Zero
// subscribers is not an error; the payload is dropped.
func (r *Relay) Publish(channelID string, payload any) int {
	r.mu.RLock()
	set := r.subscribers[channelID]
	targets := make(map[string]Sender, len(set))
	for id, s := range set {
		targets[id] = s
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		slog.Debug("Publish to channel with no subscribers", "channel_id", channelID)
		return 0
	}

	for connID, sender := range targets {
		if err := sender.Send(payload); err != nil {
			// The connection's own read loop handles teardown; a failed
			// send here only means the client is already going away.
			slog.Warn("Failed to deliver payload",
				"conn_id", connID, "channel_id", channelID, "error", err)
		}
	}
	return len(targets)
}

// LeaveAll removes the connection from every channel. Empty channels are
// deleted so channel ids are never reused against stale sets.
func (r *Relay) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channelID, set := range r.subscribers {
		if _, ok := set[connID]; !ok {
			continue
		}
		delete(set, connID)
		if len(set) == 0 {
			delete(r.subscribers, channelID)
		}
	}
}

// Subscribers returns the current subscriber count for a channel.
func (r *Relay) Subscribers(channelID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[channelID])
}
