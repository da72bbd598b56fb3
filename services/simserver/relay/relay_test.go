// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender collects delivered payloads.
type recordingSender struct {
	mu       sync.Mutex
	payloads []any
	fail     bool
}

func (s *recordingSender) Send(payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("connection gone")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	r := New()

	// Must not panic, must report zero deliveries.
	assert.Equal(t, 0, r.Publish("ch-1", map[string]any{"v": 1}))

	// A later join followed by a fresh publish is delivered.
	s := &recordingSender{}
	r.Join("conn-1", "ch-1", s)
	assert.Equal(t, 1, r.Publish("ch-1", map[string]any{"v": 2}))
	require.Equal(t, 1, s.count())
	assert.Equal(t, map[string]any{"v": 2}, s.payloads[0])
}

func TestPublishFansOut(t *testing.T) {
	r := New()
	a := &recordingSender{}
	b := &recordingSender{}
	r.Join("conn-a", "ch-1", a)
	r.Join("conn-b", "ch-1", b)

	// A subscriber on another channel must not receive anything.
	other := &recordingSender{}
	r.Join("conn-c", "ch-2", other)

	delivered := r.Publish("ch-1", "payload")
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 0, other.count())
}

func TestJoinIsIdempotent(t *testing.T) {
	r := New()
	s := &recordingSender{}
	r.Join("conn-1", "ch-1", s)
	r.Join("conn-1", "ch-1", s)

	assert.Equal(t, 1, r.Subscribers("ch-1"))
	assert.Equal(t, 1, r.Publish("ch-1", "x"))
	assert.Equal(t, 1, s.count())
}

func TestConnectionMayJoinMultipleChannels(t *testing.T) {
	r := New()
	s := &recordingSender{}
	r.Join("conn-1", "ch-1", s)
	r.Join("conn-1", "ch-2", s)

	r.Publish("ch-1", "one")
	r.Publish("ch-2", "two")
	assert.Equal(t, 2, s.count())
}

func TestLeaveAllRemovesEverySubscription(t *testing.T) {
	r := New()
	s := &recordingSender{}
	keep := &recordingSender{}
	r.Join("conn-1", "ch-1", s)
	r.Join("conn-1", "ch-2", s)
	r.Join("conn-2", "ch-1", keep)

	r.LeaveAll("conn-1")

	assert.Equal(t, 0, s.count())
	assert.Equal(t, 1, r.Subscribers("ch-1"))
	assert.Equal(t, 0, r.Subscribers("ch-2"))

	r.Publish("ch-1", "after")
	r.Publish("ch-2", "after")
	assert.Equal(t, 0, s.count())
	assert.Equal(t, 1, keep.count())
}

func TestFailedSendDoesNotAffectOthers(t *testing.T) {
	r := New()
	broken := &recordingSender{fail: true}
	healthy := &recordingSender{}
	r.Join("conn-1", "ch-1", broken)
	r.Join("conn-2", "ch-1", healthy)

	r.Publish("ch-1", "x")
	assert.Equal(t, 1, healthy.count())
}

func TestConcurrentJoinPublishLeave(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", i)
			s := &recordingSender{}
			for j := 0; j < 100; j++ {
				r.Join(connID, "ch-hot", s)
				r.Publish("ch-hot", j)
				r.LeaveAll(connID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Subscribers("ch-hot"))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Resolve("conn-1")
	assert.False(t, ok)

	reg.Register("conn-1", "abc")
	clientID, ok := reg.Resolve("conn-1")
	require.True(t, ok)
	assert.Equal(t, "abc", clientID)

	// Last write wins, no error.
	reg.Register("conn-1", "def")
	clientID, _ = reg.Resolve("conn-1")
	assert.Equal(t, "def", clientID)

	reg.Remove("conn-1")
	_, ok = reg.Resolve("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	// Removing an unknown connection is fine.
	reg.Remove("conn-1")
}
