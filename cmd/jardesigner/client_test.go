// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHTTP struct {
	status   int
	body     string
	lastReq  *http.Request
	lastBody []byte
}

func (s *stubHTTP) Do(req *http.Request) (*http.Response, error) {
	s.lastReq = req
	if req.Body != nil {
		s.lastBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func newStubClient(status int, body string) (*apiClient, *stubHTTP) {
	stub := &stubHTTP{status: status, body: body}
	return &apiClient{baseURL: "http://test", http: stub}, stub
}

func TestHealthOK(t *testing.T) {
	client, stub := newStubClient(200, `{"status":"ok"}`)
	require.NoError(t, client.health(context.Background()))
	assert.Equal(t, "http://test/health", stub.lastReq.URL.String())
}

func TestHealthBadStatus(t *testing.T) {
	client, _ := newStubClient(200, `{"status":"degraded"}`)
	assert.ErrorContains(t, client.health(context.Background()), "degraded")
}

func TestLaunchSendsPayload(t *testing.T) {
	client, stub := newStubClient(200, `{
		"status":"success","pid":4242,
		"svg_filename":"plot.svg","data_channel_id":"abc"
	}`)

	res, err := client.launch(context.Background(), "alice",
		json.RawMessage(`{"runtime":0.5}`))
	require.NoError(t, err)
	assert.Equal(t, 4242, res.PID)
	assert.Equal(t, "abc", res.DataChannelID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(stub.lastBody, &sent))
	assert.Equal(t, "alice", sent["client_id"])
	assert.Equal(t, map[string]any{"runtime": 0.5}, sent["config_data"])
}

func TestLaunchServerError(t *testing.T) {
	client, _ := newStubClient(500, `{"error":"failed to launch simulation"}`)
	_, err := client.launch(context.Background(), "alice", json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "500")
}

func TestStatusRunning(t *testing.T) {
	client, _ := newStubClient(200, `{"status":"running","pid":1}`)
	status, err := client.status(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "running", status)
}

func TestStatusNotFound(t *testing.T) {
	client, _ := newStubClient(404, `{"status":"not_found","pid":7}`)
	status, err := client.status(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "not_found", status)
}

func TestResetReturnsMessage(t *testing.T) {
	client, stub := newStubClient(200, `{"status":"success","message":"PID 4242 reset"}`)
	msg, err := client.reset(context.Background(), 4242)
	require.NoError(t, err)
	assert.Equal(t, "PID 4242 reset", msg)
	assert.Equal(t, "/reset_simulation", stub.lastReq.URL.Path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(stub.lastBody, &sent))
	assert.Equal(t, float64(4242), sent["pid"])
}
