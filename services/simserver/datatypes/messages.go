// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the wire types for the simulation server's HTTP
// and WebSocket surfaces.
package datatypes

import "encoding/json"

// LaunchRequest starts a simulation for a client. ConfigData is passed
// through to the simulator verbatim as its config file.
type LaunchRequest struct {
	ConfigData json.RawMessage `json:"config_data" binding:"required"`
	ClientID   string          `json:"client_id" binding:"required"`
}

// LaunchResponse echoes the identifiers the frontend needs to follow the
// run: the pid for status polling, the data channel for live output, and
// the artifact filename to fetch when the run completes.
type LaunchResponse struct {
	Status        string `json:"status"`
	PID           int    `json:"pid"`
	SVGFilename   string `json:"svg_filename"`
	DataChannelID string `json:"data_channel_id"`
}

// StatusResponse reports a process's lifecycle state.
type StatusResponse struct {
	Status string `json:"status"`
	PID    int    `json:"pid"`
}

// ResetRequest asks the server to terminate a running simulation by pid.
// The client id is advisory; the pid is authoritative.
type ResetRequest struct {
	PID      int    `json:"pid" binding:"required"`
	ClientID string `json:"client_id"`
}

// PushRequest is the internal ingress used by simulator processes to
// publish a payload onto their data channel.
type PushRequest struct {
	DataChannelID string          `json:"data_channel_id" binding:"required"`
	Payload       json.RawMessage `json:"payload" binding:"required"`
}

// UploadResponse acknowledges a file stored in the client's session
// directory.
type UploadResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

// SocketEvent is the envelope for every client-to-server WebSocket
// message. Exactly one of the optional fields is meaningful per event.
type SocketEvent struct {
	// Event is one of register_client, join_sim_channel, sim_command.
	Event string `json:"event"`

	// ClientID registers the logical client behind this connection.
	ClientID string `json:"clientId,omitempty"`

	// ChannelID subscribes the connection to a data channel.
	ChannelID string `json:"data_channel_id,omitempty"`

	// PID, Command, Params carry an interactive simulator command.
	PID     int            `json:"pid,omitempty"`
	Command string         `json:"command,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// SocketAck is the server's reply to a socket event.
type SocketAck struct {
	Event  string `json:"event"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
