// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mooseneuro/jardesigner/pkg/validation"
	"github.com/mooseneuro/jardesigner/services/simserver/datatypes"
	"github.com/mooseneuro/jardesigner/services/simserver/observability"
	"github.com/mooseneuro/jardesigner/services/simserver/relay"
	"github.com/mooseneuro/jardesigner/services/simserver/session"
	"github.com/mooseneuro/jardesigner/services/simserver/supervisor"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024 * 1024,
	WriteBufferSize: 1024 * 1024,
}

// wsSender adapts a websocket connection to the relay's Sender. gorilla
// connections allow one concurrent writer, so every write goes through
// the mutex; both the relay and the read-loop acks use this path.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(payload)
}

// HandleSocket runs the per-connection event loop.
//
// Lifecycle: a connection gets a fresh conn id on upgrade, registers a
// client id, joins data channels, and relays interactive commands. When
// the read loop ends for any reason the connection's client state is
// dismantled: running simulation terminated, session directory removed,
// channel subscriptions dropped.
func HandleSocket(reg *relay.Registry, r *relay.Relay, sup *supervisor.Supervisor,
	store *session.Store) gin.HandlerFunc {

	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to upgrade websocket", "error", err)
			return
		}
		defer ws.Close()

		connID := uuid.New().String()
		sender := &wsSender{conn: ws}
		slog.Info("Websocket connected", "conn_id", connID)

		if err := sender.Send(gin.H{"event": "connected", "conn_id": connID}); err != nil {
			return
		}

		defer cleanupConnection(connID, reg, r, sup, store)

		for {
			var ev datatypes.SocketEvent
			if err := ws.ReadJSON(&ev); err != nil {
				slog.Info("Websocket disconnected", "conn_id", connID, "reason", err.Error())
				return
			}

			switch ev.Event {
			case "register_client":
				if err := validation.ValidateClientID(ev.ClientID); err != nil {
					ack(sender, ev.Event, "error", err.Error())
					continue
				}
				reg.Register(connID, ev.ClientID)
				if _, err := store.EnsureDir(ev.ClientID); err != nil {
					slog.Error("Failed to create session directory",
						"client_id", ev.ClientID, "error", err)
					ack(sender, ev.Event, "error", "failed to create session directory")
					continue
				}
				slog.Info("Client registered", "conn_id", connID, "client_id", ev.ClientID)
				ack(sender, ev.Event, "success", "")

			case "join_sim_channel":
				if err := validation.ValidateChannelID(ev.ChannelID); err != nil {
					ack(sender, ev.Event, "error", err.Error())
					continue
				}
				r.Join(connID, ev.ChannelID, sender)
				ack(sender, ev.Event, "success", "")

			case "sim_command":
				// Fire-and-forget, like the push ingress: unknown pids and
				// exited processes drop the command without an error reply.
				sup.SendCommand(ev.PID, ev.Command, ev.Params)

			default:
				slog.Warn("Unknown websocket event", "conn_id", connID, "event", ev.Event)
				ack(sender, ev.Event, "error", "unknown event")
			}
		}
	}
}

func ack(sender *wsSender, event, status, errMsg string) {
	if err := sender.Send(datatypes.SocketAck{Event: event, Status: status, Error: errMsg}); err != nil {
		slog.Warn("Failed to send websocket ack", "event", event, "error", err)
	}
}

// cleanupConnection tears down everything a connection accumulated. The
// order matters: the simulation is terminated before the session
// directory is removed so the child cannot recreate files mid-cleanup.
func cleanupConnection(connID string, reg *relay.Registry, r *relay.Relay,
	sup *supervisor.Supervisor, store *session.Store) {

	if clientID, ok := reg.Resolve(connID); ok {
		if sup.TerminateClient(clientID) {
			slog.Info("Terminated simulation on disconnect",
				"conn_id", connID, "client_id", clientID)
		}
		if err := store.Remove(clientID); err != nil {
			slog.Error("Failed to remove session directory on disconnect",
				"client_id", clientID, "error", err)
		} else {
			observability.Metrics().SessionCleanupsTotal.Inc()
		}
	}
	r.LeaveAll(connID)
	reg.Remove(connID)
}
