// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mooseneuro/jardesigner/services/dataclient"
	"github.com/mooseneuro/jardesigner/services/simserver/handlers"
	"github.com/mooseneuro/jardesigner/services/simserver/middleware"
	"github.com/mooseneuro/jardesigner/services/simserver/relay"
	"github.com/mooseneuro/jardesigner/services/simserver/session"
	"github.com/mooseneuro/jardesigner/services/simserver/supervisor"
)

// SetupRoutes wires the full simulation server API: process lifecycle,
// session files, the websocket surface, the internal push ingress, the
// data-client group, and Prometheus metrics.
func SetupRoutes(router *gin.Engine, reg *relay.Registry, r *relay.Relay,
	sup *supervisor.Supervisor, store *session.Store,
	nmClient *dataclient.Client, nmStore *dataclient.Storage) {

	router.Use(middleware.CORS())

	router.GET("/", handlers.Index(reg, sup))
	router.GET("/health", handlers.Health())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/launch_simulation", handlers.LaunchSimulation(sup))
	router.GET("/simulation_status/:pid", handlers.SimulationStatus(sup))
	router.POST("/reset_simulation", handlers.ResetSimulation(sup))

	router.POST("/upload_file", handlers.UploadFile(store))
	router.GET("/session_file/:client_id/:filename", handlers.SessionFile(store))

	// Client-scoped routes resolve the caller from X-Client-ID.
	scoped := router.Group("/")
	scoped.Use(middleware.ClientSession(store))
	scoped.GET("/session_files", handlers.ListSessionFiles(store))

	// The frontend's socket client historically connected on /socket.io;
	// /ws is the plain name. Both serve the same handler.
	ws := handlers.HandleSocket(reg, r, sup, store)
	router.GET("/ws", ws)
	router.GET("/socket.io", ws)

	// Ingress for simulator processes only; deploys must keep it off the
	// public listener.
	internal := router.Group("/internal")
	{
		internal.POST("/push_data", handlers.PushData(r))
	}

	dataclient.RegisterRoutes(router.Group("/dataclient"), nmClient, nmStore)
}
