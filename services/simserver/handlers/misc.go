// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mooseneuro/jardesigner/services/simserver/relay"
	"github.com/mooseneuro/jardesigner/services/simserver/supervisor"
)

// Health is the liveness probe.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Index summarizes server state: registered connections and the client
// simulation index. Meant for humans poking at the server, not for
// programmatic use.
func Index(reg *relay.Registry, sup *supervisor.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":             "jardesigner-simserver",
			"registered_clients":  reg.Snapshot(),
			"client_sim_registry": sup.Snapshot(),
		})
	}
}
