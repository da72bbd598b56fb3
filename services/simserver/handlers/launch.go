// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the simulation server's HTTP and WebSocket
// endpoints.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mooseneuro/jardesigner/services/simserver/datatypes"
	"github.com/mooseneuro/jardesigner/services/simserver/supervisor"
)

// LaunchSimulation starts a simulation process for the requesting client.
// A client that already has a running simulation gets it replaced; the
// previous process is terminated before the new one starts.
func LaunchSimulation(sup *supervisor.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LaunchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("Rejected malformed launch request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "config_data and client_id are required"})
			return
		}

		res, err := sup.Launch(req.ClientID, req.ConfigData)
		if err != nil {
			if errors.Is(err, supervisor.ErrInvalidRequest) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			slog.Error("Failed to launch simulation", "client_id", req.ClientID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to launch simulation"})
			return
		}

		c.JSON(http.StatusOK, datatypes.LaunchResponse{
			Status:        "success",
			PID:           res.PID,
			SVGFilename:   res.ArtifactName,
			DataChannelID: res.DataChannelID,
		})
	}
}

// SimulationStatus reports the lifecycle state of a launched process.
func SimulationStatus(sup *supervisor.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		pid, err := strconv.Atoi(c.Param("pid"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pid must be an integer"})
			return
		}

		status := sup.Status(pid)
		if status == supervisor.StatusNotFound {
			c.JSON(http.StatusNotFound, datatypes.StatusResponse{
				Status: string(status), PID: pid,
			})
			return
		}
		c.JSON(http.StatusOK, datatypes.StatusResponse{
			Status: string(status), PID: pid,
		})
	}
}

// ResetSimulation terminates a tracked simulation by pid. Unknown pids
// get a 404; a pid whose process already exited still resets cleanly.
func ResetSimulation(sup *supervisor.Supervisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PID missing"})
			return
		}

		if !sup.Terminate(req.PID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no running simulation with that PID"})
			return
		}
		slog.Info("Reset terminated simulation", "pid", req.PID, "client_id", req.ClientID)
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "PID " + strconv.Itoa(req.PID) + " reset",
		})
	}
}
