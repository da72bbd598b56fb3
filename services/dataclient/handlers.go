// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataclient

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the data-client API onto a route group.
func RegisterRoutes(rg *gin.RouterGroup, client *Client, store *Storage) {
	rg.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dataclient"})
	})

	rg.GET("/neuromorpho/species", handleSpecies(client))
	rg.GET("/neuromorpho/neuron/:name", handleNeuron(client))
	rg.GET("/neuromorpho/search", handleSearch(client))
	rg.POST("/submit", handleSubmit(client, store))
	rg.POST("/save_cart", handleSaveCart(store))
	rg.GET("/neuron-data", handleListClients(store))
	rg.GET("/neuron-data/:client_name", handleNeuronData(store))
	rg.DELETE("/neuron-data/:client_name", handleDeleteNeuronData(store))
	rg.DELETE("/neuron-data/:client_name/:neuron_name", handleDeleteClientNeuron(store))
	rg.GET("/storage-info", handleStorageInfo(store))
}

func handleSpecies(client *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		species, err := client.FetchSpecies(c.Request.Context())
		if err != nil {
			slog.Error("Failed to fetch species list", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch species list"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"species": species})
	}
}

func handleNeuron(client *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		neuron, err := client.FetchNeuron(c.Request.Context(), name)
		if err != nil {
			slog.Error("Failed to fetch neuron", "name", name, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch neuron"})
			return
		}
		c.JSON(http.StatusOK, neuron)
	}
}

func handleSearch(client *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
			return
		}
		if c.Query("all_pages") == "true" {
			neurons, err := client.FetchAllForSpecies(c.Request.Context(), query)
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"neurons": neurons, "count": len(neurons)})
			return
		}

		neurons, totalPages, err := client.SearchNeurons(c.Request.Context(), query, 0)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"neurons": neurons, "total_pages": totalPages})
	}
}

// handleSubmit downloads morphologies for the requested neurons into the
// shared SWC pool and records the metadata under the client's name.
// Partial failure is reported, not fatal.
func handleSubmit(client *Client, store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_name and neurons are required"})
			return
		}

		// Skip neurons already in the pool.
		var toFetch []NeuronMetadata
		saved := make([]string, 0, len(req.Neurons))
		for _, n := range req.Neurons {
			if store.HasSWC(n.NeuronName) {
				saved = append(saved, n.NeuronName)
				continue
			}
			toFetch = append(toFetch, n)
		}

		bodies, failed := client.FetchManySWC(c.Request.Context(), toFetch)
		for name, body := range bodies {
			if _, err := store.SaveSWC(name, body); err != nil {
				slog.Error("Failed to store SWC", "neuron", name, "error", err)
				failed = append(failed, name)
				continue
			}
			saved = append(saved, name)
		}

		if err := store.AppendClientMetadata(req.ClientName, req.Neurons); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		slog.Info("Stored neuron selection", "client", req.ClientName,
			"saved", len(saved), "failed", len(failed))
		c.JSON(http.StatusOK, SubmitResponse{
			Status: "success", Saved: saved, Failed: failed,
		})
	}
}

func handleSaveCart(store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_name and neurons are required"})
			return
		}
		if err := store.AppendClientMetadata(req.ClientName, req.Neurons); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(req.Neurons)})
	}
}

func handleListClients(store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		clients, err := store.Clients()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list clients"})
			return
		}
		if clients == nil {
			clients = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"clients": clients, "count": len(clients)})
	}
}

func handleNeuronData(store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		neurons, err := store.ClientMetadata(c.Param("client_name"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"neurons": neurons, "count": len(neurons)})
	}
}

func handleDeleteNeuronData(store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientName := c.Param("client_name")
		if err := store.DeleteClientMetadata(clientName); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Deleted client neuron selection", "client", clientName)
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_client": clientName})
	}
}

// handleDeleteClientNeuron drops one neuron from the client's selection.
// The pooled SWC file goes with it when no other client still lists the
// neuron.
func handleDeleteClientNeuron(store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientName := c.Param("client_name")
		neuronName := c.Param("neuron_name")

		err := store.DeleteClientNeuron(clientName, neuronName)
		if errors.Is(err, ErrNeuronNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Deleted neuron from client selection",
			"client", clientName, "neuron", neuronName)
		c.JSON(http.StatusOK, gin.H{
			"status": "success", "client": clientName, "deleted_neuron": neuronName,
		})
	}
}

func handleStorageInfo(store *Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := store.Info()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to inspect storage"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}
