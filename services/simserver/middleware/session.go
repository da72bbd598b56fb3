// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mooseneuro/jardesigner/services/simserver/session"
)

// clientIDKey is the context key holding the validated client id.
const clientIDKey = "jardesigner_client_id"

// ClientSession validates the X-Client-ID header, ensures the client's
// session directory exists, and stores the id in the Gin context. Routes
// that operate on per-client data mount this so handlers can assume the
// directory is there.
func ClientSession(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("X-Client-ID")
		if clientID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "X-Client-ID header is required",
			})
			return
		}
		if _, err := store.EnsureDir(clientID); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Set(clientIDKey, clientID)
		c.Next()
	}
}

// GetClientID returns the client id stored by ClientSession, or "" when
// the middleware did not run on this route.
func GetClientID(c *gin.Context) string {
	if v, ok := c.Get(clientIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
