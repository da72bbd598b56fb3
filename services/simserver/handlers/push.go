// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mooseneuro/jardesigner/services/simserver/datatypes"
	"github.com/mooseneuro/jardesigner/services/simserver/observability"
	"github.com/mooseneuro/jardesigner/services/simserver/relay"
)

// PushData is the internal ingress for simulator processes: a child posts
// its streaming payload here and the relay fans it out to every websocket
// subscribed to the channel. Always 200; delivery is fire-and-forget and
// a channel nobody joined swallows the payload.
func PushData(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.PushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data_channel_id and payload are required"})
			return
		}

		var payload any
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be valid JSON"})
			return
		}
		// A literal null passes binding (the raw message holds "null");
		// nothing downstream can use an empty payload.
		if payload == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload must not be null"})
			return
		}

		delivered := r.Publish(req.DataChannelID, payload)
		m := observability.Metrics()
		if delivered > 0 {
			m.RelayPublishesTotal.WithLabelValues("yes").Inc()
		} else {
			m.RelayPublishesTotal.WithLabelValues("dropped").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "delivered": delivered})
	}
}
