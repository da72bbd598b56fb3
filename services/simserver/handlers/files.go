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
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mooseneuro/jardesigner/services/simserver/datatypes"
	"github.com/mooseneuro/jardesigner/services/simserver/middleware"
	"github.com/mooseneuro/jardesigner/services/simserver/session"
)

// maxUploadBytes caps a single uploaded file at 50 MiB. Morphology and
// channel files are small; anything larger is a mistake.
const maxUploadBytes = 50 << 20

// SessionFile serves a file out of the client's session directory. Both
// path parameters are validated so the lookup can never leave the
// session root.
func SessionFile(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.Param("client_id")
		filename := c.Param("filename")

		path, err := store.FilePath(clientID, filename)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.File(path)
	}
}

// ListSessionFiles lists the files currently in the requesting client's
// session directory. The client id comes from the session middleware.
func ListSessionFiles(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := middleware.GetClientID(c)
		dir, err := store.Path(clientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list session files"})
			return
		}
		files := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, e.Name())
			}
		}
		c.JSON(http.StatusOK, gin.H{"client_id": clientID, "files": files})
	}
}

// UploadFile stores a multipart file in the client's session directory.
// The stored name is the sanitized base name of the upload.
func UploadFile(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.PostForm("clientId")
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}
		if file.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}

		if _, err := store.EnsureDir(clientID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dest, err := store.FilePath(clientID, file.Filename)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := c.SaveUploadedFile(file, dest); err != nil {
			slog.Error("Failed to store upload",
				"client_id", clientID, "filename", file.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
			return
		}

		slog.Info("Stored uploaded file",
			"client_id", clientID, "filename", filepath.Base(dest), "bytes", file.Size)
		c.JSON(http.StatusOK, datatypes.UploadResponse{
			Status:   "success",
			Filename: filepath.Base(dest),
		})
	}
}
