// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// apiClient is a thin wrapper over the simulation server's HTTP API.
type apiClient struct {
	baseURL string
	http    HTTPClient
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: server returned %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *apiClient) health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server reported status %q", resp.Status)
	}
	return nil
}

type launchResult struct {
	Status        string `json:"status"`
	PID           int    `json:"pid"`
	SVGFilename   string `json:"svg_filename"`
	DataChannelID string `json:"data_channel_id"`
}

func (c *apiClient) launch(ctx context.Context, clientID string, configData json.RawMessage) (*launchResult, error) {
	var resp launchResult
	err := c.do(ctx, http.MethodPost, "/launch_simulation", map[string]any{
		"client_id":   clientID,
		"config_data": configData,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) status(ctx context.Context, pid int) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/simulation_status/%d", pid), nil, &resp)
	if err != nil {
		// A 404 still carries a status body; surface not_found cleanly.
		if strings.Contains(err.Error(), "not_found") {
			return "not_found", nil
		}
		return "", err
	}
	return resp.Status, nil
}

func (c *apiClient) reset(ctx context.Context, pid int) (string, error) {
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/reset_simulation", map[string]int{
		"pid": pid,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
