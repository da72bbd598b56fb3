// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the NeuroMorpho REST API root.
const DefaultBaseURL = "https://neuromorpho.org"

// maxConcurrentFetches bounds parallel requests against NeuroMorpho; the
// archive throttles aggressive clients.
const maxConcurrentFetches = 10

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the NeuroMorpho archive.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient HTTPClient
}

// NewClient builds a Client with a 30s-timeout HTTP client.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		UserAgent:  "MOOSENeuro / ashish@ncbs.res.in",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return body, nil
}

// FetchSpecies lists the species values known to the archive.
func (c *Client) FetchSpecies(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.BaseURL+"/api/neuron/fields/species")
	if err != nil {
		return nil, err
	}
	var fields fieldsResponse
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode species response: %w", err)
	}
	return fields.Fields, nil
}

// FetchNeuron retrieves one neuron's metadata record by name.
func (c *Client) FetchNeuron(ctx context.Context, name string) (*NeuronMetadata, error) {
	body, err := c.get(ctx, c.BaseURL+"/api/neuron/name/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	var neuron NeuronMetadata
	if err := json.Unmarshal(body, &neuron); err != nil {
		return nil, fmt.Errorf("decode neuron %s: %w", name, err)
	}
	return &neuron, nil
}

// SearchNeurons runs a fielded query (for example "species:Danio rerio")
// and returns one result page plus the total page count.
func (c *Client) SearchNeurons(ctx context.Context, query string, page int) ([]NeuronMetadata, int, error) {
	u := fmt.Sprintf("%s/api/neuron/select?q=%s&page=%d&size=100",
		c.BaseURL, url.QueryEscape(query), page)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, 0, err
	}
	var result neuronPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	return result.Embedded.NeuronResources, result.Page.TotalPages, nil
}

// FetchAllForSpecies walks every result page for a species. Pages are
// fetched concurrently after the first one reveals the page count.
func (c *Client) FetchAllForSpecies(ctx context.Context, species string) ([]NeuronMetadata, error) {
	query := "species:" + species
	first, totalPages, err := c.SearchNeurons(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	if totalPages <= 1 {
		return first, nil
	}

	var mu sync.Mutex
	pages := make([][]NeuronMetadata, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for p := 1; p < totalPages; p++ {
		g.Go(func() error {
			neurons, _, err := c.SearchNeurons(gctx, query, p)
			if err != nil {
				return err
			}
			mu.Lock()
			pages[p] = neurons
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []NeuronMetadata
	for _, page := range pages {
		all = append(all, page...)
	}
	return all, nil
}

// SWCURL builds the download URL for a neuron's standardized morphology.
func (c *Client) SWCURL(archive, name string) string {
	return fmt.Sprintf("%s/dableFiles/%s/CNG%%20version/%s.CNG.swc",
		c.BaseURL, url.PathEscape(archive), url.PathEscape(name))
}

// FetchSWC downloads one neuron's standardized SWC morphology.
func (c *Client) FetchSWC(ctx context.Context, archive, name string) ([]byte, error) {
	return c.get(ctx, c.SWCURL(archive, name))
}

// FetchManySWC downloads morphologies for a neuron set concurrently and
// returns the bodies keyed by neuron name plus the names that failed.
// A partial result is still a result; one bad neuron does not abort the
// batch.
func (c *Client) FetchManySWC(ctx context.Context, neurons []NeuronMetadata) (map[string][]byte, []string) {
	var mu sync.Mutex
	bodies := make(map[string][]byte, len(neurons))
	var failed []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, n := range neurons {
		g.Go(func() error {
			body, err := c.FetchSWC(gctx, n.Archive, n.NeuronName)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("SWC download failed", "neuron", n.NeuronName, "error", err)
				failed = append(failed, n.NeuronName)
				return nil
			}
			bodies[n.NeuronName] = body
			return nil
		})
	}
	_ = g.Wait()
	return bodies, failed
}
