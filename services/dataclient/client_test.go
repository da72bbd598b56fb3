// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTP routes requests to canned responses by URL substring.
type mockHTTP struct {
	mu        sync.Mutex
	responses map[string]mockResponse
	requests  []string
}

type mockResponse struct {
	status int
	body   string
}

func newMockHTTP() *mockHTTP {
	return &mockHTTP{responses: make(map[string]mockResponse)}
}

func (m *mockHTTP) on(substr string, status int, body string) {
	m.responses[substr] = mockResponse{status: status, body: body}
}

func (m *mockHTTP) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req.URL.String())
	m.mu.Unlock()

	for substr, resp := range m.responses {
		if strings.Contains(req.URL.String(), substr) {
			return &http.Response{
				StatusCode: resp.status,
				Body:       io.NopCloser(strings.NewReader(resp.body)),
			}, nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func newMockClient() (*Client, *mockHTTP) {
	mock := newMockHTTP()
	return &Client{
		BaseURL:    "https://neuromorpho.test",
		UserAgent:  "test-agent",
		HTTPClient: mock,
	}, mock
}

func TestFetchSpecies(t *testing.T) {
	client, mock := newMockClient()
	mock.on("/api/neuron/fields/species", 200,
		`{"fields":["Danio rerio","Mus musculus"]}`)

	species, err := client.FetchSpecies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Danio rerio", "Mus musculus"}, species)
}

func TestFetchNeuron(t *testing.T) {
	client, mock := newMockClient()
	mock.on("/api/neuron/name/cnic_001", 200,
		`{"neuron_id":1,"neuron_name":"cnic_001","archive":"Wearne_Hof","species":"monkey"}`)

	neuron, err := client.FetchNeuron(context.Background(), "cnic_001")
	require.NoError(t, err)
	assert.Equal(t, "cnic_001", neuron.NeuronName)
	assert.Equal(t, "Wearne_Hof", neuron.Archive)
}

func TestFetchNeuronUpstreamError(t *testing.T) {
	client, mock := newMockClient()
	mock.on("/api/neuron/name/broken", 500, "oops")

	_, err := client.FetchNeuron(context.Background(), "broken")
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestSearchNeurons(t *testing.T) {
	client, mock := newMockClient()
	mock.on("/api/neuron/select", 200, `{
		"_embedded":{"neuronResources":[
			{"neuron_id":1,"neuron_name":"n1"},
			{"neuron_id":2,"neuron_name":"n2"}
		]},
		"page":{"size":100,"totalElements":2,"totalPages":1,"number":0}
	}`)

	neurons, pages, err := client.SearchNeurons(context.Background(), "species:Danio rerio", 0)
	require.NoError(t, err)
	assert.Len(t, neurons, 2)
	assert.Equal(t, 1, pages)
}

func TestFetchAllForSpeciesWalksPages(t *testing.T) {
	client, mock := newMockClient()
	mock.on("page=0", 200, `{
		"_embedded":{"neuronResources":[{"neuron_id":1,"neuron_name":"n1"}]},
		"page":{"totalPages":3,"number":0}
	}`)
	mock.on("page=1", 200, `{
		"_embedded":{"neuronResources":[{"neuron_id":2,"neuron_name":"n2"}]},
		"page":{"totalPages":3,"number":1}
	}`)
	mock.on("page=2", 200, `{
		"_embedded":{"neuronResources":[{"neuron_id":3,"neuron_name":"n3"}]},
		"page":{"totalPages":3,"number":2}
	}`)

	neurons, err := client.FetchAllForSpecies(context.Background(), "Danio rerio")
	require.NoError(t, err)
	require.Len(t, neurons, 3)
	assert.Equal(t, "n1", neurons[0].NeuronName)
	assert.Equal(t, "n3", neurons[2].NeuronName)
}

func TestSWCURLEscapesPath(t *testing.T) {
	client, _ := newMockClient()
	url := client.SWCURL("Wearne_Hof", "cnic_001")
	assert.Equal(t,
		"https://neuromorpho.test/dableFiles/Wearne_Hof/CNG%20version/cnic_001.CNG.swc", url)
}

func TestFetchManySWCPartialFailure(t *testing.T) {
	client, mock := newMockClient()
	mock.on("good.CNG.swc", 200, "1 1 0 0 0 1 -1\n")
	// "bad" falls through to the mock's 404 default.

	bodies, failed := client.FetchManySWC(context.Background(), []NeuronMetadata{
		{NeuronName: "good", Archive: "arch"},
		{NeuronName: "bad", Archive: "arch"},
	})
	assert.Len(t, bodies, 1)
	assert.Contains(t, bodies, "good")
	assert.Equal(t, []string{"bad"}, failed)
}

func TestUserAgentHeaderSet(t *testing.T) {
	client, mock := newMockClient()
	mock.on("/api/neuron/fields/species", 200, `{"fields":[]}`)

	checked := false
	client.HTTPClient = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "test-agent", req.Header.Get("User-Agent"))
		checked = true
		return mock.Do(req)
	})

	_, err := client.FetchSpecies(context.Background())
	require.NoError(t, err)
	assert.True(t, checked)
}

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }
