// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dataclient fetches neuron morphology data from the NeuroMorpho
// archive and stores per-client selections on local disk.
package dataclient

// NeuronMetadata is the subset of NeuroMorpho's neuron record the
// frontend cares about. Field names follow the upstream API.
type NeuronMetadata struct {
	NeuronID    int      `json:"neuron_id"`
	NeuronName  string   `json:"neuron_name"`
	Archive     string   `json:"archive"`
	Species     string   `json:"species"`
	BrainRegion []string `json:"brain_region"`
	CellType    []string `json:"cell_type"`
	PngURL      string   `json:"png_url"`
}

// neuronPage mirrors NeuroMorpho's paged search response envelope.
type neuronPage struct {
	Embedded struct {
		NeuronResources []NeuronMetadata `json:"neuronResources"`
	} `json:"_embedded"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

// fieldsResponse mirrors NeuroMorpho's field-values endpoint.
type fieldsResponse struct {
	Fields []string `json:"fields"`
}

// SubmitRequest asks the server to download the SWC morphologies for a
// set of neurons on behalf of a client.
type SubmitRequest struct {
	ClientName string           `json:"client_name" binding:"required"`
	Neurons    []NeuronMetadata `json:"neurons" binding:"required"`
}

// SubmitResponse reports which downloads succeeded and which failed.
type SubmitResponse struct {
	Status string   `json:"status"`
	Saved  []string `json:"saved"`
	Failed []string `json:"failed"`
}

// CartRequest stores a client's metadata selection without downloading
// the morphology files.
type CartRequest struct {
	ClientName string           `json:"client_name" binding:"required"`
	Neurons    []NeuronMetadata `json:"neurons" binding:"required"`
}

// StorageInfo summarizes local disk usage of the data store.
type StorageInfo struct {
	SWCBytes      int64 `json:"swc_bytes"`
	MetadataBytes int64 `json:"metadata_bytes"`
}
