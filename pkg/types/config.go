// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StoreConfig holds settings for the version database.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database file.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ObjectStoreBackend identifies the object-store adapter.
type ObjectStoreBackend string

const (
	BackendLocal ObjectStoreBackend = "local"
	BackendHTTP  ObjectStoreBackend = "http"
)

// KeyLayout selects the object-key naming generation.
type KeyLayout string

const (
	// LayoutVersioned keys objects as <kind>/<id>-v<version>-<variant>.
	LayoutVersioned KeyLayout = "versioned"
	// LayoutFlat keys objects as <kind>/<id>/<variant>, the first
	// deployment generation. Flat keys carry no version number.
	LayoutFlat KeyLayout = "flat"
)

// ObjectStoreConfig holds settings for the object-store collaborator.
type ObjectStoreConfig struct {
	// Backend selects the adapter: local or http.
	Backend ObjectStoreBackend `json:"backend" yaml:"backend"`

	// BaseDir is the root directory for the local backend.
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// BaseURL is the endpoint for the http backend (e.g. "https://objects.internal").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// AccessToken authenticates requests to the http backend. Usually
	// loaded from .secrets/objstore-access-token rather than config.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// Timeout is the HTTP request timeout for the http backend.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Kind is the key prefix grouping schematic objects (default "schematics").
	Kind string `json:"kind" yaml:"kind"`

	// Layout selects the key naming generation: versioned or flat.
	Layout KeyLayout `json:"layout" yaml:"layout"`
}

// PublishConfig holds settings for the versioned publisher.
type PublishConfig struct {
	// MaxRetries bounds the optimistic-concurrency allocation loop
	// (default 5). The publisher fails rather than retry forever.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Store       StoreConfig       `json:"store" yaml:"store"`
	ObjectStore ObjectStoreConfig `json:"object_store" yaml:"object_store"`
	Publish     PublishConfig     `json:"publish" yaml:"publish"`
}
