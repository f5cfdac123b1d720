// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/circuitshare/internal/objstore"
	"github.com/pdiddy/circuitshare/internal/publish"
	"github.com/pdiddy/circuitshare/internal/store"
	"github.com/pdiddy/circuitshare/pkg/types"
)

// pipelineConfig assembles the stage configurations from viper, applying
// defaults for anything the config file and environment leave unset.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
		ObjectStore: types.ObjectStoreConfig{
			Backend:     types.ObjectStoreBackend(viper.GetString("object_store.backend")),
			BaseDir:     viper.GetString("object_store.base_dir"),
			BaseURL:     viper.GetString("object_store.base_url"),
			AccessToken: secretDefault("objstore-access-token", viper.GetString("object_store.access_token")),
			Timeout:     viper.GetDuration("object_store.timeout"),
			Kind:        viper.GetString("object_store.kind"),
			Layout:      types.KeyLayout(viper.GetString("object_store.layout")),
		},
		Publish: types.PublishConfig{
			MaxRetries: viper.GetInt("publish.max_retries"),
		},
	}

	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "data"
	}
	if cfg.ObjectStore.Backend == "" {
		cfg.ObjectStore.Backend = types.BackendLocal
	}
	if cfg.ObjectStore.BaseDir == "" {
		cfg.ObjectStore.BaseDir = "objects"
	}
	if cfg.ObjectStore.Timeout <= 0 {
		cfg.ObjectStore.Timeout = 30 * time.Second
	}
	return cfg
}

// openObjectStore returns the configured object-store adapter.
func openObjectStore(cfg types.ObjectStoreConfig) (objstore.Store, error) {
	switch cfg.Backend {
	case types.BackendLocal:
		return objstore.NewLocal(cfg.BaseDir)
	case types.BackendHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("object_store.base_url required for the http backend")
		}
		return objstore.NewHTTP(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported object store backend %q: use local or http", cfg.Backend)
	}
}

// newPublisher wires the version database, object store, and key strategy
// into a Publisher. The returned closer releases the database.
func newPublisher(cfg types.PipelineConfig) (*publish.Publisher, func() error, error) {
	db, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	objects, err := openObjectStore(cfg.ObjectStore)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	p := publish.New(db, objects, objstore.StrategyFor(cfg.ObjectStore), cfg.Publish, os.Stdout)
	return p, db.Close, nil
}
