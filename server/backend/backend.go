/*
 * Copyright 2025 The DocuLink Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package backend provides the backend implementation of DocuLink. This
// package is responsible for managing the database, blob storage and
// other resources required to run the server.
package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/xid"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/server/backend/blob"
	"github.com/doculink-team/doculink/server/backend/broadcast"
	"github.com/doculink-team/doculink/server/backend/database"
	memdb "github.com/doculink-team/doculink/server/backend/database/memory"
	"github.com/doculink-team/doculink/server/backend/database/mongo"
	"github.com/doculink-team/doculink/server/backend/pubsub"
	"github.com/doculink-team/doculink/server/logging"
	"github.com/doculink-team/doculink/server/profiling/prometheus"
)

// Backend manages DocuLink's backend such as Database, blob storage and
// PubSub. It is passed to the RPC handlers.
type Backend struct {
	Config *Config

	// NodeID identifies this node in the relay channel.
	NodeID string

	// PubSub is used to publish/subscribe events to/from sessions.
	PubSub *pubsub.PubSub
	// Relay mirrors events across nodes. It is nil when Redis is not
	// configured.
	Relay *broadcast.Relay

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// DB is the database instance.
	DB database.Database
	// Blob is the blob storage for snapshot content.
	Blob blob.Store
}

// New creates a new instance of Backend.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	redisConf *broadcast.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	hostname := conf.Hostname
	if hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}
	nodeID := conf.Hostname + "-" + xid.New().String()

	// If the MongoDB configuration is given, create a MongoDB instance.
	// Otherwise, create a memory database instance.
	var db database.Database
	var err error
	if mongoConf != nil {
		db, err = mongo.Dial(mongoConf)
		if err != nil {
			return nil, err
		}
	} else {
		db, err = memdb.New()
		if err != nil {
			return nil, err
		}
	}

	signer := blob.NewURLSigner(
		conf.BlobBaseURL,
		[]byte(conf.BlobSecretKey),
		conf.ParseDownloadURLTTL(),
	)

	// If a blob directory is given, keep snapshot blobs in SQLite under
	// it. Otherwise, keep them in memory.
	var blobStore blob.Store
	if conf.BlobDir != "" {
		blobStore, err = blob.NewSQLiteStore(conf.BlobDir, signer)
		if err != nil {
			return nil, err
		}
	} else {
		blobStore = blob.NewMemStore(signer)
	}

	ps := pubsub.New()

	var relay *broadcast.Relay
	if redisConf != nil {
		relay, err = broadcast.Dial(redisConf, nodeID, ps)
		if err != nil {
			return nil, err
		}
	}

	dbInfo := "memory"
	if mongoConf != nil {
		dbInfo = mongoConf.ConnectionURI
	}
	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config: conf,
		NodeID: nodeID,

		PubSub: ps,
		Relay:  relay,

		Metrics: metrics,
		DB:      db,
		Blob:    blobStore,
	}, nil
}

// Publish publishes the given event to the local PubSub and, if a relay
// is configured, to the other nodes.
func (b *Backend) Publish(ctx context.Context, event types.DocEvent) {
	b.PubSub.Publish(ctx, event)

	if b.Metrics != nil {
		b.Metrics.AddDocEvent(string(event.Type))
	}

	if b.Relay != nil {
		if err := b.Relay.Publish(ctx, event); err != nil {
			logging.From(ctx).Warnf("relay event: %v", err)
		}
	}
}

// Shutdown closes all resources of this backend.
func (b *Backend) Shutdown() error {
	if b.Relay != nil {
		if err := b.Relay.Close(); err != nil {
			logging.DefaultLogger().Warnf("close relay: %v", err)
		}
	}

	if err := b.Blob.Close(); err != nil {
		logging.DefaultLogger().Warnf("close blob store: %v", err)
	}

	if err := b.DB.Close(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
