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

// Package broadcast relays document events between server nodes over
// Redis so that sessions attached to different nodes still converge.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/cmap"
	"github.com/doculink-team/doculink/server/backend/pubsub"
	"github.com/doculink-team/doculink/server/logging"
)

// Config is the configuration for the Redis relay.
type Config struct {
	// Addr is the address of the Redis server.
	Addr string `yaml:"Addr"`

	// Password is the password of the Redis server.
	Password string `yaml:"Password"`

	// DB is the Redis database to use.
	DB int `yaml:"DB"`
}

// Relay bridges the local in-memory PubSub and a Redis channel per
// document. Events published locally are mirrored to Redis; events
// received from Redis are replayed into the local PubSub.
type Relay struct {
	conf    *Config
	nodeID  string
	client  *redis.Client
	local   *pubsub.PubSub
	cancels *cmap.Map[string, context.CancelFunc]
}

// Dial connects to Redis and creates a Relay for the given node.
func Dial(conf *Config, nodeID string, local *pubsub.PubSub) (*Relay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", conf.Addr, err)
	}

	return &Relay{
		conf:    conf,
		nodeID:  nodeID,
		client:  client,
		local:   local,
		cancels: cmap.New[string, context.CancelFunc](),
	}, nil
}

// envelope wraps a DocEvent with the id of the node that relayed it so
// that a node can ignore its own messages coming back from Redis.
type envelope struct {
	NodeID string         `json:"node_id"`
	Event  types.DocEvent `json:"event"`
}

// Publish mirrors the given event to the document's Redis channel.
func (r *Relay) Publish(ctx context.Context, event types.DocEvent) error {
	payload, err := json.Marshal(envelope{NodeID: r.nodeID, Event: event})
	if err != nil {
		return fmt.Errorf("marshal doc event: %w", err)
	}

	if err := r.client.Publish(ctx, channelKey(event.DocID), payload).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

// Watch starts relaying events of the given document from Redis into
// the local PubSub. It is idempotent per document.
func (r *Relay) Watch(ctx context.Context, docID string) {
	if r.cancels.Has(docID) {
		return
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	r.cancels.Set(docID, cancel)

	sub := r.client.Subscribe(watchCtx, channelKey(docID))
	logger := logging.From(ctx)

	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				logger.Warnf("close redis subscription: %v", err)
			}
		}()

		for msg := range sub.Channel() {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warnf("unmarshal relayed event: %v", err)
				continue
			}
			if env.NodeID == r.nodeID {
				continue
			}
			r.local.Publish(watchCtx, env.Event)
		}
	}()
}

// Unwatch stops relaying events of the given document.
func (r *Relay) Unwatch(docID string) {
	r.cancels.Delete(docID, func(cancel context.CancelFunc, exists bool) bool {
		if exists {
			cancel()
		}
		return exists
	})
}

// Close stops every watcher and closes the Redis connection.
func (r *Relay) Close() error {
	for _, docID := range r.cancels.Keys() {
		r.Unwatch(docID)
	}
	return r.client.Close()
}

func channelKey(docID string) string {
	return "doculink:doc:" + docID
}
