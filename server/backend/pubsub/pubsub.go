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

// Package pubsub provides an in-memory publish/subscribe channel that
// fans out document events to every session attached to a document.
package pubsub

import (
	"context"

	"go.uber.org/zap"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/cmap"
	"github.com/doculink-team/doculink/server/logging"
)

// PubSub is the memory implementation of PubSub, used for a single server.
type PubSub struct {
	subsMap *cmap.Map[string, *Subscriptions]
}

// New creates an instance of PubSub.
func New() *PubSub {
	return &PubSub{
		subsMap: cmap.New[string, *Subscriptions](),
	}
}

// Subscribe subscribes to events of the given document. It returns the
// new subscription and the subscribers that were already attached to
// the document before it, in no particular order.
func (m *PubSub) Subscribe(
	ctx context.Context,
	subscriber string,
	docID string,
) (*Subscription, []string) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) Start`, docID, subscriber)
	}

	sub := NewSubscription(subscriber)
	var peers []string
	m.subsMap.Upsert(docID, func(subs *Subscriptions, exists bool) *Subscriptions {
		if !exists {
			subs = newSubscriptions(docID)
		}
		for _, prev := range subs.Values() {
			peers = append(peers, prev.Subscriber())
		}
		subs.Set(sub)
		return subs
	})

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) End`, docID, subscriber)
	}

	return sub, peers
}

// Unsubscribe unsubscribes the given subscription from the document.
func (m *PubSub) Unsubscribe(
	ctx context.Context,
	docID string,
	sub *Subscription,
) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) Start`, docID, sub.Subscriber())
	}

	sub.Close()

	if subs, ok := m.subsMap.Get(docID); ok {
		subs.Delete(sub.ID())

		m.subsMap.Delete(docID, func(subs *Subscriptions, exists bool) bool {
			return exists && subs.Len() == 0
		})
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) End`, docID, sub.Subscriber())
	}
}

// Publish publishes the given event to every subscription of the
// document, including the publisher's own. Subscribers are responsible
// for dropping events whose Publisher matches their own id.
func (m *PubSub) Publish(ctx context.Context, event types.DocEvent) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Publish(%s,%s) Start`, event.DocID, event.Publisher)
	}

	if subs, ok := m.subsMap.Get(event.DocID); ok {
		subs.Publish(event)
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Publish(%s,%s) End`, event.DocID, event.Publisher)
	}
}

// SubscriberIDs returns the ids of the subscribers attached to the document.
func (m *PubSub) SubscriberIDs(docID string) []string {
	subs, ok := m.subsMap.Get(docID)
	if !ok {
		return nil
	}

	var ids []string
	for _, sub := range subs.Values() {
		ids = append(ids, sub.Subscriber())
	}
	return ids
}
