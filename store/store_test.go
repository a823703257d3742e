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

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/store"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("persist publishes tagged event test", func(t *testing.T) {
		be, err := backend.New(&backend.Config{
			Hostname:               "test",
			BlobBaseURL:            "http://localhost:8080",
			BlobSecretKey:          "test-secret",
			DownloadURLTTL:         "1m",
			PresenceStaleThreshold: "5m",
		}, nil, nil, nil)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, be.Shutdown())
		}()
		st := store.New(be)

		_, err = st.EnsureContents(ctx, "doc-1", "Notes", "alice")
		assert.NoError(t, err)

		events, unwatch, err := st.WatchDocument(ctx, "doc-1", "observer")
		assert.NoError(t, err)
		defer unwatch()

		contents := delta.New(delta.Insert("hello"))
		assert.NoError(t, st.PersistContents(ctx, "doc-1", contents, "writer"))

		event := <-events
		assert.Equal(t, types.ContentChanged, event.Type)
		assert.Equal(t, "writer", event.Publisher)
		assert.True(t, event.Content.Equal(contents))
		assert.False(t, event.UpdatedAt.IsZero())
		assert.Equal(t, time.UTC, event.UpdatedAt.Location())

		// The write is readable back through EnsureContents.
		read, err := st.EnsureContents(ctx, "doc-1", "Notes", "alice")
		assert.NoError(t, err)
		assert.True(t, read.Equal(contents))
	})

	t.Run("stale presences filtered test", func(t *testing.T) {
		be, err := backend.New(&backend.Config{
			Hostname:               "test",
			BlobBaseURL:            "http://localhost:8080",
			BlobSecretKey:          "test-secret",
			DownloadURLTTL:         "1m",
			PresenceStaleThreshold: "1ms",
		}, nil, nil, nil)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, be.Shutdown())
		}()
		st := store.New(be)

		assert.NoError(t, st.UpdatePresence(ctx, "doc-1", "p1", presence.Record{
			Name: "alice", Index: 1,
		}))

		time.Sleep(5 * time.Millisecond)

		participants, err := st.FindPresences(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Empty(t, participants)
	})
}
