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

package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/client"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/presence"
)

// fakeCursorView records cursor operations for assertions.
type fakeCursorView struct {
	mu      sync.Mutex
	created []string
	moves   map[string]client.Selection
	removed []string
}

func newFakeCursorView() *fakeCursorView {
	return &fakeCursorView{moves: make(map[string]client.Selection)}
}

func (v *fakeCursorView) CreateCursor(id, name, color string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.created = append(v.created, id)
}

func (v *fakeCursorView) MoveCursor(id string, index, length int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.moves[id] = client.Selection{Index: index, Length: length}
}

func (v *fakeCursorView) RemoveCursor(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed = append(v.removed, id)
}

func (v *fakeCursorView) createdCount(id string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, created := range v.created {
		if created == id {
			count++
		}
	}
	return count
}

func (v *fakeCursorView) position(id string) (client.Selection, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	sel, ok := v.moves[id]
	return sel, ok
}

func (v *fakeCursorView) removedCount(id string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, removed := range v.removed {
		if removed == id {
			count++
		}
	}
	return count
}

func TestOverlay(t *testing.T) {
	t.Run("create once then move test", func(t *testing.T) {
		view := newFakeCursorView()
		overlay := client.NewOverlay(view, "self", presence.DefaultStaleThreshold)

		rec := presence.Record{
			Name: "bob", Color: presence.ColorFor("peer"),
			Index: 3, Length: 0, UpdatedAt: time.Now(),
		}
		overlay.Update("peer", rec)

		rec.Index = 7
		overlay.Update("peer", rec)

		assert.Equal(t, 1, view.createdCount("peer"))
		sel, ok := view.position("peer")
		assert.True(t, ok)
		assert.Equal(t, client.Selection{Index: 7, Length: 0}, sel)
	})

	t.Run("hidden record never decorates test", func(t *testing.T) {
		view := newFakeCursorView()
		overlay := client.NewOverlay(view, "self", presence.DefaultStaleThreshold)

		overlay.Update("peer", presence.Hidden("bob", presence.ColorFor("peer")))

		assert.Equal(t, 0, view.createdCount("peer"))
		_, ok := view.position("peer")
		assert.False(t, ok)
	})

	t.Run("hiding removes existing cursor test", func(t *testing.T) {
		view := newFakeCursorView()
		overlay := client.NewOverlay(view, "self", presence.DefaultStaleThreshold)

		overlay.Update("peer", presence.Record{
			Name: "bob", Color: presence.ColorFor("peer"),
			Index: 3, UpdatedAt: time.Now(),
		})
		overlay.Update("peer", presence.Hidden("bob", presence.ColorFor("peer")))

		assert.Equal(t, 1, view.removedCount("peer"))
	})

	t.Run("own record is ignored test", func(t *testing.T) {
		view := newFakeCursorView()
		overlay := client.NewOverlay(view, "self", presence.DefaultStaleThreshold)

		overlay.Update("self", presence.Record{
			Name: "me", Index: 1, UpdatedAt: time.Now(),
		})

		assert.Equal(t, 0, view.createdCount("self"))
	})

	t.Run("stale record removes cursor test", func(t *testing.T) {
		view := newFakeCursorView()
		overlay := client.NewOverlay(view, "self", time.Minute)

		overlay.Update("peer", presence.Record{
			Name: "bob", Index: 3, UpdatedAt: time.Now(),
		})
		overlay.Update("peer", presence.Record{
			Name: "bob", Index: 3, UpdatedAt: time.Now().Add(-2 * time.Minute),
		})

		assert.Equal(t, 1, view.removedCount("peer"))
	})

	t.Run("apply removes absent participants test", func(t *testing.T) {
		view := newFakeCursorView()
		overlay := client.NewOverlay(view, "self", presence.DefaultStaleThreshold)

		overlay.Update("peer", presence.Record{
			Name: "bob", Index: 3, UpdatedAt: time.Now(),
		})

		overlay.Apply(nil)
		assert.Equal(t, 1, view.removedCount("peer"))
	})
}

func TestPresenceChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("selection propagates to peers test", func(t *testing.T) {
		st := newTestStore(t)

		editorA := client.NewTextEditor(delta.New(delta.Insert("shared text")))
		sessionA, err := client.New(st, "alice").Attach(ctx, "doc-presence", editorA)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, sessionA.Close(ctx))
		}()

		view := newFakeCursorView()
		editorB := client.NewTextEditor(delta.Delta{})
		sessionB, err := client.New(st, "bob").Attach(ctx, "doc-presence", editorB,
			client.WithCursorView(view))
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, sessionB.Close(ctx))
		}()

		// Attaching leaves the cursor hidden, so nothing is rendered yet.
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 0, view.createdCount(sessionA.ID()))

		assert.NoError(t, sessionA.UpdateSelection(ctx, client.Selection{Index: 6, Length: 4}))

		assert.Eventually(t, func() bool {
			sel, ok := view.position(sessionA.ID())
			return ok && sel == client.Selection{Index: 6, Length: 4}
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, view.createdCount(sessionA.ID()))

		// Hiding removes the cursor from the peer's overlay.
		assert.NoError(t, sessionA.HideCursor(ctx))
		assert.Eventually(t, func() bool {
			return view.removedCount(sessionA.ID()) == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("closing detaches presence test", func(t *testing.T) {
		st := newTestStore(t)

		editorA := client.NewTextEditor(delta.Delta{})
		sessionA, err := client.New(st, "alice").Attach(ctx, "doc-detach", editorA)
		assert.NoError(t, err)

		editorB := client.NewTextEditor(delta.Delta{})
		sessionB, err := client.New(st, "bob").Attach(ctx, "doc-detach", editorB)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, sessionB.Close(ctx))
		}()

		participants, err := sessionB.Participants(ctx)
		assert.NoError(t, err)
		assert.Len(t, participants, 2)

		assert.NoError(t, sessionA.Close(ctx))

		participants, err = sessionB.Participants(ctx)
		assert.NoError(t, err)
		assert.Len(t, participants, 1)
		assert.Equal(t, sessionB.ID(), participants[0].ID)
	})
}
