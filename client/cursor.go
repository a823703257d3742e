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

package client

import (
	"sync"
	"time"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/presence"
)

// CursorView renders remote cursors on the editing surface.
type CursorView interface {
	// CreateCursor registers a cursor for the given participant.
	CreateCursor(id, name, color string)

	// MoveCursor moves the cursor of the given participant.
	MoveCursor(id string, index, length int)

	// RemoveCursor removes the cursor of the given participant.
	RemoveCursor(id string)
}

// Overlay keeps the cursor view in sync with the presence channel. A
// cursor is created at most once per participant and then only moved,
// and is removed when the participant leaves or hides their cursor.
type Overlay struct {
	mu             sync.Mutex
	view           CursorView
	selfID         string
	staleThreshold time.Duration
	created        map[string]struct{}
}

// NewOverlay creates an Overlay rendering into the given view. Records
// of selfID are never rendered.
func NewOverlay(view CursorView, selfID string, staleThreshold time.Duration) *Overlay {
	return &Overlay{
		view:           view,
		selfID:         selfID,
		staleThreshold: staleThreshold,
		created:        make(map[string]struct{}),
	}
}

// Apply reconciles the view with the given participants. Participants
// that are hidden, stale, or no longer present lose their cursor.
func (o *Overlay) Apply(participants []types.Participant) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	seen := make(map[string]struct{}, len(participants))

	for _, p := range participants {
		if p.ID == o.selfID {
			continue
		}

		rec := p.Presence
		if rec.IsHidden() || rec.IsStale(now, o.staleThreshold) {
			o.remove(p.ID)
			continue
		}

		seen[p.ID] = struct{}{}
		if _, ok := o.created[p.ID]; !ok {
			o.view.CreateCursor(p.ID, rec.Name, rec.Color)
			o.created[p.ID] = struct{}{}
		}
		o.view.MoveCursor(p.ID, rec.Index, rec.Length)
	}

	for id := range o.created {
		if _, ok := seen[id]; !ok {
			o.remove(id)
		}
	}
}

// Update applies a single participant's record without reconciling the
// full channel. It is driven by presence events.
func (o *Overlay) Update(id string, rec presence.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if id == o.selfID {
		return
	}

	if rec.IsHidden() || rec.IsStale(time.Now(), o.staleThreshold) {
		o.remove(id)
		return
	}

	if _, ok := o.created[id]; !ok {
		o.view.CreateCursor(id, rec.Name, rec.Color)
		o.created[id] = struct{}{}
	}
	o.view.MoveCursor(id, rec.Index, rec.Length)
}

// Remove removes the cursor of the given participant.
func (o *Overlay) Remove(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.remove(id)
}

func (o *Overlay) remove(id string) {
	if _, ok := o.created[id]; ok {
		o.view.RemoveCursor(id)
		delete(o.created, id)
	}
}
