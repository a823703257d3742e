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
	"context"
	"sync"
	"time"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/logging"
)

// State is the lifecycle state of a session's convergence engine.
type State int

const (
	// StateIdle means no write is pending or in flight.
	StateIdle State = iota

	// StatePersistInFlight means local content is being written out.
	StatePersistInFlight

	// StateApplyingRemote means a remote change is being applied to the
	// editor. Editor change notifications raised while in this state are
	// not local edits and must not schedule a flush.
	StateApplyingRemote
)

// ChangeOrigin tells a session who caused an editor change.
type ChangeOrigin string

const (
	// OriginUser marks changes typed by the local user.
	OriginUser ChangeOrigin = "user"

	// OriginAPI marks changes made programmatically, including remote
	// applies. They never schedule a flush.
	OriginAPI ChangeOrigin = "api"
)

// Session keeps one editor converged with a document. Local edits are
// flushed after a debounce whose delay depends on the edit class, remote
// events are applied wholesale, and the session's own echoes are dropped
// by publisher id.
type Session struct {
	id     string
	docID  string
	store  Store
	editor Editor
	opts   Options

	mu            sync.Mutex
	state         State
	lastPersisted delta.Delta
	rec           presence.Record
	dirty         bool
	closed        bool

	fastTimer *time.Timer
	slowTimer *time.Timer

	overlay *Overlay
	events  <-chan types.DocEvent
	unwatch func()
	done    chan struct{}

	logger logging.Logger
}

func newSession(
	id, docID string,
	store Store,
	editor Editor,
	rec presence.Record,
	opts Options,
	events <-chan types.DocEvent,
	unwatch func(),
) *Session {
	view := opts.CursorView
	if view == nil {
		view = nopCursorView{}
	}

	return &Session{
		id:            id,
		docID:         docID,
		store:         store,
		editor:        editor,
		opts:          opts,
		state:         StateIdle,
		lastPersisted: editor.Contents(),
		rec:           rec,
		overlay:       NewOverlay(view, id, opts.StaleThreshold),
		events:        events,
		unwatch:       unwatch,
		done:          make(chan struct{}),
		logger:        logging.New("session", logging.NewField("doc", docID)),
	}
}

// ID returns the id of this session. It doubles as the participant id
// on the presence channel.
func (s *Session) ID() string {
	return s.id
}

// DocID returns the id of the attached document.
func (s *Session) DocID() string {
	return s.docID
}

// State returns the current state of the convergence engine.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Overlay returns the cursor overlay of this session.
func (s *Session) Overlay() *Overlay {
	return s.overlay
}

// OnLocalChange schedules a flush for an editor change. Changes not
// originating from the user are ignored, as are changes raised while a
// remote apply is in progress. The change delta decides the flush
// class: an insert containing a word boundary flushes fast, anything
// else waits out the idle delay. Scheduling either class cancels both
// pending timers first, so a burst of edits collapses into one write.
func (s *Session) OnLocalChange(change delta.Delta, origin ChangeOrigin) {
	if origin != OriginUser {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateApplyingRemote {
		return
	}

	s.cancelTimersLocked()

	if delta.HasWordBoundary(change.InsertedText()) {
		s.fastTimer = time.AfterFunc(s.opts.FastDebounce, s.flush)
	} else {
		s.slowTimer = time.AfterFunc(s.opts.SlowDebounce, s.flush)
	}
}

// flush writes the editor's current content out if it differs from the
// last persisted content. A flush arriving while a persist is already
// in flight marks the session dirty; the in-flight persist re-reads the
// editor and writes again once it settles, so no edit burst is lost.
func (s *Session) flush() {
	s.mu.Lock()
	for {
		if s.closed {
			s.mu.Unlock()
			return
		}
		if s.state != StateIdle {
			s.dirty = true
			s.mu.Unlock()
			return
		}

		contents := s.editor.Contents()
		s.dirty = false
		if contents.Equal(s.lastPersisted) {
			s.mu.Unlock()
			return
		}
		s.state = StatePersistInFlight
		s.mu.Unlock()

		err := s.store.PersistContents(context.Background(), s.docID, contents, s.id)

		s.mu.Lock()
		s.state = StateIdle
		if err != nil {
			s.logger.Warnf("persist contents: %v", err)
			s.mu.Unlock()
			return
		}
		s.lastPersisted = contents
		if !s.dirty {
			s.mu.Unlock()
			return
		}
	}
}

// Flush writes out any pending local content immediately, cancelling
// the debounce timers.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelTimersLocked()
	s.mu.Unlock()

	s.flush()
}

// watchEvents consumes the document's event stream until the session is
// closed or the stream ends.
func (s *Session) watchEvents() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.events:
			if !ok {
				return
			}
			s.handleEvent(event)
		}
	}
}

func (s *Session) handleEvent(event types.DocEvent) {
	// Echoes of this session's own writes are dropped.
	if event.Publisher == s.id {
		return
	}

	switch event.Type {
	case types.ContentChanged:
		if event.Content != nil {
			s.applyRemote(*event.Content)
		}
	case types.PresenceChanged:
		if event.Presence != nil {
			s.overlay.Update(event.Publisher, *event.Presence)
		}
	case types.PresenceDetached:
		s.overlay.Remove(event.Publisher)
	}
}

// applyRemote replaces the editor content with the given remote content.
// Content structurally equal to the editor's is a no-op. The local
// selection survives the replace, clamped to the new document bounds.
func (s *Session) applyRemote(remote delta.Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	current := s.editor.Contents()
	if remote.Equal(current) {
		s.lastPersisted = remote
		return
	}

	s.state = StateApplyingRemote

	sel, focused := s.editor.Selection()
	s.editor.SetContents(remote)
	if focused {
		s.editor.SetSelection(clampSelection(sel, remote.Length()))
	}

	s.lastPersisted = remote
	s.state = StateIdle
}

// UpdateSelection publishes the local selection to the presence channel.
func (s *Session) UpdateSelection(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.rec.Index = sel.Index
	s.rec.Length = sel.Length
	rec := s.rec
	s.mu.Unlock()

	return s.store.UpdatePresence(ctx, s.docID, s.id, rec)
}

// HideCursor publishes the hidden sentinel, removing this session's
// cursor from every peer's overlay.
func (s *Session) HideCursor(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.rec = presence.Hidden(s.rec.Name, s.rec.Color)
	rec := s.rec
	s.mu.Unlock()

	return s.store.UpdatePresence(ctx, s.docID, s.id, rec)
}

// Participants returns the participants on the document's presence
// channel and reconciles the cursor overlay with them.
func (s *Session) Participants(ctx context.Context) ([]types.Participant, error) {
	participants, err := s.store.FindPresences(ctx, s.docID)
	if err != nil {
		return nil, err
	}

	s.overlay.Apply(participants)
	return participants, nil
}

// Close flushes pending local content, detaches the presence record and
// stops watching the document. Detaching is best effort.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.cancelTimersLocked()
	s.mu.Unlock()

	s.flush()

	s.mu.Lock()
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	if err := s.store.DetachPresence(ctx, s.docID, s.id); err != nil {
		s.logger.Warnf("detach presence: %v", err)
	}

	s.unwatch()
	return nil
}

func (s *Session) cancelTimersLocked() {
	if s.fastTimer != nil {
		s.fastTimer.Stop()
		s.fastTimer = nil
	}
	if s.slowTimer != nil {
		s.slowTimer.Stop()
		s.slowTimer = nil
	}
}

type nopCursorView struct{}

func (nopCursorView) CreateCursor(string, string, string) {}
func (nopCursorView) MoveCursor(string, int, int)         {}
func (nopCursorView) RemoveCursor(string)                 {}
