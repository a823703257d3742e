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

package rpc

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/presence"
)

// syncMessage is a message a remote editor sends over the websocket.
type syncMessage struct {
	Type     types.DocEventType `json:"type"`
	Content  *delta.Delta       `json:"content,omitempty"`
	Presence *presence.Record   `json:"presence,omitempty"`
}

// handleWatch upgrades the connection and relays document events both
// ways: client messages are persisted and published, backend events are
// forwarded to the client. Sessions drop their own echoes by the
// publisher id sent in the first message.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]
	sessionID := xid.New().String()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("upgrade %s: %v", docID, err)
		return
	}

	if s.backend.Metrics != nil {
		s.backend.Metrics.AddWatchConnection()
		defer s.backend.Metrics.RemoveWatchConnection()
	}

	ctx := r.Context()
	events, unwatch, err := s.store.WatchDocument(ctx, docID, sessionID)
	if err != nil {
		s.logger.Warnf("watch %s: %v", docID, err)
		_ = conn.Close()
		return
	}
	defer unwatch()

	// The first frame tells the client its session id.
	if err := conn.WriteJSON(map[string]string{"session_id": sessionID}); err != nil {
		s.logger.Warnf("write session id: %v", err)
		_ = conn.Close()
		return
	}

	done := make(chan struct{})

	// Write pump: backend events to the client.
	go func() {
		defer func() {
			_ = conn.Close()
		}()

		for {
			select {
			case <-done:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			}
		}
	}()

	// Read pump: client messages to the backend.
	defer close(done)
	for {
		var msg syncMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnf("read %s/%s: %v", docID, sessionID, err)
			}
			break
		}

		s.handleSyncMessage(ctx, docID, sessionID, msg)
	}

	// Leaving the hub detaches the session's presence best effort.
	if err := s.store.DetachPresence(context.Background(), docID, sessionID); err != nil {
		s.logger.Warnf("detach %s/%s: %v", docID, sessionID, err)
	}
}

func (s *Server) handleSyncMessage(ctx context.Context, docID, sessionID string, msg syncMessage) {
	switch msg.Type {
	case types.ContentChanged:
		if msg.Content == nil {
			return
		}
		if _, err := s.backend.DB.FindDocInfo(ctx, docID); err != nil {
			if _, err := s.backend.DB.EnsureDocument(ctx, docID, "", sessionID); err != nil {
				s.logger.Warnf("ensure %s: %v", docID, err)
				return
			}
		}
		if err := s.store.PersistContents(ctx, docID, *msg.Content, sessionID); err != nil {
			s.logger.Warnf("persist %s/%s: %v", docID, sessionID, err)
		}
	case types.PresenceChanged:
		if msg.Presence == nil {
			return
		}
		if err := s.store.UpdatePresence(ctx, docID, sessionID, *msg.Presence); err != nil {
			s.logger.Warnf("presence %s/%s: %v", docID, sessionID, err)
		}
	case types.PresenceDetached:
		if err := s.store.DetachPresence(ctx, docID, sessionID); err != nil {
			s.logger.Warnf("detach %s/%s: %v", docID, sessionID, err)
		}
	}
}
