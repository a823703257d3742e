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

// Package types provides the types shared between the client and the server.
package types

import (
	"time"

	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/presence"
)

// Version represents a named point-in-time capture of a document. The
// document content itself lives in blob storage under BlobKey.
type Version struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Message   string    `json:"commit_message"`
	BlobKey   string    `json:"blob_key"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant is a member of a document's presence channel.
type Participant struct {
	ID       string          `json:"id"`
	Presence presence.Record `json:"presence"`
}

// DocEventType represents the type of the DocEvent.
type DocEventType string

const (
	// ContentChanged means that the document content has been changed.
	ContentChanged DocEventType = "content-changed"

	// PresenceChanged means that a participant's presence has been changed.
	PresenceChanged DocEventType = "presence-changed"

	// PresenceDetached means that a participant has left the document.
	PresenceDetached DocEventType = "presence-detached"
)

// DocEvent represents an event that occurs on a document. Publisher
// identifies the session that caused the event so that subscribers can
// drop their own echoes.
type DocEvent struct {
	Type      DocEventType     `json:"type"`
	DocID     string           `json:"doc_id"`
	Publisher string           `json:"publisher"`
	Content   *delta.Delta     `json:"content,omitempty"`
	Presence  *presence.Record `json:"presence,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}
