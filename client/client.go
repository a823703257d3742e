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

// Package client provides the collaborative editing core. A Client
// attaches an Editor to a document, producing a Session that keeps the
// editor, the persistence layer and the other participants converged.
package client

import (
	"context"

	"github.com/rs/xid"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/errors"
	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/logging"
)

var (
	// ErrSessionClosed occurs when an operation is invoked on a closed session.
	ErrSessionClosed = errors.FailedPrecond("session is closed").WithCode("ErrSessionClosed")
)

// Store is the persistence surface a Session talks to. It is satisfied
// by the store package, which runs against a server backend.
type Store interface {
	// EnsureContents finds the document's content, creating the document
	// when it does not exist yet.
	EnsureContents(ctx context.Context, docID, title, owner string) (delta.Delta, error)

	// PersistContents merge-writes the document's content. The publisher
	// id is attached to the resulting event so that the publishing
	// session can drop its own echo.
	PersistContents(ctx context.Context, docID string, d delta.Delta, publisher string) error

	// WatchDocument subscribes to the document's events. The returned
	// function cancels the subscription.
	WatchDocument(ctx context.Context, docID, sessionID string) (<-chan types.DocEvent, func(), error)

	// UpdatePresence merge-writes the presence record of a participant.
	UpdatePresence(ctx context.Context, docID, participantID string, rec presence.Record) error

	// DetachPresence removes the presence record of a participant.
	DetachPresence(ctx context.Context, docID, participantID string) error

	// FindPresences returns the participants of the document's presence channel.
	FindPresences(ctx context.Context, docID string) ([]types.Participant, error)

	// CreateVersion appends a version record pointing at stored blob content.
	CreateVersion(ctx context.Context, docID, message, blobKey string) (types.Version, error)

	// ListVersions returns the document's versions, newest first.
	ListVersions(ctx context.Context, docID string) ([]types.Version, error)

	// PutBlob stores a content snapshot and returns its key.
	PutBlob(ctx context.Context, data []byte) (string, error)

	// GetBlob fetches a content snapshot by key.
	GetBlob(ctx context.Context, key string) ([]byte, error)
}

// Client attaches editors to documents.
type Client struct {
	store  Store
	name   string
	logger logging.Logger
}

// New creates an instance of Client. The name is the display name shown
// to other participants.
func New(store Store, name string) *Client {
	return &Client{
		store:  store,
		name:   name,
		logger: logging.New("client"),
	}
}

// Attach attaches the given editor to the document and returns a live
// Session. The session id doubles as the participant id on the presence
// channel, and the session starts with a hidden cursor.
func (c *Client) Attach(
	ctx context.Context,
	docID string,
	editor Editor,
	opts ...Option,
) (*Session, error) {
	if docID == "" {
		return nil, errors.InvalidArgument("document id is required").WithCode("ErrInvalidDocumentID")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	id := xid.New().String()

	contents, err := c.store.EnsureContents(ctx, docID, options.Title, c.name)
	if err != nil {
		return nil, err
	}
	editor.SetContents(contents)

	events, unwatch, err := c.store.WatchDocument(ctx, docID, id)
	if err != nil {
		return nil, err
	}

	rec := presence.Record{
		Name:   c.name,
		Color:  presence.ColorFor(id),
		Index:  presence.HiddenIndex,
		Length: 0,
	}
	if err := c.store.UpdatePresence(ctx, docID, id, rec); err != nil {
		unwatch()
		return nil, err
	}

	s := newSession(id, docID, c.store, editor, rec, options, events, unwatch)
	go s.watchEvents()

	c.logger.Infof("session %s attached to %s", id, docID)
	return s, nil
}
