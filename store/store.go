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

// Package store adapts a server backend to the persistence surface the
// client package expects. Timestamps coming out of the backend are
// normalized to UTC time.Time at this boundary.
package store

import (
	"context"
	"time"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/pkg/times"
	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/server/backend/database"
)

func toVersion(info database.VersionInfo) types.Version {
	return types.Version{
		ID:        info.ID,
		DocID:     info.DocID,
		Message:   info.Message,
		BlobKey:   info.BlobKey,
		CreatedAt: times.Normalize(info.CreatedAt),
	}
}

// Store implements the client's persistence surface on top of a backend.
type Store struct {
	backend *backend.Backend
}

// New creates a Store over the given backend.
func New(be *backend.Backend) *Store {
	return &Store{backend: be}
}

// EnsureContents finds the document's content, creating the document
// when it does not exist yet.
func (s *Store) EnsureContents(ctx context.Context, docID, title, owner string) (delta.Delta, error) {
	info, err := s.backend.DB.EnsureDocument(ctx, docID, title, owner)
	if err != nil {
		return delta.Delta{}, err
	}

	return delta.FromJSON(info.Ops)
}

// PersistContents merge-writes the document's content and publishes a
// content-changed event tagged with the publisher id.
func (s *Store) PersistContents(ctx context.Context, docID string, d delta.Delta, publisher string) error {
	start := time.Now()

	ops, err := d.Marshal()
	if err != nil {
		return err
	}

	info, err := s.backend.DB.UpdateDocContent(ctx, docID, ops)
	if err != nil {
		return err
	}

	if s.backend.Metrics != nil {
		s.backend.Metrics.ObservePersist(time.Since(start).Seconds())
	}

	s.backend.Publish(ctx, types.DocEvent{
		Type:      types.ContentChanged,
		DocID:     docID,
		Publisher: publisher,
		Content:   &d,
		UpdatedAt: times.Normalize(info.UpdatedAt),
	})
	return nil
}

// WatchDocument subscribes to the document's events.
func (s *Store) WatchDocument(ctx context.Context, docID, sessionID string) (<-chan types.DocEvent, func(), error) {
	sub, _ := s.backend.PubSub.Subscribe(ctx, sessionID, docID)

	if s.backend.Relay != nil {
		s.backend.Relay.Watch(ctx, docID)
	}

	unwatch := func() {
		s.backend.PubSub.Unsubscribe(context.Background(), docID, sub)
	}
	return sub.Events(), unwatch, nil
}

// UpdatePresence merge-writes the presence record of a participant and
// publishes a presence-changed event.
func (s *Store) UpdatePresence(ctx context.Context, docID, participantID string, rec presence.Record) error {
	stored, err := s.backend.DB.UpsertPresence(ctx, docID, participantID, rec)
	if err != nil {
		return err
	}

	s.backend.Publish(ctx, types.DocEvent{
		Type:      types.PresenceChanged,
		DocID:     docID,
		Publisher: participantID,
		Presence:  &stored,
		UpdatedAt: times.Normalize(stored.UpdatedAt),
	})
	return nil
}

// DetachPresence removes the presence record of a participant and
// publishes a presence-detached event.
func (s *Store) DetachPresence(ctx context.Context, docID, participantID string) error {
	if err := s.backend.DB.DeletePresence(ctx, docID, participantID); err != nil {
		return err
	}

	s.backend.Publish(ctx, types.DocEvent{
		Type:      types.PresenceDetached,
		DocID:     docID,
		Publisher: participantID,
	})
	return nil
}

// FindPresences returns the participants of the document's presence channel.
func (s *Store) FindPresences(ctx context.Context, docID string) ([]types.Participant, error) {
	infos, err := s.backend.DB.FindPresences(ctx, docID)
	if err != nil {
		return nil, err
	}

	threshold := s.backend.Config.ParsePresenceStaleThreshold()
	now := time.Now()

	participants := make([]types.Participant, 0, len(infos))
	for _, info := range infos {
		rec := info.Record
		rec.UpdatedAt = times.Normalize(rec.UpdatedAt)
		if rec.IsStale(now, threshold) {
			continue
		}
		participants = append(participants, types.Participant{
			ID:       info.ParticipantID,
			Presence: rec,
		})
	}
	return participants, nil
}

// CreateVersion appends a version record pointing at stored blob content.
func (s *Store) CreateVersion(ctx context.Context, docID, message, blobKey string) (types.Version, error) {
	info, err := s.backend.DB.CreateVersionInfo(ctx, docID, message, blobKey)
	if err != nil {
		return types.Version{}, err
	}

	if s.backend.Metrics != nil {
		s.backend.Metrics.AddVersionCreated()
	}
	return toVersion(*info), nil
}

// ListVersions returns the document's versions, newest first.
func (s *Store) ListVersions(ctx context.Context, docID string) ([]types.Version, error) {
	infos, err := s.backend.DB.FindVersionInfos(ctx, docID)
	if err != nil {
		return nil, err
	}

	versions := make([]types.Version, 0, len(infos))
	for _, info := range infos {
		versions = append(versions, toVersion(info))
	}
	return versions, nil
}

// PutBlob stores a content snapshot and returns its key.
func (s *Store) PutBlob(ctx context.Context, data []byte) (string, error) {
	return s.backend.Blob.Put(ctx, data)
}

// GetBlob fetches a content snapshot by key.
func (s *Store) GetBlob(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Blob.Get(ctx, key)
}
