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
	"strings"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/errors"
)

var (
	// ErrEmptyCommitMessage occurs when a commit message is empty or blank.
	ErrEmptyCommitMessage = errors.InvalidArgument(
		"commit message must not be empty",
	).WithCode("ErrEmptyCommitMessage")
)

// Commit captures the editor's current content as a named version. The
// content is stored as a blob first and the version record is only
// written once the blob upload succeeded; a failure at either step
// leaves the history untouched.
func (s *Session) Commit(ctx context.Context, message string) (types.Version, error) {
	if strings.TrimSpace(message) == "" {
		return types.Version{}, ErrEmptyCommitMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.Version{}, ErrSessionClosed
	}
	contents := s.editor.Contents()
	s.mu.Unlock()

	data, err := contents.Marshal()
	if err != nil {
		return types.Version{}, err
	}

	key, err := s.store.PutBlob(ctx, data)
	if err != nil {
		return types.Version{}, err
	}

	version, err := s.store.CreateVersion(ctx, s.docID, message, key)
	if err != nil {
		return types.Version{}, err
	}

	s.logger.Infof("commit %q as version %s", message, version.ID)
	return version, nil
}

// Versions returns the document's version history, newest first.
func (s *Session) Versions(ctx context.Context) ([]types.Version, error) {
	return s.store.ListVersions(ctx, s.docID)
}

// Restore replaces the document with the content of the given version
// and persists the replacement immediately, bypassing the debounce. If
// fetching or decoding the version content fails, the document is left
// untouched.
func (s *Session) Restore(ctx context.Context, blobKey string) error {
	data, err := s.store.GetBlob(ctx, blobKey)
	if err != nil {
		return err
	}

	contents, err := delta.FromJSON(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.cancelTimersLocked()
	s.state = StateApplyingRemote
	s.editor.SetContents(contents)
	s.lastPersisted = contents
	s.state = StateIdle
	s.mu.Unlock()

	if err := s.store.PersistContents(ctx, s.docID, contents, s.id); err != nil {
		return err
	}

	s.logger.Infof("restored %s from blob %s", s.docID, blobKey)
	return nil
}
