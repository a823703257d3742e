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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/client"
	"github.com/doculink-team/doculink/pkg/delta"
)

func TestVersionHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("commit and list test", func(t *testing.T) {
		st := newTestStore(t)

		editor := client.NewTextEditor(delta.Delta{})
		session, err := client.New(st, "alice").Attach(ctx, "doc-versions", editor)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, session.Close(ctx))
		}()

		editor.SetContents(delta.New(delta.Insert("first draft")))
		first, err := session.Commit(ctx, "first draft")
		assert.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.NotEmpty(t, first.BlobKey)

		time.Sleep(2 * time.Millisecond)

		editor.SetContents(delta.New(delta.Insert("second draft")))
		second, err := session.Commit(ctx, "second draft")
		assert.NoError(t, err)

		versions, err := session.Versions(ctx)
		assert.NoError(t, err)
		assert.Len(t, versions, 2)

		// Newest first.
		assert.Equal(t, second.ID, versions[0].ID)
		assert.Equal(t, first.ID, versions[1].ID)
		assert.Equal(t, "second draft", versions[0].Message)
	})

	t.Run("blank commit message rejected test", func(t *testing.T) {
		st := newTestStore(t)

		editor := client.NewTextEditor(delta.New(delta.Insert("content")))
		session, err := client.New(st, "alice").Attach(ctx, "doc-blank", editor)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, session.Close(ctx))
		}()

		_, err = session.Commit(ctx, "   ")
		assert.ErrorIs(t, err, client.ErrEmptyCommitMessage)

		versions, err := session.Versions(ctx)
		assert.NoError(t, err)
		assert.Empty(t, versions)
	})

	t.Run("restore round trip test", func(t *testing.T) {
		st := newTestStore(t)

		editorA := client.NewTextEditor(delta.Delta{})
		sessionA, err := client.New(st, "alice").Attach(ctx, "doc-restore", editorA,
			client.WithDebounce(fastDebounce, slowDebounce))
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, sessionA.Close(ctx))
		}()

		editorB := client.NewTextEditor(delta.Delta{})
		sessionB, err := client.New(st, "bob").Attach(ctx, "doc-restore", editorB)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, sessionB.Close(ctx))
		}()

		editorA.SetContents(delta.New(delta.Insert("the good state")))
		version, err := sessionA.Commit(ctx, "good state")
		assert.NoError(t, err)

		editorA.SetContents(delta.New(delta.Insert("a regrettable rewrite ")))
		sessionA.OnLocalChange(delta.New(delta.Insert(" ")), client.OriginUser)
		sessionA.Flush()

		assert.Eventually(t, func() bool {
			return editorB.Contents().InsertedText() == "a regrettable rewrite "
		}, time.Second, 5*time.Millisecond)

		// Rolling back persists immediately, without waiting out a debounce.
		assert.NoError(t, sessionA.Restore(ctx, version.BlobKey))
		assert.Equal(t, "the good state", editorA.Contents().InsertedText())

		assert.Eventually(t, func() bool {
			return editorB.Contents().InsertedText() == "the good state"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("restore with missing blob leaves document untouched test", func(t *testing.T) {
		st := newTestStore(t)

		editor := client.NewTextEditor(delta.New(delta.Insert("untouched")))
		session, err := client.New(st, "alice").Attach(ctx, "doc-missing-blob", editor)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, session.Close(ctx))
		}()

		editor.SetContents(delta.New(delta.Insert("untouched")))
		assert.Error(t, session.Restore(ctx, "no-such-blob"))
		assert.Equal(t, "untouched", editor.Contents().InsertedText())
	})
}
