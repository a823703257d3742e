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

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/pkg/errors"
	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/backend/database"
	"github.com/doculink-team/doculink/server/backend/database/memory"
)

func TestDB(t *testing.T) {
	ctx := context.Background()

	t.Run("ensure document test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		info, err := db.EnsureDocument(ctx, "doc-1", "Untitled", "owner-1")
		assert.NoError(t, err)
		assert.Equal(t, "doc-1", info.ID)
		assert.JSONEq(t, `{"ops":[]}`, string(info.Ops))

		// A second ensure must not reset existing contents.
		_, err = db.UpdateDocContent(ctx, "doc-1", []byte(`{"ops":[{"insert":"hi"}]}`))
		assert.NoError(t, err)

		again, err := db.EnsureDocument(ctx, "doc-1", "Untitled", "owner-1")
		assert.NoError(t, err)
		assert.JSONEq(t, `{"ops":[{"insert":"hi"}]}`, string(again.Ops))
	})

	t.Run("update content assigns server timestamp test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.EnsureDocument(ctx, "doc-1", "", "")
		assert.NoError(t, err)

		time.Sleep(time.Millisecond)
		updated, err := db.UpdateDocContent(ctx, "doc-1", []byte(`{"ops":[{"insert":"a"}]}`))
		assert.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

		_, err = db.UpdateDocContent(ctx, "doc-missing", nil)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("find document not found test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		_, err = db.FindDocInfo(ctx, "nope")
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
		assert.True(t, errors.IsStatus(err, errors.ErrCodeNotFound))
	})

	t.Run("presence lifecycle test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		stored, err := db.UpsertPresence(ctx, "doc-1", "alice", presence.Record{
			Name:  "Alice",
			Color: presence.ColorFor("alice"),
			Index: 3, Length: 2,
		})
		assert.NoError(t, err)
		assert.False(t, stored.UpdatedAt.IsZero())

		_, err = db.UpsertPresence(ctx, "doc-1", "bob", presence.Hidden("Bob", presence.ColorFor("bob")))
		assert.NoError(t, err)

		infos, err := db.FindPresences(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, infos, 2)

		assert.NoError(t, db.DeletePresence(ctx, "doc-1", "alice"))
		assert.NoError(t, db.DeletePresence(ctx, "doc-1", "alice"))

		infos, err = db.FindPresences(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, infos, 1)
		assert.Equal(t, "bob", infos[0].ParticipantID)
	})

	t.Run("version ordering test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		var keys []string
		for _, msg := range []string{"first", "second", "third"} {
			info, err := db.CreateVersionInfo(ctx, "doc-1", msg, "blob-"+msg)
			assert.NoError(t, err)
			keys = append(keys, info.BlobKey)
			time.Sleep(time.Millisecond)
		}

		infos, err := db.FindVersionInfos(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, infos, 3)
		assert.Equal(t, "third", infos[0].Message)
		assert.Equal(t, "second", infos[1].Message)
		assert.Equal(t, "first", infos[2].Message)
		assert.Equal(t, keys[2], infos[0].BlobKey)
	})

	t.Run("invite lifecycle test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		created, err := db.CreateInviteInfo(ctx, database.InviteInfo{
			DocID:      "doc-1",
			InviteeKey: "bob@example.com",
			Email:      "bob@example.com",
			InvitedBy:  "alice",
			ExpiresAt:  time.Now().Add(7 * 24 * time.Hour),
		})
		assert.NoError(t, err)
		assert.Equal(t, database.InviteStatusPending, created.Status)

		_, err = db.CreateInviteInfo(ctx, database.InviteInfo{
			DocID:      "doc-1",
			InviteeKey: "bob@example.com",
		})
		assert.ErrorIs(t, err, database.ErrInviteAlreadyExists)

		pending, err := db.FindInviteInfos(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, pending, 1)

		accepted, err := db.UpdateInviteStatus(ctx, "doc-1", "bob@example.com", database.InviteStatusAccepted)
		assert.NoError(t, err)
		assert.Equal(t, database.InviteStatusAccepted, accepted.Status)

		pending, err = db.FindInviteInfos(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, pending, 0)
	})

	t.Run("inbox fan out test", func(t *testing.T) {
		db, err := memory.New()
		assert.NoError(t, err)

		err = db.UpsertInboxInfo(ctx, database.InboxInfo{
			UserKey:   "bob@example.com",
			DocID:     "doc-1",
			DocTitle:  "Untitled",
			InvitedBy: "alice",
		})
		assert.NoError(t, err)

		// Merge-write: the same entry twice keeps a single record.
		err = db.UpsertInboxInfo(ctx, database.InboxInfo{
			UserKey:  "bob@example.com",
			DocID:    "doc-1",
			DocTitle: "Renamed",
		})
		assert.NoError(t, err)

		infos, err := db.FindInboxInfos(ctx, "bob@example.com")
		assert.NoError(t, err)
		assert.Len(t, infos, 1)
		assert.Equal(t, "Renamed", infos[0].DocTitle)
	})
}
