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

package invites_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/server/backend/database"
	memdb "github.com/doculink-team/doculink/server/backend/database/memory"
	"github.com/doculink-team/doculink/server/invites"
)

func setupTestService(t *testing.T) *invites.Service {
	db, err := memdb.New()
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	return invites.NewService(db)
}

func TestInvitee(t *testing.T) {
	t.Run("user id wins over email test", func(t *testing.T) {
		assert.Equal(t, "user-1", invites.InviteeKey("user-1", "bob@example.com"))
		assert.Equal(t, "bob@example.com", invites.InviteeKey("", " Bob@Example.com "))
		assert.Equal(t, "", invites.InviteeKey("", ""))
	})
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("create and accept test", func(t *testing.T) {
		service := setupTestService(t)

		info, err := service.Create(ctx, "doc-1", "Design Notes", "user-1", "bob@example.com", "alice")
		assert.NoError(t, err)
		assert.Equal(t, database.InviteStatusPending, info.Status)
		assert.WithinDuration(t, time.Now().Add(invites.DefaultExpiry), info.ExpiresAt, time.Minute)

		pending, err := service.ListPending(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, pending, 1)

		accepted, err := service.Accept(ctx, "doc-1", "user-1")
		assert.NoError(t, err)
		assert.Equal(t, database.InviteStatusAccepted, accepted.Status)

		pending, err = service.ListPending(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("duplicate invite rejected test", func(t *testing.T) {
		service := setupTestService(t)

		_, err := service.Create(ctx, "doc-1", "Design Notes", "user-1", "", "alice")
		assert.NoError(t, err)

		_, err = service.Create(ctx, "doc-1", "Design Notes", "user-1", "", "carol")
		assert.ErrorIs(t, err, database.ErrInviteAlreadyExists)
	})

	t.Run("invitee without identity rejected test", func(t *testing.T) {
		service := setupTestService(t)

		_, err := service.Create(ctx, "doc-1", "Design Notes", "", "", "alice")
		assert.ErrorIs(t, err, invites.ErrInvalidInvitee)
	})

	t.Run("malformed email rejected test", func(t *testing.T) {
		service := setupTestService(t)

		_, err := service.Create(ctx, "doc-1", "Design Notes", "", "not-an-email", "alice")
		assert.ErrorIs(t, err, invites.ErrInvalidEmail)
	})

	t.Run("accept unknown invite test", func(t *testing.T) {
		service := setupTestService(t)

		_, err := service.Accept(ctx, "doc-1", "nobody")
		assert.ErrorIs(t, err, database.ErrInviteNotFound)
	})

	t.Run("inbox fan-out test", func(t *testing.T) {
		service := setupTestService(t)

		_, err := service.Create(ctx, "doc-1", "Design Notes", "", "bob@example.com", "alice")
		assert.NoError(t, err)
		_, err = service.Create(ctx, "doc-2", "Roadmap", "", "bob@example.com", "alice")
		assert.NoError(t, err)

		inbox, err := service.Inbox(ctx, "bob@example.com")
		assert.NoError(t, err)
		assert.Len(t, inbox, 2)
	})
}
