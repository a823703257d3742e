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

package presence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/pkg/presence"
)

func TestPresence(t *testing.T) {
	t.Run("hidden sentinel test", func(t *testing.T) {
		rec := presence.Hidden("alice", "hsl(10, 70%, 50%)")
		assert.True(t, rec.IsHidden())
		assert.Equal(t, presence.HiddenIndex, rec.Index)
		assert.Equal(t, 0, rec.Length)

		rec.Index = 3
		assert.False(t, rec.IsHidden())
	})

	t.Run("deterministic color test", func(t *testing.T) {
		a := presence.ColorFor("user_2abcdef")
		b := presence.ColorFor("user_2abcdef")
		assert.Equal(t, a, b)
		assert.Regexp(t, `^hsl\(\d+, 70%, 50%\)$`, a)
	})

	t.Run("staleness test", func(t *testing.T) {
		now := time.Now()
		rec := presence.Record{Index: 4, UpdatedAt: now.Add(-10 * time.Minute)}
		assert.True(t, rec.IsStale(now, presence.DefaultStaleThreshold))

		fresh := presence.Record{Index: 4, UpdatedAt: now.Add(-time.Second)}
		assert.False(t, fresh.IsStale(now, presence.DefaultStaleThreshold))

		// Records without a server timestamp are never considered stale.
		unset := presence.Record{Index: 4}
		assert.False(t, unset.IsStale(now, presence.DefaultStaleThreshold))
	})
}
