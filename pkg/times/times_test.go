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

package times_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/pkg/times"
)

func TestNormalize(t *testing.T) {
	ref := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("time values test", func(t *testing.T) {
		assert.Equal(t, ref, times.Normalize(ref))
		assert.Equal(t, ref, times.Normalize(&ref))

		var nilTime *time.Time
		assert.True(t, times.Normalize(nilTime).IsZero())
	})

	t.Run("unix millis test", func(t *testing.T) {
		assert.Equal(t, ref, times.Normalize(ref.UnixMilli()))
		assert.Equal(t, ref, times.Normalize(float64(ref.UnixMilli())))
		assert.True(t, times.Normalize(int64(0)).IsZero())
	})

	t.Run("string shapes test", func(t *testing.T) {
		assert.Equal(t, ref, times.Normalize("2025-03-14T09:26:53Z"))
		assert.Equal(t, ref, times.Normalize("2025-03-14T10:26:53+01:00"))
		assert.True(t, times.Normalize("not-a-time").IsZero())
	})

	t.Run("unknown shapes normalize to zero test", func(t *testing.T) {
		assert.True(t, times.Normalize(nil).IsZero())
		assert.True(t, times.Normalize(struct{}{}).IsZero())
	})
}
