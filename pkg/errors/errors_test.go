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

package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/pkg/errors"
)

func TestStatusErrors(t *testing.T) {
	t.Run("status is preserved through wrapping test", func(t *testing.T) {
		err := errors.NotFound("document not found")
		wrapped := fmt.Errorf("load document: %w", err)

		assert.Equal(t, errors.ErrCodeNotFound, errors.StatusOf(wrapped))
		assert.True(t, errors.IsStatus(wrapped, errors.ErrCodeNotFound))
		assert.True(t, errors.IsClientError(wrapped))
		assert.False(t, errors.IsServerError(wrapped))
	})

	t.Run("custom code test", func(t *testing.T) {
		err := errors.AlreadyExists("already invited").WithCode("ErrAlreadyInvited")
		assert.Equal(t, "ErrAlreadyInvited", err.Code())
		assert.Equal(t, errors.ErrCodeAlreadyExists, err.Status())
		assert.Equal(t, "already invited", err.Error())
	})

	t.Run("no status test", func(t *testing.T) {
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(nil))
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(fmt.Errorf("plain")))
	})

	t.Run("server error classification test", func(t *testing.T) {
		assert.True(t, errors.IsServerError(errors.Internal("boom")))
		assert.True(t, errors.IsServerError(errors.Unavailable("store down")))
		assert.Equal(t, "unavailable", errors.ErrCodeUnavailable.String())
	})
}
