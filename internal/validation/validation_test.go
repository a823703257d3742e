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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	t.Run("struct validation test", func(t *testing.T) {
		type commitRequest struct {
			Message string `validate:"required"`
			Email   string `validate:"omitempty,email"`
		}

		assert.NoError(t, ValidateStruct(&commitRequest{Message: "initial draft"}))

		err := ValidateStruct(&commitRequest{Message: "", Email: "not-an-email"})
		assert.Error(t, err)

		structErr, ok := err.(*StructError)
		assert.True(t, ok)
		assert.Len(t, structErr.Violations, 2)
	})

	t.Run("value validation test", func(t *testing.T) {
		assert.NoError(t, ValidateValue("someone@example.com", "required,email"))
		assert.Error(t, ValidateValue("", "required"))
	})
}
