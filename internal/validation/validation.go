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

// Package validation provides the validation functions with translated
// messages for caller-provided values.
package validation

import (
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// defaultValidator validates fields that are provided by users of the
	// public API, such as commit messages and email addresses.
	defaultValidator = validator.New()

	defaultEn = en.New()
	uni       = ut.New(defaultEn, defaultEn)

	// trans is the translator for the fallback locale.
	trans, _ = uni.GetTranslator(defaultEn.Locale())
)

// Violation is a detail of a single failed validation rule.
type Violation struct {
	Tag         string
	Description string
}

// StructError is the error returned from ValidateStruct, carrying one
// violation per failed field rule.
type StructError struct {
	Violations []Violation
}

// Error returns the error message.
func (e *StructError) Error() string {
	var descs []string
	for _, v := range e.Violations {
		descs = append(descs, v.Description)
	}
	return strings.Join(descs, ", ")
}

// ValidateStruct validates the given struct against its validate tags.
func ValidateStruct(target any) error {
	if err := defaultValidator.Struct(target); err != nil {
		invalidErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		structError := &StructError{}
		for _, e := range invalidErrs {
			structError.Violations = append(structError.Violations, Violation{
				Tag:         e.Tag(),
				Description: e.Translate(trans),
			})
		}
		return structError
	}
	return nil
}

// ValidateValue validates a single value against the given rule tag.
func ValidateValue(value any, tag string) error {
	if err := defaultValidator.Var(value, tag); err != nil {
		invalidErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		structError := &StructError{}
		for _, e := range invalidErrs {
			structError.Violations = append(structError.Violations, Violation{
				Tag:         e.Tag(),
				Description: e.Translate(trans),
			})
		}
		return structError
	}
	return nil
}

func init() {
	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		panic(err)
	}
}
