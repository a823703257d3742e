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
	"time"

	"github.com/doculink-team/doculink/pkg/presence"
)

const (
	// DefaultFastDebounce is the flush delay applied to edits that
	// complete a word, such as typing a space or a newline.
	DefaultFastDebounce = 120 * time.Millisecond

	// DefaultSlowDebounce is the flush delay applied to edits in the
	// middle of a word.
	DefaultSlowDebounce = 1200 * time.Millisecond
)

// Options configures a Session.
type Options struct {
	// Title is used when attaching creates the document.
	Title string

	// FastDebounce is the flush delay for word-completing edits.
	FastDebounce time.Duration

	// SlowDebounce is the flush delay for mid-word edits.
	SlowDebounce time.Duration

	// StaleThreshold is how long a peer's presence record may go without
	// an update before its cursor is hidden.
	StaleThreshold time.Duration

	// CursorView renders remote cursors. If nil, cursors are tracked but
	// not rendered.
	CursorView CursorView
}

// Option configures Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Title:          "Untitled Document",
		FastDebounce:   DefaultFastDebounce,
		SlowDebounce:   DefaultSlowDebounce,
		StaleThreshold: presence.DefaultStaleThreshold,
	}
}

// WithTitle sets the title used when attaching creates the document.
func WithTitle(title string) Option {
	return func(o *Options) { o.Title = title }
}

// WithDebounce sets the flush delays of the two edit classes.
func WithDebounce(fast, slow time.Duration) Option {
	return func(o *Options) {
		o.FastDebounce = fast
		o.SlowDebounce = slow
	}
}

// WithStaleThreshold sets the staleness threshold of peer presence records.
func WithStaleThreshold(threshold time.Duration) Option {
	return func(o *Options) { o.StaleThreshold = threshold }
}

// WithCursorView sets the view remote cursors are rendered into.
func WithCursorView(view CursorView) Option {
	return func(o *Options) { o.CursorView = view }
}
