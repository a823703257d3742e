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
	"sync"

	"github.com/doculink-team/doculink/pkg/delta"
)

// Selection is a cursor range in a document. Index is measured in runes
// from the start of the document.
type Selection struct {
	Index  int
	Length int
}

// Editor abstracts the editing surface a Session drives. Implementations
// hold the current document content and the local selection.
type Editor interface {
	// Contents returns the current content of the editor.
	Contents() delta.Delta

	// SetContents replaces the content of the editor wholesale.
	SetContents(d delta.Delta)

	// Selection returns the current selection. ok is false when the
	// editor has no focus.
	Selection() (sel Selection, ok bool)

	// SetSelection moves the selection. Implementations clamp the range
	// to the document bounds.
	SetSelection(sel Selection)
}

// TextEditor is an in-memory Editor. It is used in tests and by callers
// that drive a Session without a real editing surface.
type TextEditor struct {
	mu       sync.Mutex
	contents delta.Delta
	sel      Selection
	focused  bool
}

// NewTextEditor creates an in-memory editor with the given initial content.
func NewTextEditor(initial delta.Delta) *TextEditor {
	return &TextEditor{contents: initial}
}

// Contents returns the current content of the editor.
func (e *TextEditor) Contents() delta.Delta {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contents
}

// SetContents replaces the content of the editor wholesale and clamps
// the selection to the new bounds.
func (e *TextEditor) SetContents(d delta.Delta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contents = d
	e.sel = clampSelection(e.sel, d.Length())
}

// Selection returns the current selection.
func (e *TextEditor) Selection() (Selection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel, e.focused
}

// SetSelection moves the selection and focuses the editor.
func (e *TextEditor) SetSelection(sel Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel = clampSelection(sel, e.contents.Length())
	e.focused = true
}

// Blur drops the focus of the editor.
func (e *TextEditor) Blur() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = false
}

func clampSelection(sel Selection, docLen int) Selection {
	if sel.Index < 0 {
		sel.Index = 0
	}
	if sel.Index > docLen {
		sel.Index = docLen
	}
	if sel.Length < 0 {
		sel.Length = 0
	}
	if sel.Index+sel.Length > docLen {
		sel.Length = docLen - sel.Index
	}
	return sel
}
