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

// Package delta provides the rich-text operation log that fully describes
// the body of a document at a point in time. A Delta is an ordered sequence
// of insert, retain and delete operations with optional attributes, owned
// exclusively by the document record and replaced wholesale on every
// persisted write (last-writer-wins at document granularity).
package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Op is a single rich-text operation. Content logs consist of insert
// operations only; change logs may also carry retain and delete operations.
// Insert holds a string for text or an arbitrary value for embeds.
type Op struct {
	Insert     any            `json:"insert,omitempty" bson:"insert,omitempty"`
	Retain     int            `json:"retain,omitempty" bson:"retain,omitempty"`
	Delete     int            `json:"delete,omitempty" bson:"delete,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" bson:"attributes,omitempty"`
}

// Delta is an ordered operation log.
type Delta struct {
	Ops []Op `json:"ops"`
}

// New creates a Delta from the given operations.
func New(ops ...Op) Delta {
	return Delta{Ops: ops}
}

// Insert creates a plain text insert operation.
func Insert(text string) Op {
	return Op{Insert: text}
}

// InsertWithAttrs creates a text insert operation carrying attributes.
func InsertWithAttrs(text string, attrs map[string]any) Op {
	return Op{Insert: text, Attributes: attrs}
}

// Retain creates a retain operation.
func Retain(n int) Op {
	return Op{Retain: n}
}

// Delete creates a delete operation.
func Delete(n int) Op {
	return Op{Delete: n}
}

// FromJSON decodes a Delta from its JSON encoding. Both the canonical
// `{"ops":[...]}` shape and a bare operation array are accepted, matching
// what historical snapshot payloads contain.
func FromJSON(data []byte) (Delta, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Delta{}, nil
	}

	if trimmed[0] == '[' {
		var ops []Op
		if err := json.Unmarshal(trimmed, &ops); err != nil {
			return Delta{}, fmt.Errorf("unmarshal ops: %w", err)
		}
		return Delta{Ops: ops}, nil
	}

	var d Delta
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return Delta{}, fmt.Errorf("unmarshal delta: %w", err)
	}
	return d, nil
}

// Marshal returns the canonical JSON encoding of this Delta.
func (d Delta) Marshal() ([]byte, error) {
	ops := d.Ops
	if ops == nil {
		ops = []Op{}
	}

	encoded, err := json.Marshal(Delta{Ops: ops})
	if err != nil {
		return nil, fmt.Errorf("marshal delta: %w", err)
	}
	return encoded, nil
}

// Equal reports whether two logs are structurally equal. Logs are compared
// by their canonical encoding, so an empty log and a nil log are equal.
func (d Delta) Equal(other Delta) bool {
	a, err := d.Marshal()
	if err != nil {
		return false
	}
	b, err := other.Marshal()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// IsEmpty reports whether the log has no operations.
func (d Delta) IsEmpty() bool {
	return len(d.Ops) == 0
}

// InsertedText returns the concatenation of all text inserted by this log.
// Embed inserts contribute nothing.
func (d Delta) InsertedText() string {
	var sb strings.Builder
	for _, op := range d.Ops {
		if text, ok := op.Insert.(string); ok {
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// PlainText renders the document body as plain text. Embeds render as a
// single space, the same way the PDF export flattens them.
func (d Delta) PlainText() string {
	var sb strings.Builder
	for _, op := range d.Ops {
		switch insert := op.Insert.(type) {
		case string:
			sb.WriteString(insert)
		case nil:
		default:
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// Length returns the total length of the document in editor positions.
// Text inserts count one position per rune; embeds count one.
func (d Delta) Length() int {
	length := 0
	for _, op := range d.Ops {
		switch insert := op.Insert.(type) {
		case string:
			length += utf8.RuneCountInString(insert)
		case nil:
		default:
			length++
		}
	}
	return length
}

// HasWordBoundary reports whether the text contains a whitespace boundary
// character. The convergence engine uses this to pick the fast debounce
// class for an edit.
func HasWordBoundary(text string) bool {
	return strings.IndexFunc(text, unicode.IsSpace) >= 0
}
