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

// Package presence provides the ephemeral per-participant cursor broadcast
// records of a document. Presence is best-effort: records are never
// authoritative history and deletion on teardown may be skipped, so
// subscribers treat records older than a staleness threshold as hidden.
package presence

import (
	"fmt"
	"time"
)

// HiddenIndex is the sentinel caret index meaning the participant is not
// actively focused and should render no cursor.
const HiddenIndex = -1

// DefaultStaleThreshold is how old a record may grow before subscribers
// treat it as implicitly hidden.
const DefaultStaleThreshold = 5 * time.Minute

// Record is the cursor/selection broadcast of a single participant within
// a single document.
type Record struct {
	Name      string    `json:"name" bson:"name"`
	Color     string    `json:"color" bson:"color"`
	Index     int       `json:"index" bson:"index"`
	Length    int       `json:"length" bson:"length"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Hidden creates a record marking the participant as not focused.
func Hidden(name, color string) Record {
	return Record{
		Name:   name,
		Color:  color,
		Index:  HiddenIndex,
		Length: 0,
	}
}

// IsHidden reports whether this record should render no cursor.
func (r Record) IsHidden() bool {
	return r.Index < 0
}

// IsStale reports whether this record is older than the given threshold at
// the given instant. Stale records render no cursor even when their index
// is non-negative; see the teardown caveat in the package comment.
func (r Record) IsStale(now time.Time, threshold time.Duration) bool {
	if r.UpdatedAt.IsZero() {
		return false
	}
	return now.Sub(r.UpdatedAt) > threshold
}

// ColorFor derives the display color for a participant id. The hue is the
// byte sum of the id modulo 360, so every client derives the same color for
// the same participant without coordination.
func ColorFor(participantID string) string {
	sum := 0
	for _, b := range []byte(participantID) {
		sum += int(b)
	}
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", sum%360)
}
