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

// Package times normalizes the timestamp shapes different store backends
// hand back into a single canonical type. Everything above the store
// adapter works with time.Time in UTC only.
package times

import (
	"time"
)

// Normalize converts a store-provided timestamp value to a canonical UTC
// time.Time. Server timestamps arrive as time.Time, historical records as
// unix milliseconds or RFC3339 strings. Unknown shapes normalize to the
// zero time rather than failing, keeping malformed records non-fatal.
func Normalize(value any) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v.UTC()
	case *time.Time:
		if v == nil {
			return time.Time{}
		}
		return v.UTC()
	case int64:
		return fromMillis(v)
	case int:
		return fromMillis(int64(v))
	case float64:
		return fromMillis(int64(v))
	case string:
		return fromString(v)
	default:
		return time.Time{}
	}
}

func fromMillis(millis int64) time.Time {
	if millis <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}

func fromString(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
