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

// Package helper provides shared fixtures for tests.
package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/store"
)

const (
	// FastDebounce is a shortened word-boundary flush delay for tests.
	FastDebounce = 10 * time.Millisecond

	// SlowDebounce is a shortened idle flush delay for tests.
	SlowDebounce = 60 * time.Millisecond
)

// TestConfig returns a backend config suitable for tests: memory
// database, memory blob store and a throwaway signing key.
func TestConfig() *backend.Config {
	return &backend.Config{
		Hostname:               "test",
		BlobBaseURL:            "http://localhost:8080",
		BlobSecretKey:          "test-secret",
		DownloadURLTTL:         "1m",
		PresenceStaleThreshold: "5m",
	}
}

// TestBackend creates a backend over memory storage and registers its
// shutdown with the test's cleanup.
func TestBackend(t *testing.T) *backend.Backend {
	be, err := backend.New(TestConfig(), nil, nil, nil)
	assert.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, be.Shutdown())
	})
	return be
}

// TestStore creates a store over a test backend.
func TestStore(t *testing.T) *store.Store {
	return store.New(TestBackend(t))
}
