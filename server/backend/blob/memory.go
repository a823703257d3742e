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

package blob

import (
	"context"
	"fmt"
	"time"

	"github.com/doculink-team/doculink/pkg/cmap"
)

// MemStore is an in-memory blob store for testing or single-node deployments.
type MemStore struct {
	blobs  *cmap.Map[string, []byte]
	signer *URLSigner
}

// NewMemStore creates an in-memory blob store.
func NewMemStore(signer *URLSigner) *MemStore {
	return &MemStore{
		blobs:  cmap.New[string, []byte](),
		signer: signer,
	}
}

// Put stores the payload under a fresh key and returns the key.
func (s *MemStore) Put(_ context.Context, data []byte) (string, error) {
	key := NewKey()
	s.blobs.Set(key, append([]byte(nil), data...))
	return key, nil
}

// Get returns the payload stored under the key.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs.Get(key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrBlobNotFound)
	}
	return append([]byte(nil), data...), nil
}

// RequestDownloadURL returns a time-limited URL for the payload.
func (s *MemStore) RequestDownloadURL(_ context.Context, key string) (string, error) {
	if !s.blobs.Has(key) {
		return "", fmt.Errorf("%s: %w", key, ErrBlobNotFound)
	}
	return s.signer.Sign(key, time.Now()), nil
}

// Close closes all resources of this store.
func (s *MemStore) Close() error {
	return nil
}
