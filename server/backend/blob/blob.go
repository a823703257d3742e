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

// Package blob provides durable storage for snapshot payloads. Blobs are
// immutable: a payload is stored once under a fresh key and never rewritten.
package blob

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/doculink-team/doculink/pkg/errors"
)

var (
	// ErrBlobNotFound is returned when the blob could not be found.
	ErrBlobNotFound = errors.NotFound("blob not found").WithCode("ErrBlobNotFound")

	// ErrURLExpired is returned when a download URL is presented after its deadline.
	ErrURLExpired = errors.FailedPrecond("download url expired").WithCode("ErrURLExpired")

	// ErrInvalidSignature is returned when a download URL carries a bad token.
	ErrInvalidSignature = errors.FailedPrecond("invalid download token").WithCode("ErrInvalidSignature")
)

// Store is the interface blob storage backends implement.
type Store interface {
	// Put stores the payload under a fresh key and returns the key.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the payload stored under the key.
	Get(ctx context.Context, key string) ([]byte, error)

	// RequestDownloadURL returns a time-limited URL for the payload.
	RequestDownloadURL(ctx context.Context, key string) (string, error)

	// Close closes all resources of this store.
	Close() error
}

// NewKey returns a fresh blob key. Keys are ULIDs, so they sort by
// creation time.
func NewKey() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// URLSigner mints and verifies time-limited download URLs for blob keys.
type URLSigner struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
}

// NewURLSigner creates a URLSigner rooted at the given base URL.
func NewURLSigner(baseURL string, secret []byte, ttl time.Duration) *URLSigner {
	return &URLSigner{
		baseURL: baseURL,
		secret:  secret,
		ttl:     ttl,
	}
}

// Sign returns a download URL for the key valid until now+ttl.
func (s *URLSigner) Sign(key string, now time.Time) string {
	expires := now.Add(s.ttl).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("token", s.token(key, expires))
	return fmt.Sprintf("%s/download/%s?%s", s.baseURL, url.PathEscape(key), query.Encode())
}

// Verify checks the expiry and token of a presented download URL.
func (s *URLSigner) Verify(key, expiresStr, token string, now time.Time) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse expires %q: %w", expiresStr, ErrInvalidSignature)
	}
	if now.Unix() > expires {
		return ErrURLExpired
	}
	if !hmac.Equal([]byte(token), []byte(s.token(key, expires))) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *URLSigner) token(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
