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
	"database/sql"
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a blob store backed by an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	signer *URLSigner
}

// NewSQLiteStore opens (or creates) the blob database at baseDir/blobs.db.
// The baseDir parameter allows tests to use t.TempDir().
func NewSQLiteStore(baseDir string, signer *URLSigner) (*SQLiteStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "blobs.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open blob database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
		  key        TEXT PRIMARY KEY,
		  data       BLOB NOT NULL,
		  created_at INTEGER NOT NULL
		);
	`); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, goerrors.Join(err, closeErr)
		}
		return nil, fmt.Errorf("create blobs table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		signer: signer,
	}, nil
}

// Put stores the payload under a fresh key and returns the key.
func (s *SQLiteStore) Put(ctx context.Context, data []byte) (string, error) {
	key := NewKey()
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO blobs (key, data, created_at) VALUES (?, ?, ?)`,
		key, data, time.Now().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("insert blob %s: %w", key, err)
	}
	return key, nil
}

// Get returns the payload stored under the key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if goerrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrBlobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select blob %s: %w", key, err)
	}
	return data, nil
}

// RequestDownloadURL returns a time-limited URL for the payload.
func (s *SQLiteStore) RequestDownloadURL(ctx context.Context, key string) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM blobs WHERE key = ?`, key).Scan(&exists)
	if goerrors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", key, ErrBlobNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("select blob %s: %w", key, err)
	}
	return s.signer.Sign(key, time.Now()), nil
}

// Close closes all resources of this store.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close blob database: %w", err)
	}
	return nil
}
