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

package server_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/server"
	"github.com/doculink-team/doculink/server/rpc"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Nil(t, conf)
	})

	t.Run("read config file test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		assert.NoError(t, os.WriteFile(path, []byte(`
RPC:
  Port: 9090
Backend:
  BlobSecretKey: "file-secret"
Mongo:
  ConnectionURI: "mongodb://localhost:27017"
`), 0o600))

		conf, err := server.NewConfigFromFile(path)
		assert.NoError(t, err)

		// Given values survive, missing ones get defaults.
		assert.Equal(t, 9090, conf.RPC.Port)
		assert.Equal(t, "file-secret", conf.Backend.BlobSecretKey)
		assert.Equal(t, server.DefaultProfilingPort, conf.Profiling.Port)
		assert.Equal(t, server.DefaultDownloadURLTTL, conf.Backend.DownloadURLTTL)
		assert.Equal(t, server.DefaultMongoDatabase, conf.Mongo.Database)

		assert.NoError(t, conf.Validate())
	})

	t.Run("validate test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.NoError(t, conf.Validate())

		conf.RPC = &rpc.Config{Port: -1}
		assert.ErrorIs(t, conf.Validate(), rpc.ErrInvalidRPCPort)

		conf = server.NewConfig()
		conf.Backend.DownloadURLTTL = "not-a-duration"
		assert.Error(t, conf.Validate())
	})
}
