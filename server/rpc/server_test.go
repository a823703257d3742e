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

package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/doculink-team/doculink/api/types"
	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/server/ai"
	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/server/invites"
	"github.com/doculink-team/doculink/server/rpc"
	"github.com/doculink-team/doculink/test/helper"
)

func setupTestServer(t *testing.T) (*httptest.Server, *backend.Backend) {
	be := helper.TestBackend(t)

	server := rpc.NewServer(
		&rpc.Config{Port: 8080},
		be,
		invites.NewService(be.DB),
		ai.NewClient(&ai.Config{}),
	)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, be
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRESTEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("health test", func(t *testing.T) {
		ts, _ := setupTestServer(t)

		resp, err := http.Get(ts.URL + "/healthz")
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("snapshot and versions test", func(t *testing.T) {
		ts, be := setupTestServer(t)

		_, err := be.DB.EnsureDocument(ctx, "doc-1", "Notes", "alice")
		assert.NoError(t, err)
		ops, err := delta.New(delta.Insert("saved state")).Marshal()
		assert.NoError(t, err)
		_, err = be.DB.UpdateDocContent(ctx, "doc-1", ops)
		assert.NoError(t, err)

		resp := postJSON(t, ts.URL+"/documents/doc-1/snapshot", map[string]string{
			"commit_message": "first save",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var version types.Version
		decodeBody(t, resp, &version)
		assert.Equal(t, "first save", version.Message)
		assert.NotEmpty(t, version.BlobKey)

		resp, err = http.Get(ts.URL + "/documents/doc-1/versions")
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var versions []types.Version
		decodeBody(t, resp, &versions)
		assert.Len(t, versions, 1)
	})

	t.Run("snapshot requires message test", func(t *testing.T) {
		ts, be := setupTestServer(t)

		_, err := be.DB.EnsureDocument(ctx, "doc-1", "Notes", "alice")
		assert.NoError(t, err)

		resp := postJSON(t, ts.URL+"/documents/doc-1/snapshot", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("snapshot of unknown document test", func(t *testing.T) {
		ts, _ := setupTestServer(t)

		resp := postJSON(t, ts.URL+"/documents/nope/snapshot", map[string]string{
			"commit_message": "save",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("restore test", func(t *testing.T) {
		ts, be := setupTestServer(t)

		_, err := be.DB.EnsureDocument(ctx, "doc-1", "Notes", "alice")
		assert.NoError(t, err)
		good, err := delta.New(delta.Insert("good state")).Marshal()
		assert.NoError(t, err)
		key, err := be.Blob.Put(ctx, good)
		assert.NoError(t, err)

		resp := postJSON(t, ts.URL+"/documents/doc-1/restore", map[string]string{
			"blob_key": key,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())

		info, err := be.DB.FindDocInfo(ctx, "doc-1")
		assert.NoError(t, err)
		restored, err := delta.FromJSON(info.Ops)
		assert.NoError(t, err)
		assert.Equal(t, "good state", restored.InsertedText())
	})

	t.Run("download round trip test", func(t *testing.T) {
		ts, be := setupTestServer(t)

		key, err := be.Blob.Put(ctx, []byte(`{"ops":[{"insert":"blob"}]}`))
		assert.NoError(t, err)

		resp := postJSON(t, ts.URL+"/download", map[string]string{"blob_key": key})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			URL string `json:"url"`
		}
		decodeBody(t, resp, &body)

		// The signed path is served by this server regardless of the
		// configured base URL.
		idx := strings.Index(body.URL, "/download/")
		assert.True(t, idx >= 0)

		resp, err = http.Get(ts.URL + body.URL[idx:])
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("download with tampered token test", func(t *testing.T) {
		ts, be := setupTestServer(t)

		key, err := be.Blob.Put(ctx, []byte(`{"ops":[]}`))
		assert.NoError(t, err)

		resp, err := http.Get(ts.URL + "/download/" + key + "?expires=9999999999&token=deadbeef")
		assert.NoError(t, err)
		assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("invite lifecycle test", func(t *testing.T) {
		ts, _ := setupTestServer(t)

		resp := postJSON(t, ts.URL+"/documents/doc-1/invite", map[string]string{
			"doc_title":  "Notes",
			"email":      "bob@example.com",
			"invited_by": "alice",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())

		// Duplicate invite conflicts.
		resp = postJSON(t, ts.URL+"/documents/doc-1/invite", map[string]string{
			"email":      "bob@example.com",
			"invited_by": "carol",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())

		resp, err := http.Get(ts.URL + "/documents/doc-1/invites/pending")
		assert.NoError(t, err)
		var pending []map[string]any
		decodeBody(t, resp, &pending)
		assert.Len(t, pending, 1)

		resp = postJSON(t, ts.URL+"/documents/doc-1/invites/bob@example.com/accept", map[string]string{})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())

		resp, err = http.Get(ts.URL + "/inbox/bob@example.com")
		assert.NoError(t, err)
		var inbox []map[string]any
		decodeBody(t, resp, &inbox)
		assert.Len(t, inbox, 1)
	})

	t.Run("ai disabled test", func(t *testing.T) {
		ts, _ := setupTestServer(t)

		resp := postJSON(t, ts.URL+"/check-plagiarism", map[string]string{"text": "essay"})
		assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("plagiarism check test", func(t *testing.T) {
		be := helper.TestBackend(t)

		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{
						"content": `{"plagiarism_status":"Completely Original","confidence":95,"indicators":"No matches."}`,
					}},
				},
			}))
		}))
		defer upstream.Close()

		server := rpc.NewServer(
			&rpc.Config{Port: 8080},
			be,
			invites.NewService(be.DB),
			ai.NewClient(&ai.Config{BaseURL: upstream.URL, APIKey: "test-key"}),
		)
		ts := httptest.NewServer(server.Handler())
		defer ts.Close()

		resp := postJSON(t, ts.URL+"/check-plagiarism", map[string]string{"text": "essay"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Result ai.Originality `json:"result"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "Completely Original", body.Result.Status)
		assert.Equal(t, 95, body.Result.Confidence)
	})
}

func TestWatchEndpoint(t *testing.T) {
	t.Run("content relayed between connections test", func(t *testing.T) {
		ts, be := setupTestServer(t)

		_, err := be.DB.EnsureDocument(context.Background(), "doc-ws", "Notes", "alice")
		assert.NoError(t, err)

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/doc-ws"

		connA, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, connA.Close())
		}()

		connB, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		assert.NoError(t, err)
		defer func() {
			assert.NoError(t, connB.Close())
		}()

		var hello struct {
			SessionID string `json:"session_id"`
		}
		assert.NoError(t, connA.ReadJSON(&hello))
		assert.NotEmpty(t, hello.SessionID)
		assert.NoError(t, connB.ReadJSON(&hello))

		content := delta.New(delta.Insert("typed over the wire "))
		assert.NoError(t, connA.WriteJSON(map[string]any{
			"type":    types.ContentChanged,
			"content": content,
		}))

		var event types.DocEvent
		assert.NoError(t, connB.ReadJSON(&event))
		assert.Equal(t, types.ContentChanged, event.Type)
		assert.Equal(t, "doc-ws", event.DocID)
		assert.NotNil(t, event.Content)
		assert.Equal(t, "typed over the wire ", event.Content.InsertedText())
	})
}
