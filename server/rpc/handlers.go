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

package rpc

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/doculink-team/doculink/pkg/delta"
	"github.com/doculink-team/doculink/pkg/errors"
	"github.com/doculink-team/doculink/server/backend/blob"
)

// maxRequestBody bounds JSON and audio request bodies.
const maxRequestBody = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]

	info, err := s.backend.DB.FindDocInfo(r.Context(), docID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	contents, err := delta.FromJSON(info.Ops)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         info.ID,
		"title":      info.Title,
		"owner":      info.Owner,
		"contents":   contents,
		"updated_at": info.UpdatedAt,
	})
}

// handleSnapshot captures the document's current content as a version.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]

	var req struct {
		Message string `json:"commit_message"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		s.writeError(w, errors.InvalidArgument("commit message is required").
			WithCode("ErrEmptyCommitMessage"))
		return
	}

	info, err := s.backend.DB.FindDocInfo(r.Context(), docID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	key, err := s.backend.Blob.Put(r.Context(), info.Ops)
	if err != nil {
		s.writeError(w, err)
		return
	}

	version, err := s.store.CreateVersion(r.Context(), docID, req.Message, key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, version)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]

	versions, err := s.store.ListVersions(r.Context(), docID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versions)
}

// handleRestore replaces the document's content with a stored version
// and publishes the replacement to the attached sessions.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]

	var req struct {
		BlobKey   string `json:"blob_key"`
		Publisher string `json:"publisher"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.BlobKey == "" {
		s.writeError(w, errors.InvalidArgument("blob key is required").
			WithCode("ErrMissingBlobKey"))
		return
	}

	data, err := s.backend.Blob.Get(r.Context(), req.BlobKey)
	if err != nil {
		s.writeError(w, err)
		return
	}

	contents, err := delta.FromJSON(data)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.PersistContents(r.Context(), docID, contents, req.Publisher); err != nil {
		s.writeError(w, err)
		return
	}

	if s.backend.Metrics != nil {
		s.backend.Metrics.AddRestore()
	}
	writeJSON(w, http.StatusOK, map[string]any{"contents": contents})
}

// handleRequestDownload returns a time-limited download URL for a blob.
func (s *Server) handleRequestDownload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlobKey string `json:"blob_key"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.BlobKey == "" {
		s.writeError(w, errors.InvalidArgument("blob key is required").
			WithCode("ErrMissingBlobKey"))
		return
	}

	url, err := s.backend.Blob.RequestDownloadURL(r.Context(), req.BlobKey)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handleDownload serves blob content after verifying the URL signature.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	query := r.URL.Query()

	signer := blob.NewURLSigner(
		s.backend.Config.BlobBaseURL,
		[]byte(s.backend.Config.BlobSecretKey),
		s.backend.Config.ParseDownloadURLTTL(),
	)
	if err := signer.Verify(key, query.Get("expires"), query.Get("token"), time.Now()); err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.backend.Blob.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`.json"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Warnf("write blob %s: %v", key, err)
	}
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]

	var req struct {
		DocTitle  string `json:"doc_title"`
		UserID    string `json:"user_id"`
		Email     string `json:"email"`
		InvitedBy string `json:"invited_by"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	info, err := s.invites.Create(r.Context(), docID, req.DocTitle, req.UserID, req.Email, req.InvitedBy)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handlePendingInvites(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["document"]

	pending, err := s.invites.ListPending(r.Context(), docID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	info, err := s.invites.Accept(r.Context(), vars["document"], vars["invitee"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	userKey := mux.Vars(r)["user"]

	inbox, err := s.invites.Inbox(r.Context(), userKey)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inbox)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	summary, err := s.ai.Summarize(r.Context(), text)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRequestBody); err != nil {
		s.writeError(w, errors.InvalidArgument("invalid multipart form").
			WithCode("ErrInvalidMultipartForm"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, errors.InvalidArgument("audio file is required").
			WithCode("ErrMissingAudioFile"))
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warnf("close audio file: %v", err)
		}
	}()

	audio, err := io.ReadAll(io.LimitReader(file, maxRequestBody))
	if err != nil {
		s.writeError(w, err)
		return
	}

	text, err := s.ai.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleCheckPlagiarism(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	result, err := s.ai.ClassifyOriginality(r.Context(), text)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.decodeJSON(w, r, &req) {
		return "", false
	}
	if req.Text == "" {
		s.writeError(w, errors.InvalidArgument("text is required").WithCode("ErrMissingText"))
		return "", false
	}
	return req.Text, true
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v); err != nil {
		s.writeError(w, errors.InvalidArgument("invalid request body").
			WithCode("ErrInvalidRequestBody"))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsStatus(err, errors.ErrCodeNotFound):
		status = http.StatusNotFound
	case errors.IsStatus(err, errors.ErrCodeInvalidArgument):
		status = http.StatusBadRequest
	case errors.IsStatus(err, errors.ErrCodeAlreadyExists):
		status = http.StatusConflict
	case errors.IsStatus(err, errors.ErrCodeFailedPrecondition):
		status = http.StatusPreconditionFailed
	case errors.IsStatus(err, errors.ErrCodeUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
