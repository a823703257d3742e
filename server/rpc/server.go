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

// Package rpc provides the HTTP surface of the server: a websocket sync
// hub per document and REST endpoints for snapshots, downloads, invites
// and AI text services.
package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/doculink-team/doculink/server/ai"
	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/server/invites"
	"github.com/doculink-team/doculink/server/logging"
	"github.com/doculink-team/doculink/store"
)

// Server is the HTTP server of DocuLink.
type Server struct {
	conf       *Config
	backend    *backend.Backend
	store      *store.Store
	invites    *invites.Service
	ai         *ai.Client
	upgrader   websocket.Upgrader
	router     *mux.Router
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer creates an instance of Server.
func NewServer(
	conf *Config,
	be *backend.Backend,
	inviteService *invites.Service,
	aiClient *ai.Client,
) *Server {
	s := &Server{
		conf:    conf,
		backend: be,
		store:   store.New(be),
		invites: inviteService,
		ai:      aiClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logging.New("rpc"),
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/ws/{document}", s.handleWatch).Methods(http.MethodGet)

	router.HandleFunc("/documents/{document}", s.handleGetDocument).Methods(http.MethodGet)
	router.HandleFunc("/documents/{document}/snapshot", s.handleSnapshot).Methods(http.MethodPost)
	router.HandleFunc("/documents/{document}/versions", s.handleListVersions).Methods(http.MethodGet)
	router.HandleFunc("/documents/{document}/restore", s.handleRestore).Methods(http.MethodPost)

	router.HandleFunc("/download", s.handleRequestDownload).Methods(http.MethodPost)
	router.HandleFunc("/download/{key}", s.handleDownload).Methods(http.MethodGet)

	router.HandleFunc("/documents/{document}/invite", s.handleCreateInvite).Methods(http.MethodPost)
	router.HandleFunc("/documents/{document}/invites/pending", s.handlePendingInvites).Methods(http.MethodGet)
	router.HandleFunc("/documents/{document}/invites/{invitee}/accept", s.handleAcceptInvite).Methods(http.MethodPost)
	router.HandleFunc("/inbox/{user}", s.handleInbox).Methods(http.MethodGet)

	router.HandleFunc("/ai/summarize", s.handleSummarize).Methods(http.MethodPost)
	router.HandleFunc("/ai/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	router.HandleFunc("/check-plagiarism", s.handleCheckPlagiarism).Methods(http.MethodPost)

	return router
}

// Handler returns the root handler. It is used by tests to drive the
// server with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts to handle requests on incoming connections.
func (s *Server) Start() error {
	go func() {
		s.logger.Infof("serving rpc on %d", s.conf.Port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Errorf("HTTP server ListenAndServe: %v", err)
		}
	}()
	return nil
}

// Shutdown shuts down the server.
func (s *Server) Shutdown(graceful bool) {
	if graceful {
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("HTTP server Shutdown: %v", err)
		}
		return
	}

	if err := s.httpServer.Close(); err != nil {
		s.logger.Errorf("HTTP server close: %v", err)
	}
}
