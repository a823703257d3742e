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

// Package server provides the DocuLink server, the main entry point of
// the system. The server receives document writes from sessions, stores
// them and propagates them to the sessions watching the document.
package server

import (
	gosync "sync"

	"github.com/doculink-team/doculink/server/ai"
	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/server/invites"
	"github.com/doculink-team/doculink/server/logging"
	"github.com/doculink-team/doculink/server/profiling"
	"github.com/doculink-team/doculink/server/profiling/prometheus"
	"github.com/doculink-team/doculink/server/rpc"
)

// DocuLink is a server of DocuLink.
type DocuLink struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of DocuLink.
func New(conf *Config) (*DocuLink, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(conf.Backend, conf.Mongo, conf.Redis, metrics)
	if err != nil {
		return nil, err
	}

	aiConf := conf.AI
	if aiConf == nil {
		aiConf = &ai.Config{}
	}

	rpcServer := rpc.NewServer(
		conf.RPC,
		be,
		invites.NewService(be.DB),
		ai.NewClient(aiConf),
	)

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &DocuLink{
		conf:            conf,
		backend:         be,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the rpc port.
func (r *DocuLink) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	if err := r.rpcServer.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("server started: %s", r.RPCAddr())
	return nil
}

// Shutdown shuts down this DocuLink server.
func (r *DocuLink) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.rpcServer.Shutdown(graceful)
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	r.shutdown = true
	close(r.shutdownCh)
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *DocuLink) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RPCAddr returns the address of the RPC.
func (r *DocuLink) RPCAddr() string {
	return r.conf.RPCAddr()
}

// Backend returns the backend of this server. It is used for testing.
func (r *DocuLink) Backend() *backend.Backend {
	return r.backend
}
