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

package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doculink-team/doculink/pkg/presence"
	"github.com/doculink-team/doculink/server/ai"
	"github.com/doculink-team/doculink/server/backend"
	"github.com/doculink-team/doculink/server/backend/broadcast"
	"github.com/doculink-team/doculink/server/backend/database/mongo"
	"github.com/doculink-team/doculink/server/profiling"
	"github.com/doculink-team/doculink/server/rpc"
)

const (
	// DefaultRPCPort is the default port of the RPC server.
	DefaultRPCPort = 8080

	// DefaultProfilingPort is the default port of the profiling server.
	DefaultProfilingPort = 8081

	// DefaultBlobBaseURL is the default base URL of signed download links.
	DefaultBlobBaseURL = "http://localhost:8080"

	// DefaultDownloadURLTTL is the default lifetime of signed download links.
	DefaultDownloadURLTTL = "15m"

	// DefaultMongoConnectionURI is the default URI of the MongoDB.
	DefaultMongoConnectionURI = "mongodb://localhost:27017"

	// DefaultMongoConnectionTimeout is the default timeout of connecting to MongoDB.
	DefaultMongoConnectionTimeout = "5s"

	// DefaultMongoPingTimeout is the default timeout of pinging MongoDB.
	DefaultMongoPingTimeout = "5s"

	// DefaultMongoDatabase is the default name of the database of DocuLink.
	DefaultMongoDatabase = "doculink"
)

// Config is the configuration for creating a DocuLink instance.
type Config struct {
	RPC       *rpc.Config       `yaml:"RPC"`
	Profiling *profiling.Config `yaml:"Profiling"`
	Backend   *backend.Config   `yaml:"Backend"`
	Mongo     *mongo.Config     `yaml:"Mongo"`
	Redis     *broadcast.Config `yaml:"Redis"`
	AI        *ai.Config        `yaml:"AI"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct read from the given path.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	if c.AI != nil {
		if err := c.AI.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.RPC == nil {
		c.RPC = &rpc.Config{}
	}
	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}

	if c.Profiling == nil {
		c.Profiling = &profiling.Config{}
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.BlobBaseURL == "" {
		c.Backend.BlobBaseURL = DefaultBlobBaseURL
	}
	if c.Backend.DownloadURLTTL == "" {
		c.Backend.DownloadURLTTL = DefaultDownloadURLTTL
	}
	if c.Backend.PresenceStaleThreshold == "" {
		c.Backend.PresenceStaleThreshold = presence.DefaultStaleThreshold.String()
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout
		}
		if c.Mongo.Database == "" {
			c.Mongo.Database = DefaultMongoDatabase
		}
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port: port,
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Backend: &backend.Config{
			BlobBaseURL:            DefaultBlobBaseURL,
			DownloadURLTTL:         DefaultDownloadURLTTL,
			PresenceStaleThreshold: presence.DefaultStaleThreshold.String(),
		},
	}
}
