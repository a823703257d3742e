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

package backend

import (
	"fmt"
	"time"

	"github.com/doculink-team/doculink/server/logging"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// Hostname is the hostname of the node. If empty, the hostname of the
	// current machine is used.
	Hostname string `yaml:"Hostname"`

	// BlobDir is the directory where snapshot blobs are stored. If empty,
	// blobs are kept in memory.
	BlobDir string `yaml:"BlobDir"`

	// BlobBaseURL is the base URL of signed download links.
	BlobBaseURL string `yaml:"BlobBaseURL"`

	// BlobSecretKey is the key used to sign download links.
	BlobSecretKey string `yaml:"BlobSecretKey"`

	// DownloadURLTTL is how long a signed download link stays valid.
	DownloadURLTTL string `yaml:"DownloadURLTTL"`

	// PresenceStaleThreshold is how long a presence record may go without
	// an update before it is hidden from peers.
	PresenceStaleThreshold string `yaml:"PresenceStaleThreshold"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.DownloadURLTTL); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--blob-download-url-ttl" flag: %w`,
			c.DownloadURLTTL,
			err,
		)
	}

	if _, err := time.ParseDuration(c.PresenceStaleThreshold); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--presence-stale-threshold" flag: %w`,
			c.PresenceStaleThreshold,
			err,
		)
	}

	return nil
}

// ParseDownloadURLTTL returns the TTL of signed download links.
func (c *Config) ParseDownloadURLTTL() time.Duration {
	result, err := time.ParseDuration(c.DownloadURLTTL)
	if err != nil {
		logging.DefaultLogger().Fatal("parse download url ttl: %w", err)
	}

	return result
}

// ParsePresenceStaleThreshold returns the staleness threshold of presence records.
func (c *Config) ParsePresenceStaleThreshold() time.Duration {
	result, err := time.ParseDuration(c.PresenceStaleThreshold)
	if err != nil {
		logging.DefaultLogger().Fatal("parse presence stale threshold: %w", err)
	}

	return result
}
