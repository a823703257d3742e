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

package ai

import (
	"fmt"
	"time"
)

const (
	// DefaultBaseURL is the default endpoint of the chat completion API.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultChatModel is the default model used for text tasks.
	DefaultChatModel = "llama-3.1-8b-instant"

	// DefaultAudioModel is the default model used for transcription.
	DefaultAudioModel = "whisper-large-v3"
)

// Config is the configuration for creating a Client instance.
type Config struct {
	// BaseURL is the endpoint of the OpenAI-compatible API.
	BaseURL string `yaml:"BaseURL"`

	// APIKey authenticates requests. If empty, the AI services are disabled.
	APIKey string `yaml:"APIKey"`

	// ChatModel is the model used for summaries and originality checks.
	ChatModel string `yaml:"ChatModel"`

	// AudioModel is the model used for transcription.
	AudioModel string `yaml:"AudioModel"`

	// RequestTimeout is the timeout of a single API request.
	RequestTimeout string `yaml:"RequestTimeout"`
}

func (c *Config) ensureDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.AudioModel == "" {
		c.AudioModel = DefaultAudioModel
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.RequestTimeout == "" {
		return nil
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--ai-request-timeout" flag: %w`,
			c.RequestTimeout,
			err,
		)
	}
	return nil
}

func (c *Config) parseRequestTimeout() time.Duration {
	result, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return result
}
