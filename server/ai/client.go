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

// Package ai provides text services backed by an OpenAI-compatible API:
// summaries, audio transcription and originality checks.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/doculink-team/doculink/pkg/errors"
	"github.com/doculink-team/doculink/server/logging"
)

var (
	// ErrDisabled occurs when the AI services are used without an API key.
	ErrDisabled = errors.FailedPrecond("ai services are disabled").WithCode("ErrAIDisabled")
)

// Originality is the result of an originality check.
type Originality struct {
	// Status is one of "Likely Copied", "Mostly Original",
	// "Completely Original", or "Unknown" when the model response could
	// not be interpreted.
	Status string `json:"plagiarism_status"`

	// Confidence is the model's confidence in the status, 0-100.
	Confidence int `json:"confidence"`

	// Indicators is a short explanation of the status.
	Indicators string `json:"indicators"`
}

const originalityPrompt = `You are a plagiarism detection assistant.
Analyze the user's text for plagiarism likelihood and respond ONLY in valid JSON format like this:
{
  "plagiarism_status": "Likely Copied" | "Mostly Original" | "Completely Original",
  "confidence": number (0-100),
  "indicators": "short reason (max 1-2 lines)"
}`

const summaryPrompt = `You are a document summarization assistant.
Summarize the user's text in at most three sentences. Respond with the summary only.`

// Client calls an OpenAI-compatible chat/audio API.
type Client struct {
	conf       *Config
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates an instance of Client.
func NewClient(conf *Config) *Client {
	conf.ensureDefaults()
	return &Client{
		conf: conf,
		httpClient: &http.Client{
			Timeout: conf.parseRequestTimeout(),
		},
		logger: logging.New("ai"),
	}
}

// Enabled returns whether the AI services are usable.
func (c *Client) Enabled() bool {
	return c.conf.APIKey != ""
}

// Summarize returns a short summary of the given text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.chat(ctx, summaryPrompt, text)
}

// ClassifyOriginality analyzes the given text for plagiarism likelihood.
// A model response that cannot be interpreted degrades to the "Unknown"
// status instead of failing.
func (c *Client) ClassifyOriginality(ctx context.Context, text string) (Originality, error) {
	raw, err := c.chat(ctx, originalityPrompt, text)
	if err != nil {
		return Originality{}, err
	}

	var result Originality
	if err := json.Unmarshal([]byte(raw), &result); err != nil || result.Status == "" {
		c.logger.Warnf("uninterpretable originality response: %q", raw)
		return Originality{
			Status:     "Unknown",
			Confidence: 0,
			Indicators: "Model response could not be parsed as JSON.",
		}, nil
	}
	return result, nil
}

// Transcribe converts the given audio to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := writer.WriteField("model", c.conf.AudioModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.conf.BaseURL+"/audio/transcriptions",
		&buf,
	)
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.conf.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post transcription: %w", err)
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return body.Text, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.conf.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.conf.BaseURL+"/chat/completions",
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.conf.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post chat completion: %w", err)
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", errors.Internal("chat response has no choices").WithCode("ErrEmptyChatResponse")
	}
	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return errors.Unavailable(
		fmt.Sprintf("ai api returned %d: %s", resp.StatusCode, string(body)),
	).WithCode("ErrAIUpstream")
}

func closeBody(body io.Closer, logger logging.Logger) {
	if err := body.Close(); err != nil {
		logger.Warnf("close response body: %v", err)
	}
}
