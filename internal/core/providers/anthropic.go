// Copyright 2025 Jay Cherian
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"

	defaultAnthropicMaxTokens = 4096
)

// AnthropicAdapter drives the Anthropic Messages API over plain HTTP.
// It does not stream; callers fall back to Generate.
type AnthropicAdapter struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicAdapter builds an adapter for the given model. The HTTP
// client may be nil, in which case a client with a generous generation
// timeout is used.
func NewAnthropicAdapter(apiKey, model string, httpClient *http.Client) *AnthropicAdapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &AnthropicAdapter{apiKey: apiKey, model: model, httpClient: httpClient}
}

func (a *AnthropicAdapter) Kind() Kind { return KindAnthropic }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate performs a blocking message request.
func (a *AnthropicAdapter) Generate(ctx context.Context, prompt Prompt) (string, error) {
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	body, err := json.Marshal(anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      prompt.System,
		Temperature: prompt.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt.User}},
	})
	if err != nil {
		return "", NewError(ErrUnknown, fmt.Errorf("anthropic marshal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewError(ErrUnknown, fmt.Errorf("anthropic request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", NewError(Classify(err), fmt.Errorf("anthropic call: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(ErrNetwork, fmt.Errorf("anthropic read: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		perr := NewError(ClassifyStatus(resp.StatusCode),
			fmt.Errorf("anthropic status %d: %s", resp.StatusCode, string(respBody)))
		if perr.Class == ErrRateLimit {
			perr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return "", perr
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("anthropic parse: %w", err))
	}
	if parsed.Error != nil {
		return "", NewError(ErrInvalidResponse,
			fmt.Errorf("anthropic error (%s): %s", parsed.Error.Type, parsed.Error.Message))
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("anthropic: empty response from %q", a.model))
	}
	return stripFence(parsed.Content[0].Text), nil
}

// Stream is not supported; the orchestrator falls back to Generate.
func (a *AnthropicAdapter) Stream(context.Context, Prompt) (<-chan Delta, bool) {
	return nil, false
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
