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
	"strings"
	"time"
)

// ProxyAdapter forwards prompts to an intermediary AI gateway instead of
// calling a provider directly. The gateway exposes one POST route per
// upstream provider and keeps the credentials server-side.
type ProxyAdapter struct {
	baseURL    string
	upstream   Kind
	httpClient *http.Client
}

// NewProxyAdapter builds an adapter that posts to
// {baseURL}/api/ai/{upstream}. The HTTP client may be nil.
func NewProxyAdapter(baseURL string, upstream Kind, httpClient *http.Client) *ProxyAdapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &ProxyAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		upstream:   upstream,
		httpClient: httpClient,
	}
}

func (a *ProxyAdapter) Kind() Kind { return KindProxy }

type proxyRequest struct {
	System      string  `json:"system,omitempty"`
	User        string  `json:"user"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

type proxyResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Generate posts the prompt to the gateway and returns its text.
func (a *ProxyAdapter) Generate(ctx context.Context, prompt Prompt) (string, error) {
	body, err := json.Marshal(proxyRequest{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	})
	if err != nil {
		return "", NewError(ErrUnknown, fmt.Errorf("proxy marshal: %w", err))
	}

	url := fmt.Sprintf("%s/api/ai/%s", a.baseURL, a.upstream)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", NewError(ErrUnknown, fmt.Errorf("proxy request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", NewError(Classify(err), fmt.Errorf("proxy call: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewError(ErrNetwork, fmt.Errorf("proxy read: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		perr := NewError(ClassifyStatus(resp.StatusCode),
			fmt.Errorf("proxy status %d: %s", resp.StatusCode, string(respBody)))
		if perr.Class == ErrRateLimit {
			perr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return "", perr
	}

	var parsed proxyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("proxy parse: %w", err))
	}
	if parsed.Error != "" {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("proxy error: %s", parsed.Error))
	}
	if parsed.Text == "" {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("proxy: empty response"))
	}
	return stripFence(parsed.Text), nil
}

// Stream is not supported over the gateway; callers use Generate.
func (a *ProxyAdapter) Stream(context.Context, Prompt) (<-chan Delta, bool) {
	return nil, false
}
