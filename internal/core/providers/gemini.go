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
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiAdapter drives the Gemini models through the genai SDK.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter builds an adapter over an existing genai client.
func NewGeminiAdapter(client *genai.Client, model string) *GeminiAdapter {
	return &GeminiAdapter{client: client, model: model}
}

func (a *GeminiAdapter) Kind() Kind { return KindGemini }

func (a *GeminiAdapter) config(prompt Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](prompt.Temperature),
	}
	if prompt.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(prompt.MaxTokens)
	}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	return cfg
}

// Generate performs a blocking completion and concatenates the text parts
// of every candidate.
func (a *GeminiAdapter) Generate(ctx context.Context, prompt Prompt) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)}
	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, a.config(prompt))
	if err != nil {
		return "", NewError(ErrNetwork, fmt.Errorf("gemini generate: %w", err))
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("gemini generate: empty response from %q", a.model))
	}
	return stripFence(sb.String()), nil
}

// Stream performs a streaming completion, forwarding each response chunk's
// text as a delta.
func (a *GeminiAdapter) Stream(ctx context.Context, prompt Prompt) (<-chan Delta, bool) {
	contents := []*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)}
	out := make(chan Delta, 8)
	go func() {
		defer close(out)
		for resp, err := range a.client.Models.GenerateContentStream(ctx, a.model, contents, a.config(prompt)) {
			if err != nil {
				out <- Delta{Err: NewError(ErrNetwork, fmt.Errorf("gemini stream: %w", err))}
				return
			}
			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					if part.Text != "" {
						out <- Delta{Text: part.Text}
					}
				}
			}
		}
	}()
	return out, true
}

// stripFence removes a markdown code fence the model sometimes wraps its
// plain-text output in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
