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
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIAdapter drives the OpenAI chat-completion models.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// NewOpenAIAdapter builds an adapter over an existing OpenAI client.
func NewOpenAIAdapter(client openai.Client, model string) *OpenAIAdapter {
	return &OpenAIAdapter{client: client, model: model}
}

func (a *OpenAIAdapter) Kind() Kind { return KindOpenAI }

func (a *OpenAIAdapter) params(prompt Prompt) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(float64(prompt.Temperature)),
	}
	if prompt.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(prompt.MaxTokens))
	}
	return params
}

// classifyOpenAI maps SDK errors onto the shared taxonomy using the
// response status when one is available.
func classifyOpenAI(err error) *ProviderError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return NewError(ClassifyStatus(apiErr.StatusCode), err)
	}
	return NewError(Classify(err), err)
}

// Generate performs a blocking chat completion.
func (a *OpenAIAdapter) Generate(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, a.params(prompt))
	if err != nil {
		return "", classifyOpenAI(fmt.Errorf("openai generate: %w", err))
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", NewError(ErrInvalidResponse, fmt.Errorf("openai generate: empty response from %q", a.model))
	}
	return stripFence(resp.Choices[0].Message.Content), nil
}

// Stream performs a streaming chat completion, forwarding the delta content
// of the first choice.
func (a *OpenAIAdapter) Stream(ctx context.Context, prompt Prompt) (<-chan Delta, bool) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, a.params(prompt))
	out := make(chan Delta, 8)
	go func() {
		defer close(out)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if text := chunk.Choices[0].Delta.Content; text != "" {
				out <- Delta{Text: text}
			}
		}
		if err := stream.Err(); err != nil {
			out <- Delta{Err: classifyOpenAI(fmt.Errorf("openai stream: %w", err))}
		}
	}()
	return out, true
}
