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

// Package providers defines the generative-AI adapter contract and its
// concrete implementations. Each adapter turns a provider-neutral Prompt
// into one provider's wire format and normalizes failures into the shared
// error taxonomy in errors.go so the resilience layer can treat every
// provider the same way.
package providers

import "context"

// Kind names a configured provider backend.
type Kind string

const (
	KindGemini    Kind = "gemini"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindProxy     Kind = "proxy"
)

// Prompt is the provider-neutral request. The system text carries the
// cinematification instructions and examples; the user text carries the
// chunk plus any retrieved context.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Delta is one streamed fragment of a response. Err is set on the final
// delta when the stream dies mid-flight.
type Delta struct {
	Text string
	Err  error
}

// Adapter is the minimal surface a provider must offer. Generate blocks
// until the full response is available. Stream returns a delta channel and
// true when the provider supports streaming; adapters that do not stream
// return (nil, false) and callers fall back to Generate.
type Adapter interface {
	Kind() Kind
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt) (<-chan Delta, bool)
}
