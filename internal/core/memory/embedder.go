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

// Package memory keeps narrative continuity across chunks. An Embedder
// turns chunk summaries into vectors; the ContextMemory in memory.go
// stores them and retrieves the most similar prior chunks for prompt
// assembly.
package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Embedder converts text into a dense vector. Implementations must be safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenAIEmbedder produces embeddings with the Gemini embedding models. Calls
// share the provider's rate limiter so embedding traffic counts against the
// same quota as generation traffic.
type GenAIEmbedder struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGenAIEmbedder wires an embedder to an existing genai client. The
// limiter may be nil when the caller does not meter embedding calls.
func NewGenAIEmbedder(client *genai.Client, model string, limiter *rate.Limiter) *GenAIEmbedder {
	return &GenAIEmbedder{client: client, model: model, limiter: limiter}
}

// Embed requests a single embedding vector for the given text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty embedding for model %q", e.model)
	}
	return resp.Embeddings[0].Values, nil
}

// hashDimensions is the vector width of the offline embedder. Wide enough
// that unrelated texts rarely collide on the same buckets.
const hashDimensions = 128

// HashEmbedder is a deterministic, network-free embedder. Each token is
// hashed into a bucket and the resulting histogram is L2-normalized. It is
// no substitute for a learned embedding, but cosine similarity over it
// still ranks texts with shared vocabulary above unrelated ones, which is
// enough for offline runs and tests.
type HashEmbedder struct{}

// Embed hashes the text's tokens into a fixed-width normalized histogram.
func (HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, `.,;:!?"'()[]`)
		if token == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%hashDimensions]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
