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

package memory

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
)

// DefaultTopK is how many prior chunks a retrieval returns when the caller
// does not configure a different fan-in.
const DefaultTopK = 2

// Entry is one remembered chunk: its ordinal, the summary text that was
// embedded, and the resulting vector.
type Entry struct {
	ChunkIndex int
	Summary    string
	Vector     []float32
}

// ContextMemory accumulates per-chunk summaries over a run so that later
// chunks can be prompted with relevant earlier context. It keeps a short
// rolling summary of the whole run plus an append-only list of embedded
// chunk summaries.
//
// Embedding failures are absorbed: the chunk's summary still lands in the
// rolling summary, it is just not retrievable by similarity. A run never
// fails because the embedding model does.
type ContextMemory struct {
	mu       sync.Mutex
	embedder Embedder
	topK     int
	entries  []Entry
	rolling  []string
}

// NewContextMemory builds a memory around the given embedder. A topK of
// zero or less falls back to DefaultTopK.
func NewContextMemory(embedder Embedder, topK int) *ContextMemory {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ContextMemory{embedder: embedder, topK: topK}
}

// Commit records a finished chunk's summary. The summary is embedded for
// later retrieval and appended to the rolling run summary.
func (m *ContextMemory) Commit(ctx context.Context, chunkIndex int, summary string) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}

	vec, err := m.embedder.Embed(ctx, summary)
	if err != nil {
		slog.WarnContext(ctx, "embedding failed, chunk summary will not be retrievable",
			"chunk", chunkIndex, "error", err.Error())
		vec = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if vec != nil {
		m.entries = append(m.entries, Entry{ChunkIndex: chunkIndex, Summary: summary, Vector: vec})
	}
	m.rolling = append(m.rolling, summary)
}

// Retrieve returns the summaries of the stored chunks most similar to the
// query text, most similar first. It returns nil when nothing is stored or
// the query cannot be embedded.
func (m *ContextMemory) Retrieve(ctx context.Context, query string) []Entry {
	m.mu.Lock()
	count := len(m.entries)
	m.mu.Unlock()
	if count == 0 {
		return nil
	}

	qv, err := m.embedder.Embed(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "query embedding failed, skipping context retrieval", "error", err.Error())
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type scored struct {
		entry Entry
		score float64
	}
	ranked := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		ranked = append(ranked, scored{entry: e, score: Cosine(qv, e.Vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	k := m.topK
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Entry, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.entry)
	}
	return out
}

// RollingSummary joins every committed summary in chunk order. It is bounded
// by the caller's chunking, not by the memory itself.
func (m *ContextMemory) RollingSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.rolling, " ")
}

// LastSummary returns the most recently committed summary, or the empty
// string before the first commit. Unlike Retrieve it does not depend on the
// embedder, so the immediately preceding chunk always reaches the next
// prompt even when embedding failed.
func (m *ContextMemory) LastSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rolling) == 0 {
		return ""
	}
	return m.rolling[len(m.rolling)-1]
}

// Len reports how many retrievable entries the memory holds.
func (m *ContextMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-length vectors score zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
