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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("model unavailable")
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0, 2}, []float32{1, 0, 2}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestHashEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e := HashEmbedder{}

	a, err := e.Embed(ctx, "the storm over the harbor")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "the storm over the harbor")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-6)
}

func TestRetrieveRanksSharedVocabularyFirst(t *testing.T) {
	ctx := context.Background()
	m := NewContextMemory(HashEmbedder{}, 2)

	m.Commit(ctx, 0, "Elena ran from the storm toward the lighthouse")
	m.Commit(ctx, 1, "the detective lit a cigarette in the rain")
	m.Commit(ctx, 2, "Elena reached the lighthouse door at last")

	got := m.Retrieve(ctx, "Elena and the lighthouse")
	require.Len(t, got, 2)
	indices := []int{got[0].ChunkIndex, got[1].ChunkIndex}
	assert.ElementsMatch(t, []int{0, 2}, indices)
}

func TestRetrieveEmptyMemory(t *testing.T) {
	m := NewContextMemory(HashEmbedder{}, 2)
	assert.Nil(t, m.Retrieve(context.Background(), "anything"))
}

func TestCommitSurvivesEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	m := NewContextMemory(failingEmbedder{}, 2)

	m.Commit(ctx, 0, "a summary that cannot be embedded")
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "a summary that cannot be embedded", m.RollingSummary())
	assert.Nil(t, m.Retrieve(ctx, "query"))
}

func TestRollingSummaryOrder(t *testing.T) {
	ctx := context.Background()
	m := NewContextMemory(HashEmbedder{}, 2)
	m.Commit(ctx, 0, "first.")
	m.Commit(ctx, 1, "second.")
	m.Commit(ctx, 2, "")
	assert.Equal(t, "first. second.", m.RollingSummary())
}

func TestLastSummary(t *testing.T) {
	ctx := context.Background()
	m := NewContextMemory(HashEmbedder{}, 2)
	assert.Equal(t, "", m.LastSummary())

	m.Commit(ctx, 0, "first.")
	m.Commit(ctx, 1, "second.")
	assert.Equal(t, "second.", m.LastSummary())

	// Blank commits do not displace the last real summary.
	m.Commit(ctx, 2, "")
	assert.Equal(t, "second.", m.LastSummary())
}

func TestLastSummarySurvivesEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	m := NewContextMemory(failingEmbedder{}, 2)
	m.Commit(ctx, 0, "a summary that cannot be embedded")
	assert.Equal(t, "a summary that cannot be embedded", m.LastSummary())
}

func TestTopKDefaultsWhenZero(t *testing.T) {
	ctx := context.Background()
	m := NewContextMemory(HashEmbedder{}, 0)
	for i := 0; i < 5; i++ {
		m.Commit(ctx, i, "chunk summary number")
	}
	assert.Len(t, m.Retrieve(ctx, "chunk summary"), DefaultTopK)
}
