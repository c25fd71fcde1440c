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

package workflow

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-cinematify/internal/config"
	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/providers"
	test "github.com/jaycherian/go-cinematify/internal/testutil"
)

// scriptAdapter returns a fixed grammar-valid script for every prompt, and
// can be told to fail a number of leading calls.
type scriptAdapter struct {
	mu        sync.Mutex
	script    string
	failFirst int
	calls     int
	streaming bool
}

func (a *scriptAdapter) Kind() providers.Kind { return providers.KindGemini }

func (a *scriptAdapter) Generate(context.Context, providers.Prompt) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.failFirst > 0 {
		a.failFirst--
		return "", providers.NewError(providers.ErrAuth, assert.AnError)
	}
	return a.script, nil
}

func (a *scriptAdapter) Stream(ctx context.Context, prompt providers.Prompt) (<-chan providers.Delta, bool) {
	if !a.streaming {
		return nil, false
	}
	text, err := a.Generate(ctx, prompt)
	out := make(chan providers.Delta, 8)
	go func() {
		defer close(out)
		if err != nil {
			out <- providers.Delta{Err: err}
			return
		}
		// Deliver in uneven pieces to exercise incremental parsing.
		for len(text) > 0 {
			n := 17
			if n > len(text) {
				n = len(text)
			}
			out <- providers.Delta{Text: text[:n]}
			text = text[n:]
		}
	}()
	return out, true
}

const testScript = `FADE IN

Rain hammered the tin roof.

SFX: THUNDER

"We need to leave tonight," said Vera.

BEAT

[GENRE: thriller]
[TONE: urgent, grim]
[SUMMARY: Vera decides they must flee during the storm.]`

func newTestCinematifier(t *testing.T, adapter providers.Adapter) *Cinematifier {
	t.Helper()
	cfg := config.Default()
	c, err := NewCinematifier(cfg, adapter, config.Provider{Temperature: 0.5, Streaming: false}, nil)
	require.NoError(t, err)
	return c
}

func TestCinematifyTextWithProvider(t *testing.T) {
	adapter := &scriptAdapter{script: testScript}
	c := newTestCinematifier(t, adapter)

	result := c.CinematifyText(context.Background(), "A stormy night. The decision could not wait.", Options{AIEnabled: true})

	require.NotEmpty(t, result.Blocks)
	assert.NotEmpty(t, result.RunID)
	assert.Zero(t, result.OfflineChunks)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, model.SourceAI, result.Chunks[0].Source)

	assert.Equal(t, "thriller", result.Metadata.Genre)
	assert.Equal(t, []string{"urgent", "grim"}, result.Metadata.Tones)
	assert.Equal(t, 1, result.Metadata.SfxCount)
	assert.Equal(t, 1, result.Metadata.DialogueCount)
	assert.Equal(t, 1, result.Metadata.BeatCount)
	assert.Equal(t, 1, result.Metadata.TransitionCount)
	assert.Equal(t, len(result.Blocks), result.Metadata.BlockCount)
	assert.Positive(t, result.Metadata.WordCount)
}

func TestCinematifyTextDegradesToOffline(t *testing.T) {
	adapter := &scriptAdapter{script: testScript, failFirst: 100}
	c := newTestCinematifier(t, adapter)

	result := c.CinematifyText(context.Background(), `Thunder roared. "Run!" screamed Elena.`, Options{AIEnabled: true})

	require.Len(t, result.Chunks, 1)
	assert.Equal(t, model.SourceOffline, result.Chunks[0].Source)
	assert.Equal(t, 1, result.OfflineChunks)
	assert.NotEmpty(t, result.Blocks)
	// The degraded chunk carries the provider error that triggered fallback.
	assert.Contains(t, result.Chunks[0].Err, "call-provider")
}

func TestCinematifyTextSuccessfulChunkHasNoError(t *testing.T) {
	adapter := &scriptAdapter{script: testScript}
	c := newTestCinematifier(t, adapter)

	result := c.CinematifyText(context.Background(), "Rain hammered the tin roof.", Options{AIEnabled: true})

	require.Len(t, result.Chunks, 1)
	assert.Equal(t, model.SourceAI, result.Chunks[0].Source)
	assert.Empty(t, result.Chunks[0].Err)
}

func TestCinematifyOfflineNeverCallsProvider(t *testing.T) {
	adapter := &scriptAdapter{script: testScript}
	c := newTestCinematifier(t, adapter)

	result := c.CinematifyOffline(context.Background(), "The bell rang across the empty square.", Options{})

	assert.Zero(t, adapter.calls)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, model.SourceOffline, result.Chunks[0].Source)
	assert.Zero(t, result.OfflineChunks)
}

func TestCinematifyTextCallbacks(t *testing.T) {
	adapter := &scriptAdapter{script: testScript}
	c := newTestCinematifier(t, adapter)

	var progress [][2]int
	var chunkIndices []int
	result := c.CinematifyText(context.Background(), "One short passage.", Options{
		AIEnabled:  true,
		OnProgress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
		OnChunk:    func(chunk *model.ChunkOutput) { chunkIndices = append(chunkIndices, chunk.Index) },
	})

	require.Len(t, result.Chunks, 1)
	assert.Equal(t, [][2]int{{1, 1}}, progress)
	assert.Equal(t, []int{0}, chunkIndices)
}

func TestCinematifyTextStreamingEmitsBlocks(t *testing.T) {
	adapter := &scriptAdapter{script: testScript, streaming: true}
	cfg := config.Default()
	c, err := NewCinematifier(cfg, adapter, config.Provider{Streaming: true}, nil)
	require.NoError(t, err)

	var streamed []*model.CinematicBlock
	result := c.CinematifyText(context.Background(), "One short passage.", Options{
		AIEnabled: true,
		OnBlock:   func(_ int, block *model.CinematicBlock) { streamed = append(streamed, block) },
	})

	require.NotEmpty(t, result.Blocks)
	require.NotEmpty(t, streamed)
	// Streamed blocks mirror the final authoritative parse.
	assert.Equal(t, len(result.Blocks), len(streamed))
	for i := range streamed {
		assert.Equal(t, result.Blocks[i].Type, streamed[i].Type)
	}
}

func TestCinematifyTextMultipleChunks(t *testing.T) {
	adapter := &scriptAdapter{script: testScript}
	cfg := config.Default()
	cfg.Application.ChunkBudget = 200
	c, err := NewCinematifier(cfg, adapter, config.Provider{}, nil)
	require.NoError(t, err)

	paragraph := strings.Repeat("The caravan moved slowly through the pass. ", 4)
	raw := paragraph + "\n\n" + paragraph + "\n\n" + paragraph

	result := c.CinematifyText(context.Background(), raw, Options{AIEnabled: true})
	require.Greater(t, len(result.Chunks), 1)

	// Block IDs stay unique across chunks.
	seen := make(map[string]bool)
	for _, b := range result.Blocks {
		require.False(t, seen[b.ID], "duplicate block id %s", b.ID)
		seen[b.ID] = true
	}
}

func TestCinematifyBook(t *testing.T) {
	adapter := &scriptAdapter{script: testScript}
	c := newTestCinematifier(t, adapter)

	book := `Chapter 1: Departure

The caravan left at dawn, winding toward the mountains far beyond the valley floor, and nobody looked back at the town they were leaving behind forever.

Chapter 2: The Pass

Snow closed in around them on the third day, and the wind howled without pause until even the mules refused to take another step up the narrow trail.`

	results := c.CinematifyBook(context.Background(), book, Options{AIEnabled: true})
	require.Len(t, results, 2)
	assert.Equal(t, "Chapter 1: Departure", results[0].Chapter.Title)
	assert.Equal(t, "Chapter 2: The Pass", results[1].Chapter.Title)
	for _, r := range results {
		assert.NotEmpty(t, r.Result.Blocks)
	}
}

func TestCinematifySharedFixtures(t *testing.T) {
	c := newTestCinematifier(t, nil)

	result := c.CinematifyOffline(context.Background(), test.GetTestPassage(), Options{})
	require.NotEmpty(t, result.Blocks)
	assert.Positive(t, result.Metadata.DialogueCount)
	assert.Positive(t, result.Metadata.SfxCount)

	chapters := c.CinematifyBook(context.Background(), test.GetTestBook(), Options{})
	require.Len(t, chapters, 2)
	for _, ch := range chapters {
		assert.NotEmpty(t, ch.Result.Blocks)
		assert.Equal(t, ch.Result.Metadata.BlockCount, len(ch.Result.Blocks))
	}
}
