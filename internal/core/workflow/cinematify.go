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

// Package workflow defines the high-level orchestration that combines the
// pipeline commands into coherent runs. This file implements the primary
// cinematification workflow.
//
// Logic Flow:
//  1. The input prose is normalized: wall-of-text inputs are rebuilt into
//     paragraphs, then paragraphs are planned into chunks that fit the
//     configured budget without ever splitting a paragraph.
//  2. Each chunk runs through a Chain of Responsibility: build the prompt
//     (with continuity retrieved from the run's context memory), call the
//     provider (streaming when available), parse the response into typed
//     blocks, and commit the chunk summary back into memory.
//  3. A chunk whose provider call fails is regenerated with the
//     deterministic offline engine instead; the run always completes.
//  4. Chunks are aggregated in order into the final result with its
//     metadata tallies.
package workflow

import (
	gocontext "context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/go-cinematify/internal/config"
	"github.com/jaycherian/go-cinematify/internal/core/commands"
	"github.com/jaycherian/go-cinematify/internal/core/cor"
	"github.com/jaycherian/go-cinematify/internal/core/memory"
	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/offline"
	"github.com/jaycherian/go-cinematify/internal/core/providers"
	"github.com/jaycherian/go-cinematify/internal/core/text"
)

// ProgressFunc reports chunk completion: how many chunks are done out of
// the planned total.
type ProgressFunc func(completed, total int)

// ChunkFunc receives each chunk output as it finishes, in order.
type ChunkFunc func(chunk *model.ChunkOutput)

// Options tune a single run.
type Options struct {
	// AIEnabled selects the provider path. When false (or no adapter is
	// configured) every chunk uses the offline engine.
	AIEnabled bool
	// OnProgress, OnChunk, and OnBlock are optional callbacks; OnBlock only
	// fires on streamed responses.
	OnProgress ProgressFunc
	OnChunk    ChunkFunc
	OnBlock    commands.BlockCallback
}

// ChapterResult pairs one detected chapter with its run result.
type ChapterResult struct {
	Chapter *model.Chapter                 `json:"chapter"`
	Result  *model.CinematificationResult `json:"result"`
}

// Cinematifier orchestrates cinematification runs. It is safe to reuse
// across runs; each run gets its own context memory.
type Cinematifier struct {
	cfg            *config.Config
	adapter        providers.Adapter // Resilient provider adapter; nil means offline only.
	embedder       memory.Embedder
	streaming      bool
	temperature    float32
	maxTokens      int
	systemTemplate *template.Template
	chunkTemplate  *template.Template
}

// NewCinematifier builds the orchestrator. The adapter should already be
// wrapped by the resilience layer; pass nil for an offline-only
// orchestrator. The provider settings supply temperature, token cap, and
// the streaming preference.
func NewCinematifier(
	cfg *config.Config,
	adapter providers.Adapter,
	provider config.Provider,
	embedder memory.Embedder) (*Cinematifier, error) {
	systemTemplate, err := template.New("system").Parse(cfg.PromptTemplates.System)
	if err != nil {
		return nil, fmt.Errorf("parse system template: %w", err)
	}
	chunkTemplate, err := template.New("chunk").Parse(cfg.PromptTemplates.Chunk)
	if err != nil {
		return nil, fmt.Errorf("parse chunk template: %w", err)
	}
	if embedder == nil {
		embedder = memory.HashEmbedder{}
	}
	return &Cinematifier{
		cfg:            cfg,
		adapter:        adapter,
		embedder:       embedder,
		streaming:      provider.Streaming,
		temperature:    provider.Temperature,
		maxTokens:      provider.MaxTokens,
		systemTemplate: systemTemplate,
		chunkTemplate:  chunkTemplate,
	}, nil
}

// CinematifyText converts one passage of prose into a completed run
// result. The run never fails outright: chunks that cannot be produced by
// the provider degrade to the offline engine one by one.
func (c *Cinematifier) CinematifyText(ctx gocontext.Context, raw string, opts Options) *model.CinematificationResult {
	start := time.Now()
	runID := uuid.NewString()

	normalized := text.ReconstructParagraphs(raw)
	budget := c.cfg.Application.ChunkBudget
	if budget <= 0 {
		budget = text.DefaultChunkBudget
	}
	chunks := text.PlanChunks(normalized, budget)

	useAI := opts.AIEnabled && c.adapter != nil
	mem := memory.NewContextMemory(c.embedder, c.cfg.Memory.TopK)

	result := &model.CinematificationResult{RunID: runID}
	for i, chunkText := range chunks {
		var output *model.ChunkOutput
		var chainErr error
		if useAI {
			output, chainErr = c.runChunkChain(ctx, mem, i, chunkText, opts)
		}
		if output == nil {
			output = c.offlineChunk(ctx, mem, i, chunkText)
			if useAI {
				result.OfflineChunks++
				if chainErr != nil {
					output.Err = chainErr.Error()
				}
			}
		}
		result.Chunks = append(result.Chunks, output)
		result.Blocks = append(result.Blocks, output.Blocks...)
		result.Metadata.Genre, result.Metadata.Tones = mergeTags(result.Metadata.Genre, result.Metadata.Tones, output.Tags)

		if opts.OnChunk != nil {
			opts.OnChunk(output)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(chunks))
		}
	}

	rawParts := make([]string, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		rawParts = append(rawParts, chunk.RawText)
	}
	result.RawText = strings.Join(rawParts, "\n\n")
	result.Tally()
	result.Metadata.WordCount = model.CountWords(raw)
	result.Metadata.ProcessingTime = time.Since(start)
	return result
}

// CinematifyOffline runs the deterministic path regardless of configured
// providers.
func (c *Cinematifier) CinematifyOffline(ctx gocontext.Context, raw string, opts Options) *model.CinematificationResult {
	opts.AIEnabled = false
	return c.CinematifyText(ctx, raw, opts)
}

// CinematifyBook segments a full manuscript into chapters and runs each
// chapter as its own passage, preserving chapter boundaries in the output.
func (c *Cinematifier) CinematifyBook(ctx gocontext.Context, raw string, opts Options) []*ChapterResult {
	chapters := text.SegmentChapters(raw)
	results := make([]*ChapterResult, 0, len(chapters))
	for _, chapter := range chapters {
		results = append(results, &ChapterResult{
			Chapter: chapter,
			Result:  c.CinematifyText(ctx, chapter.Text, opts),
		})
	}
	return results
}

// runChunkChain executes the AI chunk pipeline. It returns a nil output and
// the triggering error when the chain failed and the chunk should degrade to
// the offline engine.
func (c *Cinematifier) runChunkChain(
	ctx gocontext.Context,
	mem *memory.ContextMemory,
	index int,
	chunkText string,
	opts Options) (*model.ChunkOutput, error) {
	chunkStart := time.Now()

	chain := cor.NewBaseChain(fmt.Sprintf("cinematify-chunk-%03d", index))
	chain.AddCommand(commands.NewPromptBuilder(
		"build-prompt", c.systemTemplate, c.chunkTemplate, mem, c.temperature, c.maxTokens))
	chain.AddCommand(commands.NewProviderCall("call-provider", c.adapter, c.streaming, opts.OnBlock))
	chain.AddCommand(commands.NewBlockParse("parse-blocks"))
	chain.AddCommand(commands.NewMemoryCommit("commit-memory", mem))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, chunkText)
	chainCtx.Add(commands.CtxChunkIndex, index)
	chain.Execute(chainCtx)

	if chainCtx.HasErrors() {
		errs := make([]error, 0, len(chainCtx.GetErrors()))
		for name, err := range chainCtx.GetErrors() {
			slog.WarnContext(ctx, "chunk degrading to offline engine",
				"chunk", index, "command", name, "error", err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return nil, errors.Join(errs...)
	}

	output, ok := chainCtx.Get(cor.CtxIn).(*model.ChunkOutput)
	if !ok || output == nil {
		slog.WarnContext(ctx, "chunk chain produced no output, degrading to offline engine", "chunk", index)
		return nil, errors.New("chunk chain produced no output")
	}
	output.Elapsed = time.Since(chunkStart)
	return output, nil
}

// offlineChunk produces a chunk with the deterministic engine, keeping the
// block ID scheme aligned with the parser's chunk prefixes and committing
// a summary so later AI chunks still see this chunk's continuity.
func (c *Cinematifier) offlineChunk(
	ctx gocontext.Context,
	mem *memory.ContextMemory,
	index int,
	chunkText string) *model.ChunkOutput {
	chunkStart := time.Now()

	seq := 0
	engine := offline.NewEngineWithIDs(func() string {
		seq++
		return fmt.Sprintf("c%03d-%04d", index, seq)
	})
	blocks := engine.Cinematify(chunkText)

	output := &model.ChunkOutput{
		Index:   index,
		Blocks:  blocks,
		RawText: offline.Render(blocks),
		Source:  model.SourceOffline,
		Elapsed: time.Since(chunkStart),
	}
	mem.Commit(ctx, index, headSummary(chunkText))
	return output
}

// headSummary is the continuity stand-in for offline chunks, which have no
// model-written summary.
func headSummary(chunkText string) string {
	const limit = 240
	chunkText = strings.TrimSpace(chunkText)
	runes := []rune(chunkText)
	if len(runes) <= limit {
		return chunkText
	}
	return string(runes[:limit])
}

func mergeTags(genre string, tones []string, tags model.ResponseTags) (string, []string) {
	if tags.Genre != "" {
		genre = tags.Genre
	}
	if len(tags.Tones) > 0 {
		tones = tags.Tones
	}
	return genre, tones
}
