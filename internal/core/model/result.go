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

// Package model defines the core data structures for the cinematification
// pipeline. This file contains the transient aggregate types that travel
// between the orchestrator and its callers: per-chunk outputs, response tags
// parsed from the tail of a model reply, book chapters, and the final run
// result with its metadata counts. None of these structures are persisted by
// this module; the out-of-process consumer owns storage.
package model

import (
	"strings"
	"time"
	"unicode"
)

// ChunkSource records which engine produced a chunk's blocks.
type ChunkSource string

const (
	SourceAI      ChunkSource = "ai"      // Produced by a provider call.
	SourceOffline ChunkSource = "offline" // Produced by the deterministic fallback engine.
)

// ResponseTags holds the optional end-of-response metadata tags the model is
// instructed to emit ([GENRE: ...], [TONE: a, b], [SUMMARY: ...]). They are
// consumed by the orchestrator for cross-chunk continuity and book-level
// metadata; they never become blocks.
type ResponseTags struct {
	Genre   string   `json:"genre,omitempty"`
	Tones   []string `json:"tones,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// Merge folds another tag set into this one, keeping the latest non-empty
// value for each field. Streaming parses collect tags segment by segment, so
// the last [SUMMARY: ...] seen wins.
func (t *ResponseTags) Merge(other ResponseTags) {
	if other.Genre != "" {
		t.Genre = other.Genre
	}
	if len(other.Tones) > 0 {
		t.Tones = other.Tones
	}
	if other.Summary != "" {
		t.Summary = other.Summary
	}
}

// Chapter is one detected segment of a full book text.
type Chapter struct {
	Title     string `json:"title"`      // Synthesized from the detected header, or "Full Text".
	Text      string `json:"text"`       // The chapter body.
	StartLine int    `json:"start_line"` // Line-index range within the source text.
	EndLine   int    `json:"end_line"`
}

// ChunkOutput is the result of cinematifying one chunk of a chapter.
type ChunkOutput struct {
	Index   int               `json:"index"`             // Zero-based chunk position within the chapter.
	Blocks  []*CinematicBlock `json:"blocks"`            // Ordered blocks produced for this chunk.
	RawText string            `json:"raw_text"`          // The raw model (or offline) text the blocks came from.
	Tags    ResponseTags      `json:"tags,omitempty"`    // Trailing metadata tags, when the model emitted them.
	Source  ChunkSource       `json:"source"`            // Which engine produced the blocks.
	Err     string            `json:"error,omitempty"`   // The surfaced provider error when the chunk degraded to offline.
	Elapsed time.Duration     `json:"elapsed,omitempty"` // Wall time spent on this chunk.
}

// Metadata aggregates counts over a completed run.
type Metadata struct {
	WordCount       int           `json:"word_count"`
	BlockCount      int           `json:"block_count"`
	DialogueCount   int           `json:"dialogue_count"`
	SfxCount        int           `json:"sfx_count"`
	BeatCount       int           `json:"beat_count"`
	TransitionCount int           `json:"transition_count"`
	Genre           string        `json:"genre,omitempty"`
	Tones           []string      `json:"tones,omitempty"`
	ProcessingTime  time.Duration `json:"processing_time"`
}

// CinematificationResult is the terminal aggregate of a run: blocks in chunk
// order, the concatenated raw text, and the metadata counts. A run always
// completes; chunks that failed against the provider appear with offline
// output rather than aborting the whole result.
type CinematificationResult struct {
	RunID         string            `json:"run_id"`
	Blocks        []*CinematicBlock `json:"blocks"`
	RawText       string            `json:"raw_text"`
	Chunks        []*ChunkOutput    `json:"chunks"`
	OfflineChunks int               `json:"offline_chunks"`
	Metadata      Metadata          `json:"metadata"`
}

// CountWords tallies whitespace-delimited words, used for run metadata.
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, unicode.IsSpace))
}

// Tally recomputes the block-derived metadata counts from the result's
// blocks. Word count and timing fields are left to the orchestrator.
func (r *CinematificationResult) Tally() {
	m := &r.Metadata
	m.BlockCount = len(r.Blocks)
	m.DialogueCount, m.SfxCount, m.BeatCount, m.TransitionCount = 0, 0, 0, 0
	for _, b := range r.Blocks {
		switch b.Type {
		case BlockTypeDialogue:
			m.DialogueCount++
		case BlockTypeSfx:
			m.SfxCount++
		case BlockTypeBeat:
			m.BeatCount++
		case BlockTypeTransition:
			m.TransitionCount++
		}
	}
}
