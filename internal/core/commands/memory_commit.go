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

// Package commands provides the concrete COR command implementations. This
// file defines the command that records a finished chunk into the context
// memory so later chunks can be prompted with its continuity.
package commands

import (
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/cor"
	"github.com/jaycherian/go-cinematify/internal/core/memory"
	"github.com/jaycherian/go-cinematify/internal/core/model"
)

// summaryFallbackRunes bounds the synthesized summary when the model did
// not emit a [SUMMARY: ...] tag.
const summaryFallbackRunes = 240

// MemoryCommit is a command that stores a chunk's summary in the context
// memory and passes the chunk output through unchanged.
type MemoryCommit struct {
	cor.BaseCommand
	memory *memory.ContextMemory
}

// NewMemoryCommit is the constructor for the MemoryCommit command.
func NewMemoryCommit(name string, mem *memory.ContextMemory) *MemoryCommit {
	return &MemoryCommit{BaseCommand: *cor.NewBaseCommand(name), memory: mem}
}

// Execute commits the chunk summary. The model's own [SUMMARY: ...] tag is
// preferred; when it is missing, the head of the raw text stands in so the
// chunk is still represented in memory.
func (t *MemoryCommit) Execute(context cor.Context) {
	chunk := context.Get(t.GetInputParam()).(*model.ChunkOutput)

	if t.memory != nil {
		summary := chunk.Tags.Summary
		if summary == "" {
			summary = headOf(chunk.RawText, summaryFallbackRunes)
		}
		t.memory.Commit(context.GetContext(), chunk.Index, summary)
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), chunk)
}

func headOf(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
