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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the cinematification
// pipeline. This file defines the command that assembles the provider
// prompt for one text chunk.
//
// Logic Flow:
//  1. It receives the chunk's plain text from the context.
//  2. It asks the context memory for the immediately preceding chunk's
//     summary and for the prior chunk summaries most similar to this chunk,
//     so the model keeps character names and threads straight across chunk
//     boundaries.
//  3. It renders the system template (carrying the output grammar and a
//     worked example, few-shot style) and the chunk template (carrying the
//     retrieved continuity plus the chunk itself).
//  4. It places the finished provider-neutral Prompt into the context for
//     the provider call command.
package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/go-cinematify/internal/core/cor"
	"github.com/jaycherian/go-cinematify/internal/core/memory"
	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

// Context keys shared by the chunk pipeline commands.
const (
	// CtxChunkIndex carries the ordinal of the chunk being processed.
	CtxChunkIndex = "chunk_index"
)

// PromptData is the substitution payload for the prompt templates.
type PromptData struct {
	Example  string // Worked example: input prose plus expected script output.
	Previous string // Summary of the immediately preceding chunk; may be empty.
	Context  string // Retrieved continuity from earlier chunks; may be empty.
	Chunk    string // The chunk text to adapt.
}

// PromptBuilder is a command that turns a text chunk into a fully rendered
// provider prompt, enriched with retrieved cross-chunk context.
type PromptBuilder struct {
	cor.BaseCommand
	systemTemplate *template.Template
	chunkTemplate  *template.Template
	memory         *memory.ContextMemory
	temperature    float32
	maxTokens      int
}

// NewPromptBuilder is the constructor for the PromptBuilder command. The
// memory may be nil when runs do not carry context across chunks.
func NewPromptBuilder(
	name string,
	systemTemplate *template.Template,
	chunkTemplate *template.Template,
	mem *memory.ContextMemory,
	temperature float32,
	maxTokens int) *PromptBuilder {
	return &PromptBuilder{
		BaseCommand:    *cor.NewBaseCommand(name),
		systemTemplate: systemTemplate,
		chunkTemplate:  chunkTemplate,
		memory:         mem,
		temperature:    temperature,
		maxTokens:      maxTokens,
	}
}

// Execute renders the system and chunk templates and emits the Prompt.
func (t *PromptBuilder) Execute(context cor.Context) {
	chunkText := context.Get(t.GetInputParam()).(string)

	// The previous chunk's summary is carried unconditionally; retrieval
	// only adds older chunks that similarity brings back. Without this the
	// immediately preceding chunk would vanish from the prompt whenever it
	// shares little vocabulary with the current one.
	var previous, contextBlock string
	if t.memory != nil {
		previous = t.memory.LastSummary()
		entries := t.memory.Retrieve(context.GetContext(), chunkText)
		parts := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Summary == previous {
				continue
			}
			parts = append(parts, fmt.Sprintf("- %s", e.Summary))
		}
		contextBlock = strings.Join(parts, "\n")
	}

	data := PromptData{
		Example:  model.GetExampleExchange(),
		Previous: previous,
		Context:  contextBlock,
		Chunk:    chunkText,
	}

	var system bytes.Buffer
	if err := t.systemTemplate.Execute(&system, data); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute system template: %w", err))
		return
	}
	var user bytes.Buffer
	if err := t.chunkTemplate.Execute(&user, data); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute chunk template: %w", err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), providers.Prompt{
		System:      system.String(),
		User:        user.String(),
		Temperature: t.temperature,
		MaxTokens:   t.maxTokens,
	})
}
