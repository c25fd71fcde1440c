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
// file defines the command that converts a raw model response into typed
// blocks.
//
// Logic Flow:
//  1. It receives the raw script text from the provider call command.
//  2. It runs the deterministic block parser over the full text, which
//     yields the typed block sequence plus the trailing response tags
//     (genre, tones, summary).
//  3. It assembles the chunk output record carrying the blocks, tags, raw
//     text, and provenance, and places it into the context for the memory
//     commit command.
//
// Block IDs are prefixed with the chunk ordinal so they stay unique and
// ordered across a whole run.
package commands

import (
	"fmt"

	"github.com/jaycherian/go-cinematify/internal/core/cor"
	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/parser"
)

// BlockParse is a command that parses a raw script into a chunk output.
type BlockParse struct {
	cor.BaseCommand
}

// NewBlockParse is the constructor for the BlockParse command.
func NewBlockParse(name string) *BlockParse {
	return &BlockParse{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the raw text and emits a *model.ChunkOutput.
func (t *BlockParse) Execute(context cor.Context) {
	raw := context.Get(t.GetInputParam()).(string)
	chunkIndex, _ := context.Get(CtxChunkIndex).(int)

	blocks, tags := parser.New(fmt.Sprintf("c%03d", chunkIndex)).Parse(raw)
	if len(blocks) == 0 {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("no blocks parsed from provider response"))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), &model.ChunkOutput{
		Index:   chunkIndex,
		Blocks:  blocks,
		RawText: raw,
		Tags:    tags,
		Source:  model.SourceAI,
	})
}
