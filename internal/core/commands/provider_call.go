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
// file defines the command that executes the rendered prompt against an AI
// provider.
//
// Logic Flow:
//  1. It receives the provider-neutral Prompt from the context.
//  2. When the adapter streams and streaming is enabled, deltas are fed
//     through an incremental block parser so finished blocks surface to the
//     caller while the model is still writing. The assembled raw text is
//     the command's output either way; the authoritative parse happens in
//     the block-parse command.
//  3. When the adapter does not stream, a single blocking call is made.
//  4. Failures are recorded on the context; the workflow decides whether
//     the chunk falls back to the offline engine.
package commands

import (
	"fmt"
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/cor"
	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/parser"
	"github.com/jaycherian/go-cinematify/internal/core/providers"
)

// BlockCallback receives blocks as a streamed response completes them.
type BlockCallback func(chunkIndex int, block *model.CinematicBlock)

// ProviderCall is a command that runs one prompt against one provider,
// streaming when the provider allows it.
type ProviderCall struct {
	cor.BaseCommand
	adapter   providers.Adapter
	streaming bool
	onBlock   BlockCallback
}

// NewProviderCall is the constructor for the ProviderCall command. The
// callback may be nil when nobody consumes incremental blocks.
func NewProviderCall(name string, adapter providers.Adapter, streaming bool, onBlock BlockCallback) *ProviderCall {
	return &ProviderCall{
		BaseCommand: *cor.NewBaseCommand(name),
		adapter:     adapter,
		streaming:   streaming,
		onBlock:     onBlock,
	}
}

// Execute sends the prompt upstream and places the raw response text into
// the context.
func (t *ProviderCall) Execute(context cor.Context) {
	prompt := context.Get(t.GetInputParam()).(providers.Prompt)
	chunkIndex, _ := context.Get(CtxChunkIndex).(int)

	var raw string
	var err error
	if t.streaming {
		raw, err = t.stream(context, prompt, chunkIndex)
	} else {
		raw, err = t.adapter.Generate(context.GetContext(), prompt)
	}
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("provider %s call failed: %w", t.adapter.Kind(), err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), raw)
}

// stream consumes the delta channel, surfacing completed blocks through
// the callback as they arrive. Falls back to a blocking call when the
// adapter does not stream.
func (t *ProviderCall) stream(context cor.Context, prompt providers.Prompt, chunkIndex int) (string, error) {
	deltas, ok := t.adapter.Stream(context.GetContext(), prompt)
	if !ok {
		return t.adapter.Generate(context.GetContext(), prompt)
	}

	incremental := parser.NewStreamParser(
		parser.New(fmt.Sprintf("s%03d", chunkIndex)),
		func(block *model.CinematicBlock) {
			if t.onBlock != nil {
				t.onBlock(chunkIndex, block)
			}
		})

	var assembled strings.Builder
	for delta := range deltas {
		if delta.Err != nil {
			return "", delta.Err
		}
		assembled.WriteString(delta.Text)
		incremental.Feed(delta.Text)
	}
	incremental.Flush()

	if assembled.Len() == 0 {
		return "", providers.NewError(providers.ErrInvalidResponse,
			fmt.Errorf("provider %s returned an empty stream", t.adapter.Kind()))
	}
	return assembled.String(), nil
}
