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

// Package parser converts raw model output into typed cinematic blocks.
// This file implements the incremental entry point used while a provider
// response is still streaming. Text deltas are buffered until a blank-line
// boundary appears; only the completed segment ahead of the boundary is
// parsed and emitted, and the buffer cursor advances forward only. Blocks
// therefore come out in text order and no span is ever parsed twice.
package parser

import (
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/model"
)

// segmentBoundary is the paragraph separator that closes a parseable
// segment in the stream.
const segmentBoundary = "\n\n"

// StreamParser consumes incremental text deltas and emits blocks as soon as
// the segment that contains them is complete. It is not goroutine-safe; one
// goroutine owns the stream for its lifetime.
type StreamParser struct {
	parser  *BlockParser
	pending string
	blocks  []*model.CinematicBlock
	tags    model.ResponseTags
	onBlock func(*model.CinematicBlock)
}

// NewStreamParser wraps a BlockParser for incremental input. onBlock, when
// non-nil, is invoked once per emitted block, in order.
func NewStreamParser(p *BlockParser, onBlock func(*model.CinematicBlock)) *StreamParser {
	return &StreamParser{parser: p, onBlock: onBlock}
}

// Feed appends a text delta to the buffer and parses every completed
// segment. It returns the blocks emitted by this call.
func (s *StreamParser) Feed(delta string) []*model.CinematicBlock {
	s.pending += delta
	var emitted []*model.CinematicBlock
	for {
		idx := strings.Index(s.pending, segmentBoundary)
		if idx < 0 {
			return emitted
		}
		segment := s.pending[:idx]
		s.pending = s.pending[idx+len(segmentBoundary):]
		emitted = append(emitted, s.parseSegment(segment)...)
	}
}

// Flush parses whatever remains in the buffer and returns the full ordered
// block sequence plus the accumulated response tags. The stream is done
// after Flush; further Feed calls start a fresh buffer.
func (s *StreamParser) Flush() ([]*model.CinematicBlock, model.ResponseTags) {
	if s.pending != "" {
		s.parseSegment(s.pending)
		s.pending = ""
	}
	return s.blocks, s.tags
}

// parseSegment runs one completed segment through the batch grammar,
// records its blocks and tags, and notifies the block callback.
func (s *StreamParser) parseSegment(segment string) []*model.CinematicBlock {
	blocks, tags := s.parser.Parse(segment)
	s.tags.Merge(tags)
	s.blocks = append(s.blocks, blocks...)
	if s.onBlock != nil {
		for _, b := range blocks {
			s.onBlock(b)
		}
	}
	return blocks
}
