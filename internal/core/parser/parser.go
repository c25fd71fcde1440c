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

// Package parser converts raw model output (or offline heuristic text) into
// ordered, typed cinematic blocks. This file implements the batch entry
// point: the whole text is split into blank-line paragraphs, then lines,
// and every line runs through the prioritized rule list in rules.go.
//
// Guarantees:
//   - The parser never fails on malformed input; unrecognized lines become
//     action blocks.
//   - Inline [EMOTION] and [TENSION] tags are stripped from the displayed
//     content and attached to the resulting block; tension is clamped to
//     [0, 100]. Stripping is idempotent: parsing already-stripped text a
//     second time extracts nothing further and leaves content unchanged.
//   - Trailing [GENRE], [TONE], and [SUMMARY] tags are collected as response
//     metadata and never emitted as blocks.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/text"
)

var (
	emotionTag = regexp.MustCompile(`(?i)\[\s*EMOTION:\s*([a-zA-Z]+)\s*\]\s*`)
	tensionTag = regexp.MustCompile(`(?i)\[\s*TENSION:\s*(-?\d+)\s*\]\s*`)
	genreTag   = regexp.MustCompile(`(?i)\[\s*GENRE:\s*([^\]]+)\]\s*`)
	toneTag    = regexp.MustCompile(`(?i)\[\s*TONE:\s*([^\]]+)\]\s*`)
	summaryTag = regexp.MustCompile(`(?i)\[\s*SUMMARY:\s*([^\]]+)\]\s*`)

	spaceRun = regexp.MustCompile(`[ \t]{2,}`)
)

// BlockParser assigns run-scoped block IDs and drives the line grammar. One
// parser instance serves exactly one cinematification run so that IDs stay
// unique and monotonic across chunks.
type BlockParser struct {
	prefix string
	seq    int
}

// New creates a parser whose block IDs carry the given run prefix.
func New(prefix string) *BlockParser {
	if prefix == "" {
		prefix = "blk"
	}
	return &BlockParser{prefix: prefix}
}

// nextID mints the next monotonic block identifier for this run.
func (p *BlockParser) nextID() string {
	p.seq++
	return fmt.Sprintf("%s-%04d", p.prefix, p.seq)
}

// lineMeta holds the inline metadata stripped from a line before
// classification.
type lineMeta struct {
	emotion string
	tension *int
}

// stripInlineTags removes [EMOTION] and [TENSION] tags from a line,
// returning the cleaned line and the extracted metadata. The replacement
// also swallows the whitespace that trailed each tag, so repeated passes
// leave already-clean text untouched.
func stripInlineTags(line string) (string, lineMeta) {
	var meta lineMeta
	if m := emotionTag.FindStringSubmatch(line); m != nil {
		meta.emotion = strings.ToLower(m[1])
		line = emotionTag.ReplaceAllString(line, "")
	}
	if m := tensionTag.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			clamped := model.ClampTension(n)
			meta.tension = &clamped
		}
		line = tensionTag.ReplaceAllString(line, "")
	}
	line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	return line, meta
}

// stripResponseTags removes [GENRE], [TONE], and [SUMMARY] tags from a line
// and folds them into the tag accumulator.
func stripResponseTags(line string, tags *model.ResponseTags) string {
	if m := genreTag.FindStringSubmatch(line); m != nil {
		tags.Genre = strings.TrimSpace(m[1])
		line = genreTag.ReplaceAllString(line, "")
	}
	if m := toneTag.FindStringSubmatch(line); m != nil {
		tones := strings.Split(m[1], ",")
		out := make([]string, 0, len(tones))
		for _, t := range tones {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		tags.Tones = out
		line = toneTag.ReplaceAllString(line, "")
	}
	if m := summaryTag.FindStringSubmatch(line); m != nil {
		tags.Summary = strings.TrimSpace(m[1])
		line = summaryTag.ReplaceAllString(line, "")
	}
	return strings.TrimSpace(line)
}

// ParseLine classifies a single line into zero or more blocks, applying the
// prioritized rule list. Response tags on the line are folded into tags;
// inline metadata is attached to the first resulting block.
func (p *BlockParser) ParseLine(line string, tags *model.ResponseTags) []*model.CinematicBlock {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	line = stripResponseTags(line, tags)
	if line == "" {
		return nil
	}
	line, meta := stripInlineTags(line)
	if line == "" {
		return nil
	}

	for _, rule := range lineRules {
		blocks, ok := rule.Apply(p, line)
		if !ok {
			continue
		}
		if len(blocks) > 0 {
			if meta.emotion != "" {
				blocks[0].Emotion = meta.emotion
			}
			if meta.tension != nil {
				blocks[0].TensionScore = meta.tension
			}
		}
		return blocks
	}
	// Unreachable: the generic rule always claims the line. Kept as the
	// never-throw guarantee of the grammar.
	return []*model.CinematicBlock{model.NewActionBlock(p.nextID(), line)}
}

// Parse converts a complete text into an ordered block sequence plus any
// trailing response tags. The text is split into blank-line paragraphs and
// then lines; block order follows text order exactly.
func (p *BlockParser) Parse(raw string) ([]*model.CinematicBlock, model.ResponseTags) {
	var tags model.ResponseTags
	blocks := make([]*model.CinematicBlock, 0, 16)
	for _, paragraph := range text.SplitParagraphs(raw) {
		for _, line := range strings.Split(paragraph, "\n") {
			blocks = append(blocks, p.ParseLine(line, &tags)...)
		}
	}
	return blocks, tags
}
