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

// Package offline implements the deterministic, heuristic-driven block
// generator. This file contains the engine itself.
//
// Logic Flow:
//  1. The input is split into blank-line paragraphs.
//  2. Divider lines and short scene-shift paragraphs ("Meanwhile...", "***")
//     become transition blocks with a following beat.
//  3. Chapter-header-like paragraphs become a title card plus a FADE IN.
//  4. Every other paragraph is carved around its quoted spans: narrative
//     segments become action blocks (at most one sound effect tagged per
//     segment), quoted spans become dialogue blocks with speaker inference,
//     and a trailing beat is appended when the paragraph carries ellipsis
//     or shock language.
//
// This path never calls the network and never fails: any text in produces
// blocks out.
package offline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/model"
	"github.com/jaycherian/go-cinematify/internal/core/parser"
	"github.com/jaycherian/go-cinematify/internal/core/text"
)

var (
	dividerParagraph = regexp.MustCompile(`^\s*(?:\*\s*){3,}$|^\s*\*{3,}\s*$|^\s*-{3,}\s*$`)
	sceneShiftLead   = regexp.MustCompile(`(?i)^(meanwhile|later that|hours later|moments later|the next (?:morning|day|night)|elsewhere|that (?:night|evening)|back at|across town)\b`)
	headerParagraph  = regexp.MustCompile(`(?i)^\s*(chapter|part|book|prologue|epilogue)\b.{0,60}$`)

	quotedSpan = regexp.MustCompile(`["\x{201c}]([^"\x{201d}\x{201c}]+)["\x{201d}]`)

	// Attribution clause directly after a closing quote, e.g. ` screamed
	// Elena.` or ` Elena said,` that gets stripped from the narrative.
	trailingAttribution = regexp.MustCompile(
		`^[\s,]*(?:(?i:said|says|shouted|screamed|whispered|asked|replied|yelled|muttered|murmured|cried|called|answered|exclaimed|snapped|growled|hissed|stammered|demanded)\s+[A-Z][\w'\-]*|[A-Z][\w'\-]*\s+(?i:said|says|shouted|screamed|whispered|asked|replied|yelled|muttered|murmured|cried|called|answered|exclaimed|snapped|growled|hissed|stammered|demanded))[.,!?]?\s*`)

	shockLanguage = regexp.MustCompile(`(?i)\b(suddenly|gasped|froze|stunned|silence|lurched|jolted|heart (?:stopped|pounded))\b`)

	// How far past a closing quote the speaker-attribution scan looks.
	attributionWindow = 60
)

// Engine is the deterministic fallback generator. It mints its own block
// IDs unless the orchestrator injects a shared allocator so that offline
// blocks stay in the same ID sequence as AI-produced ones.
type Engine struct {
	seq    int
	prefix string
	nextID func() string
}

// NewEngine creates a self-contained engine with its own ID sequence.
func NewEngine() *Engine {
	return &Engine{prefix: "off"}
}

// NewEngineWithIDs creates an engine that draws block IDs from the given
// allocator, keeping IDs unique across mixed AI/offline runs.
func NewEngineWithIDs(nextID func() string) *Engine {
	return &Engine{nextID: nextID}
}

func (e *Engine) id() string {
	if e.nextID != nil {
		return e.nextID()
	}
	e.seq++
	return fmt.Sprintf("%s-%04d", e.prefix, e.seq)
}

// Cinematify converts raw narrative text into an ordered block sequence
// using deterministic heuristics only.
func (e *Engine) Cinematify(raw string) []*model.CinematicBlock {
	blocks := make([]*model.CinematicBlock, 0, 16)
	for _, paragraph := range text.SplitParagraphs(raw) {
		blocks = append(blocks, e.paragraphBlocks(paragraph)...)
	}
	return blocks
}

// paragraphBlocks classifies one paragraph and expands it into blocks.
func (e *Engine) paragraphBlocks(paragraph string) []*model.CinematicBlock {
	flat := strings.Join(strings.Fields(paragraph), " ")

	if dividerParagraph.MatchString(paragraph) {
		return []*model.CinematicBlock{
			model.NewTransitionBlock(e.id(), model.TransitionCutTo, ""),
			model.NewBeatBlock(e.id(), model.BeatBeat),
		}
	}
	if len(flat) <= 60 && sceneShiftLead.MatchString(flat) {
		return []*model.CinematicBlock{
			model.NewTransitionBlock(e.id(), model.TransitionCutTo, flat),
			model.NewBeatBlock(e.id(), model.BeatBeat),
		}
	}
	if headerParagraph.MatchString(flat) {
		title := &model.CinematicBlock{
			ID:        e.id(),
			Type:      model.BlockTypeTitleCard,
			Content:   flat,
			Intensity: model.IntensityEmphasis,
		}
		return []*model.CinematicBlock{
			title,
			model.NewTransitionBlock(e.id(), model.TransitionFadeIn, ""),
		}
	}

	blocks := e.proseBlocks(flat)
	if strings.Contains(paragraph, "...") || strings.Contains(paragraph, "…") ||
		shockLanguage.MatchString(paragraph) {
		blocks = append(blocks, model.NewBeatBlock(e.id(), model.BeatBeat))
	}
	return blocks
}

// proseBlocks carves a prose paragraph around its quoted spans: interleaved
// narrative segments become action blocks (with at most one tagged sound
// effect each) and quoted spans become dialogue blocks.
func (e *Engine) proseBlocks(flat string) []*model.CinematicBlock {
	matches := quotedSpan.FindAllStringSubmatchIndex(flat, -1)
	if len(matches) == 0 {
		return e.narrativeBlocks(flat)
	}

	blocks := make([]*model.CinematicBlock, 0, len(matches)*2+2)
	cursor := 0
	for _, m := range matches {
		quoteStart, quoteEnd := m[0], m[1]
		spoken := flat[m[2]:m[3]]

		before := flat[cursor:quoteStart]
		after := flat[quoteEnd:]
		if len(after) > attributionWindow {
			after = after[:attributionWindow]
		}

		blocks = append(blocks, e.narrativeBlocks(before)...)

		dialogue := model.NewDialogueBlock(e.id(), strings.TrimSpace(spoken), parser.InferSpeaker(before, after))
		dialogue.Intensity = parser.InferIntensity(spoken)
		dialogue.Timing = parser.InferTiming(spoken)
		blocks = append(blocks, dialogue)

		// Skip the attribution clause so the next narrative segment does not
		// repeat "screamed Elena".
		cursor = quoteEnd
		if loc := trailingAttribution.FindStringIndex(flat[cursor:]); loc != nil {
			cursor += loc[1]
		}
	}
	blocks = append(blocks, e.narrativeBlocks(flat[cursor:])...)
	return blocks
}

// narrativeBlocks emits an action block for a narrative segment, followed
// by a sound-effect block when the segment trips the keyword table.
func (e *Engine) narrativeBlocks(segment string) []*model.CinematicBlock {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return nil
	}
	action := model.NewActionBlock(e.id(), segment)
	action.Intensity = parser.InferIntensity(segment)
	action.Timing = parser.InferTiming(segment)

	blocks := []*model.CinematicBlock{action}
	if detail := findSfx(segment); detail != nil {
		sfx := *detail
		blocks = append(blocks, model.NewSfxBlock(e.id(), "SFX: "+sfx.Sound, &sfx))
	}
	return blocks
}

// Render serializes blocks back into the plain-text micro-grammar. The
// orchestrator uses it as the raw-text form of offline chunks, and because
// the output is grammar-valid it round-trips through the parser.
func Render(blocks []*model.CinematicBlock) string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case model.BlockTypeSfx:
			lines = append(lines, b.Content)
		case model.BlockTypeBeat:
			lines = append(lines, string(b.Beat.Type))
		case model.BlockTypeTransition:
			if b.Transition.Description != "" {
				lines = append(lines, string(b.Transition.Type)+": "+b.Transition.Description)
			} else {
				lines = append(lines, string(b.Transition.Type))
			}
		case model.BlockTypeDialogue:
			lines = append(lines, `"`+b.Content+`"`)
		case model.BlockTypeInnerThought:
			lines = append(lines, "*"+b.Content+"*")
		default:
			if b.CameraDirection != "" {
				lines = append(lines, "("+b.CameraDirection+")")
			} else {
				lines = append(lines, b.Content)
			}
		}
	}
	return strings.Join(lines, "\n\n")
}
