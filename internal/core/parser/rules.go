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
// ordered, typed cinematic blocks. This file defines the line-level grammar
// as a prioritized list of independently testable rules, plus the shared
// classifier helpers (speaker inference, intensity, timing) that both the
// parser and the offline fallback engine use.
//
// Rule priority, first match wins:
//  1. Standalone beat marker (BEAT, PAUSE, ...).
//  2. Scene-transition keyword line (CUT TO, FADE IN, ...).
//  3. Flashback / montage boundary markers.
//  4. Standalone "SFX:" line.
//  5. Inline trailing "SFX:" annotation after narrative text.
//  6. Parenthetical ALL-CAPS camera directive.
//  7. Generic text line, sub-classified into dialogue, inner thought, or
//     action narration.
//
// No rule ever fails with an error: a line that matches nothing becomes an
// action block.
package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jaycherian/go-cinematify/internal/core/model"
)

var (
	beatLine = regexp.MustCompile(`^(BEAT|LONG PAUSE|PAUSE|SILENCE|TENSION|RELEASE)$`)

	transitionLine = regexp.MustCompile(
		`^(FADE TO BLACK|FADE IN|FADE OUT|DISSOLVE TO|SMASH CUT|MATCH CUT|JUMP CUT|WIPE TO|IRIS IN|IRIS OUT|CUT TO)(?:\s*:\s*(.*))?$`)

	flashbackStartLine = regexp.MustCompile(`^FLASHBACK(?:\s+START)?:?$`)
	flashbackEndLine   = regexp.MustCompile(`^(?:END FLASHBACK|FLASHBACK END):?$`)
	montageStartLine   = regexp.MustCompile(`^MONTAGE(?:\s+START)?:?$`)
	montageEndLine     = regexp.MustCompile(`^(?:END MONTAGE|MONTAGE END):?$`)

	sfxLine       = regexp.MustCompile(`^SFX:\s*(.+)$`)
	inlineSfxLine = regexp.MustCompile(`^(.*\S)\s+SFX:\s*(.+)$`)

	cameraLine = regexp.MustCompile(`^\(([A-Z][A-Z0-9' -]*(?::\s*.*)?)\)$`)

	dialogueLead = regexp.MustCompile(`^["\x{201c}](.+?)["\x{201d}](.*)$`)
	thoughtStar  = regexp.MustCompile(`^\*([^*]+)\*$`)
	thoughtUnder = regexp.MustCompile(`^_([^_]+)_$`)

	// Attribution patterns around a quoted span: "... ," said Maria / Maria said "..."
	speechVerbs  = `said|says|shouted|screamed|whispered|asked|replied|yelled|muttered|murmured|cried|called|answered|exclaimed|snapped|growled|hissed|stammered|demanded`
	verbThenName = regexp.MustCompile(`(?i)\b(?:` + speechVerbs + `)\s+([A-Z][a-zA-Z'\-]+)`)
	nameThenVerb = regexp.MustCompile(`\b([A-Z][a-zA-Z'\-]+)\s+(?i:` + speechVerbs + `)\b`)

	whisperWords  = regexp.MustCompile(`(?i)\b(whisper(?:ed|s)?|murmur(?:ed|s)?|softly|quietly|under (?:his|her|their) breath)\b`)
	emphasisWords = regexp.MustCompile(`(?i)\b(suddenly|slammed|burst|lunged|roared|crashed|shattered|exploded|screamed)\b`)
)

// InferSpeaker derives an uppercase speaker name from the text surrounding a
// quoted span. The trailing attribution ("shouted Maria") is checked first,
// then the leading one ("Maria said"). An empty string means no speaker
// could be inferred.
func InferSpeaker(before, after string) string {
	if m := verbThenName.FindStringSubmatch(after); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := nameThenVerb.FindStringSubmatch(after); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := nameThenVerb.FindStringSubmatch(before); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := verbThenName.FindStringSubmatch(before); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// InferIntensity grades a line's delivery from its punctuation, casing, and
// a small trigger-word set.
func InferIntensity(content string) model.Intensity {
	exclaims := strings.Count(content, "!")
	switch {
	case exclaims >= 2 || (exclaims >= 1 && isMostlyUpper(content)):
		return model.IntensityExplosive
	case exclaims >= 1:
		return model.IntensityShout
	case whisperWords.MatchString(content):
		return model.IntensityWhisper
	case emphasisWords.MatchString(content):
		return model.IntensityEmphasis
	default:
		return model.IntensityNormal
	}
}

// InferTiming turns sentence length into a pacing hint: very short lines
// read rapid, short lines quick, long lines slow.
func InferTiming(content string) model.Timing {
	n := len(strings.TrimSpace(content))
	switch {
	case n == 0:
		return ""
	case n < 12:
		return model.TimingRapid
	case n < 30:
		return model.TimingQuick
	case n > 160:
		return model.TimingSlow
	default:
		return model.TimingNormal
	}
}

// isMostlyUpper reports whether more than half of a line's letters are
// uppercase, a strong signal of an explosive delivery.
func isMostlyUpper(content string) bool {
	upper, letters := 0, 0
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && upper*2 > letters
}

// InferSfxIntensity grades a sound-effect description.
func InferSfxIntensity(description string) model.SfxIntensity {
	d := strings.ToUpper(description)
	switch {
	case strings.Contains(d, "BOOM"), strings.Contains(d, "EXPLOS"),
		strings.Contains(d, "BLAST"), strings.Contains(d, "BANG"):
		return model.SfxExplosive
	case strings.Contains(d, "CRASH"), strings.Contains(d, "THUNDER"),
		strings.Contains(d, "SLAM"), strings.Contains(d, "SCREAM"),
		strings.Contains(d, "SHATTER"), strings.Contains(d, "ROAR"):
		return model.SfxLoud
	case strings.Contains(d, "WHISPER"), strings.Contains(d, "RUSTLE"),
		strings.Contains(d, "CREAK"), strings.Contains(d, "DRIP"),
		strings.Contains(d, "TICK"):
		return model.SfxSoft
	default:
		return model.SfxMedium
	}
}

// LineRule is one prioritized entry of the line grammar. Apply returns the
// blocks the line produces and whether the rule claimed the line.
type LineRule struct {
	Name  string
	Apply func(p *BlockParser, line string) ([]*model.CinematicBlock, bool)
}

// lineRules is the grammar, in priority order. Each rule is exercised
// directly by unit tests; the order itself is part of the contract.
var lineRules = []LineRule{
	{Name: "beat", Apply: applyBeat},
	{Name: "transition", Apply: applyTransition},
	{Name: "flashback_montage", Apply: applyFlashbackMontage},
	{Name: "sfx_line", Apply: applySfxLine},
	{Name: "inline_sfx", Apply: applyInlineSfx},
	{Name: "camera", Apply: applyCamera},
	{Name: "generic", Apply: applyGeneric},
}

func applyBeat(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	m := beatLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return []*model.CinematicBlock{model.NewBeatBlock(p.nextID(), model.BeatType(m[1]))}, true
}

func applyTransition(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	m := transitionLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return []*model.CinematicBlock{
		model.NewTransitionBlock(p.nextID(), model.TransitionType(m[1]), strings.TrimSpace(m[2])),
	}, true
}

func applyFlashbackMontage(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	var blockType model.BlockType
	switch {
	case flashbackStartLine.MatchString(line):
		blockType = model.BlockTypeFlashbackStart
	case flashbackEndLine.MatchString(line):
		blockType = model.BlockTypeFlashbackEnd
	case montageStartLine.MatchString(line):
		blockType = model.BlockTypeMontageStart
	case montageEndLine.MatchString(line):
		blockType = model.BlockTypeMontageEnd
	default:
		return nil, false
	}
	return []*model.CinematicBlock{{
		ID: p.nextID(), Type: blockType, Intensity: model.IntensityNormal,
	}}, true
}

func applySfxLine(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	m := sfxLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return []*model.CinematicBlock{p.buildSfx(m[1])}, true
}

func applyInlineSfx(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	m := inlineSfxLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	// The narrative part is classified on its own, then the annotation
	// becomes a trailing sfx block.
	blocks, _ := applyGeneric(p, strings.TrimSpace(m[1]))
	return append(blocks, p.buildSfx(m[2])), true
}

func applyCamera(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	m := cameraLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	directive := strings.TrimSpace(m[1])
	// The directive keyword itself must be ALL CAPS; a description after the
	// colon may be free text.
	keyword := directive
	if i := strings.Index(directive, ":"); i >= 0 {
		keyword = directive[:i]
	}
	if strings.ToUpper(keyword) != keyword {
		return nil, false
	}
	block := model.NewActionBlock(p.nextID(), "")
	block.CameraDirection = directive
	return []*model.CinematicBlock{block}, true
}

func applyGeneric(p *BlockParser, line string) ([]*model.CinematicBlock, bool) {
	if m := dialogueLead.FindStringSubmatch(line); m != nil {
		content := strings.TrimSpace(m[1])
		block := model.NewDialogueBlock(p.nextID(), content, InferSpeaker("", m[2]))
		block.Intensity = InferIntensity(content)
		block.Timing = InferTiming(content)
		return []*model.CinematicBlock{block}, true
	}
	if m := thoughtStar.FindStringSubmatch(line); m != nil {
		return []*model.CinematicBlock{p.buildThought(m[1])}, true
	}
	if m := thoughtUnder.FindStringSubmatch(line); m != nil {
		return []*model.CinematicBlock{p.buildThought(m[1])}, true
	}
	block := model.NewActionBlock(p.nextID(), line)
	block.Intensity = InferIntensity(line)
	block.Timing = InferTiming(line)
	return []*model.CinematicBlock{block}, true
}

func (p *BlockParser) buildSfx(description string) *model.CinematicBlock {
	description = strings.TrimSpace(description)
	detail := &model.SfxDetail{
		Sound:     strings.ToUpper(strings.TrimRight(description, ".!?")),
		Intensity: InferSfxIntensity(description),
	}
	return model.NewSfxBlock(p.nextID(), "SFX: "+detail.Sound, detail)
}

func (p *BlockParser) buildThought(content string) *model.CinematicBlock {
	content = strings.TrimSpace(content)
	return &model.CinematicBlock{
		ID:        p.nextID(),
		Type:      model.BlockTypeInnerThought,
		Content:   content,
		Intensity: model.IntensityWhisper,
		Timing:    InferTiming(content),
	}
}
