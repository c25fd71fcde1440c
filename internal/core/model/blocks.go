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
// pipeline. This file contains the `CinematicBlock`, the atomic unit of
// screenplay-style output, along with the closed enumerations that describe
// its type, delivery intensity, pacing, and the structured payloads attached
// to sound-effect, dramatic-beat, and scene-transition blocks.
//
// Structs:
//   - CinematicBlock: One typed unit of cinematified output.
//   - SfxDetail: The structured payload of a sound-effect block.
//   - BeatDetail: The structured payload of a dramatic-beat block.
//   - TransitionDetail: The structured payload of a scene-transition block.
//
// Exactly one of the Sfx, Beat, or Transition payloads may be populated on a
// block, and only when the block's Type matches; the constructors in this
// file are the supported way to build blocks that honor that invariant.
package model

// BlockType enumerates every kind of content block the pipeline can emit.
type BlockType string

const (
	BlockTypeAction         BlockType = "action"
	BlockTypeDialogue       BlockType = "dialogue"
	BlockTypeInnerThought   BlockType = "inner_thought"
	BlockTypeSfx            BlockType = "sfx"
	BlockTypeBeat           BlockType = "beat"
	BlockTypeTransition     BlockType = "transition"
	BlockTypeTitleCard      BlockType = "title_card"
	BlockTypeFlashbackStart BlockType = "flashback_start"
	BlockTypeFlashbackEnd   BlockType = "flashback_end"
	BlockTypeMontageStart   BlockType = "montage_start"
	BlockTypeMontageEnd     BlockType = "montage_end"
)

// Intensity describes how forcefully a line is delivered or narrated.
type Intensity string

const (
	IntensityWhisper   Intensity = "whisper"
	IntensityNormal    Intensity = "normal"
	IntensityEmphasis  Intensity = "emphasis"
	IntensityShout     Intensity = "shout"
	IntensityExplosive Intensity = "explosive"
)

// Timing is a pacing hint derived from sentence length and punctuation.
type Timing string

const (
	TimingSlow   Timing = "slow"
	TimingNormal Timing = "normal"
	TimingQuick  Timing = "quick"
	TimingRapid  Timing = "rapid"
)

// SfxIntensity grades how loud a sound effect should land on the page.
type SfxIntensity string

const (
	SfxSoft      SfxIntensity = "soft"
	SfxMedium    SfxIntensity = "medium"
	SfxLoud      SfxIntensity = "loud"
	SfxExplosive SfxIntensity = "explosive"
)

// SfxDuration describes how long a sound effect lingers.
type SfxDuration string

const (
	SfxBrief     SfxDuration = "brief"
	SfxSustained SfxDuration = "sustained"
	SfxLingering SfxDuration = "lingering"
)

// SfxDetail is the structured payload carried by a sound-effect block.
type SfxDetail struct {
	Sound     string       `json:"sound"`              // The rendered sound, e.g. "THUNDER".
	Intensity SfxIntensity `json:"intensity"`          // How loud the effect is.
	Duration  SfxDuration  `json:"duration,omitempty"` // Optional duration hint.
}

// BeatType enumerates the dramatic-pause markers the micro-grammar accepts.
type BeatType string

const (
	BeatBeat      BeatType = "BEAT"
	BeatPause     BeatType = "PAUSE"
	BeatLongPause BeatType = "LONG PAUSE"
	BeatSilence   BeatType = "SILENCE"
	BeatTension   BeatType = "TENSION"
	BeatRelease   BeatType = "RELEASE"
)

// BeatDetail is the structured payload carried by a beat block.
type BeatDetail struct {
	Type BeatType `json:"type"`
}

// TransitionType enumerates the scene-transition keywords the micro-grammar
// accepts. The keyword text doubles as the serialized value.
type TransitionType string

const (
	TransitionCutTo       TransitionType = "CUT TO"
	TransitionFadeIn      TransitionType = "FADE IN"
	TransitionFadeOut     TransitionType = "FADE OUT"
	TransitionFadeToBlack TransitionType = "FADE TO BLACK"
	TransitionDissolveTo  TransitionType = "DISSOLVE TO"
	TransitionSmashCut    TransitionType = "SMASH CUT"
	TransitionMatchCut    TransitionType = "MATCH CUT"
	TransitionJumpCut     TransitionType = "JUMP CUT"
	TransitionWipeTo      TransitionType = "WIPE TO"
	TransitionIrisIn      TransitionType = "IRIS IN"
	TransitionIrisOut     TransitionType = "IRIS OUT"
)

// TransitionDetail is the structured payload carried by a transition block.
type TransitionDetail struct {
	Type        TransitionType `json:"type"`
	Description string         `json:"description,omitempty"`
}

// CinematicBlock is the atomic output unit of the pipeline. A block is one
// typed line of the cinematified script: a piece of narration, a spoken line,
// a sound effect, a pause, or a scene transition.
//
// Exactly one of Sfx, Beat, or Transition is populated, and only when Type
// matches; TensionScore, when present, is clamped to [0, 100] by the parser.
type CinematicBlock struct {
	ID              string            `json:"id"`                         // Unique within a run, monotonically ordered.
	Type            BlockType         `json:"type"`                       // The block classification.
	Content         string            `json:"content"`                    // Display text; may be empty for beats and transitions.
	Speaker         string            `json:"speaker,omitempty"`          // Uppercase character name, dialogue blocks only.
	Sfx             *SfxDetail        `json:"sfx,omitempty"`              // Present only when Type is sfx.
	Beat            *BeatDetail       `json:"beat,omitempty"`             // Present only when Type is beat.
	Transition      *TransitionDetail `json:"transition,omitempty"`       // Present only when Type is transition.
	Intensity       Intensity         `json:"intensity"`                  // Always set.
	Timing          Timing            `json:"timing,omitempty"`           // Optional pacing hint.
	CameraDirection string            `json:"camera_direction,omitempty"` // Free-text camera instruction from an ALL-CAPS parenthetical.
	Emotion         string            `json:"emotion,omitempty"`          // Inline [EMOTION: ...] tag, stripped from content.
	TensionScore    *int              `json:"tension_score,omitempty"`    // Inline [TENSION: n] tag, clamped to [0, 100].
}

// NewActionBlock builds a narration block with the default intensity.
func NewActionBlock(id, content string) *CinematicBlock {
	return &CinematicBlock{ID: id, Type: BlockTypeAction, Content: content, Intensity: IntensityNormal}
}

// NewDialogueBlock builds a spoken-line block. The speaker, when known, must
// already be uppercased by the caller.
func NewDialogueBlock(id, content, speaker string) *CinematicBlock {
	return &CinematicBlock{ID: id, Type: BlockTypeDialogue, Content: content, Speaker: speaker, Intensity: IntensityNormal}
}

// NewSfxBlock builds a sound-effect block. The content carries the rendered
// "SFX: NAME" text while the detail payload carries the structured fields.
func NewSfxBlock(id, content string, detail *SfxDetail) *CinematicBlock {
	return &CinematicBlock{ID: id, Type: BlockTypeSfx, Content: content, Sfx: detail, Intensity: IntensityNormal}
}

// NewBeatBlock builds a dramatic-pause block with no textual content.
func NewBeatBlock(id string, beat BeatType) *CinematicBlock {
	return &CinematicBlock{ID: id, Type: BlockTypeBeat, Beat: &BeatDetail{Type: beat}, Intensity: IntensityNormal}
}

// NewTransitionBlock builds a scene-transition block. The description is
// optional and may be empty.
func NewTransitionBlock(id string, transition TransitionType, description string) *CinematicBlock {
	return &CinematicBlock{
		ID:         id,
		Type:       BlockTypeTransition,
		Content:    description,
		Transition: &TransitionDetail{Type: transition, Description: description},
		Intensity:  IntensityNormal,
	}
}

// ClampTension bounds an inline tension score to the [0, 100] contract.
func ClampTension(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
