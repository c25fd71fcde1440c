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
// pipeline. This file provides canonical example values used for few-shot
// prompting. Embedding a well-formed example of the plain-text micro-grammar
// in the prompt significantly improves how reliably models reproduce it.
package model

// GetExampleScript returns a short, fully tagged example of the plain-text
// micro-grammar the model is instructed to emit. It exercises every line
// form the parser understands: transitions, sound effects, dialogue with
// attribution, inner thought, camera directives, beats, inline metadata
// tags, and the trailing response tags.
func GetExampleScript() string {
	return `FADE IN

The harbor lay still under a low fog. [EMOTION: suspense] [TENSION: 40]

SFX: FOGHORN

"You came after all," said Marlowe. [EMOTION: surprise]

*I should have stayed home.* [TENSION: 55]

(CLOSE ON: Marlowe's trembling hands)

BEAT

CUT TO: the warehouse roof

[GENRE: noir thriller]
[TONE: tense, brooding, rain-soaked]
[SUMMARY: Marlowe meets an unnamed visitor at the fogbound harbor and leads them toward the warehouse.]`
}

// GetExampleExchange returns a worked input/output pair for few-shot
// prompting: the prose passage first, then the script it should become.
func GetExampleExchange() string {
	return `Input passage:

The harbor lay still under a low fog. Somewhere out on the water a foghorn sounded. "You came after all," said Marlowe, surprised. I should have stayed home, the visitor thought, watching Marlowe's hands tremble. After a moment they climbed toward the warehouse roof.

Output script:

` + GetExampleScript()
}

// GetExampleBlocks returns the blocks the example script parses into. Tests
// use it as a golden fixture; prompt builders use its length for the brief
// "shape of the output" note in the system instructions.
func GetExampleBlocks() []*CinematicBlock {
	tension40 := 40
	tension55 := 55
	return []*CinematicBlock{
		NewTransitionBlock("ex-0001", TransitionFadeIn, ""),
		{
			ID: "ex-0002", Type: BlockTypeAction,
			Content:   "The harbor lay still under a low fog.",
			Intensity: IntensityNormal, Timing: TimingNormal,
			Emotion: "suspense", TensionScore: &tension40,
		},
		NewSfxBlock("ex-0003", "SFX: FOGHORN", &SfxDetail{Sound: "FOGHORN", Intensity: SfxMedium}),
		{
			ID: "ex-0004", Type: BlockTypeDialogue,
			Content: "You came after all,", Speaker: "MARLOWE",
			Intensity: IntensityNormal, Timing: TimingQuick, Emotion: "surprise",
		},
		{
			ID: "ex-0005", Type: BlockTypeInnerThought,
			Content:   "I should have stayed home.",
			Intensity: IntensityWhisper, Timing: TimingQuick, TensionScore: &tension55,
		},
		{
			ID: "ex-0006", Type: BlockTypeAction,
			Content:         "",
			CameraDirection: "CLOSE ON: Marlowe's trembling hands",
			Intensity:       IntensityNormal,
		},
		NewBeatBlock("ex-0007", BeatBeat),
		NewTransitionBlock("ex-0008", TransitionCutTo, "the warehouse roof"),
	}
}
