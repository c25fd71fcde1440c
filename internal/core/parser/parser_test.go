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

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/go-cinematify/internal/core/model"
)

func TestParseExampleScriptMatchesGolden(t *testing.T) {
	blocks, tags := New("ex").Parse(model.GetExampleScript())

	want := model.GetExampleBlocks()
	require.Len(t, blocks, len(want))
	for i := range want {
		assert.Equal(t, want[i], blocks[i], "block %d", i)
	}

	assert.Equal(t, "noir thriller", tags.Genre)
	assert.Equal(t, []string{"tense", "brooding", "rain-soaked"}, tags.Tones)
	assert.Contains(t, tags.Summary, "Marlowe meets an unnamed visitor")
}

func TestParseNeverFailsOnMalformedInput(t *testing.T) {
	inputs := []string{
		"::: garbage ::: }{",
		"\"unterminated quote",
		"[EMOTION:] [TENSION: abc]",
		"(lowercase parenthetical)",
	}
	p := New("t")
	for _, in := range inputs {
		blocks, _ := p.Parse(in)
		require.Len(t, blocks, 1, "input %q", in)
		assert.Equal(t, model.BlockTypeAction, blocks[0].Type)
	}
}

func TestParseBeatLines(t *testing.T) {
	blocks, _ := New("t").Parse("BEAT\n\nLONG PAUSE\n\nSILENCE\n\nTENSION\n\nRELEASE")
	require.Len(t, blocks, 5)
	want := []model.BeatType{
		model.BeatBeat, model.BeatLongPause, model.BeatSilence,
		model.BeatTension, model.BeatRelease,
	}
	for i, b := range blocks {
		assert.Equal(t, model.BlockTypeBeat, b.Type)
		require.NotNil(t, b.Beat)
		assert.Equal(t, want[i], b.Beat.Type)
	}
}

func TestParseTransitionWithAndWithoutDescription(t *testing.T) {
	blocks, _ := New("t").Parse("CUT TO: the rooftop\n\nFADE TO BLACK")
	require.Len(t, blocks, 2)

	assert.Equal(t, model.BlockTypeTransition, blocks[0].Type)
	assert.Equal(t, model.TransitionCutTo, blocks[0].Transition.Type)
	assert.Equal(t, "the rooftop", blocks[0].Transition.Description)
	assert.Equal(t, "the rooftop", blocks[0].Content)

	assert.Equal(t, model.TransitionFadeToBlack, blocks[1].Transition.Type)
	assert.Empty(t, blocks[1].Transition.Description)
}

func TestParseFlashbackAndMontageMarkers(t *testing.T) {
	raw := "FLASHBACK:\n\nThe old house again.\n\nEND FLASHBACK\n\nMONTAGE\n\nEND MONTAGE"
	blocks, _ := New("t").Parse(raw)
	require.Len(t, blocks, 5)
	assert.Equal(t, model.BlockTypeFlashbackStart, blocks[0].Type)
	assert.Equal(t, model.BlockTypeAction, blocks[1].Type)
	assert.Equal(t, model.BlockTypeFlashbackEnd, blocks[2].Type)
	assert.Equal(t, model.BlockTypeMontageStart, blocks[3].Type)
	assert.Equal(t, model.BlockTypeMontageEnd, blocks[4].Type)
}

func TestParseSfxLineGradesIntensity(t *testing.T) {
	cases := []struct {
		line  string
		sound string
		want  model.SfxIntensity
	}{
		{"SFX: distant thunder", "DISTANT THUNDER", model.SfxLoud},
		{"SFX: BOOM", "BOOM", model.SfxExplosive},
		{"SFX: floorboards creak", "FLOORBOARDS CREAK", model.SfxSoft},
		{"SFX: footsteps", "FOOTSTEPS", model.SfxMedium},
	}
	p := New("t")
	for _, tc := range cases {
		blocks, _ := p.Parse(tc.line)
		require.Len(t, blocks, 1, tc.line)
		require.NotNil(t, blocks[0].Sfx)
		assert.Equal(t, tc.sound, blocks[0].Sfx.Sound)
		assert.Equal(t, tc.want, blocks[0].Sfx.Intensity)
		assert.Equal(t, "SFX: "+tc.sound, blocks[0].Content)
	}
}

func TestParseInlineSfxSplitsNarrativeAndSound(t *testing.T) {
	blocks, _ := New("t").Parse("The door swung open. SFX: CREAK")
	require.Len(t, blocks, 2)
	assert.Equal(t, model.BlockTypeAction, blocks[0].Type)
	assert.Equal(t, "The door swung open.", blocks[0].Content)
	assert.Equal(t, model.BlockTypeSfx, blocks[1].Type)
	assert.Equal(t, "CREAK", blocks[1].Sfx.Sound)
	assert.Equal(t, model.SfxSoft, blocks[1].Sfx.Intensity)
}

func TestParseCameraDirective(t *testing.T) {
	blocks, _ := New("t").Parse("(WIDE SHOT: the valley at dawn)")
	require.Len(t, blocks, 1)
	assert.Equal(t, model.BlockTypeAction, blocks[0].Type)
	assert.Empty(t, blocks[0].Content)
	assert.Equal(t, "WIDE SHOT: the valley at dawn", blocks[0].CameraDirection)
}

func TestParseLowercaseParentheticalIsNotCamera(t *testing.T) {
	blocks, _ := New("t").Parse("(he pauses)")
	require.Len(t, blocks, 1)
	assert.Empty(t, blocks[0].CameraDirection)
	assert.Equal(t, "(he pauses)", blocks[0].Content)
}

func TestParseDialogueInfersSpeakerAndDelivery(t *testing.T) {
	blocks, _ := New("t").Parse(`"GET DOWN NOW!" screamed Torres.`)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, model.BlockTypeDialogue, b.Type)
	assert.Equal(t, "GET DOWN NOW!", b.Content)
	assert.Equal(t, "TORRES", b.Speaker)
	assert.Equal(t, model.IntensityExplosive, b.Intensity)
	assert.Equal(t, model.TimingQuick, b.Timing)
}

func TestParseDialogueWithoutAttributionHasNoSpeaker(t *testing.T) {
	blocks, _ := New("t").Parse(`"Nobody move."`)
	require.Len(t, blocks, 1)
	assert.Equal(t, model.BlockTypeDialogue, blocks[0].Type)
	assert.Empty(t, blocks[0].Speaker)
}

func TestParseInnerThoughtMarkers(t *testing.T) {
	blocks, _ := New("t").Parse("*This is a trap.*\n\n_They know I am here._")
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, model.BlockTypeInnerThought, b.Type)
		assert.Equal(t, model.IntensityWhisper, b.Intensity)
	}
	assert.Equal(t, "This is a trap.", blocks[0].Content)
	assert.Equal(t, "They know I am here.", blocks[1].Content)
}

func TestStripInlineTagsIsIdempotent(t *testing.T) {
	line := "She froze at the window. [EMOTION: fear] [TENSION: 72]"

	once, meta := stripInlineTags(line)
	assert.Equal(t, "She froze at the window.", once)
	assert.Equal(t, "fear", meta.emotion)
	require.NotNil(t, meta.tension)
	assert.Equal(t, 72, *meta.tension)

	twice, again := stripInlineTags(once)
	assert.Equal(t, once, twice)
	assert.Empty(t, again.emotion)
	assert.Nil(t, again.tension)
}

func TestTensionScoreIsClamped(t *testing.T) {
	blocks, _ := New("t").Parse("He ran. [TENSION: 250]\n\nHe stopped. [TENSION: -10]")
	require.Len(t, blocks, 2)
	require.NotNil(t, blocks[0].TensionScore)
	assert.Equal(t, 100, *blocks[0].TensionScore)
	require.NotNil(t, blocks[1].TensionScore)
	assert.Equal(t, 0, *blocks[1].TensionScore)
}

func TestResponseTagsNeverBecomeBlocks(t *testing.T) {
	raw := "The rain kept falling.\n\n[GENRE: drama]\n[TONE: quiet, mournful]\n[SUMMARY: Rain falls on the empty street.]"
	blocks, tags := New("t").Parse(raw)
	require.Len(t, blocks, 1)
	assert.Equal(t, "The rain kept falling.", blocks[0].Content)
	assert.Equal(t, "drama", tags.Genre)
	assert.Equal(t, []string{"quiet", "mournful"}, tags.Tones)
	assert.Equal(t, "Rain falls on the empty street.", tags.Summary)
}

func TestBlockIDsAreMonotonicWithPrefix(t *testing.T) {
	blocks, _ := New("c007").Parse("One.\n\nTwo.\n\nThree.")
	require.Len(t, blocks, 3)
	assert.Equal(t, "c007-0001", blocks[0].ID)
	assert.Equal(t, "c007-0002", blocks[1].ID)
	assert.Equal(t, "c007-0003", blocks[2].ID)
}

func TestEmptyPrefixFallsBack(t *testing.T) {
	blocks, _ := New("").Parse("Hello.")
	require.Len(t, blocks, 1)
	assert.Equal(t, "blk-0001", blocks[0].ID)
}

func TestParseEmptyInput(t *testing.T) {
	blocks, tags := New("t").Parse("")
	assert.Empty(t, blocks)
	assert.Equal(t, model.ResponseTags{}, tags)
}

func TestInferSpeakerPositions(t *testing.T) {
	assert.Equal(t, "MARIA", InferSpeaker("", ", said Maria."))
	assert.Equal(t, "MARIA", InferSpeaker("", " Maria whispered."))
	assert.Equal(t, "JONES", InferSpeaker("Jones said,", ""))
	assert.Empty(t, InferSpeaker("The rain fell.", " The door closed."))
}

func TestInferIntensityGrades(t *testing.T) {
	assert.Equal(t, model.IntensityExplosive, InferIntensity("RUN! NOW!"))
	assert.Equal(t, model.IntensityExplosive, InferIntensity("GET OUT!"))
	assert.Equal(t, model.IntensityShout, InferIntensity("Stop right there!"))
	assert.Equal(t, model.IntensityWhisper, InferIntensity("she said softly"))
	assert.Equal(t, model.IntensityEmphasis, InferIntensity("The door suddenly slammed shut."))
	assert.Equal(t, model.IntensityNormal, InferIntensity("The evening was calm."))
}

func TestInferTimingBuckets(t *testing.T) {
	assert.Equal(t, model.TimingRapid, InferTiming("Run."))
	assert.Equal(t, model.TimingQuick, InferTiming("We need to go now."))
	assert.Equal(t, model.TimingNormal, InferTiming("The corridor stretched ahead of them, lit by a single flickering bulb."))
	long := "She walked the length of the hall twice before answering, weighing every word against the years of silence that had settled between them like dust on the furniture nobody moved anymore."
	assert.Equal(t, model.TimingSlow, InferTiming(long))
}
