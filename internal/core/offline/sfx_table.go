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
// generator used when no AI provider is configured or a chunk's provider
// call fails irrecoverably. This file holds the sound-effect keyword table
// and the single combined regex that scans narrative text for it.
package offline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/model"
)

// sfxTable maps a narrative keyword to the sound effect it triggers.
// Inflected forms found in prose (plural "s", past "ed"/"d") normalize back
// to these keys; words with meaning-changing inflections ("fired") get a
// dedicated entry that wins over the stemmed lookup.
var sfxTable = map[string]model.SfxDetail{
	"thunder":   {Sound: "THUNDER", Intensity: model.SfxLoud},
	"explosion": {Sound: "BOOM", Intensity: model.SfxExplosive},
	"explode":   {Sound: "BOOM", Intensity: model.SfxExplosive},
	"gunshot":   {Sound: "BANG", Intensity: model.SfxExplosive},
	"fired":     {Sound: "BANG", Intensity: model.SfxExplosive},
	"crash":     {Sound: "CRASH", Intensity: model.SfxLoud},
	"slam":      {Sound: "SLAM", Intensity: model.SfxLoud},
	"scream":    {Sound: "SCREAM", Intensity: model.SfxLoud},
	"shatter":   {Sound: "SHATTER", Intensity: model.SfxLoud},
	"glass":     {Sound: "SHATTER", Intensity: model.SfxLoud},
	"roar":      {Sound: "ROAR", Intensity: model.SfxLoud},
	"door":      {Sound: "DOOR", Intensity: model.SfxMedium},
	"knock":     {Sound: "KNOCK", Intensity: model.SfxMedium},
	"bell":      {Sound: "RING", Intensity: model.SfxMedium},
	"phone":     {Sound: "RING", Intensity: model.SfxMedium},
	"fire":      {Sound: "CRACKLE", Intensity: model.SfxMedium},
	"engine":    {Sound: "RUMBLE", Intensity: model.SfxMedium},
	"footstep":  {Sound: "FOOTSTEPS", Intensity: model.SfxSoft},
	"creak":     {Sound: "CREAK", Intensity: model.SfxSoft},
	"rain":      {Sound: "RAIN", Intensity: model.SfxSoft},
	"wind":      {Sound: "WHOOSH", Intensity: model.SfxSoft},
	"whisper":   {Sound: "WHISPER", Intensity: model.SfxSoft},
	"heartbeat": {Sound: "THUMP", Intensity: model.SfxSoft},
	"clock":     {Sound: "TICK", Intensity: model.SfxSoft},
}

// sfxPattern is the combined keyword regex built from the table at init.
// Longer keys come first so an inflected dedicated entry ("fired") beats
// its stemmed base ("fire" + "d").
var sfxPattern = buildSfxPattern()

func buildSfxPattern() *regexp.Regexp {
	keys := make([]string, 0, len(sfxTable))
	for k := range sfxTable {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return regexp.MustCompile(`(?i)\b(` + strings.Join(keys, "|") + `)(?:s|ed|d)?\b`)
}

// findSfx scans a narrative segment for the leftmost sound-effect keyword
// and returns its table entry, or nil when the segment triggers nothing.
// At most one effect is tagged per segment.
func findSfx(segment string) *model.SfxDetail {
	m := sfxPattern.FindStringSubmatch(segment)
	if m == nil {
		return nil
	}
	detail, ok := sfxTable[strings.ToLower(m[1])]
	if !ok {
		return nil
	}
	return &detail
}
