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

// Package text implements the deterministic text-preparation stages of the
// cinematification pipeline. This file repairs source texts that arrive as a
// single wall of text (OCR dumps, scraped pages with stripped formatting) so
// that the chunk planner and prompt builder have sane paragraph units to
// work with.
package text

import (
	"regexp"
	"strings"
)

// healthyParagraphMaxAvg is the average paragraph length, in characters,
// under which existing blank-line paragraphs are considered intact and the
// text is returned unchanged.
const healthyParagraphMaxAvg = 1200

// sentencesPerParagraph caps how many sentences are grouped into one rebuilt
// paragraph before a break is forced.
const sentencesPerParagraph = 4

var (
	blankLineSplit = regexp.MustCompile(`\n\s*\n`)
	singleNewline  = regexp.MustCompile(`\s*\n\s*`)
)

// SplitParagraphs breaks text on blank-line boundaries, dropping empty
// entries and trimming each paragraph.
func SplitParagraphs(text string) []string {
	raw := blankLineSplit.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// opensDialogue reports whether a sentence begins with an opening quote,
// which starts a new paragraph in reconstructed text.
func opensDialogue(sentence string) bool {
	return strings.HasPrefix(sentence, `"`) || strings.HasPrefix(sentence, "“")
}

// ReconstructParagraphs repairs text that lacks paragraph breaks.
//
// When the existing blank-line paragraphs already average under the health
// threshold the input is returned unchanged. Otherwise single newlines are
// collapsed to spaces, the text is re-split into sentences, and paragraph
// breaks are re-inserted: a new paragraph starts at every dialogue-opening
// sentence, or after every fourth sentence, whichever comes first. The
// output is always non-empty when the input is non-empty.
func ReconstructParagraphs(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	paragraphs := SplitParagraphs(trimmed)
	if len(paragraphs) > 1 {
		total := 0
		for _, p := range paragraphs {
			total += len(p)
		}
		if total/len(paragraphs) < healthyParagraphMaxAvg {
			return text
		}
	}

	collapsed := singleNewline.ReplaceAllString(trimmed, " ")
	sentences := SplitSentences(collapsed)
	if len(sentences) == 0 {
		return trimmed
	}

	var builder strings.Builder
	count := 0
	for i, sentence := range sentences {
		if i > 0 {
			if opensDialogue(sentence) || count >= sentencesPerParagraph {
				builder.WriteString("\n\n")
				count = 0
			} else {
				builder.WriteString(" ")
			}
		}
		builder.WriteString(sentence)
		count++
	}
	return builder.String()
}
