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
// cinematification pipeline. This file plans how a chapter is carved into
// bounded-size chunks, each of which becomes one model context window.
package text

import "strings"

// DefaultChunkBudget is the contract character budget for one chunk.
const DefaultChunkBudget = 3500

// PlanChunks splits a chapter's text into chunks of at most budget
// characters, accumulating whole paragraphs greedily. A paragraph is never
// split mid-way, so a single paragraph larger than the budget becomes a
// chunk of its own. Joining the returned chunks with blank lines reproduces
// the paragraph sequence of the input; no chunk is empty.
func PlanChunks(chapterText string, budget int) []string {
	if budget <= 0 {
		budget = DefaultChunkBudget
	}
	paragraphs := SplitParagraphs(chapterText)
	if len(paragraphs) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(paragraphs)/4+1)
	var current strings.Builder
	for _, paragraph := range paragraphs {
		// +2 accounts for the blank-line separator that joins paragraphs.
		if current.Len() > 0 && current.Len()+len(paragraph)+2 > budget {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
