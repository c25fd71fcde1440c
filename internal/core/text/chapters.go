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
// cinematification pipeline. This file detects chapter markers in full-book
// text and partitions it into chapter units for per-chapter processing.
package text

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jaycherian/go-cinematify/internal/core/model"
)

// minChapterContent is the minimum content length, in characters, a segment
// must carry to survive as its own chapter. Shorter segments (title pages,
// stray divider fragments) are dropped.
const minChapterContent = 100

var (
	chapterHeader = regexp.MustCompile(`(?i)^\s*(chapter|part|book)\s+([0-9]+|[ivxlcdm]+|[a-z]+)\b.*$`)
	specialHeader = regexp.MustCompile(`(?i)^\s*(prologue|epilogue|interlude|afterword|foreword)\b.*$`)
	dividerLine   = regexp.MustCompile(`^\s*(\*\s*){3,}$|^\s*\*{3,}\s*$|^\s*-{3,}\s*$`)
)

// chapterMarker classifies one line of the book as a segment boundary.
// Divider lines open an untitled section; header lines carry their own text
// as the synthesized title.
func chapterMarker(line string) (title string, isMarker bool, isDivider bool) {
	if dividerLine.MatchString(line) {
		return "", true, true
	}
	if chapterHeader.MatchString(line) || specialHeader.MatchString(line) {
		return strings.TrimSpace(line), true, false
	}
	return "", false, false
}

// SegmentChapters partitions a full book text into chapters.
//
// The scan is line-by-line: each detected chapter header or divider closes
// the previous segment and opens a new one. Closed segments keep their
// line-index range; segments whose content is shorter than the minimum are
// dropped rather than emitted. When the text contains no markers at all the
// entire input becomes a single chapter titled "Full Text".
func SegmentChapters(bookText string) []*model.Chapter {
	lines := strings.Split(bookText, "\n")
	chapters := make([]*model.Chapter, 0, 8)
	sectionSeq := 0

	currentTitle := ""
	currentStart := 0
	var currentLines []string

	flush := func(endLine int) {
		content := strings.TrimSpace(strings.Join(currentLines, "\n"))
		if len(content) < minChapterContent {
			return
		}
		title := currentTitle
		if title == "" {
			sectionSeq++
			title = fmt.Sprintf("Section %d", sectionSeq)
		}
		chapters = append(chapters, &model.Chapter{
			Title:     title,
			Text:      content,
			StartLine: currentStart,
			EndLine:   endLine,
		})
	}

	sawMarker := false
	for i, line := range lines {
		title, isMarker, isDivider := chapterMarker(line)
		if !isMarker {
			currentLines = append(currentLines, line)
			continue
		}
		sawMarker = true
		flush(i - 1)
		currentLines = currentLines[:0]
		currentStart = i + 1
		if isDivider {
			currentTitle = ""
		} else {
			currentTitle = title
		}
	}
	flush(len(lines) - 1)

	if !sawMarker {
		// No structure detected: the whole text is one chapter.
		return []*model.Chapter{{
			Title:     "Full Text",
			Text:      strings.TrimSpace(bookText),
			StartLine: 0,
			EndLine:   len(lines) - 1,
		}}
	}
	if len(chapters) == 0 {
		// Markers existed but nothing survived the length filter; fall back
		// to the whole text rather than returning an empty book.
		return []*model.Chapter{{
			Title:     "Full Text",
			Text:      strings.TrimSpace(bookText),
			StartLine: 0,
			EndLine:   len(lines) - 1,
		}}
	}
	return chapters
}
