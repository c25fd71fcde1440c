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

package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentencesBasic(t *testing.T) {
	got := SplitSentences("The rain fell. The streets emptied. Nobody spoke.")
	assert.Equal(t, []string{"The rain fell.", "The streets emptied.", "Nobody spoke."}, got)
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	got := SplitSentences("Dr. Reyes examined the body. Mr. Cole looked away.")
	assert.Equal(t, []string{"Dr. Reyes examined the body.", "Mr. Cole looked away."}, got)
}

func TestSplitSentencesInitials(t *testing.T) {
	got := SplitSentences("J. Smith arrived at noon. He was late.")
	assert.Equal(t, []string{"J. Smith arrived at noon.", "He was late."}, got)
}

func TestSplitSentencesDecimals(t *testing.T) {
	got := SplitSentences("The dose was 2.5 grams. It was too much.")
	assert.Equal(t, []string{"The dose was 2.5 grams.", "It was too much."}, got)
}

func TestSplitSentencesEllipsis(t *testing.T) {
	got := SplitSentences("He hesitated... then spoke. The room waited.")
	assert.Equal(t, []string{"He hesitated... then spoke.", "The room waited."}, got)
}

func TestSplitSentencesClosingQuote(t *testing.T) {
	got := SplitSentences(`"Get out!" she said. He did.`)
	require.Len(t, got, 3)
	assert.Equal(t, `"Get out!"`, got[0])
	assert.Equal(t, "she said.", got[1])
	assert.Equal(t, "He did.", got[2])
}

func TestSplitSentencesEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("   \n\t  "))
	assert.Equal(t, []string{"No terminator at all"}, SplitSentences("No terminator at all"))
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("First paragraph.\n\nSecond paragraph.\n\n\n\nThird.")
	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third."}, got)
	assert.Empty(t, SplitParagraphs("  \n\n  \n  "))
}

func TestReconstructParagraphsLeavesHealthyTextAlone(t *testing.T) {
	input := "A short paragraph.\n\nAnother short paragraph."
	assert.Equal(t, input, ReconstructParagraphs(input))
}

func TestReconstructParagraphsWallOfText(t *testing.T) {
	sentence := "The expedition pressed on through the endless grey tundra without a word of complaint from anyone. "
	wall := strings.TrimSpace(strings.Repeat(sentence, 30))

	got := ReconstructParagraphs(wall)
	paragraphs := SplitParagraphs(got)
	require.Greater(t, len(paragraphs), 1)
	for _, p := range paragraphs {
		assert.LessOrEqual(t, len(SplitSentences(p)), sentencesPerParagraph)
	}
}

func TestReconstructParagraphsBreaksAtDialogue(t *testing.T) {
	wall := strings.TrimSpace(strings.Repeat(
		`The camp was silent under the ridge and the fires had burned down to embers well before midnight. "Who goes there?" called the sentry. `, 12))

	got := ReconstructParagraphs(wall)
	for _, p := range SplitParagraphs(got)[1:] {
		if strings.HasPrefix(p, `"`) {
			return
		}
	}
	t.Fatal("expected at least one reconstructed paragraph to open with dialogue")
}

func TestReconstructParagraphsEmpty(t *testing.T) {
	assert.Equal(t, "", ReconstructParagraphs("   "))
}

func TestPlanChunksRespectsBudget(t *testing.T) {
	paragraph := strings.Repeat("Steady prose fills the line. ", 4)
	input := strings.TrimSpace(strings.Repeat(paragraph+"\n\n", 10))

	chunks := PlanChunks(input, 300)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 300)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestPlanChunksNeverSplitsParagraphs(t *testing.T) {
	big := strings.Repeat("An oversized paragraph that exceeds any reasonable budget on its own. ", 10)
	input := "Small one.\n\n" + strings.TrimSpace(big) + "\n\nAnother small one."

	chunks := PlanChunks(input, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Small one.", chunks[0])
	assert.Equal(t, strings.TrimSpace(big), chunks[1])
	assert.Equal(t, "Another small one.", chunks[2])
}

func TestPlanChunksRoundTrip(t *testing.T) {
	input := "One.\n\nTwo.\n\nThree.\n\nFour."
	chunks := PlanChunks(input, 12)
	assert.Equal(t, SplitParagraphs(input), SplitParagraphs(strings.Join(chunks, "\n\n")))
}

func TestPlanChunksEmpty(t *testing.T) {
	assert.Nil(t, PlanChunks("  \n\n ", 100))
}

func TestSegmentChaptersHeadersAndSpecials(t *testing.T) {
	body := strings.Repeat("The chapter body carries enough narrative content to clear the segment length floor. ", 3)
	book := "Prologue\n\n" + body + "\n\nChapter 1: The Road\n\n" + body + "\n\nChapter 2\n\n" + body

	chapters := SegmentChapters(book)
	require.Len(t, chapters, 3)
	assert.Equal(t, "Prologue", chapters[0].Title)
	assert.Equal(t, "Chapter 1: The Road", chapters[1].Title)
	assert.Equal(t, "Chapter 2", chapters[2].Title)
	for _, ch := range chapters {
		assert.GreaterOrEqual(t, len(ch.Text), minChapterContent)
		assert.LessOrEqual(t, ch.StartLine, ch.EndLine)
	}
}

func TestSegmentChaptersDividers(t *testing.T) {
	body := strings.Repeat("Divider-separated sections still need enough text to count as real chapters here. ", 3)
	book := body + "\n\n* * *\n\n" + body

	chapters := SegmentChapters(book)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Section 1", chapters[0].Title)
	assert.Equal(t, "Section 2", chapters[1].Title)
}

func TestSegmentChaptersDropsShortSegments(t *testing.T) {
	body := strings.Repeat("Only this second segment has enough content to survive the length filter. ", 3)
	book := "Chapter 1\n\nToo short.\n\nChapter 2\n\n" + body

	chapters := SegmentChapters(book)
	require.Len(t, chapters, 1)
	assert.Equal(t, "Chapter 2", chapters[0].Title)
}

func TestSegmentChaptersNoMarkers(t *testing.T) {
	text := "Just a plain passage with no chapter structure at all."
	chapters := SegmentChapters(text)
	require.Len(t, chapters, 1)
	assert.Equal(t, "Full Text", chapters[0].Title)
	assert.Equal(t, text, chapters[0].Text)
}
