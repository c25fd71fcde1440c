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
// cinematification pipeline: sentence splitting, paragraph reconstruction,
// chapter segmentation, and chunk planning. All of these run before any
// provider call and never touch the network.
//
// This file implements the boundary-aware sentence splitter. It is a single
// linear pass over the input with no backtracking: a terminator character is
// only a boundary when the context around it says so.
package text

import (
	"strings"
	"unicode"
)

// abbreviations lists the tokens after which a period never ends a sentence.
// Lookup is case-insensitive.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sr": true, "jr": true, "st": true, "mt": true, "ft": true,
	"vs": true, "etc": true, "e.g": true, "i.e": true, "cf": true,
	"gen": true, "col": true, "lt": true, "sgt": true, "capt": true,
	"rev": true, "hon": true, "no": true, "vol": true, "approx": true,
}

// isClosingMark reports whether a rune is a closing quote or bracket that a
// sentence terminator is allowed to absorb before the boundary whitespace.
func isClosingMark(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}

// precedingToken walks backwards from index i (exclusive) and returns the
// word token immediately before it. Interior periods are kept so that
// multi-part abbreviations like "e.g." resolve against the table.
func precedingToken(runes []rune, i int) string {
	end := i
	start := end
	for start > 0 {
		r := runes[start-1]
		if unicode.IsLetter(r) || r == '.' {
			start--
			continue
		}
		break
	}
	return strings.TrimSuffix(string(runes[start:end]), ".")
}

// SplitSentences tokenizes text into trimmed, non-empty sentences.
//
// A '.', '!' or '?' is a candidate boundary only if, after absorbing any
// immediately-following closing quotes or brackets, the next character is
// whitespace or end-of-text. The boundary is suppressed when the terminator
// is part of a three-dot or unicode ellipsis, when it sits inside a decimal
// number, or when the preceding token is a recognized abbreviation or a
// single capital letter (an initial).
func SplitSentences(text string) []string {
	runes := []rune(text)
	sentences := make([]string, 0, 8)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		if r == '.' {
			// Part of a dot run ("...") is never a boundary on its own; the
			// run is treated as a single ellipsis inside the sentence.
			if (i+1 < len(runes) && runes[i+1] == '.') || (i > 0 && runes[i-1] == '.') {
				continue
			}
			// A period between a digit and a digit or lowercase letter is a
			// decimal or a version-style token, not a boundary.
			if i > 0 && unicode.IsDigit(runes[i-1]) && i+1 < len(runes) &&
				(unicode.IsDigit(runes[i+1]) || unicode.IsLower(runes[i+1])) {
				continue
			}
			token := precedingToken(runes, i)
			if token != "" {
				if abbreviations[strings.ToLower(token)] {
					continue
				}
				// A single capital letter reads as an initial ("J. Smith").
				tr := []rune(token)
				if len(tr) == 1 && unicode.IsUpper(tr[0]) {
					continue
				}
			}
		}

		// Absorb closing quotes and brackets that belong to this sentence.
		end := i + 1
		for end < len(runes) && isClosingMark(runes[end]) {
			end++
		}
		// Only whitespace or end-of-text after the absorbed closers makes
		// this a genuine boundary.
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
		start = end
		i = end - 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
