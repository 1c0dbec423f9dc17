package notation

import (
	"strings"

	"github.com/cantus-audio/cantus/theory"
)

// classLetters maps pitch class to letter with sharp prefix
var classLetters = []string{"C", "^C", "D", "^D", "E", "F", "^F", "G", "^G", "A", "^A", "B"}

// baseOctaveBlock is the twelve-tone block rendered as plain uppercase
// letters (pitch numbers 60-71)
const baseOctaveBlock = 5

// LetterFor converts a pitch number to its notation letter. The block
// 60-71 renders as plain uppercase; each block below appends a comma;
// the block above renders lowercase, with an apostrophe per further
// block up. Pitches that cannot resolve render as the rest symbol.
func LetterFor(p theory.PitchNumber) string {
	if p < 0 {
		return RestSymbol
	}
	letter := classLetters[p.Class()]
	block := int(p) / 12
	switch {
	case block < baseOctaveBlock:
		return letter + strings.Repeat(",", baseOctaveBlock-block)
	case block == baseOctaveBlock:
		return letter
	default:
		return strings.ToLower(letter) + strings.Repeat("'", block-baseOctaveBlock-1)
	}
}
