package notation

import (
	"github.com/cantus-audio/cantus/theory"
)

// RestSymbol is the notation for silence
const RestSymbol = "z"

// BarSymbol separates measures
const BarSymbol = "|"

// TokenKind discriminates token variants
type TokenKind int

const (
	KindNote TokenKind = iota
	KindRest
	KindBar
)

func (k TokenKind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindRest:
		return "rest"
	case KindBar:
		return "bar"
	default:
		return "unknown"
	}
}

// Token is one element of a notation sequence: a pitched note, a rest,
// or a bar marker. DurationUnits counts grid cells and is always >= 1
// for notes and rests.
type Token struct {
	Kind          TokenKind          `json:"kind"`
	Pitch         theory.PitchNumber `json:"pitch,omitempty"`
	DurationUnits int                `json:"duration_units,omitempty"`
}

// NewNote creates a note token. Durations below 1 are clamped to 1.
func NewNote(pitch theory.PitchNumber, durationUnits int) Token {
	if durationUnits < 1 {
		durationUnits = 1
	}
	return Token{Kind: KindNote, Pitch: pitch, DurationUnits: durationUnits}
}

// NewRest creates a rest token. Durations below 1 are clamped to 1.
func NewRest(durationUnits int) Token {
	if durationUnits < 1 {
		durationUnits = 1
	}
	return Token{Kind: KindRest, Pitch: theory.None, DurationUnits: durationUnits}
}

// NewBar creates a bar marker token
func NewBar() Token {
	return Token{Kind: KindBar}
}

// Render returns the textual form of the token for the given qValue
func (t Token) Render(qValue int) string {
	switch t.Kind {
	case KindBar:
		return BarSymbol
	case KindRest:
		return RestSymbol + DurationString(t.DurationUnits, qValue)
	default:
		return LetterFor(t.Pitch) + DurationString(t.DurationUnits, qValue)
	}
}

// RenderTokens renders a token sequence as one space-separated line
func RenderTokens(tokens []Token, qValue int) string {
	if len(tokens) == 0 {
		return ""
	}
	out := make([]byte, 0, len(tokens)*4)
	for i, t := range tokens {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, t.Render(qValue)...)
	}
	return string(out)
}

// NoteCount returns the number of note tokens in a sequence
func NoteCount(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if t.Kind == KindNote {
			n++
		}
	}
	return n
}
