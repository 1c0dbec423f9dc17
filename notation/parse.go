package notation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cantus-audio/cantus/theory"
)

// letterClasses maps natural letters to pitch classes
var letterClasses = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParseToken parses one textual token back into its Token form for the
// given qValue. Bar markers and rests parse like notes; duration text is
// tolerant per ParseDuration. Anything unrecognizable is an error.
func ParseToken(s string, qValue int) (Token, error) {
	if s == "" {
		return Token{}, fmt.Errorf("empty token")
	}
	if s == BarSymbol {
		return NewBar(), nil
	}

	rest := s
	if strings.HasPrefix(rest, RestSymbol) {
		return NewRest(ParseDuration(rest[len(RestSymbol):], qValue)), nil
	}

	sharp := 0
	if rest[0] == '^' {
		sharp = 1
		rest = rest[1:]
		if rest == "" {
			return Token{}, fmt.Errorf("dangling accidental in %q", s)
		}
	}

	letter := rest[0]
	lower := letter >= 'a' && letter <= 'z'
	class, ok := letterClasses[letter&^0x20]
	if !ok {
		return Token{}, fmt.Errorf("unknown pitch letter in %q", s)
	}
	rest = rest[1:]

	block := baseOctaveBlock
	if lower {
		block++
	}
marks:
	for len(rest) > 0 {
		switch rest[0] {
		case ',':
			if lower {
				return Token{}, fmt.Errorf("octave mark mismatch in %q", s)
			}
			block--
			rest = rest[1:]
		case '\'':
			if !lower {
				return Token{}, fmt.Errorf("octave mark mismatch in %q", s)
			}
			block++
			rest = rest[1:]
		default:
			break marks
		}
	}

	pitch := theory.PitchNumber(block*12 + class + sharp)
	return NewNote(pitch, ParseDuration(rest, qValue)), nil
}

// ParseTokens parses a whitespace-separated token line
func ParseTokens(line string, qValue int) ([]Token, error) {
	fields := strings.Fields(line)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tok, err := ParseToken(f, qValue)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// ParseDocument reads ABC text of the shape Render emits back into a
// Document. T:, K: and Q: header lines fill the matching fields, V:1 and
// V:2 switch the voice being filled, and every other non-empty line is
// parsed as tokens for the current voice. Token lines seen before any
// voice marker belong to the melody. The grid resolution is not recorded
// in the header, so the caller supplies qValue.
func ParseDocument(text string, qValue int) (*Document, error) {
	doc := NewDocument("", qValue)
	voice := &doc.Melody
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "T:"):
			doc.Title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "K:"):
			doc.Key = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "Q:"):
			if _, num, ok := strings.Cut(line, "="); ok {
				if tempo, err := strconv.Atoi(strings.TrimSpace(num)); err == nil && tempo > 0 {
					doc.Tempo = tempo
				}
			}
		case line == "V:1":
			voice = &doc.Melody
		case line == "V:2":
			voice = &doc.Harmony
		case strings.HasPrefix(line, "X:"), strings.HasPrefix(line, "M:"), strings.HasPrefix(line, "L:"):
			// Fixed header fields, nothing to recover.
		default:
			tokens, err := ParseTokens(line, qValue)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			*voice = append(*voice, tokens...)
		}
	}
	return doc, nil
}
