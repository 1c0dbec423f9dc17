package notation

import (
	"testing"

	"github.com/cantus-audio/cantus/theory"
	"github.com/stretchr/testify/assert"
)

func grid(cells ...int) []theory.PitchNumber {
	out := make([]theory.PitchNumber, len(cells))
	for i, c := range cells {
		out[i] = theory.PitchNumber(c)
	}
	return out
}

const nn = int(theory.None)

func TestEncodeRunLengthWithTrailingBar(t *testing.T) {
	tokens := NewEncoder(8).Encode(grid(60, 60, 60, 60, 64, 64, nn, nn))

	assert := assert.New(t)
	assert.Equal([]Token{
		NewNote(60, 4),
		NewNote(64, 2),
		NewRest(2),
		NewBar(),
	}, tokens)
	assert.Equal("C4 E2 z2 |", RenderTokens(tokens, 8))
}

func TestEncodePartialFinalBarHasNoMarker(t *testing.T) {
	tokens := NewEncoder(8).Encode(grid(60, 60, 60))

	assert := assert.New(t)
	assert.Equal([]Token{NewNote(60, 3)}, tokens)
	assert.Equal("C3", RenderTokens(tokens, 8))
}

func TestEncodeBarMarkerSplitsRuns(t *testing.T) {
	cells := make([]int, 10)
	for i := range cells {
		cells[i] = 60
	}
	tokens := NewEncoder(8).Encode(grid(cells...))

	assert := assert.New(t)
	assert.Equal([]Token{
		NewNote(60, 8),
		NewBar(),
		NewNote(60, 2),
	}, tokens)
}

func TestEncodeBarEveryQValueCells(t *testing.T) {
	assert := assert.New(t)
	for _, q := range []int{4, 8, 16} {
		for length := 1; length <= 3*q+1; length++ {
			cells := make([]int, length)
			for i := range cells {
				cells[i] = 60 + i%2 // alternate to defeat run merging
			}
			tokens := NewEncoder(q).Encode(grid(cells...))

			bars := 0
			for _, tok := range tokens {
				if tok.Kind == KindBar {
					bars++
				}
			}
			assert.Equal(length/q, bars, "qValue %d, length %d", q, length)
			if length%q == 0 {
				assert.Equal(KindBar, tokens[len(tokens)-1].Kind)
			} else {
				assert.NotEqual(KindBar, tokens[len(tokens)-1].Kind)
			}
		}
	}
}

func TestEncodeEmptyGrid(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(NewEncoder(8).Encode(nil))
}

func TestEncodeVoicesDerivesHarmony(t *testing.T) {
	melody, harmony := NewEncoder(8).EncodeVoices(grid(60, nn, 72, 72))

	assert := assert.New(t)
	assert.Equal([]Token{
		NewNote(60, 1),
		NewRest(1),
		NewNote(72, 2),
	}, melody)
	// 60 and 72 both transpose into harmony pitch 48
	assert.Equal([]Token{
		NewNote(48, 1),
		NewRest(1),
		NewNote(48, 2),
	}, harmony)
}

func TestEncodeVoicesHarmonyStaysInBand(t *testing.T) {
	melody, harmony := NewEncoder(8).EncodeVoices(grid(48, 55, 60, 67, 72, 79, 84, nn))

	assert := assert.New(t)
	assert.Equal(NoteCount(melody), NoteCount(harmony))
	for _, tok := range harmony {
		if tok.Kind != KindNote {
			continue
		}
		assert.GreaterOrEqual(tok.Pitch, theory.MinHarmonyPitch)
		assert.LessOrEqual(tok.Pitch, theory.MaxHarmonyPitch)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	cells := grid(60, 60, nn, 64, 64, 64, 67, nn, nn, 60, 62, 62)

	assert := assert.New(t)
	first := NewEncoder(16).Encode(cells)
	second := NewEncoder(16).Encode(cells)
	assert.Equal(first, second)
}

func TestNoteCount(t *testing.T) {
	tokens := []Token{NewNote(60, 2), NewBar(), NewRest(1), NewNote(62, 1)}

	assert := assert.New(t)
	assert.Equal(2, NoteCount(tokens))
	assert.Equal(0, NoteCount(nil))
}
