package notation

import (
	"github.com/cantus-audio/cantus/theory"
)

// Encoder run-length-encodes pitch grids into token sequences. A run of
// identical cells becomes one note or rest carrying the run length; a bar
// marker lands after every qValue consumed cells, flushing the pending
// run first. A partial final bar flushes without a marker.
type Encoder struct {
	qValue int
}

// NewEncoder creates an encoder for the given grid resolution
func NewEncoder(qValue int) *Encoder {
	if qValue != 4 && qValue != 8 && qValue != 16 {
		qValue = 8
	}
	return &Encoder{qValue: qValue}
}

// QValue returns the encoder's grid resolution
func (e *Encoder) QValue() int {
	return e.qValue
}

// Encode converts a pitch grid into tokens. Cells holding theory.None
// become rests; everything else becomes notes.
func (e *Encoder) Encode(grid []theory.PitchNumber) []Token {
	tokens := make([]Token, 0, len(grid)/2+len(grid)/e.qValue+1)

	runPitch := theory.None
	runLen := 0
	cellsInBar := 0

	flush := func() {
		if runLen == 0 {
			return
		}
		if runPitch == theory.None {
			tokens = append(tokens, NewRest(runLen))
		} else {
			tokens = append(tokens, NewNote(runPitch, runLen))
		}
		runLen = 0
	}

	for _, p := range grid {
		if runLen > 0 && p == runPitch {
			runLen++
		} else {
			flush()
			runPitch = p
			runLen = 1
		}
		cellsInBar++
		if cellsInBar == e.qValue {
			flush()
			tokens = append(tokens, NewBar())
			cellsInBar = 0
		}
	}
	flush()

	return tokens
}

// EncodeVoices encodes the melody grid and its derived harmony grid.
// Each non-silent cell transposes one octave down into the harmony band;
// silent cells stay silent, keeping the voices rhythmically aligned.
func (e *Encoder) EncodeVoices(grid []theory.PitchNumber) (melody, harmony []Token) {
	harmonyGrid := make([]theory.PitchNumber, len(grid))
	for i, p := range grid {
		harmonyGrid[i] = theory.HarmonyFor(p)
	}
	return e.Encode(grid), e.Encode(harmonyGrid)
}
