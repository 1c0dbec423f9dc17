package quantize

import (
	"testing"

	"github.com/cantus-audio/cantus/theory"
	"github.com/stretchr/testify/assert"
)

func cells(values ...int) []theory.PitchNumber {
	out := make([]theory.PitchNumber, len(values))
	for i, v := range values {
		out[i] = theory.PitchNumber(v)
	}
	return out
}

const nn = int(theory.None)

func TestSmoothFillsInteriorGaps(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	assert.Equal(cells(60, 60, 64), s.Smooth(cells(60, nn, 64)))

	// left neighbor wins even when the neighbors disagree
	assert.Equal(cells(64, 64, 60), s.Smooth(cells(64, nn, 60)))
}

func TestSmoothLeavesEdgesAndWideGaps(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	assert.Equal(cells(nn, 60, 62, nn), s.Smooth(cells(nn, 60, 62, nn)))
	assert.Equal(cells(60, nn, nn, 64), s.Smooth(cells(60, nn, nn, 64)))
}

func TestSmoothNeverLeavesFlankedSilence(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	smoothed := s.Smooth(cells(60, nn, 64, nn, 67, nn, nn, 71, nn))
	for i := 1; i < len(smoothed)-1; i++ {
		if smoothed[i] == theory.None {
			flanked := smoothed[i-1] != theory.None && smoothed[i+1] != theory.None
			assert.False(flanked, "cell %d still silent between voiced neighbors", i)
		}
	}
}

func TestSmoothExtendsTailRuns(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	assert.Equal(cells(60, 60, 60, 60), s.Smooth(cells(60, 60, 60, nn)))

	run7 := cells(62, 62, 62, 62, 62, 62, 62, nn)
	assert.Equal(cells(62, 62, 62, 62, 62, 62, 62, 62), s.Smooth(run7))

	run15 := make([]theory.PitchNumber, 16)
	for i := 0; i < 15; i++ {
		run15[i] = 64
	}
	run15[15] = theory.None
	want := make([]theory.PitchNumber, 16)
	for i := range want {
		want[i] = 64
	}
	assert.Equal(want, s.Smooth(run15))
}

func TestSmoothTailExtensionDoesNotFireForOtherLengths(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	assert.Equal(cells(60, 60, nn), s.Smooth(cells(60, 60, nn)))
	assert.Equal(cells(60, 60, 60, 60, nn), s.Smooth(cells(60, 60, 60, 60, nn)))
}

func TestSmoothTailExtensionSkipsRealRests(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	// two consecutive silent cells are a real rest
	assert.Equal(cells(60, 60, 60, nn, nn), s.Smooth(cells(60, 60, 60, nn, nn)))
}

func TestSmoothGapFillRunsBeforeTailExtension(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	// gap fill grows the run to 4 first, so no tail extension can fire on it
	assert.Equal(cells(60, 60, 60, 60, 64), s.Smooth(cells(60, 60, 60, nn, 64)))
}

func TestSmoothDoesNotModifyInput(t *testing.T) {
	assert := assert.New(t)
	input := cells(60, nn, 64)
	NewSmoother().Smooth(input)
	assert.Equal(cells(60, nn, 64), input)
}

func TestSmoothIsIdempotentOnItsOutput(t *testing.T) {
	assert := assert.New(t)
	s := NewSmoother()

	once := s.Smooth(cells(60, 60, 60, nn, 62, nn, 62, 62, nn, nn))
	twice := s.Smooth(once)
	assert.Equal(once, twice)
}
