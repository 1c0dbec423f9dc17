package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pitchesFromClasses(classes ...int) []PitchNumber {
	pitches := make([]PitchNumber, len(classes))
	for i, c := range classes {
		pitches[i] = PitchNumber(60 + c)
	}
	return pitches
}

func TestDetectPureCMajor(t *testing.T) {
	result := NewKeyDetector().Detect(pitchesFromClasses(0, 2, 4, 5, 7, 9, 11))

	assert := assert.New(t)
	assert.Equal("C", result.Key)
	assert.Equal(0, result.Root)
	assert.Equal(7, result.Matches)
	assert.Equal(7, result.Total)
	assert.False(result.Defaulted)
	assert.InDelta(1.0, result.Confidence, 1e-9)
}

func TestDetectPureGMajor(t *testing.T) {
	result := NewKeyDetector().Detect(pitchesFromClasses(7, 9, 11, 0, 2, 4, 6))

	assert := assert.New(t)
	assert.Equal("G", result.Key)
	assert.Equal(7, result.Root)
	assert.Equal(7, result.Matches)
}

func TestDetectDefaultsBelowMinimum(t *testing.T) {
	assert := assert.New(t)

	result := NewKeyDetector().Detect(pitchesFromClasses(9, 11))
	assert.Equal("C", result.Key)
	assert.True(result.Defaulted)

	// None entries do not count toward the minimum
	result = NewKeyDetector().Detect([]PitchNumber{69, 71, None, None, None, None})
	assert.Equal("C", result.Key)
	assert.True(result.Defaulted)
	assert.Equal(2, result.Total)

	result = NewKeyDetector().Detect(nil)
	assert.Equal("C", result.Key)
	assert.True(result.Defaulted)
}

func TestDetectLowestRootWinsTies(t *testing.T) {
	// classes common to C and G major (neither F nor F# present)
	result := NewKeyDetector().Detect(pitchesFromClasses(0, 2, 4, 7, 9, 11))

	assert := assert.New(t)
	assert.Equal(6, result.Scores[0])
	assert.Equal(6, result.Scores[7])
	assert.Equal("C", result.Key)
}

func TestDetectCountsMultiplicity(t *testing.T) {
	// four F# against one F pulls the scale toward G
	result := NewKeyDetector().Detect(pitchesFromClasses(0, 2, 4, 6, 6, 6, 6, 5, 7, 9, 11))

	assert := assert.New(t)
	assert.Equal("G", result.Key)
}

func TestDetectIgnoresOctaves(t *testing.T) {
	low := NewKeyDetector().Detect([]PitchNumber{48, 50, 52, 55, 57, 59})
	high := NewKeyDetector().Detect([]PitchNumber{72, 74, 76, 79, 81, 83})

	assert := assert.New(t)
	assert.Equal(low.Key, high.Key)
	assert.Equal(low.Scores, high.Scores)
}

func TestDetectCustomParams(t *testing.T) {
	detector := NewKeyDetectorWithParams(KeyDetectionParams{MinPitches: 2, DefaultKey: "D"})

	assert := assert.New(t)
	result := detector.Detect(pitchesFromClasses(7))
	assert.Equal("D", result.Key)
	assert.True(result.Defaulted)

	result = detector.Detect(pitchesFromClasses(6, 11))
	assert.False(result.Defaulted)
}
