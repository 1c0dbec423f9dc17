package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurationStringEighthGrid(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", DurationString(1, 8))
	assert.Equal("2", DurationString(2, 8))
	assert.Equal("3", DurationString(3, 8))
	assert.Equal("8", DurationString(8, 8))
}

func TestDurationStringSixteenthGrid(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("/2", DurationString(1, 16))
	assert.Equal("", DurationString(2, 16))
	assert.Equal("3/2", DurationString(3, 16))
	assert.Equal("2", DurationString(4, 16))
	assert.Equal("5/2", DurationString(5, 16))
	assert.Equal("3", DurationString(6, 16))
	assert.Equal("8", DurationString(16, 16))
}

func TestDurationStringQuarterGrid(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("2", DurationString(1, 4))
	assert.Equal("4", DurationString(2, 4))
	assert.Equal("8", DurationString(4, 4))
}

func TestDurationStringClampsBelowOne(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", DurationString(0, 8))
	assert.Equal("/2", DurationString(-3, 16))
}

func TestParseDurationRoundTrip(t *testing.T) {
	assert := assert.New(t)
	for _, q := range []int{4, 8, 16} {
		for d := 1; d <= 2*q; d++ {
			assert.Equal(d, ParseDuration(DurationString(d, q), q),
				"duration %d at qValue %d", d, q)
		}
	}
}

func TestParseDurationMalformedFallsBackToOne(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(1, ParseDuration("x", 8))
	assert.Equal(1, ParseDuration("-4", 8))
	assert.Equal(1, ParseDuration("2/3", 16))
	assert.Equal(1, ParseDuration("x/2", 16))
	assert.Equal(1, ParseDuration("3", 4))
	assert.Equal(1, ParseDuration("", 4))
	assert.Equal(1, ParseDuration("0", 8))
}
