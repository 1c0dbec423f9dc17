package quantize

import (
	"github.com/cantus-audio/cantus/theory"
)

// tailRunLengths are the run lengths eligible for tail extension. A run of
// 3, 7 or 15 cells cut off by a single silent cell is more likely a
// mis-detected note ending than a true rest, so the silent cell is
// absorbed, completing the run to 4, 8 or 16.
var tailRunLengths = map[int]bool{3: true, 7: true, 15: true}

// Smoother applies grid-level cleanup between quantization and encoding:
// gap filling first, then tail extension.
type Smoother struct{}

// NewSmoother creates a smoother
func NewSmoother() *Smoother {
	return &Smoother{}
}

// Smooth returns a cleaned copy of the grid. The input is not modified.
func (s *Smoother) Smooth(grid []theory.PitchNumber) []theory.PitchNumber {
	out := make([]theory.PitchNumber, len(grid))
	copy(out, grid)
	s.fillGaps(out)
	s.extendTails(out)
	return out
}

// fillGaps replaces every interior silent cell that has non-silent
// neighbors on both sides with the left neighbor's pitch. The preceding
// note wins even when the two neighbors disagree.
func (s *Smoother) fillGaps(grid []theory.PitchNumber) {
	for i := 1; i < len(grid)-1; i++ {
		if grid[i] == theory.None && grid[i-1] != theory.None && grid[i+1] != theory.None {
			grid[i] = grid[i-1]
		}
	}
}

// extendTails absorbs the single silent cell that cuts off a run of
// exactly 3, 7 or 15 identical cells. Two consecutive silent cells are a
// real rest and never touched. Extensions are collected in one scan and
// applied afterwards so an extension can never seed another.
func (s *Smoother) extendTails(grid []theory.PitchNumber) {
	type extension struct {
		index int
		pitch theory.PitchNumber
	}
	var pending []extension

	i := 0
	for i < len(grid) {
		if grid[i] == theory.None {
			i++
			continue
		}
		runStart := i
		for i < len(grid) && grid[i] == grid[runStart] {
			i++
		}
		runLen := i - runStart
		if !tailRunLengths[runLen] {
			continue
		}
		if i >= len(grid) || grid[i] != theory.None {
			continue
		}
		if i+1 < len(grid) && grid[i+1] == theory.None {
			continue
		}
		pending = append(pending, extension{index: i, pitch: grid[runStart]})
	}

	for _, ext := range pending {
		grid[ext.index] = ext.pitch
	}
}
