package pitch

import (
	"github.com/cantus-audio/cantus/theory"
)

// Estimator is the boundary to fundamental-frequency estimation: given a
// mono audio frame and its sample rate, return the estimated frequency in
// Hz and a confidence in [0,1]. Implementations signal "nothing reliable
// here" through a low confidence or a zero frequency, never an error.
type Estimator interface {
	Find(frame []float64, sampleRate int) (frequencyHz, confidence float64)
}

// BaseClarity returns the confidence floor derived from the sensitivity
// dial. Higher sensitivity lowers the floor and admits weaker estimates.
func BaseClarity(sensitivity float64) float64 {
	return 0.95 - 0.35*sensitivity
}

// Classify maps one raw estimate to a melody-band pitch number. Estimates
// below the sensitivity-derived confidence floor, or outside the accepted
// frequency band, are silence.
func Classify(frequencyHz, confidence, sensitivity float64) theory.PitchNumber {
	if confidence < BaseClarity(sensitivity) {
		return theory.None
	}
	p := theory.FromFrequency(frequencyHz)
	if p == theory.None {
		return theory.None
	}
	return p.FoldToMelody()
}
