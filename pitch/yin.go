package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/cantus-audio/cantus/theory"
)

// YinParams contains parameters for the YIN estimator
type YinParams struct {
	Threshold float64 `json:"threshold"` // CMNDF acceptance threshold (0.1-0.5)
	MinFreq   float64 `json:"min_freq"`  // Lowest searched frequency (Hz)
	MaxFreq   float64 `json:"max_freq"`  // Highest searched frequency (Hz)
	Window    string  `json:"window"`    // Window function: "hann", "hamming", "blackman", "rectangular"
}

// DefaultYinParams returns the standard estimator parameters, aligned
// with the transcriber's accepted frequency band.
func DefaultYinParams() YinParams {
	return YinParams{
		Threshold: 0.15,
		MinFreq:   theory.MinFrequency,
		MaxFreq:   theory.MaxFrequency,
		Window:    "hann",
	}
}

// YinEstimator implements YIN pitch detection with the difference
// function computed through FFT autocorrelation instead of the quadratic
// time-domain form.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music"
//
// An estimator reuses its internal buffers between calls and is not safe
// for concurrent use; create one per goroutine.
type YinEstimator struct {
	params YinParams

	// buffers, rebuilt when the frame length changes
	frameLen   int
	windowFunc []float64
	windowed   []float64
	head       []float64
	diff       []float64
	cmndf      []float64
}

// NewYinEstimator creates an estimator with default parameters
func NewYinEstimator() *YinEstimator {
	return NewYinEstimatorWithParams(DefaultYinParams())
}

// NewYinEstimatorWithParams creates an estimator with custom parameters.
// Out-of-range values fall back to their defaults.
func NewYinEstimatorWithParams(params YinParams) *YinEstimator {
	defaults := DefaultYinParams()
	if params.Threshold <= 0 || params.Threshold >= 1 {
		params.Threshold = defaults.Threshold
	}
	if params.MinFreq <= 0 {
		params.MinFreq = defaults.MinFreq
	}
	if params.MaxFreq <= params.MinFreq {
		params.MaxFreq = defaults.MaxFreq
	}
	return &YinEstimator{params: params}
}

// Params returns the estimator's parameters
func (y *YinEstimator) Params() YinParams {
	return y.params
}

// Find estimates the fundamental frequency of one frame. It returns
// (0, 0) when the frame is silent or no periodicity can be measured.
func (y *YinEstimator) Find(frame []float64, sampleRate int) (float64, float64) {
	n := len(frame)
	if n < 8 || sampleRate <= 0 {
		return 0, 0
	}
	y.prepare(n)

	energy := 0.0
	for i, s := range frame {
		y.windowed[i] = s * y.windowFunc[i]
		energy += y.windowed[i] * y.windowed[i]
	}
	if energy == 0 {
		return 0, 0
	}

	w := n / 2
	minTau := int(math.Floor(float64(sampleRate) / y.params.MaxFreq))
	maxTau := int(math.Ceil(float64(sampleRate) / y.params.MinFreq))
	if minTau < 2 {
		minTau = 2
	}
	if maxTau > w-2 {
		maxTau = w - 2
	}
	if minTau >= maxTau {
		return 0, 0
	}

	y.computeDifference(w)
	y.computeCMNDF(maxTau)

	tau := y.findTau(minTau, maxTau)
	if tau <= 0 {
		return 0, 0
	}

	period := parabolicInterpolation(y.cmndf, tau)
	if period <= 0 {
		return 0, 0
	}
	confidence := 1.0 - y.cmndf[tau]
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return float64(sampleRate) / period, confidence
}

// prepare sizes the internal buffers for a frame length
func (y *YinEstimator) prepare(n int) {
	if y.frameLen == n {
		return
	}
	y.frameLen = n
	y.windowed = make([]float64, n)
	y.head = make([]float64, n)
	y.diff = make([]float64, n/2)
	y.cmndf = make([]float64, n/2)

	switch y.params.Window {
	case "hamming":
		y.windowFunc = window.Hamming(n)
	case "blackman":
		y.windowFunc = window.Blackman(n)
	case "rectangular":
		y.windowFunc = make([]float64, n)
		for i := range y.windowFunc {
			y.windowFunc[i] = 1.0
		}
	default:
		y.windowFunc = window.Hann(n)
	}
}

// computeDifference fills y.diff with the YIN difference function
//
//	d(tau) = sum_{j<w} (x[j] - x[j+tau])^2
//
// expanded into power terms plus a cross-correlation, with the
// correlation computed in the frequency domain.
func (y *YinEstimator) computeDifference(w int) {
	for i := 0; i < w; i++ {
		y.head[i] = y.windowed[i]
	}
	for i := w; i < len(y.head); i++ {
		y.head[i] = 0
	}

	frameSpec := fft.FFTReal(y.windowed)
	headSpec := fft.FFTReal(y.head)
	for i := range frameSpec {
		frameSpec[i] *= cmplx.Conj(headSpec[i])
	}
	corr := fft.IFFT(frameSpec)

	power := 0.0
	for j := 0; j < w; j++ {
		power += y.windowed[j] * y.windowed[j]
	}
	headPower := power

	y.diff[0] = 0
	for tau := 1; tau < w; tau++ {
		power += y.windowed[tau+w-1]*y.windowed[tau+w-1] - y.windowed[tau-1]*y.windowed[tau-1]
		y.diff[tau] = headPower + power - 2*real(corr[tau])
		if y.diff[tau] < 0 {
			y.diff[tau] = 0
		}
	}
}

// computeCMNDF fills y.cmndf with the cumulative mean normalized
// difference up to maxTau
func (y *YinEstimator) computeCMNDF(maxTau int) {
	y.cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau <= maxTau && tau < len(y.diff); tau++ {
		runningSum += y.diff[tau]
		if runningSum == 0 {
			y.cmndf[tau] = 1.0
			continue
		}
		y.cmndf[tau] = y.diff[tau] * float64(tau) / runningSum
	}
}

// findTau returns the first lag below the threshold that is a local
// minimum, falling back to the global minimum in the search range when
// no lag dips below the threshold.
func (y *YinEstimator) findTau(minTau, maxTau int) int {
	for tau := minTau; tau < maxTau; tau++ {
		if y.cmndf[tau] < y.params.Threshold && y.cmndf[tau] < y.cmndf[tau+1] {
			return tau
		}
	}

	best := minTau
	for tau := minTau + 1; tau <= maxTau; tau++ {
		if y.cmndf[tau] < y.cmndf[best] {
			best = tau
		}
	}
	return best
}

// parabolicInterpolation refines a minimum location using its neighbors
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(idx)
	}
	return float64(idx) - b/(2*a)
}
