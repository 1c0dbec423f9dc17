package quantize

import (
	"math"

	"github.com/cantus-audio/cantus/notation"
	"github.com/cantus-audio/cantus/theory"
)

// QuantizerParams contains parameters for offline quantization
type QuantizerParams struct {
	QValue      int     `json:"q_value"`     // Grid resolution: 4, 8 or 16 cells per two seconds
	Sensitivity float64 `json:"sensitivity"` // [0,1]; raises the silence vote threshold
}

// DefaultQuantizerParams returns the standard quantization parameters
func DefaultQuantizerParams() QuantizerParams {
	return QuantizerParams{
		QValue:      8,
		Sensitivity: 0.5,
	}
}

// SilenceThreshold returns the silent-slice ratio above which a grid cell
// becomes a rest. Strictly above: a chunk sitting exactly on the
// threshold still votes for a pitch.
func (p QuantizerParams) SilenceThreshold() float64 {
	return 0.2 + 0.6*p.Sensitivity
}

// Result contains the outcome of one offline quantization pass
type Result struct {
	Grid          []theory.PitchNumber `json:"grid"`            // Smoothed grid, one pitch or silence per cell
	Melody        []notation.Token     `json:"melody"`          // Encoded melody voice
	Harmony       []notation.Token     `json:"harmony"`         // Encoded harmony voice
	Key           string               `json:"key"`             // Key used for snapping
	QValue        int                  `json:"q_value"`         // Grid resolution used
	SlicesPerGrid int                  `json:"slices_per_grid"` // Input slices merged per cell
	NoteCount     int                  `json:"note_count"`      // Note tokens in the melody
}

// OfflineQuantizer converts a complete per-slice pitch sequence into a
// fixed-resolution grid and encodes it. Each call owns its grid; the
// quantizer itself holds only configuration and is safe to reuse.
type OfflineQuantizer struct {
	params   QuantizerParams
	smoother *Smoother
}

// NewOfflineQuantizer creates a quantizer with default parameters
func NewOfflineQuantizer() *OfflineQuantizer {
	return NewOfflineQuantizerWithParams(DefaultQuantizerParams())
}

// NewOfflineQuantizerWithParams creates a quantizer with custom parameters.
// Out-of-range values fall back to their defaults.
func NewOfflineQuantizerWithParams(params QuantizerParams) *OfflineQuantizer {
	if params.QValue != 4 && params.QValue != 8 && params.QValue != 16 {
		params.QValue = DefaultQuantizerParams().QValue
	}
	if params.Sensitivity < 0 || params.Sensitivity > 1 {
		params.Sensitivity = DefaultQuantizerParams().Sensitivity
	}
	return &OfflineQuantizer{
		params:   params,
		smoother: NewSmoother(),
	}
}

// Params returns the quantizer's parameters
func (oq *OfflineQuantizer) Params() QuantizerParams {
	return oq.params
}

// SlicesPerGrid computes how many input slices merge into one grid cell.
// One cell spans 2/qValue seconds of audio.
func (oq *OfflineQuantizer) SlicesPerGrid(sampleRate, sliceSize int) int {
	secondsPerGrid := 2.0 / float64(oq.params.QValue)
	samplesPerGrid := float64(sampleRate) * secondsPerGrid
	slices := int(math.Round(samplesPerGrid / float64(sliceSize)))
	if slices < 1 {
		slices = 1
	}
	return slices
}

// Bucketize partitions the slice sequence into grid cells by majority
// vote. A cell is silent when the silent-slice ratio strictly exceeds
// the sensitivity-derived threshold; otherwise the most voted pitch wins,
// ties going to the lowest tied pitch. The winning pitch is snapped onto
// the key's scale and folded into the melody band.
func (oq *OfflineQuantizer) Bucketize(slices []theory.PitchNumber, sampleRate, sliceSize int, key string) []theory.PitchNumber {
	if len(slices) == 0 {
		return nil
	}
	slicesPerGrid := oq.SlicesPerGrid(sampleRate, sliceSize)
	cellCount := (len(slices) + slicesPerGrid - 1) / slicesPerGrid
	threshold := oq.params.SilenceThreshold()
	snapper := theory.NewScaleSnapper(key)

	grid := make([]theory.PitchNumber, 0, cellCount)
	for start := 0; start < len(slices); start += slicesPerGrid {
		end := start + slicesPerGrid
		if end > len(slices) {
			end = len(slices)
		}
		grid = append(grid, oq.voteCell(slices[start:end], threshold, snapper))
	}
	return grid
}

// voteCell resolves one chunk of slices to a single pitch or silence.
// Candidates are ranked by vote count and, on equal counts, by ascending
// pitch number, so a tie always resolves to the lowest tied pitch no
// matter how the chunk orders them.
func (oq *OfflineQuantizer) voteCell(chunk []theory.PitchNumber, threshold float64, snapper *theory.ScaleSnapper) theory.PitchNumber {
	silent := 0
	votes := make(map[theory.PitchNumber]int)
	for _, p := range chunk {
		if p == theory.None {
			silent++
			continue
		}
		votes[p]++
	}

	if silent == len(chunk) {
		return theory.None
	}
	if float64(silent)/float64(len(chunk)) > threshold {
		return theory.None
	}

	winner := theory.None
	best := 0
	for p, count := range votes {
		if count > best || (count == best && p < winner) {
			winner = p
			best = count
		}
	}
	return snapper.Snap(winner).FoldToMelody()
}

// Process runs the complete offline chain: bucketize, smooth, encode.
// Identical inputs always produce identical results.
func (oq *OfflineQuantizer) Process(slices []theory.PitchNumber, sampleRate, sliceSize int, key string) Result {
	grid := oq.smoother.Smooth(oq.Bucketize(slices, sampleRate, sliceSize, key))
	encoder := notation.NewEncoder(oq.params.QValue)
	melody, harmony := encoder.EncodeVoices(grid)

	return Result{
		Grid:          grid,
		Melody:        melody,
		Harmony:       harmony,
		Key:           key,
		QValue:        oq.params.QValue,
		SlicesPerGrid: oq.SlicesPerGrid(sampleRate, sliceSize),
		NoteCount:     notation.NoteCount(melody),
	}
}
