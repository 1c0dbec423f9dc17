// Package capture provides PCM frame sources for the live transcription
// pipeline. A FrameSource hands out fixed-size mono frames; MicSource pulls
// them from the default input device while BufferSource replays decoded audio.
package capture

import (
	"fmt"
	"io"
)

// FrameSource yields mono PCM frames on demand.
type FrameSource interface {
	// ReadFrame returns the next frame of samples. It blocks until a frame
	// is available and returns io.EOF once the source is exhausted.
	ReadFrame() ([]float64, error)

	// SampleRate returns the source sample rate in Hz.
	SampleRate() int

	// Close releases the underlying resources. ReadFrame must not be
	// called after Close.
	Close() error
}

// Params holds frame source configuration
type Params struct {
	SampleRate int `json:"sample_rate"` // Capture sample rate in Hz
	FrameSize  int `json:"frame_size"`  // Samples per frame
	QueueDepth int `json:"queue_depth"` // Frames buffered before the oldest is dropped
}

// DefaultParams returns default capture parameters
func DefaultParams() Params {
	return Params{
		SampleRate: 44100,
		FrameSize:  2048, // ~46ms at 44.1kHz, enough for pitches down to 85 Hz
		QueueDepth: 8,
	}
}

// Validate checks capture parameters
func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", p.SampleRate)
	}
	if p.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive: %d", p.FrameSize)
	}
	if p.QueueDepth <= 0 {
		return fmt.Errorf("queue depth must be positive: %d", p.QueueDepth)
	}
	return nil
}

// BufferSource replays an in-memory sample buffer frame by frame. It is used
// to drive the live pipeline from decoded files and in tests.
type BufferSource struct {
	samples   []float64
	rate      int
	frameSize int
	offset    int
	closed    bool
}

// NewBufferSource creates a source that replays samples at the given rate.
func NewBufferSource(samples []float64, sampleRate, frameSize int) *BufferSource {
	if frameSize <= 0 {
		frameSize = DefaultParams().FrameSize
	}
	return &BufferSource{
		samples:   samples,
		rate:      sampleRate,
		frameSize: frameSize,
	}
}

// ReadFrame returns the next frame. The final frame may be shorter than the
// configured frame size; after the buffer is drained every call returns io.EOF.
func (b *BufferSource) ReadFrame() ([]float64, error) {
	if b.closed || b.offset >= len(b.samples) {
		return nil, io.EOF
	}
	end := b.offset + b.frameSize
	if end > len(b.samples) {
		end = len(b.samples)
	}
	frame := b.samples[b.offset:end]
	b.offset = end
	return frame, nil
}

// SampleRate returns the replay sample rate in Hz.
func (b *BufferSource) SampleRate() int {
	return b.rate
}

// Close marks the source as drained.
func (b *BufferSource) Close() error {
	b.closed = true
	return nil
}

// Remaining returns the number of samples not yet read.
func (b *BufferSource) Remaining() int {
	if b.offset >= len(b.samples) {
		return 0
	}
	return len(b.samples) - b.offset
}
