package capture

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/cantus-audio/cantus/logging"
)

// inputStream is the part of the open stream's lifecycle that Close
// drives.
type inputStream interface {
	Stop() error
	Close() error
}

// MicSource captures mono frames from the default input device via PortAudio.
// Captured buffers are copied into a bounded queue; when the consumer falls
// behind, the oldest queued frame is dropped.
type MicSource struct {
	params  Params
	stream  inputStream
	frames  chan []float64
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewMicSource initializes PortAudio, opens the default input device and
// starts capturing.
func NewMicSource(params Params) (*MicSource, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture params: %w", err)
	}

	logger := logging.WithFields(logging.Fields{
		"component":   "mic_source",
		"sample_rate": params.SampleRate,
		"frame_size":  params.FrameSize,
	})

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio initialize: %w", err)
	}

	m := &MicSource{
		params: params,
		frames: make(chan []float64, params.QueueDepth),
	}

	stream, err := portaudio.OpenDefaultStream(
		1, // input channels (mono)
		0, // output channels
		float64(params.SampleRate),
		params.FrameSize,
		m.onInput,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	m.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	logger.Debug("Microphone capture started")
	return m, nil
}

// onInput runs on the PortAudio callback thread. The input buffer is reused
// between calls, so each frame is copied before it is queued.
func (m *MicSource) onInput(in []float32) {
	frame := make([]float64, len(in))
	for i, s := range in {
		frame[i] = float64(s)
	}

	select {
	case m.frames <- frame:
		return
	default:
	}

	// Queue full: drop the oldest frame.
	select {
	case <-m.frames:
		m.dropped.Add(1)
	default:
	}
	select {
	case m.frames <- frame:
	default:
	}
}

// ReadFrame blocks until the next captured frame is available. It returns
// io.EOF once the source is closed.
func (m *MicSource) ReadFrame() ([]float64, error) {
	frame, ok := <-m.frames
	if !ok {
		return nil, io.EOF
	}
	return frame, nil
}

// SampleRate returns the capture sample rate in Hz.
func (m *MicSource) SampleRate() int {
	return m.params.SampleRate
}

// Close stops the stream and releases PortAudio. It is safe to call more
// than once.
func (m *MicSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	stopFailed := false
	if err := m.stream.Stop(); err != nil {
		stopFailed = true
		firstErr = fmt.Errorf("stop input stream: %w", err)
	}
	closeFailed := false
	if err := m.stream.Close(); err != nil {
		closeFailed = true
		if firstErr == nil {
			firstErr = fmt.Errorf("close input stream: %w", err)
		}
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("terminate portaudio: %w", err)
	}

	// Callbacks stop once the stream is stopped or closed; closing the
	// queue is only safe then. When both calls fail the queue stays open
	// and the returned error reports it.
	if !stopFailed || !closeFailed {
		close(m.frames)
	}

	if n := m.dropped.Load(); n > 0 {
		logging.Debug("Dropped frames during capture", logging.Fields{
			"component": "mic_source",
			"dropped":   n,
		})
	}

	return firstErr
}
