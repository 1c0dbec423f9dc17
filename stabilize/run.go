package stabilize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cantus-audio/cantus/capture"
	"github.com/cantus-audio/cantus/logging"
)

// Run drives the session from the source at the configured frame rate until
// the source is exhausted or the context is canceled, then finishes the
// session. The source is released before Run returns, on every path. A read
// failure aborts the session without producing a result.
func (s *Session) Run(ctx context.Context, source capture.FrameSource) (*Result, error) {
	logger := logging.WithFields(logging.Fields{
		"component":  "stabilize_run",
		"session_id": s.ID(),
		"frame_rate": s.params.FrameRate,
	})

	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("Failed to release audio source", logging.Fields{
				"error": err.Error(),
			})
		}
	}()

	rate := source.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("source sample rate must be positive: %d", rate)
	}

	logger.Debug("Live session started")

	ticker := time.NewTicker(time.Second / time.Duration(s.params.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Finish(), nil
		case <-ticker.C:
			frame, err := source.ReadFrame()
			if errors.Is(err, io.EOF) {
				return s.Finish(), nil
			}
			if err != nil {
				return nil, fmt.Errorf("read frame: %w", err)
			}
			s.ProcessFrame(frame, rate)
		}
	}
}
