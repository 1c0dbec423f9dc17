// Package stabilize turns a stream of noisy per-frame pitch estimates into
// stable melody and harmony token buffers. A Session debounces raw estimates
// over consecutive frames, merges sustained pitches into longer tokens,
// inserts bar markers on the rhythmic grid and detects the key of the
// recorded pitches when the session finishes.
package stabilize

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/cantus-audio/cantus/logging"
	"github.com/cantus-audio/cantus/notation"
	"github.com/cantus-audio/cantus/pitch"
	"github.com/cantus-audio/cantus/theory"
)

// SessionParams holds live session configuration
type SessionParams struct {
	QValue         int     `json:"q_value"`         // Grid units per bar: 4, 8 or 16
	Sensitivity    float64 `json:"sensitivity"`     // [0,1], lowers the confidence floor as it rises
	DebounceFrames int     `json:"debounce_frames"` // Consecutive matching frames required to confirm a pitch
	FrameRate      int     `json:"frame_rate"`      // Capture frames per second driven by Run
	MinKeyPitches  int     `json:"min_key_pitches"` // Recorded pitches required to run key detection on Finish
}

// DefaultSessionParams returns default live session parameters
func DefaultSessionParams() SessionParams {
	return SessionParams{
		QValue:         8,
		Sensitivity:    0.5,
		DebounceFrames: 6, // ~100ms at 60 fps
		FrameRate:      60,
		MinKeyPitches:  6,
	}
}

// Validate checks session parameters
func (p SessionParams) Validate() error {
	switch p.QValue {
	case 4, 8, 16:
	default:
		return fmt.Errorf("q value must be 4, 8 or 16: %d", p.QValue)
	}
	if p.Sensitivity < 0 || p.Sensitivity > 1 {
		return fmt.Errorf("sensitivity must be in [0,1]: %f", p.Sensitivity)
	}
	if p.DebounceFrames <= 0 {
		return fmt.Errorf("debounce frames must be positive: %d", p.DebounceFrames)
	}
	if p.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be positive: %d", p.FrameRate)
	}
	if p.MinKeyPitches < 0 {
		return fmt.Errorf("min key pitches must not be negative: %d", p.MinKeyPitches)
	}
	return nil
}

// Session accumulates stabilized melody and harmony tokens from per-frame
// pitch estimates. It moves through three phases per pitch: idle (silence),
// candidate (a pitch is being confirmed over consecutive frames) and
// emitting (a confirmed pitch extends or appends tokens).
//
// ProcessFrame is intended for a single producer goroutine; Snapshot and
// Finish may be called concurrently from consumers.
type Session struct {
	params    SessionParams
	estimator pitch.Estimator

	mu           sync.Mutex
	id           string
	lastPitch    theory.PitchNumber
	stableFrames int
	continuity   bool
	gridUnits    int
	melody       []notation.Token
	harmony      []notation.Token
	recorded     []theory.PitchNumber
	liveHz       float64
	frames       int
}

// Snapshot is a copy-on-read view of a running session. Consumers poll it at
// their own rate; the buffers are full copies, never live references.
type Snapshot struct {
	ID        string           `json:"id"`
	Melody    []notation.Token `json:"melody"`
	Harmony   []notation.Token `json:"harmony"`
	LiveHz    float64          `json:"live_hz"`
	NoteCount int              `json:"note_count"`
	Frames    int              `json:"frames"`
}

// Result is the final output of a live session.
type Result struct {
	ID           string                    `json:"id"`
	Key          string                    `json:"key"`
	KeyDetection theory.KeyDetectionResult `json:"key_detection"`
	QValue       int                       `json:"q_value"`
	Melody       []notation.Token          `json:"melody"`
	Harmony      []notation.Token          `json:"harmony"`
	NoteCount    int                       `json:"note_count"`
	Recorded     int                       `json:"recorded_pitches"`
	Frames       int                       `json:"frames"`
}

// NewSession creates a live session with default parameters. A nil estimator
// falls back to the YIN estimator.
func NewSession(estimator pitch.Estimator) *Session {
	return NewSessionWithParams(estimator, DefaultSessionParams())
}

// NewSessionWithParams creates a live session with the given parameters.
// Invalid parameters are replaced with defaults.
func NewSessionWithParams(estimator pitch.Estimator, params SessionParams) *Session {
	if err := params.Validate(); err != nil {
		logging.Warn("Invalid session params, using defaults", logging.Fields{
			"component": "stabilize_session",
			"error":     err.Error(),
		})
		params = DefaultSessionParams()
	}
	if estimator == nil {
		estimator = pitch.NewYinEstimator()
	}
	return &Session{
		params:    params,
		estimator: estimator,
		id:        uuid.New().String(),
		lastPitch: theory.None,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Params returns the session parameters.
func (s *Session) Params() SessionParams {
	return s.params
}

// ProcessFrame estimates the pitch of one captured frame and advances the
// session state machine.
func (s *Session) ProcessFrame(frame []float64, sampleRate int) {
	hz, confidence := s.estimator.Find(frame, sampleRate)
	p := pitch.Classify(hz, confidence, s.params.Sensitivity)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(p, hz)
}

// advance runs one step of the stabilizer state machine. Callers hold s.mu.
func (s *Session) advance(p theory.PitchNumber, hz float64) {
	s.frames++

	if p == theory.None {
		// Back to idle. Tokens already emitted are left untouched.
		s.lastPitch = theory.None
		s.stableFrames = 0
		s.continuity = false
		s.liveHz = 0
		return
	}

	s.liveHz = hz

	if p != s.lastPitch {
		// New candidate. A pitch change never merges with the prior token.
		s.lastPitch = p
		s.stableFrames = 0
		s.continuity = false
		return
	}

	s.stableFrames++
	if s.stableFrames < s.params.DebounceFrames {
		return
	}

	s.confirm(p)
	s.continuity = true
	s.stableFrames = 0
}

// confirm emits one grid unit of the confirmed pitch into both buffers.
func (s *Session) confirm(p theory.PitchNumber) {
	h := theory.HarmonyFor(p)

	if s.continuity && lastTokenIsNote(s.melody, p) && lastTokenIsNote(s.harmony, h) {
		s.melody[len(s.melody)-1].DurationUnits++
		s.harmony[len(s.harmony)-1].DurationUnits++
	} else {
		s.melody = append(s.melody, notation.NewNote(p, 1))
		s.harmony = append(s.harmony, notation.NewNote(h, 1))
		s.recorded = append(s.recorded, p)
	}

	s.gridUnits++
	if s.gridUnits >= s.params.QValue {
		s.melody = append(s.melody, notation.NewBar())
		s.harmony = append(s.harmony, notation.NewBar())
		s.gridUnits = 0
	}
}

func lastTokenIsNote(tokens []notation.Token, p theory.PitchNumber) bool {
	if len(tokens) == 0 {
		return false
	}
	last := tokens[len(tokens)-1]
	return last.Kind == notation.KindNote && last.Pitch == p
}

// Snapshot returns a full copy of the current buffers and live state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Melody:    slices.Clone(s.melody),
		Harmony:   slices.Clone(s.harmony),
		LiveHz:    s.liveHz,
		NoteCount: notation.NoteCount(s.melody),
		Frames:    s.frames,
	}
}

// Finish closes out the session and returns its result. Key detection runs
// only when enough pitches were recorded; otherwise the key defaults to "C".
func (s *Session) Finish() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var detection theory.KeyDetectionResult
	if len(s.recorded) >= s.params.MinKeyPitches {
		detection = theory.NewKeyDetector().Detect(s.recorded)
	} else {
		detection = theory.KeyDetectionResult{
			Key:       "C",
			Total:     len(s.recorded),
			Defaulted: true,
		}
	}

	result := &Result{
		ID:           s.id,
		Key:          detection.Key,
		KeyDetection: detection,
		QValue:       s.params.QValue,
		Melody:       slices.Clone(s.melody),
		Harmony:      slices.Clone(s.harmony),
		NoteCount:    notation.NoteCount(s.melody),
		Recorded:     len(s.recorded),
		Frames:       s.frames,
	}

	logging.Info("Live session finished", logging.Fields{
		"component":  "stabilize_session",
		"session_id": s.id,
		"key":        result.Key,
		"defaulted":  detection.Defaulted,
		"notes":      result.NoteCount,
		"frames":     result.Frames,
	})

	return result
}

// Reset clears all buffers and counters and assigns a fresh session ID.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.New().String()
	s.lastPitch = theory.None
	s.stableFrames = 0
	s.continuity = false
	s.gridUnits = 0
	s.melody = nil
	s.harmony = nil
	s.recorded = nil
	s.liveHz = 0
	s.frames = 0
}

// Document renders the session result as a notation document.
func (r *Result) Document(title string, tempo int) *notation.Document {
	doc := notation.NewDocument(r.Key, r.QValue)
	doc.Title = title
	doc.Tempo = tempo
	doc.Melody = r.Melody
	doc.Harmony = r.Harmony
	return doc
}
