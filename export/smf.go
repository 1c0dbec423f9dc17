// Package export writes token sequences out as standard MIDI files, one
// track per voice.
package export

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cantus-audio/cantus/logging"
	"github.com/cantus-audio/cantus/notation"
)

// SMFParams holds MIDI export configuration
type SMFParams struct {
	TicksPerQuarter uint16 `json:"ticks_per_quarter"` // SMF time resolution
	Velocity        uint8  `json:"velocity"`          // NoteOn velocity for both voices
	MelodyChannel   uint8  `json:"melody_channel"`
	HarmonyChannel  uint8  `json:"harmony_channel"`
	MelodyProgram   uint8  `json:"melody_program"`  // General MIDI program number
	HarmonyProgram  uint8  `json:"harmony_program"` // General MIDI program number
}

// DefaultSMFParams returns default MIDI export parameters
func DefaultSMFParams() SMFParams {
	return SMFParams{
		TicksPerQuarter: 480,
		Velocity:        100,
		MelodyChannel:   0,
		HarmonyChannel:  1,
		MelodyProgram:   0, // Acoustic grand piano
		HarmonyProgram:  0,
	}
}

// Validate checks MIDI export parameters
func (p SMFParams) Validate() error {
	if p.TicksPerQuarter == 0 {
		return fmt.Errorf("ticks per quarter must be positive")
	}
	if p.Velocity == 0 || p.Velocity > 127 {
		return fmt.Errorf("velocity must be in [1,127]: %d", p.Velocity)
	}
	if p.MelodyChannel > 15 || p.HarmonyChannel > 15 {
		return fmt.Errorf("channels must be in [0,15]: %d, %d", p.MelodyChannel, p.HarmonyChannel)
	}
	if p.MelodyProgram > 127 || p.HarmonyProgram > 127 {
		return fmt.Errorf("programs must be in [0,127]: %d, %d", p.MelodyProgram, p.HarmonyProgram)
	}
	return nil
}

// Exporter turns notation documents into standard MIDI files
type Exporter struct {
	params SMFParams
}

// NewExporter creates a MIDI exporter. Invalid parameters are replaced with
// defaults.
func NewExporter(params SMFParams) *Exporter {
	if err := params.Validate(); err != nil {
		logging.Warn("Invalid SMF params, using defaults", logging.Fields{
			"component": "smf_exporter",
			"error":     err.Error(),
		})
		params = DefaultSMFParams()
	}
	return &Exporter{params: params}
}

// Encode builds an in-memory SMF from the document. The melody track carries
// meter and tempo; rests advance the clock and bar markers are ignored since
// bar placement is implied by the meter.
func (e *Exporter) Encode(doc *notation.Document) (*smf.SMF, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	tempo := doc.Tempo
	if tempo <= 0 {
		tempo = notation.DefaultTempo
	}

	clock := smf.MetricTicks(e.params.TicksPerQuarter)
	unit := unitTicks(clock, doc.QValue)

	s := smf.New()
	s.TimeFormat = clock

	melody := e.voiceTrack(doc.Melody, unit, e.params.MelodyChannel, e.params.MelodyProgram, "Melody", tempo)
	if err := s.Add(melody); err != nil {
		return nil, fmt.Errorf("add melody track: %w", err)
	}

	harmony := e.voiceTrack(doc.Harmony, unit, e.params.HarmonyChannel, e.params.HarmonyProgram, "Harmony", 0)
	if err := s.Add(harmony); err != nil {
		return nil, fmt.Errorf("add harmony track: %w", err)
	}

	return s, nil
}

// voiceTrack encodes one token sequence. A tempo > 0 marks the first track,
// which carries the meter and tempo meta events.
func (e *Exporter) voiceTrack(tokens []notation.Token, unit uint32, channel, program uint8, name string, tempo int) smf.Track {
	var tr smf.Track

	if tempo > 0 {
		tr.Add(0, smf.MetaMeter(4, 4))
		tr.Add(0, smf.MetaTempo(float64(tempo)))
	}
	tr.Add(0, smf.MetaTrackSequenceName(name))
	tr.Add(0, midi.ProgramChange(channel, program))

	var gap uint32
	for _, token := range tokens {
		switch token.Kind {
		case notation.KindBar:
			// Bars carry no time of their own.
		case notation.KindRest:
			gap += unit * uint32(token.DurationUnits)
		case notation.KindNote:
			if token.Pitch < 0 || token.Pitch > 127 {
				// Unplayable pitch becomes a gap, like the rest fallback
				// in the textual notation.
				gap += unit * uint32(token.DurationUnits)
				continue
			}
			key := uint8(token.Pitch)
			tr.Add(gap, midi.NoteOn(channel, key, e.params.Velocity))
			tr.Add(unit*uint32(token.DurationUnits), midi.NoteOff(channel, key))
			gap = 0
		}
	}

	tr.Close(0)
	return tr
}

// unitTicks maps one grid unit to MIDI ticks for the given grid resolution.
func unitTicks(clock smf.MetricTicks, qValue int) uint32 {
	switch qValue {
	case 4:
		return clock.Ticks4th()
	case 16:
		return clock.Ticks16th()
	default:
		return clock.Ticks8th()
	}
}

// WriteSMF encodes the document and writes it to w.
func (e *Exporter) WriteSMF(w io.Writer, doc *notation.Document) error {
	s, err := e.Encode(doc)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi data: %w", err)
	}
	return nil
}

// WriteFile encodes the document and writes it to path.
func (e *Exporter) WriteFile(path string, doc *notation.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create midi file: %w", err)
	}
	if err := e.WriteSMF(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close midi file: %w", err)
	}

	logging.Info("Wrote MIDI file", logging.Fields{
		"component": "smf_exporter",
		"path":      path,
		"notes":     notation.NoteCount(doc.Melody) + notation.NoteCount(doc.Harmony),
	})
	return nil
}
