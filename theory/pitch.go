package theory

import (
	"math"
	"strconv"
)

// PitchNumber is an absolute semitone number (60 = middle C, 69 = A4).
// None marks silence / no detectable pitch.
type PitchNumber int

// None is the sentinel for silence
const None PitchNumber = -1

// Frequency band accepted by the transcriber; estimates outside it
// are treated as silence, not as errors.
const (
	MinFrequency = 85.0   // Hz
	MaxFrequency = 1200.0 // Hz
)

// Reference tuning: A4 = 440 Hz = pitch number 69
const (
	ReferenceFrequency = 440.0
	ReferenceNumber    = 69
)

// Voice bands. Melody pitches are folded into [MinMelodyPitch, MaxMelodyPitch],
// harmony pitches into [MinHarmonyPitch, MaxHarmonyPitch].
const (
	MinMelodyPitch  PitchNumber = 48
	MaxMelodyPitch  PitchNumber = 84
	MinHarmonyPitch PitchNumber = 36
	MaxHarmonyPitch PitchNumber = 55
)

// keyNames maps pitch class to note name
var keyNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// flatNames are accepted as input synonyms; rendered names always come
// from keyNames.
var flatNames = map[string]int{"Db": 1, "Eb": 3, "Gb": 6, "Ab": 8, "Bb": 10}

// majorIntervals are the semitone offsets of the major scale, in ascending order
var majorIntervals = [7]int{0, 2, 4, 5, 7, 9, 11}

// FromFrequency converts a frequency estimate to the nearest equal-tempered
// pitch number. Frequencies outside [MinFrequency, MaxFrequency] map to None.
func FromFrequency(hz float64) PitchNumber {
	if hz < MinFrequency || hz > MaxFrequency {
		return None
	}
	return PitchNumber(math.Round(12*math.Log2(hz/ReferenceFrequency) + ReferenceNumber))
}

// Frequency returns the equal-tempered frequency of the pitch in Hz,
// or 0 for None.
func (p PitchNumber) Frequency() float64 {
	if p == None {
		return 0
	}
	return ReferenceFrequency * math.Exp2(float64(p-ReferenceNumber)/12.0)
}

// Class returns the pitch class (0=C .. 11=B)
func (p PitchNumber) Class() int {
	return ((int(p) % 12) + 12) % 12
}

// Octave returns the scientific-pitch octave (middle C = C4)
func (p PitchNumber) Octave() int {
	return int(p)/12 - 1
}

// Name returns the note name with octave, e.g. "A4" for 69.
// None renders as "-".
func (p PitchNumber) Name() string {
	if p == None {
		return "-"
	}
	return keyNames[p.Class()] + strconv.Itoa(p.Octave())
}

// FoldTo shifts the pitch by whole octaves until it lands inside
// [low, high]. None passes through unchanged.
func (p PitchNumber) FoldTo(low, high PitchNumber) PitchNumber {
	if p == None {
		return None
	}
	for p < low {
		p += 12
	}
	for p > high {
		p -= 12
	}
	return p
}

// FoldToMelody folds the pitch into the melody band
func (p PitchNumber) FoldToMelody() PitchNumber {
	return p.FoldTo(MinMelodyPitch, MaxMelodyPitch)
}

// HarmonyFor derives the harmony voice for a melody pitch: one octave down,
// folded into the harmony band. Silence stays silence.
func HarmonyFor(p PitchNumber) PitchNumber {
	if p == None {
		return None
	}
	return (p - 12).FoldTo(MinHarmonyPitch, MaxHarmonyPitch)
}

// KeyName returns the note name of a pitch class (0=C .. 11=B)
func KeyName(root int) string {
	return keyNames[((root%12)+12)%12]
}

// KeyRoot parses a key name ("C", "F#", "Bb", ...) to its pitch class.
// Returns false for names outside the table.
func KeyRoot(name string) (int, bool) {
	for i, k := range keyNames {
		if k == name {
			return i, true
		}
	}
	if root, ok := flatNames[name]; ok {
		return root, true
	}
	return 0, false
}

// inMajorScale reports whether class belongs to the major scale rooted at root
func inMajorScale(root, class int) bool {
	for _, iv := range majorIntervals {
		if (root+iv)%12 == class {
			return true
		}
	}
	return false
}
