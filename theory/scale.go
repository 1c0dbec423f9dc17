package theory

// ScaleSnapper corrects stray pitches onto the major scale of a chosen key.
// Distance between pitch classes is circular (wraps at 6 semitones); ties go
// to the earlier scale degree in ascending interval order.
type ScaleSnapper struct {
	root    int
	classes [7]int // scale pitch classes, ascending interval order
}

// NewScaleSnapper creates a snapper for the given key name.
// Unknown key names fall back to C.
func NewScaleSnapper(key string) *ScaleSnapper {
	root, ok := KeyRoot(key)
	if !ok {
		root = 0
	}
	s := &ScaleSnapper{root: root}
	for i, iv := range majorIntervals {
		s.classes[i] = (root + iv) % 12
	}
	return s
}

// Key returns the key name the snapper was built for
func (s *ScaleSnapper) Key() string {
	return KeyName(s.root)
}

// Snap returns the nearest in-scale pitch within the same octave as p.
// In-scale pitches and None pass through unchanged. The result keeps the
// octave of the input, so callers that need a bounded range fold afterward.
func (s *ScaleSnapper) Snap(p PitchNumber) PitchNumber {
	if p == None {
		return None
	}
	class := p.Class()

	bestClass := s.classes[0]
	bestDist := 13
	for _, sc := range s.classes {
		if sc == class {
			return p
		}
		d := class - sc
		if d < 0 {
			d = -d
		}
		if d > 6 {
			d = 12 - d
		}
		if d < bestDist {
			bestClass = sc
			bestDist = d
		}
	}
	return PitchNumber((int(p)/12)*12 + bestClass)
}
