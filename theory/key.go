package theory

// KeyDetectionParams contains parameters for key detection
type KeyDetectionParams struct {
	MinPitches int    `json:"min_pitches"` // Minimum sample size before detection is attempted
	DefaultKey string `json:"default_key"` // Key reported for undersized input
}

// DefaultKeyDetectionParams returns the standard detection parameters
func DefaultKeyDetectionParams() KeyDetectionParams {
	return KeyDetectionParams{
		MinPitches: 5,
		DefaultKey: "C",
	}
}

// KeyDetectionResult contains the outcome of a key detection pass
type KeyDetectionResult struct {
	Key        string  `json:"key"`        // Detected key name (e.g. "G")
	Root       int     `json:"root"`       // Root pitch class (0=C .. 11=B)
	Matches    int     `json:"matches"`    // Input pitches inside the winning scale
	Total      int     `json:"total"`      // Input pitches considered
	Confidence float64 `json:"confidence"` // Matches/Total, 0 when defaulted
	Defaulted  bool    `json:"defaulted"`  // True when input was below MinPitches
	Scores     [12]int `json:"scores"`     // Match count per candidate root
}

// KeyDetector infers the major key that best covers a collection of
// observed pitches by scoring scale membership for all 12 roots.
type KeyDetector struct {
	params KeyDetectionParams
}

// NewKeyDetector creates a key detector with default parameters
func NewKeyDetector() *KeyDetector {
	return &KeyDetector{params: DefaultKeyDetectionParams()}
}

// NewKeyDetectorWithParams creates a key detector with custom parameters
func NewKeyDetectorWithParams(params KeyDetectionParams) *KeyDetector {
	if params.MinPitches <= 0 {
		params.MinPitches = DefaultKeyDetectionParams().MinPitches
	}
	if _, ok := KeyRoot(params.DefaultKey); !ok {
		params.DefaultKey = DefaultKeyDetectionParams().DefaultKey
	}
	return &KeyDetector{params: params}
}

// Detect scores the 12 candidate major scales against the pitch collection
// and returns the best. A later root must strictly beat the running best,
// so the lowest root wins ties. Undersized input falls back to DefaultKey.
func (kd *KeyDetector) Detect(pitches []PitchNumber) KeyDetectionResult {
	classes := make([]int, 0, len(pitches))
	for _, p := range pitches {
		if p == None {
			continue
		}
		classes = append(classes, p.Class())
	}

	result := KeyDetectionResult{
		Key:   kd.params.DefaultKey,
		Total: len(classes),
	}
	if len(classes) < kd.params.MinPitches {
		result.Defaulted = true
		result.Root, _ = KeyRoot(kd.params.DefaultKey)
		return result
	}

	bestRoot := 0
	bestScore := -1
	for root := 0; root < 12; root++ {
		score := 0
		for _, class := range classes {
			if inMajorScale(root, class) {
				score++
			}
		}
		result.Scores[root] = score
		if score > bestScore {
			bestRoot = root
			bestScore = score
		}
	}

	result.Key = KeyName(bestRoot)
	result.Root = bestRoot
	result.Matches = bestScore
	result.Confidence = float64(bestScore) / float64(len(classes))
	return result
}

// DetectKey is a convenience wrapper returning only the key name
func DetectKey(pitches []PitchNumber) string {
	return NewKeyDetector().Detect(pitches).Key
}
