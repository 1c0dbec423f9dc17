// Package transcribe orchestrates batch transcription: decode, per-slice
// pitch estimation, key detection, grid quantization and notation encoding.
package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/cantus-audio/cantus/logging"
	"github.com/cantus-audio/cantus/notation"
	"github.com/cantus-audio/cantus/pitch"
	"github.com/cantus-audio/cantus/quantize"
	"github.com/cantus-audio/cantus/theory"
	"github.com/cantus-audio/cantus/transcode"
	"github.com/cantus-audio/cantus/transcribe/config"
)

// Score is a complete two-voice transcription of one audio input
type Score struct {
	ID           string                    `json:"id"`
	Timestamp    time.Time                 `json:"timestamp"`
	Title        string                    `json:"title"`
	Key          string                    `json:"key"`
	KeyDetection theory.KeyDetectionResult `json:"key_detection"`
	QValue       int                       `json:"q_value"`
	Tempo        int                       `json:"tempo"`
	Melody       []notation.Token          `json:"melody"`
	Harmony      []notation.Token          `json:"harmony"`
	NoteCount    int                       `json:"note_count"`
	Duration     time.Duration             `json:"duration"`
	SampleRate   int                       `json:"sample_rate"`
	Analysis     Analysis                  `json:"analysis"`
}

// Analysis summarizes the per-slice estimation pass
type Analysis struct {
	Slices         int     `json:"slices"`
	VoicedSlices   int     `json:"voiced_slices"`
	VoicedRatio    float64 `json:"voiced_ratio"`
	MeanConfidence float64 `json:"mean_confidence"` // Over voiced slices
	StdConfidence  float64 `json:"std_confidence"`  // Over voiced slices
	Cells          int     `json:"cells"`           // Grid cells after quantization
}

// Document builds a renderable notation document from the score.
func (s *Score) Document() *notation.Document {
	doc := notation.NewDocument(s.Key, s.QValue)
	if s.Title != "" {
		doc.Title = s.Title
	}
	if s.Tempo > 0 {
		doc.Tempo = s.Tempo
	}
	doc.Melody = s.Melody
	doc.Harmony = s.Harmony
	return doc
}

// ABC renders the score in ABC notation.
func (s *Score) ABC() string {
	return s.Document().Render()
}

// Transcriber runs the batch transcription pipeline
type Transcriber struct {
	config    *config.TranscriptionConfig
	estimator pitch.Estimator
	decoder   *transcode.Decoder
	logger    logging.Logger
}

// NewTranscriber creates a transcriber. A nil config uses defaults, an
// invalid one is replaced with defaults; a nil estimator falls back to the
// YIN estimator configured from the config's window type.
func NewTranscriber(cfg *config.TranscriptionConfig, estimator pitch.Estimator) *Transcriber {
	if cfg == nil {
		cfg = config.DefaultTranscriptionConfig()
	}
	if err := cfg.Validate(); err != nil {
		logging.Warn("Invalid transcription config, using defaults", logging.Fields{
			"component": "transcriber",
			"error":     err.Error(),
		})
		cfg = config.DefaultTranscriptionConfig()
	}
	if estimator == nil {
		estimator = pitch.NewYinEstimatorWithParams(cfg.YinParams())
	}

	return &Transcriber{
		config:    cfg,
		estimator: estimator,
		decoder:   transcode.NewDecoder(nil),
		logger: logging.WithFields(logging.Fields{
			"component": "transcriber",
		}),
	}
}

// Config returns the transcriber's configuration.
func (t *Transcriber) Config() *config.TranscriptionConfig {
	return t.config
}

// TranscribeFile decodes an audio file and transcribes it.
func (t *Transcriber) TranscribeFile(ctx context.Context, filename string) (*Score, error) {
	logger := t.logger.WithFields(logging.Fields{
		"function": "TranscribeFile",
		"filename": filename,
	})

	data, err := t.decoder.DecodeFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to decode audio file")
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	score, err := t.Transcribe(data.PCM, data.SampleRate)
	if err != nil {
		return nil, err
	}
	return score, nil
}

// Transcribe runs the pipeline over decoded mono samples: slice the buffer,
// estimate a pitch per slice, detect or take the configured key, quantize
// onto the grid and encode both voices. The pass is a single synchronous
// sweep; each call owns its own buffers.
func (t *Transcriber) Transcribe(pcm []float64, sampleRate int) (*Score, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio samples to transcribe")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}

	logger := t.logger.WithFields(logging.Fields{
		"function":    "Transcribe",
		"sample_rate": sampleRate,
		"samples":     len(pcm),
	})

	logger.Debug("Starting transcription")

	slices, confidences := t.estimateSlices(pcm, sampleRate)
	if len(slices) == 0 {
		return nil, fmt.Errorf("input shorter than one slice (%d samples)", t.config.SliceSize)
	}

	voiced := 0
	for _, p := range slices {
		if p != theory.None {
			voiced++
		}
	}

	logger.Debug("Slice estimation completed", logging.Fields{
		"slices": len(slices),
		"voiced": voiced,
	})

	detection := t.detectKey(slices, voiced, logger)

	quantizer := quantize.NewOfflineQuantizerWithParams(t.config.QuantizerParams())
	result := quantizer.Process(slices, sampleRate, t.config.SliceSize, detection.Key)

	logger.Debug("Quantization completed", logging.Fields{
		"key":             detection.Key,
		"cells":           len(result.Grid),
		"slices_per_grid": result.SlicesPerGrid,
		"notes":           result.NoteCount,
	})

	score := &Score{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		Title:        t.config.Title,
		Key:          detection.Key,
		KeyDetection: detection,
		QValue:       result.QValue,
		Tempo:        t.config.Tempo,
		Melody:       result.Melody,
		Harmony:      result.Harmony,
		NoteCount:    result.NoteCount,
		Duration:     time.Duration(len(pcm)) * time.Second / time.Duration(sampleRate),
		SampleRate:   sampleRate,
		Analysis:     summarize(slices, confidences, voiced, len(result.Grid)),
	}

	logger.Debug("Transcription completed", logging.Fields{
		"score_id": score.ID,
		"key":      score.Key,
		"notes":    score.NoteCount,
		"duration": score.Duration.Seconds(),
	})

	return score, nil
}

// estimateSlices walks the sample buffer in fixed slices and classifies one
// pitch per slice. A trailing partial slice is dropped. Confidences are kept
// for voiced slices only, aligned with the analysis summary.
func (t *Transcriber) estimateSlices(pcm []float64, sampleRate int) ([]theory.PitchNumber, []float64) {
	sliceSize := t.config.SliceSize
	sensitivity := t.config.Sensitivity

	var slices []theory.PitchNumber
	var confidences []float64
	for start := 0; start+sliceSize <= len(pcm); start += sliceSize {
		hz, confidence := t.estimator.Find(pcm[start:start+sliceSize], sampleRate)
		p := pitch.Classify(hz, confidence, sensitivity)
		slices = append(slices, p)
		if p != theory.None {
			confidences = append(confidences, confidence)
		}
	}
	return slices, confidences
}

// detectKey runs the key detector over the voiced slices, unless the config
// pins a key.
func (t *Transcriber) detectKey(slices []theory.PitchNumber, voiced int, logger logging.Logger) theory.KeyDetectionResult {
	if t.config.Key != "" {
		root, _ := theory.KeyRoot(t.config.Key)
		logger.Debug("Using configured key", logging.Fields{
			"key": t.config.Key,
		})
		return theory.KeyDetectionResult{
			Key:   t.config.Key,
			Root:  root,
			Total: voiced,
		}
	}

	detection := theory.NewKeyDetector().Detect(slices)
	logger.Debug("Key detection completed", logging.Fields{
		"key":       detection.Key,
		"matches":   detection.Matches,
		"total":     detection.Total,
		"defaulted": detection.Defaulted,
	})
	return detection
}

// summarize folds the estimation pass into the analysis block.
func summarize(slices []theory.PitchNumber, confidences []float64, voiced, cells int) Analysis {
	analysis := Analysis{
		Slices:       len(slices),
		VoicedSlices: voiced,
		Cells:        cells,
	}
	if len(slices) > 0 {
		analysis.VoicedRatio = float64(voiced) / float64(len(slices))
	}
	if len(confidences) > 0 {
		analysis.MeanConfidence = stat.Mean(confidences, nil)
	}
	if len(confidences) > 1 {
		analysis.StdConfidence = stat.StdDev(confidences, nil)
	}
	return analysis
}
