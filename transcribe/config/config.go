// Package config holds the user-facing transcription configuration and maps
// it onto the analysis parameters of the underlying packages.
package config

import (
	"fmt"

	"github.com/cantus-audio/cantus/pitch"
	"github.com/cantus-audio/cantus/quantize"
	"github.com/cantus-audio/cantus/theory"
)

// TranscriptionConfig holds the recognized user dials. QValue picks the
// rhythmic resolution of the grid; Sensitivity jointly drives the confidence
// floor for pitch acceptance and the batch silence threshold.
type TranscriptionConfig struct {
	QValue      int     `json:"q_value"`     // Grid cells per bar: 4, 8 or 16
	Sensitivity float64 `json:"sensitivity"` // [0,1]
	Key         string  `json:"key"`         // Key override; empty means detect
	Title       string  `json:"title"`       // Score title; empty uses the default
	Tempo       int     `json:"tempo"`       // Quarter-note BPM for rendered output
	SliceSize   int     `json:"slice_size"`  // Samples per estimation slice
	WindowType  string  `json:"window_type"` // Estimator window: hann, hamming, blackman, rectangular
}

// DefaultTranscriptionConfig returns default transcription configuration
func DefaultTranscriptionConfig() *TranscriptionConfig {
	return &TranscriptionConfig{
		QValue:      8,
		Sensitivity: 0.5,
		Key:         "",
		Title:       "",
		Tempo:       120,
		SliceSize:   1024,
		WindowType:  "hann",
	}
}

// Validate checks the configuration
func (c *TranscriptionConfig) Validate() error {
	switch c.QValue {
	case 4, 8, 16:
	default:
		return fmt.Errorf("q value must be 4, 8 or 16: %d", c.QValue)
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		return fmt.Errorf("sensitivity must be in [0,1]: %f", c.Sensitivity)
	}
	if c.Key != "" {
		if _, ok := theory.KeyRoot(c.Key); !ok {
			return fmt.Errorf("unknown key name: %q", c.Key)
		}
	}
	if c.Tempo <= 0 {
		return fmt.Errorf("tempo must be positive: %d", c.Tempo)
	}
	if c.SliceSize < 64 {
		return fmt.Errorf("slice size must be at least 64 samples: %d", c.SliceSize)
	}
	return nil
}

// BaseClarity returns the derived confidence floor for pitch acceptance.
func (c *TranscriptionConfig) BaseClarity() float64 {
	return pitch.BaseClarity(c.Sensitivity)
}

// SilenceThreshold returns the derived batch silence threshold.
func (c *TranscriptionConfig) SilenceThreshold() float64 {
	return c.QuantizerParams().SilenceThreshold()
}

// QuantizerParams maps the config onto offline quantizer parameters.
func (c *TranscriptionConfig) QuantizerParams() quantize.QuantizerParams {
	params := quantize.DefaultQuantizerParams()
	params.QValue = c.QValue
	params.Sensitivity = c.Sensitivity
	return params
}

// YinParams maps the config onto pitch estimator parameters.
func (c *TranscriptionConfig) YinParams() pitch.YinParams {
	params := pitch.DefaultYinParams()
	params.Window = c.WindowType
	return params
}
