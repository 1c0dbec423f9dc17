package cmd

import (
	"fmt"
	"os"

	"github.com/cantus-audio/cantus/export"
	"github.com/cantus-audio/cantus/transcribe"
	"github.com/cantus-audio/cantus/transcribe/config"
	"github.com/spf13/cobra"
)

var (
	transcribeQ           int
	transcribeSensitivity float64
	transcribeKey         string
	transcribeTitle       string
	transcribeTempo       int
	transcribeOut         string
	transcribeMIDI        string
)

func init() {
	defaults := config.DefaultTranscriptionConfig()
	transcribeCmd.Flags().IntVar(&transcribeQ, "q", defaults.QValue, "grid resolution in units per bar (4, 8 or 16)")
	transcribeCmd.Flags().Float64Var(&transcribeSensitivity, "sensitivity", defaults.Sensitivity, "detection sensitivity between 0 and 1")
	transcribeCmd.Flags().StringVar(&transcribeKey, "key", "", "force this key instead of detecting one")
	transcribeCmd.Flags().StringVar(&transcribeTitle, "title", "", "score title")
	transcribeCmd.Flags().IntVar(&transcribeTempo, "tempo", defaults.Tempo, "quarter-note tempo written to the header")
	transcribeCmd.Flags().StringVar(&transcribeOut, "out", "", "write the ABC score to this file instead of stdout")
	transcribeCmd.Flags().StringVar(&transcribeMIDI, "midi", "", "also write a standard MIDI file to this path")
	rootCmd.AddCommand(transcribeCmd)
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audiofile>",
	Short: "Transcribes an audio file to two-voice notation",
	Long: `Transcribes an audio file to two-voice letter notation.

WAV files are decoded natively; any other format ffmpeg understands is
decoded through ffmpeg. The score is printed as ABC text, and can also
be written to a standard MIDI file with --midi.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscribe(cmd, args[0])
	},
}

func runTranscribe(cmd *cobra.Command, filename string) error {
	cfg := config.DefaultTranscriptionConfig()
	cfg.QValue = transcribeQ
	cfg.Sensitivity = transcribeSensitivity
	cfg.Key = transcribeKey
	cfg.Title = transcribeTitle
	cfg.Tempo = transcribeTempo
	if err := cfg.Validate(); err != nil {
		return err
	}

	transcriber := transcribe.NewTranscriber(cfg, nil)
	score, err := transcriber.TranscribeFile(cmd.Context(), filename)
	if err != nil {
		return err
	}

	text := score.ABC()
	if transcribeOut != "" {
		if err := os.WriteFile(transcribeOut, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", transcribeOut, err)
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), text)
	}

	if transcribeMIDI != "" {
		exporter := export.NewExporter(export.DefaultSMFParams())
		if err := exporter.WriteFile(transcribeMIDI, score.Document()); err != nil {
			return err
		}
	}
	return nil
}
