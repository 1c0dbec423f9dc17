package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cantus-audio/cantus/export"
	"github.com/cantus-audio/cantus/notation"
	"github.com/spf13/cobra"
)

var (
	exportQ   int
	exportOut string
)

func init() {
	exportCmd.Flags().IntVar(&exportQ, "q", 8, "grid resolution the score was written with (4, 8 or 16)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: input with a .mid extension)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <abcfile>",
	Short: "Converts a notation file to a standard MIDI file",
	Long: `Reads an ABC score produced by transcribe or live and writes it
as a two-track standard MIDI file. The grid resolution is not part of
the ABC header, so scores written with a non-default --q need the same
value here.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0])
	},
}

func runExport(path string) error {
	if exportQ != 4 && exportQ != 8 && exportQ != 16 {
		return fmt.Errorf("q value must be 4, 8 or 16, got %d", exportQ)
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := notation.ParseDocument(string(text), exportQ)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	out := exportOut
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".mid"
	}
	exporter := export.NewExporter(export.DefaultSMFParams())
	return exporter.WriteFile(out, doc)
}
