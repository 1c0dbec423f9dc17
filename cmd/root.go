// Package cmd wires the command line surface on top of the library
// packages. Commands stay thin: flags are parsed here, the work happens
// in transcribe, stabilize and export.
package cmd

import (
	"github.com/cantus-audio/cantus/logging"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cantus",
	Short: "Monophonic audio to two-voice notation",
	Long: `Cantus listens to monophonic audio and writes it down: a melody
voice in letter notation plus a shadow harmony an octave below, with
key detection, ABC output and standard MIDI file export.`,
	// Execute reports errors through CheckErr; letting cobra print them
	// too would show every failure twice.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Warnings and errors only by default, so rendered scores are
		// the only thing on stdout.
		if verbose {
			logging.SetLevel(logging.DebugLevel)
		} else {
			logging.SetLevel(logging.WarnLevel)
		}
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
