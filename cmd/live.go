package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cantus-audio/cantus/capture"
	"github.com/cantus-audio/cantus/notation"
	"github.com/cantus-audio/cantus/stabilize"
	"github.com/cantus-audio/cantus/transcode"
	"github.com/spf13/cobra"
)

// snapshotInterval is how often the rolling status line refreshes.
const snapshotInterval = 100 * time.Millisecond

// statusTokens caps how much of the melody tail the status line shows.
const statusTokens = 8

var (
	liveQ           int
	liveSensitivity float64
	liveDuration    time.Duration
	liveInput       string
)

func init() {
	defaults := stabilize.DefaultSessionParams()
	liveCmd.Flags().IntVar(&liveQ, "q", defaults.QValue, "grid resolution in units per bar (4, 8 or 16)")
	liveCmd.Flags().Float64Var(&liveSensitivity, "sensitivity", defaults.Sensitivity, "detection sensitivity between 0 and 1")
	liveCmd.Flags().DurationVar(&liveDuration, "duration", 0, "stop after this long (default: run until Ctrl-C)")
	liveCmd.Flags().StringVar(&liveInput, "input", "", "replay an audio file instead of opening the microphone")
	rootCmd.AddCommand(liveCmd)
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Transcribes from the microphone in real time",
	Long: `Opens the default microphone and transcribes what it hears,
showing a rolling status line with the current pitch and the melody so
far. Ctrl-C (or --duration) ends the session; the final score is printed
as ABC text with the detected key.

With --input the audio comes from a file instead of the microphone,
which exercises the same session pipeline without audio hardware.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(cmd)
	},
}

func runLive(cmd *cobra.Command) error {
	params := stabilize.DefaultSessionParams()
	params.QValue = liveQ
	params.Sensitivity = liveSensitivity
	if err := params.Validate(); err != nil {
		return err
	}

	source, err := openSource(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if liveDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, liveDuration)
		defer cancel()
	}

	session := stabilize.NewSessionWithParams(nil, params)
	status := cmd.ErrOrStderr()

	// Poll snapshots on the side while Run drives the frame loop.
	pollCtx, stopPolling := context.WithCancel(ctx)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		ticker := time.NewTicker(snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				printStatus(status, session.Snapshot(), params.QValue)
			}
		}
	}()

	result, err := session.Run(ctx, source)
	stopPolling()
	<-pollerDone
	fmt.Fprintf(status, "\r\033[K")
	if err != nil {
		return err
	}

	if result.KeyDetection.Defaulted {
		fmt.Fprintf(status, "Too little material for key detection, defaulting to %s\n", result.Key)
	} else {
		fmt.Fprintf(status, "Detected key %s (%d of %d pitches in scale)\n",
			result.Key, result.KeyDetection.Matches, result.KeyDetection.Total)
	}
	fmt.Fprint(cmd.OutOrStdout(), result.Document("", 0).Render())
	return nil
}

// openSource picks the frame source for the session: the default
// microphone, or a decoded file when --input is set.
func openSource(ctx context.Context) (capture.FrameSource, error) {
	if liveInput == "" {
		return capture.NewMicSource(capture.DefaultParams())
	}
	data, err := transcode.NewDecoder(nil).DecodeFile(ctx, liveInput)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", liveInput, err)
	}
	return capture.NewBufferSource(data.PCM, data.SampleRate, capture.DefaultParams().FrameSize), nil
}

func printStatus(w io.Writer, snap stabilize.Snapshot, qValue int) {
	tail := snap.Melody
	if len(tail) > statusTokens {
		tail = tail[len(tail)-statusTokens:]
	}
	line := notation.RenderTokens(tail, qValue)
	if snap.LiveHz > 0 {
		fmt.Fprintf(w, "\r\033[K%7.1f Hz  %3d notes  %s", snap.LiveHz, snap.NoteCount, line)
	} else {
		fmt.Fprintf(w, "\r\033[K      --    %3d notes  %s", snap.NoteCount, line)
	}
}
