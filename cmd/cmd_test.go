package cmd

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cantus-audio/cantus/notation"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

// runCommand executes the root command with the given args. Flag values
// persist across invocations, so tests pass every flag they depend on.
func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func writeToneWAV(t *testing.T, path string, seconds float64) {
	t.Helper()

	const (
		rate   = 44100
		freq   = 440.0
		maxInt = 32767
	)
	count := int(seconds * rate)
	samples := make([]int, count)
	for i := range samples {
		samples[i] = int(0.5 * maxInt * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestTranscribeCommandWritesABC(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	abcPath := filepath.Join(dir, "tone.abc")
	writeToneWAV(t, wavPath, 1.0)

	err := runCommand(t, "transcribe", wavPath,
		"--q", "8", "--sensitivity", "0.5", "--title", "Tone check",
		"--tempo", "120", "--key", "", "--out", abcPath, "--midi", "")
	require.NoError(t, err)

	text, err := os.ReadFile(abcPath)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Contains(string(text), "T:Tone check")
	assert.Contains(string(text), "K:C")
	assert.Contains(string(text), "V:1\nA")
	assert.Contains(string(text), "V:2\nA,,")
}

func TestTranscribeCommandWritesMIDI(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	midPath := filepath.Join(dir, "tone.mid")
	writeToneWAV(t, wavPath, 1.0)

	err := runCommand(t, "transcribe", wavPath,
		"--q", "8", "--sensitivity", "0.5", "--title", "", "--tempo", "120",
		"--key", "", "--out", filepath.Join(dir, "tone.abc"), "--midi", midPath)
	require.NoError(t, err)

	f, err := os.Open(midPath)
	require.NoError(t, err)
	defer f.Close()

	song, err := smf.ReadFrom(f)
	require.NoError(t, err)
	assert.Equal(t, 2, len(song.Tracks))
}

func TestTranscribeCommandRejectsBadFlags(t *testing.T) {
	assert := assert.New(t)

	err := runCommand(t, "transcribe", "missing.wav", "--q", "5", "--sensitivity", "0.5",
		"--key", "", "--title", "", "--tempo", "120", "--out", "", "--midi", "")
	assert.Error(err)

	err = runCommand(t, "transcribe", "missing.wav", "--q", "8", "--sensitivity", "1.5",
		"--key", "", "--title", "", "--tempo", "120", "--out", "", "--midi", "")
	assert.Error(err)
}

func TestExportCommandRoundTrip(t *testing.T) {
	dir := t.TempDir()
	abcPath := filepath.Join(dir, "score.abc")
	midPath := filepath.Join(dir, "score.mid")

	doc := notation.NewDocument("C", 8)
	doc.Melody = []notation.Token{notation.NewNote(60, 4), notation.NewNote(64, 4), notation.NewBar()}
	doc.Harmony = []notation.Token{notation.NewNote(48, 4), notation.NewNote(52, 4), notation.NewBar()}
	require.NoError(t, os.WriteFile(abcPath, []byte(doc.Render()), 0o644))

	err := runCommand(t, "export", abcPath, "--q", "8", "--out", midPath)
	require.NoError(t, err)

	f, err := os.Open(midPath)
	require.NoError(t, err)
	defer f.Close()

	song, err := smf.ReadFrom(f)
	require.NoError(t, err)
	require.Equal(t, 2, len(song.Tracks))

	notes := 0
	for _, track := range song.Tracks {
		for _, ev := range track {
			var channel, key, velocity uint8
			if ev.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				notes++
			}
		}
	}
	assert.Equal(t, 4, notes)
}

func TestExportCommandDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	abcPath := filepath.Join(dir, "score.abc")

	doc := notation.NewDocument("C", 8)
	doc.Melody = []notation.Token{notation.NewNote(60, 2)}
	require.NoError(t, os.WriteFile(abcPath, []byte(doc.Render()), 0o644))

	require.NoError(t, runCommand(t, "export", abcPath, "--q", "8", "--out", ""))

	want := strings.TrimSuffix(abcPath, ".abc") + ".mid"
	_, err := os.Stat(want)
	assert.NoError(t, err)
}

func TestExportCommandRejectsBadQ(t *testing.T) {
	err := runCommand(t, "export", "whatever.abc", "--q", "5", "--out", "")
	assert.ErrorContains(t, err, "q value")
}

func TestLiveCommandReplaysFile(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	writeToneWAV(t, wavPath, 0.8)

	out := &strings.Builder{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&strings.Builder{})
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	err := runCommand(t, "live", "--input", wavPath, "--q", "8", "--sensitivity", "0.5", "--duration", "0")
	require.NoError(t, err)

	text := out.String()
	assert := assert.New(t)
	assert.Contains(text, "X:1")
	assert.Contains(text, "K:C")
	assert.Contains(text, "V:1\nA")
}
