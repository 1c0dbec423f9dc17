package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, path string, rate, channels, bitDepth int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestDecodeWAVMono(t *testing.T) {
	assert := assert.New(t)

	const (
		rate    = 44100
		count   = 8192
		freq    = 440.0
		amp     = 0.5
		maxInt  = 32767
		sineTol = 0.02
	)
	samples := make([]int, count)
	for i := range samples {
		samples[i] = int(amp * maxInt * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, path, rate, 1, 16, samples)

	data, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(rate, data.SampleRate)
	assert.Equal(1, data.Channels)
	assert.Equal(count, len(data.PCM))
	assert.InDelta(float64(count)/rate, data.Duration.Seconds(), 0.001)
	assert.Equal("pcm", data.Codec)

	peak := 0.0
	for _, s := range data.PCM {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	assert.InDelta(amp, peak, sineTol)
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	assert := assert.New(t)

	const (
		rate   = 8000
		frames = 1000
	)
	// Interleaved stereo with constant levels per channel.
	samples := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		samples[i*2] = 8192    // Left: 0.25 of full scale
		samples[i*2+1] = 16384 // Right: 0.5 of full scale
	}

	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWAV(t, path, rate, 2, 16, samples)

	data, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(1, data.Channels)
	assert.Equal(frames, len(data.PCM))
	for _, s := range data.PCM[:10] {
		assert.InDelta(0.375, s, 0.001)
	}
}

func TestDecodeWAVRespectsMaxDuration(t *testing.T) {
	assert := assert.New(t)

	const rate = 8000
	samples := make([]int, rate*2) // two seconds

	path := filepath.Join(t.TempDir(), "long.wav")
	writeTestWAV(t, path, rate, 1, 16, samples)

	config := DefaultDecoderConfig()
	config.MaxDuration = 500 * time.Millisecond

	data, err := NewDecoder(config).DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(rate/2, len(data.PCM))
}

func TestDecodeWAVInvalidFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a wav"), 0o644))

	_, err := NewDecoder(nil).decodeWAV(path)
	assert.Error(err)
}

func TestDecodeFileMissing(t *testing.T) {
	assert := assert.New(t)

	_, err := NewDecoder(nil).DecodeFile(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(err)
}

func TestDecodeFileFFmpegFallback(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	assert := assert.New(t)

	const rate = 8000
	samples := make([]int, rate/2)
	for i := range samples {
		samples[i] = int(0.4 * 32767 * math.Sin(2*math.Pi*220*float64(i)/rate))
	}

	// A non-wav extension forces the ffmpeg path; ffprobe sniffs the RIFF
	// header regardless of the name.
	path := filepath.Join(t.TempDir(), "tone.audio")
	writeTestWAV(t, path, rate, 1, 16, samples)

	data, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(44100, data.SampleRate)
	assert.Equal(1, data.Channels)
	expected := float64(len(samples)) * 44100 / rate
	assert.InDelta(expected, float64(len(data.PCM)), expected*0.1)
}

func TestValidateConfig(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(NewDecoder(nil).ValidateConfig())

	bad := DefaultDecoderConfig()
	bad.TargetSampleRate = 0
	assert.Error(NewDecoder(bad).ValidateConfig())

	bad = DefaultDecoderConfig()
	bad.Timeout = 0
	assert.Error(NewDecoder(bad).ValidateConfig())
}

func TestBytesToFloat64(t *testing.T) {
	assert := assert.New(t)

	values := []float64{0, 1.5, -0.25, 440.0}
	data := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}

	assert.Equal(values, bytesToFloat64(data))

	// A trailing partial sample is trimmed.
	assert.Equal(values, bytesToFloat64(append(data, 0x01, 0x02, 0x03)))

	assert.Nil(bytesToFloat64(nil))
	assert.Nil(bytesToFloat64([]byte{1, 2, 3}))
}
