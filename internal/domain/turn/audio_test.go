package turn

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

func TestNormalizer_WAVToMono16k(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{TempDir: t.TempDir()}, logging.Nop())
	workdir, cleanup, err := n.Workspace()
	require.NoError(t, err)

	out, err := n.Normalize(context.Background(), workdir, "clip.wav", stereoWAV(48000, 4800))
	require.NoError(t, err)

	pcm, err := parseWAV(out)
	require.NoError(t, err)
	assert.Equal(t, 16000, pcm.sampleRate)
	assert.Equal(t, 1, pcm.channels)
	assert.Len(t, pcm.samples, 1600)

	assert.FileExists(t, filepath.Join(workdir, "input.wav"))
	assert.FileExists(t, filepath.Join(workdir, "normalized.wav"))

	cleanup()
	_, statErr := os.Stat(workdir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNormalizer_PassesThroughCanonicalWAV(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{TempDir: t.TempDir()}, logging.Nop())
	workdir, cleanup, err := n.Workspace()
	require.NoError(t, err)
	defer cleanup()

	in := encodeWAV([]int16{1, 2, 3, 4}, 16000)
	out, err := n.Normalize(context.Background(), workdir, "", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNormalizer_Errors(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{
		TempDir:    t.TempDir(),
		FFmpegPath: filepath.Join(t.TempDir(), "no-ffmpeg-here"),
	}, logging.Nop())
	workdir, cleanup, err := n.Workspace()
	require.NoError(t, err)
	defer cleanup()

	_, err = n.Normalize(context.Background(), workdir, "a.webm", nil)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = n.Normalize(context.Background(), workdir, "a.webm", []byte("webm-ish bytes"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Contains(t, err.Error(), "ffmpeg")
}

func TestExtensionAndFormatSniffing(t *testing.T) {
	assert.Equal(t, ".webm", extensionOf("voice.WEBM", nil))
	assert.Equal(t, ".wav", extensionOf("", encodeWAV(nil, 16000)))
	assert.Equal(t, ".mp3", extensionOf("", []byte("ID3\x03")))
	assert.Equal(t, ".bin", extensionOf("", []byte{0x1a, 0x45}))

	assert.True(t, isMP3("song.mp3", nil))
	assert.True(t, isMP3("", []byte{0xFF, 0xFB, 0x90}))
	assert.False(t, isMP3("", []byte("OggS")))
	// AAC ADTS 帧头
	assert.False(t, isMP3("", []byte{0xFF, 0xF1, 0x50, 0x80}))
	assert.False(t, isMP3("", []byte{0xFF, 0xF9, 0x50, 0x80}))
}

func TestNormalizer_MisdetectedMP3FallsBackToFFmpeg(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{
		TempDir:    t.TempDir(),
		FFmpegPath: filepath.Join(t.TempDir(), "no-ffmpeg-here"),
	}, logging.Nop())
	workdir, cleanup, err := n.Workspace()
	require.NoError(t, err)
	defer cleanup()

	// 扩展名声称是 mp3，实际内容无法被 go-mp3 解码
	_, err = n.Normalize(context.Background(), workdir, "clip.mp3", []byte{0xFF, 0xF1, 0x50, 0x80, 0x01, 0x7F, 0xFC})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Contains(t, err.Error(), "ffmpeg not found")
	assert.FileExists(t, filepath.Join(workdir, "input.mp3"))
}
