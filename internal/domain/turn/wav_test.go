package turn

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stereoWAV 生成指定采样率的双声道 16 位 WAV
func stereoWAV(sampleRate, frames int) []byte {
	pcm := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(pcm[i*4:], uint16(int16(1000)))
		binary.LittleEndian.PutUint16(pcm[i*4+2:], uint16(int16(3000)))
	}
	header := encodeWAV(nil, sampleRate)
	binary.LittleEndian.PutUint16(header[22:24], 2)
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*4))
	binary.LittleEndian.PutUint16(header[32:34], 4)
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))
	return append(header, pcm...)
}

func TestEncodeAndParseWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	wav := encodeWAV(samples, 16000)
	require.Len(t, wav, wavHeaderSize+len(samples)*2)

	pcm, err := parseWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, 16000, pcm.sampleRate)
	assert.Equal(t, 1, pcm.channels)
	assert.Equal(t, samples, pcm.samples)
}

func TestParseWAV_Errors(t *testing.T) {
	_, err := parseWAV([]byte("not a wav file at all"))
	assert.Error(t, err)

	float := encodeWAV([]int16{1, 2}, 16000)
	binary.LittleEndian.PutUint16(float[20:22], 3)
	binary.LittleEndian.PutUint16(float[34:36], 32)
	_, err = parseWAV(float)
	var unsupported errUnsupportedWAV
	assert.ErrorAs(t, err, &unsupported)
}

func TestParseWAV_StereoAndDownmix(t *testing.T) {
	pcm, err := parseWAV(stereoWAV(16000, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, pcm.channels)

	mono := downmix(pcm.samples, pcm.channels)
	require.Len(t, mono, 10)
	assert.Equal(t, int16(2000), mono[0])
}

func TestResample(t *testing.T) {
	tests := []struct {
		name    string
		in      int
		from    int
		to      int
		wantLen int
	}{
		{name: "same rate", in: 160, from: 16000, to: 16000, wantLen: 160},
		{name: "downsample 48k", in: 480, from: 48000, to: 16000, wantLen: 160},
		{name: "upsample 8k", in: 80, from: 8000, to: 16000, wantLen: 160},
		{name: "empty", in: 0, from: 44100, to: 16000, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]int16, tt.in)
			for i := range in {
				in[i] = 500
			}
			out := resample(in, tt.from, tt.to)
			assert.Len(t, out, tt.wantLen)
			for _, s := range out {
				assert.Equal(t, int16(500), s)
			}
		})
	}
}
