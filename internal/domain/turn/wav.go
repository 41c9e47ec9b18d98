package turn

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// pcmAudio 解码后的交织 16 位采样
type pcmAudio struct {
	samples    []int16
	sampleRate int
	channels   int
}

// errUnsupportedWAV 标记需要交给 ffmpeg 的 WAV 变体（浮点、24 位等）
type errUnsupportedWAV struct {
	format uint16
	bits   uint16
}

func (e errUnsupportedWAV) Error() string {
	return fmt.Sprintf("unsupported wav encoding: format=%d bits=%d", e.format, e.bits)
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

// parseWAV walks the RIFF chunks and decodes 8 or 16 bit integer PCM.
func parseWAV(data []byte) (*pcmAudio, error) {
	if !isWAV(data) {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		format, channels, bits uint16
		sampleRate             uint32
		haveFmt                bool
		payload                []byte
	)
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + 8
		end := start + size
		if end > len(data) {
			// 流式写入的 WAV 常常把 data 长度写成 0 或超出实际
			end = len(data)
		}
		switch id {
		case "fmt ":
			if end-start < 16 {
				return nil, fmt.Errorf("fmt chunk too short")
			}
			format = binary.LittleEndian.Uint16(data[start:])
			channels = binary.LittleEndian.Uint16(data[start+2:])
			sampleRate = binary.LittleEndian.Uint32(data[start+4:])
			bits = binary.LittleEndian.Uint16(data[start+14:])
			haveFmt = true
		case "data":
			payload = data[start:end]
		}
		if payload != nil && haveFmt {
			break
		}
		pos = end + size%2
	}

	if !haveFmt || payload == nil {
		return nil, fmt.Errorf("wav is missing fmt or data chunk")
	}
	if channels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("wav header has zero channels or sample rate")
	}
	// 1 = PCM, 0xFFFE = extensible（按整型 PCM 处理）
	if (format != 1 && format != 0xFFFE) || (bits != 8 && bits != 16) {
		return nil, errUnsupportedWAV{format: format, bits: bits}
	}

	var samples []int16
	if bits == 16 {
		samples = make([]int16, len(payload)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
		}
	} else {
		samples = make([]int16, len(payload))
		for i, b := range payload {
			samples[i] = int16(int(b)-128) << 8
		}
	}
	return &pcmAudio{samples: samples, sampleRate: int(sampleRate), channels: int(channels)}, nil
}

// downmix averages interleaved channels into mono.
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}

// resample converts mono samples with linear interpolation.
func resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen == 0 {
		return nil
	}
	out := make([]int16, outLen)
	ratio := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		src := float64(i) * ratio
		idx := int(src)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := src - float64(idx)
		out[i] = int16(float64(samples[idx])*(1-frac) + float64(samples[idx+1])*frac)
	}
	return out
}

// encodeWAV writes mono 16-bit PCM with a canonical 44 byte header.
func encodeWAV(samples []int16, sampleRate int) []byte {
	const channels, bitsPerSample = 1, 16
	dataSize := len(samples) * 2
	wav := make([]byte, wavHeaderSize+dataSize)

	copy(wav[0:4], "RIFF")
	binary.LittleEndian.PutUint32(wav[4:8], uint32(36+dataSize))
	copy(wav[8:12], "WAVE")

	copy(wav[12:16], "fmt ")
	binary.LittleEndian.PutUint32(wav[16:20], 16)
	binary.LittleEndian.PutUint16(wav[20:22], 1)
	binary.LittleEndian.PutUint16(wav[22:24], channels)
	binary.LittleEndian.PutUint32(wav[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(wav[28:32], uint32(sampleRate*channels*bitsPerSample/8))
	binary.LittleEndian.PutUint16(wav[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(wav[34:36], bitsPerSample)

	copy(wav[36:40], "data")
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(wav[wavHeaderSize+i*2:], uint16(s))
	}
	return wav
}

// bytesToSamples reinterprets little-endian 16-bit PCM.
func bytesToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}
