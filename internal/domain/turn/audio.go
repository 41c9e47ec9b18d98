package turn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"

	apperrors "tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
)

const (
	DefaultSampleRate    = 16000
	DefaultFFmpegPath    = "ffmpeg"
	DefaultFFmpegTimeout = 2 * time.Minute
	tempFilePermissions  = 0o600
)

// NormalizerConfig 音频归一化配置
type NormalizerConfig struct {
	SampleRate    int
	FFmpegPath    string
	FFmpegTimeout time.Duration
	// TempDir 为空时使用系统临时目录
	TempDir string
}

// Normalizer converts uploads to 16-bit mono PCM WAV at the configured rate.
// WAV and MP3 are decoded in-process; everything else goes through ffmpeg.
type Normalizer struct {
	cfg    NormalizerConfig
	logger *logging.Logger
}

// NewNormalizer 创建音频归一化器
func NewNormalizer(cfg NormalizerConfig, logger *logging.Logger) *Normalizer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = DefaultFFmpegPath
	}
	if cfg.FFmpegTimeout <= 0 {
		cfg.FFmpegTimeout = DefaultFFmpegTimeout
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// Workspace creates a per-turn temp directory. The caller must call the cleanup func.
func (n *Normalizer) Workspace() (string, func(), error) {
	dir, err := os.MkdirTemp(n.cfg.TempDir, "tolk-turn-")
	if err != nil {
		return "", func() {}, apperrors.Wrap(apperrors.KindPlatform, "audio.workspace", "failed to create temp directory", err)
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			n.logger.WarnTag("音频", "清理临时目录 %s 失败: %v", dir, err)
		}
	}, nil
}

// Normalize stages the upload into workdir and returns the normalized WAV bytes.
func (n *Normalizer) Normalize(ctx context.Context, workdir, filename string, data []byte) ([]byte, error) {
	const op = "audio.normalize"
	if len(data) == 0 {
		return nil, apperrors.Validation(op, "audio file is empty")
	}

	inputPath := filepath.Join(workdir, "input"+extensionOf(filename, data))
	if err := os.WriteFile(inputPath, data, tempFilePermissions); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPlatform, op, "failed to stage audio", err)
	}

	var (
		out []byte
		err error
	)
	switch {
	case isWAV(data):
		out, err = n.fromWAV(data)
		var unsupported errUnsupportedWAV
		if errors.As(err, &unsupported) {
			n.logger.DebugTag("音频", "%v，改用 ffmpeg", err)
			out, err = n.withFFmpeg(ctx, workdir, inputPath)
		}
	case isMP3(filename, data):
		out, err = n.fromMP3(data)
		if err != nil {
			// 扩展名或帧头可能是误判 (例如 AAC ADTS)，交给 ffmpeg 再试
			n.logger.DebugTag("音频", "%v，改用 ffmpeg", err)
			out, err = n.withFFmpeg(ctx, workdir, inputPath)
		}
	default:
		out, err = n.withFFmpeg(ctx, workdir, inputPath)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, op, "could not decode audio", err)
	}

	// 归一化结果也落在工作目录，便于排查
	if err := os.WriteFile(filepath.Join(workdir, "normalized.wav"), out, tempFilePermissions); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPlatform, op, "failed to stage normalized audio", err)
	}
	return out, nil
}

func (n *Normalizer) fromWAV(data []byte) ([]byte, error) {
	pcm, err := parseWAV(data)
	if err != nil {
		return nil, err
	}
	if pcm.sampleRate == n.cfg.SampleRate && pcm.channels == 1 {
		return encodeWAV(pcm.samples, pcm.sampleRate), nil
	}
	mono := downmix(pcm.samples, pcm.channels)
	return encodeWAV(resample(mono, pcm.sampleRate, n.cfg.SampleRate), n.cfg.SampleRate), nil
}

func (n *Normalizer) fromMP3(data []byte) ([]byte, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	// go-mp3 总是输出 16 位双声道小端 PCM
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}
	mono := downmix(bytesToSamples(raw), 2)
	return encodeWAV(resample(mono, decoder.SampleRate(), n.cfg.SampleRate), n.cfg.SampleRate), nil
}

func (n *Normalizer) withFFmpeg(ctx context.Context, workdir, inputPath string) ([]byte, error) {
	outputPath := filepath.Join(workdir, "ffmpeg.wav")
	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ar", strconv.Itoa(n.cfg.SampleRate),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		outputPath,
	}

	ffmpegCtx, cancel := context.WithTimeout(ctx, n.cfg.FFmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ffmpegCtx, n.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	n.logger.DebugTag("音频", "ffmpeg %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ffmpegCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ffmpeg timed out after %s", n.cfg.FFmpegTimeout)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return nil, fmt.Errorf("ffmpeg not found at %q", n.cfg.FFmpegPath)
		}
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ffmpeg output: %w", err)
	}
	return out, nil
}

func isMP3(filename string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".mp3") {
		return true
	}
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return true
	}
	// MPEG 帧同步字；layer 位为 00 的是 AAC ADTS
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0 && data[1]&0x06 != 0
}

func extensionOf(filename string, data []byte) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	switch {
	case isWAV(data):
		return ".wav"
	case isMP3("", data):
		return ".mp3"
	}
	return ".bin"
}
