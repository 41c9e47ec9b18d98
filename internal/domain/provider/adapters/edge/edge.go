package edge

import (
	"context"
	"fmt"

	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// Adapter synthesizes through the public Edge read-aloud service. Output is MP3.
type Adapter struct{}

type result struct {
	audio []byte
	err   error
}

// Invoke 使用 Edge TTS 合成语音
func (a *Adapter) Invoke(ctx context.Context, _ provider.Endpoint, req provider.Request) (*provider.Response, error) {
	const op = "edge.tts"

	done := make(chan result, 1)
	go func() {
		communicate, err := edge_tts.New(req.Voice)
		if err != nil {
			done <- result{err: fmt.Errorf("failed to create Edge TTS communicator: %w", err)}
			return
		}
		defer communicate.Close()

		audio, err := communicate.Output(req.Text)
		done <- result{audio: audio, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Provider(op, "synthesis timed out", "", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, errors.Provider(op, "synthesis failed", "", r.err)
		}
		if len(r.audio) == 0 {
			return nil, errors.Provider(op, "empty audio response", "", nil)
		}
		return &provider.Response{Audio: r.audio, ContentType: "audio/mpeg"}, nil
	}
}
