package openai

import (
	"context"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// ChatAdapter serves translate and summarize for azure_openai and openai_chat endpoints.
type ChatAdapter struct {
	clients *clientFactory
}

// NewChatAdapter entra may be nil; when set it authorizes azure_openai calls.
func NewChatAdapter(entra provider.Authorizer) *ChatAdapter {
	return &ChatAdapter{clients: newClientFactory(entra)}
}

// Invoke 发送系统提示词 + 用户文本，返回第一条回复
func (a *ChatAdapter) Invoke(ctx context.Context, ep provider.Endpoint, req provider.Request) (*provider.Response, error) {
	op := "openai.chat"

	client, err := a.clients.get(ep)
	if err != nil {
		return nil, err
	}

	model := ep.Model
	if model == "" {
		model = ep.Deployment
	}
	if model == "" {
		model = ep.Key
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Text},
		},
	}
	switch {
	case req.Temperature != nil:
		chatReq.Temperature = *req.Temperature
	case ep.Temperature != nil:
		chatReq.Temperature = *ep.Temperature
	}

	ctx, capture := withCapture(ctx)
	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, errors.Provider(op, string(req.Capability)+" request failed", capture.get(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Provider(op, "no choices returned", "", nil)
	}

	content := resp.Choices[0].Message.Content
	if req.Capability == provider.CapabilitySummarize {
		content = strings.TrimSpace(content)
	}
	return &provider.Response{Text: content}, nil
}
