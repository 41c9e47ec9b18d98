package language

import (
	"context"
	"strings"
)

// SessionLanguages looks up the language pair bound to a session.
// Implementations return a KindSessionNotFound error for unknown ids.
type SessionLanguages interface {
	SessionLanguages(ctx context.Context, sessionID string) (visitor, host string, err error)
}

// FallbackVoice is used when no other tier yields a voice.
const FallbackVoice = "en-GB-LibbyNeural"

// VoiceQuery 语音解析输入，字段均可为空
type VoiceQuery struct {
	Voice     string
	Language  string
	SessionID string
	Text      string
}

// VoiceResolver 按优先级选择合成音色：显式音色 > 语言 > 会话 > 默认
// 请求指定了语言时只在该语言与默认音色之间选择
type VoiceResolver struct {
	resolver     *Resolver
	sessions     SessionLanguages
	hostMarker   string
	defaultVoice string
}

// NewVoiceResolver 创建音色解析器
func NewVoiceResolver(resolver *Resolver, sessions SessionLanguages, hostMarker, defaultVoice string) *VoiceResolver {
	if strings.TrimSpace(defaultVoice) == "" {
		defaultVoice = FallbackVoice
	}
	return &VoiceResolver{
		resolver:     resolver,
		sessions:     sessions,
		hostMarker:   hostMarker,
		defaultVoice: defaultVoice,
	}
}

// Resolve 返回非空的音色名
func (v *VoiceResolver) Resolve(ctx context.Context, q VoiceQuery) (string, error) {
	if voice := strings.TrimSpace(q.Voice); voice != "" {
		return voice, nil
	}

	if code := strings.TrimSpace(q.Language); code != "" {
		voice, err := v.resolver.Voice(ctx, code)
		if err != nil {
			return "", err
		}
		if voice != "" {
			return voice, nil
		}
		// 指定了语言但没有音色时不再参考会话
		return v.defaultVoice, nil
	}

	if id := strings.TrimSpace(q.SessionID); id != "" && v.sessions != nil {
		visitor, host, err := v.sessions.SessionLanguages(ctx, id)
		if err != nil {
			return "", err
		}
		// 文本以主持方标记开头时视为丹麦语
		code := visitor
		if v.hostMarker != "" && strings.HasPrefix(q.Text, v.hostMarker) {
			code = host
		}
		if code != "" {
			voice, err := v.resolver.Voice(ctx, code)
			if err != nil {
				return "", err
			}
			if voice != "" {
				return voice, nil
			}
		}
	}

	return v.defaultVoice, nil
}
