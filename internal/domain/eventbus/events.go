package eventbus

import "time"

// 事件类型定义
const (
	// 会话生命周期
	EventSessionStarted   = "session:started"
	EventLanguageSelected = "session:language_selected"
	EventTurnRecorded     = "session:turn_recorded"
	EventSessionFinished  = "session:finished"
	EventRecapGenerated   = "session:recap_generated"

	// 语言设置
	EventLanguageSettingsChanged = "language:settings_changed"

	// 供应商调用失败
	EventProviderError = "provider:error"
)

// PersistedEvents 需要写入 domain_events 表的事件
var PersistedEvents = []string{
	EventSessionStarted,
	EventLanguageSelected,
	EventTurnRecorded,
	EventSessionFinished,
	EventRecapGenerated,
	EventLanguageSettingsChanged,
	EventProviderError,
}

// SessionEventData 会话事件数据
type SessionEventData struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	LanguageA string    `json:"language_a,omitempty"`
	LanguageB string    `json:"language_b,omitempty"`
	At        time.Time `json:"at"`
}

// TurnEventData 翻译轮次事件数据
type TurnEventData struct {
	SessionID     string    `json:"session_id"`
	TranslationID uint      `json:"translation_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Transcribed   bool      `json:"transcribed"`
	At            time.Time `json:"at"`
}

// RecapEventData 摘要事件数据
type RecapEventData struct {
	SessionID string    `json:"session_id"`
	Turns     int       `json:"turns"`
	Model     string    `json:"model"`
	At        time.Time `json:"at"`
}

// LanguageEventData 语言设置变更数据
type LanguageEventData struct {
	Codes  []string  `json:"codes"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// ProviderErrorData 供应商错误事件数据
type ProviderErrorData struct {
	SessionID  string    `json:"session_id,omitempty"`
	Capability string    `json:"capability"`
	Model      string    `json:"model"`
	Message    string    `json:"message"`
	At         time.Time `json:"at"`
}

// sessionIDOf extracts the session id carried by an event payload, if any.
func sessionIDOf(data interface{}) string {
	switch d := data.(type) {
	case SessionEventData:
		return d.SessionID
	case TurnEventData:
		return d.SessionID
	case RecapEventData:
		return d.SessionID
	case ProviderErrorData:
		return d.SessionID
	}
	return ""
}
