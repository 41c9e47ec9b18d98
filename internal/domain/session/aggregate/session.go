package aggregate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/platform/errors"
)

// Status 会话状态，只能前进
type Status string

const (
	StatusCreated     Status = "created"      // 已创建
	StatusLanguageSet Status = "language_set" // 已选择访客语言
	StatusOngoing     Status = "ongoing"      // 对话中
	StatusFinished    Status = "finished"     // 已结束
)

func (s Status) rank() int {
	switch s {
	case StatusCreated:
		return 0
	case StatusLanguageSet:
		return 1
	case StatusOngoing:
		return 2
	case StatusFinished:
		return 3
	}
	return -1
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.rank() >= 0
}

// Session 会话聚合根
type Session struct {
	ID           string                   `json:"session_id"`
	Status       Status                   `json:"status"`
	LanguageA    string                   `json:"language_a"` // 访客语言
	LanguageB    string                   `json:"language_b"` // 主持方语言
	ModelA       *language.ProviderConfig `json:"model_a"`
	ModelB       *language.ProviderConfig `json:"model_b"`
	CreatedAt    time.Time                `json:"created_at"`
	Translations []Translation            `json:"translations,omitempty"`
}

// Translation 一轮翻译记录，写入后不可修改
type Translation struct {
	ID           uint      `json:"id"`
	SessionID    string    `json:"session_id"`
	FromLanguage string    `json:"from"`
	ToLanguage   string    `json:"to"`
	Original     string    `json:"original"`
	Translated   string    `json:"translated"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSession 创建新会话，主持方语言在创建时即固定
func NewSession(hostCode string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Status:    StatusCreated,
		LanguageB: hostCode,
		CreatedAt: time.Now(),
	}
}

// SelectLanguage binds the visitor language and both model snapshots.
// Re-selecting before the first turn is allowed.
func (s *Session) SelectLanguage(code string, visitor, host language.ProviderConfig) error {
	if s.Status != StatusCreated && s.Status != StatusLanguageSet {
		return errors.Validation("session.select_language",
			fmt.Sprintf("cannot select language while session is %s", s.Status))
	}
	s.LanguageA = code
	s.ModelA = &visitor
	s.ModelB = &host
	s.Status = StatusLanguageSet
	return nil
}

// AcceptsTurn 检查会话当前是否可以记录翻译
func (s *Session) AcceptsTurn() error {
	switch s.Status {
	case StatusLanguageSet, StatusOngoing:
		return nil
	case StatusCreated:
		return errors.Validation("session.record_turn", "select a language before recording turns")
	default:
		return errors.Validation("session.record_turn",
			fmt.Sprintf("cannot record turn while session is %s", s.Status))
	}
}

// RecordTurn appends t and moves the session to ongoing.
func (s *Session) RecordTurn(t Translation) error {
	if err := s.AcceptsTurn(); err != nil {
		return err
	}
	t.SessionID = s.ID
	s.Translations = append(s.Translations, t)
	s.Status = StatusOngoing
	return nil
}

// Finish 结束会话，重复调用无副作用；返回状态是否发生变化
func (s *Session) Finish() bool {
	if s.Status == StatusFinished {
		return false
	}
	s.Status = StatusFinished
	return true
}

// CanAdvanceTo reports whether moving from the current status to next keeps order.
func (s *Session) CanAdvanceTo(next Status) bool {
	return next.Valid() && next.rank() >= s.Status.rank()
}
