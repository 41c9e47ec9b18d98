package errors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfig              Kind = "config"
	KindDomain              Kind = "domain"
	KindTransport           Kind = "transport"
	KindPlatform            Kind = "platform"
	KindBootstrap           Kind = "bootstrap"
	KindStorage             Kind = "storage"
	KindSessionNotFound     Kind = "session_not_found"
	KindNotFound            Kind = "not_found"
	KindUnsupportedLanguage Kind = "unsupported_language"
	KindProvider            Kind = "provider"
	KindValidation          Kind = "validation"
	KindUnknown             Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Detail 透传给调用方的原始诊断信息（例如供应商返回的错误体）
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// KindOf returns the kind of the first typed error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}

// DetailOf returns the diagnostic detail attached to the first typed error in the chain.
func DetailOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Detail
	}
	return ""
}

// MessageOf 返回面向调用方的错误描述：优先使用类型化错误的 Message
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var target *Error
	if errors.As(err, &target) && target.Message != "" {
		return target.Message
	}
	return err.Error()
}

// SessionNotFound reports a session id that does not exist.
func SessionNotFound(op, id string) *Error {
	return New(KindSessionNotFound, op, fmt.Sprintf("session %s not found", id))
}

// UnsupportedLanguage reports a language code with no resolvable provider for a capability.
func UnsupportedLanguage(op, code, capability string) *Error {
	return New(KindUnsupportedLanguage, op, fmt.Sprintf("language %q has no %s provider", code, capability))
}

// Validation reports missing or malformed input.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// Provider reports a provider call that did not complete successfully.
// detail carries the provider's raw response body verbatim.
func Provider(op, message, detail string, cause error) *Error {
	return &Error{
		Kind:    KindProvider,
		Op:      op,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}
