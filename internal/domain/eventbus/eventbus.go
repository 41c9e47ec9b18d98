package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Publisher 领域事件发布接口，evbus.Bus 即满足
type Publisher interface {
	Publish(topic string, args ...interface{})
}

// New returns a synchronous in-process bus. Handlers run on the publisher's goroutine,
// so anything slow must hand off to an AsyncWorker.
func New() evbus.Bus {
	return evbus.New()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(string, ...interface{}) {}
