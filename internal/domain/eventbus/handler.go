package eventbus

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"tolk-server-go/internal/domain/eventbus/repository"
	"tolk-server-go/internal/platform/logging"
)

// Recorder logs domain events and persists them through the async worker.
type Recorder struct {
	repo   repository.EventLog
	worker *AsyncWorker
	logger *logging.Logger
}

// NewRecorder 创建事件记录器
func NewRecorder(repo repository.EventLog, worker *AsyncWorker, logger *logging.Logger) *Recorder {
	return &Recorder{repo: repo, worker: worker, logger: logger}
}

// Handle 处理单个事件
func (r *Recorder) Handle(eventType string, data interface{}) {
	sessionID := sessionIDOf(data)
	r.logger.DebugTag("事件", "%s session=%s", eventType, sessionID)

	if r.repo == nil || r.worker == nil {
		return
	}
	event := repository.Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		CreatedAt: time.Now(),
	}
	submitted := r.worker.Submit(func(ctx context.Context) {
		if err := r.repo.Append(ctx, event); err != nil {
			r.logger.WarnTag("事件", "持久化事件 %s 失败: %v", eventType, err)
		}
	})
	if !submitted {
		r.logger.WarnTag("事件", "事件队列已满，丢弃 %s", eventType)
	}
}

// Subscribe 为所有需要持久化的事件注册处理器
func (r *Recorder) Subscribe(bus evbus.Bus) error {
	for _, topic := range PersistedEvents {
		topic := topic
		if err := bus.Subscribe(topic, func(data interface{}) {
			r.Handle(topic, data)
		}); err != nil {
			return err
		}
	}
	return nil
}
