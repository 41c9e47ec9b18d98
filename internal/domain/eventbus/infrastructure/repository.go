package infrastructure

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"tolk-server-go/internal/domain/eventbus/repository"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/storage"
)

type eventLog struct {
	db *gorm.DB
}

// NewEventLog 基于 domain_events 表的事件日志
func NewEventLog(db *gorm.DB) repository.EventLog {
	return &eventLog{db: db}
}

func (l *eventLog) Append(ctx context.Context, event repository.Event) error {
	payload, err := sonic.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "events.append", "failed to encode event payload", err)
	}
	at := event.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	row := &storage.DomainEvent{
		EventType: event.Type,
		SessionID: event.SessionID,
		Data:      payload,
		CreatedAt: at.UTC(),
	}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "events.append", "failed to insert event", err)
	}
	return nil
}

func (l *eventLog) ForSession(ctx context.Context, sessionID string) ([]repository.Event, error) {
	var rows []storage.DomainEvent
	err := l.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "events.for_session", "failed to query events", err)
	}

	events := make([]repository.Event, 0, len(rows))
	for _, row := range rows {
		var data interface{}
		if len(row.Data) > 0 {
			if err := sonic.Unmarshal(row.Data, &data); err != nil {
				return nil, errors.Wrap(errors.KindStorage, "events.for_session", "failed to decode event payload", err)
			}
		}
		events = append(events, repository.Event{
			ID:        row.ID,
			Type:      row.EventType,
			SessionID: row.SessionID,
			Data:      data,
			CreatedAt: row.CreatedAt,
		})
	}
	return events, nil
}

func (l *eventLog) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := l.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&storage.DomainEvent{})
	if res.Error != nil {
		return 0, errors.Wrap(errors.KindStorage, "events.prune", "failed to delete events", res.Error)
	}
	return res.RowsAffected, nil
}
