package repository

import (
	"context"
	"time"
)

// EventLog is the append-only audit trail of domain events.
type EventLog interface {
	Append(ctx context.Context, event Event) error
	// ForSession 按发生顺序返回某个会话的事件
	ForSession(ctx context.Context, sessionID string) ([]Event, error)
	// Prune removes events recorded before the cutoff and reports how many were deleted.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Event 已记录的领域事件
type Event struct {
	ID        uint        `json:"id"`
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data"`
	CreatedAt time.Time   `json:"created_at"`
}
