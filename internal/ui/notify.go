package ui

import (
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a message shown to the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	JobID   string    `json:"job_id,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotificationLog keeps the most recent notifications until drained.
type NotificationLog struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	logger   *slog.Logger
}

// NewNotificationLog creates a log that keeps at most capacity entries.
func NewNotificationLog(capacity int, logger *slog.Logger) *NotificationLog {
	if capacity <= 0 {
		capacity = 1
	}
	return &NotificationLog{
		items:    make([]Notification, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Notify records n, dropping the oldest entry when full.
func (l *NotificationLog) Notify(n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	l.mu.Lock()
	if len(l.items) == l.capacity {
		l.items = append(l.items[:0], l.items[1:]...)
	}
	l.items = append(l.items, n)
	l.mu.Unlock()

	if n.Level == LevelError {
		l.logger.Warn("notification", "message", n.Message, "job_id", n.JobID)
	} else {
		l.logger.Info("notification", "message", n.Message, "job_id", n.JobID)
	}
}

// Drain returns and clears the recorded notifications, oldest first.
func (l *NotificationLog) Drain() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Notification, len(l.items))
	copy(out, l.items)
	l.items = l.items[:0]
	return out
}
