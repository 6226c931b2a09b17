package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level is the severity of a notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one message shown to the operator
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed keeps the most recent notifications in memory and logs each one.
// It implements domain.Notifier.
type Feed struct {
	mu       sync.RWMutex
	items    []Notification
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// NewFeed creates a feed holding at most capacity notifications (100 when zero)
func NewFeed(capacity int, logger *zap.Logger) *Feed {
	if capacity <= 0 {
		capacity = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		capacity: capacity,
		logger:   logger.Named("notify"),
		now:      time.Now,
	}
}

// Success records a success notification
func (f *Feed) Success(message string) {
	f.logger.Info(message)
	f.add(LevelSuccess, message)
}

// Error records an error notification
func (f *Feed) Error(message string) {
	f.logger.Warn(message)
	f.add(LevelError, message)
}

func (f *Feed) add(level Level, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: f.now().UTC(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0 returns all.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Notification, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}
