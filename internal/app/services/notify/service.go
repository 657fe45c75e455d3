package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/acmecorp/accesshub/internal/app/domain/notification"
	"github.com/acmecorp/accesshub/pkg/logger"
)

// Notifier receives user-facing events emitted by the core services.
type Notifier interface {
	Publish(kind notification.Kind, appName, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(kind notification.Kind, appName, message string)

func (f NotifierFunc) Publish(kind notification.Kind, appName, message string) {
	if f == nil {
		return
	}
	f(kind, appName, message)
}

// Service keeps a bounded in-memory notification feed for the presentation
// layer to drain. Oldest entries are evicted once the cap is reached.
type Service struct {
	mu      sync.Mutex
	entries []notification.Notification
	max     int
	nextID  int64
	unseen  bool
	log     *logger.Logger
}

var _ Notifier = (*Service)(nil)

// NewService creates a feed holding at most max entries (200 when max <= 0).
func NewService(max int, log *logger.Logger) *Service {
	if max <= 0 {
		max = 200
	}
	if log == nil {
		log = logger.NewDefault("notify")
	}
	return &Service{max: max, nextID: 1, log: log}
}

// Publish appends a notification to the feed and flags it unseen.
func (s *Service) Publish(kind notification.Kind, appName, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := notification.Notification{
		ID:        fmt.Sprintf("note-%d", s.nextID),
		Kind:      kind,
		AppName:   appName,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
	s.unseen = true

	s.log.WithField("kind", string(kind)).
		WithField("app", appName).
		Debug(message)
}

// List returns up to limit notifications, newest first. limit <= 0 returns
// everything retained.
func (s *Service) List(limit int) []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]notification.Notification, 0, limit)
	for i := len(s.entries) - 1; i >= len(s.entries)-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// HasUnseen reports whether notifications arrived since the last MarkSeen.
func (s *Service) HasUnseen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unseen
}

// MarkSeen clears the unseen flag.
func (s *Service) MarkSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unseen = false
}

// Reset empties the feed. Called on logout.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.unseen = false
}
