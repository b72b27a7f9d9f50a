package forward

import (
	"sync"
	"time"
)

// Stats tracks in-memory forwarding counters since process start.
type Stats struct {
	mu                   sync.Mutex
	messagesReceived     int64
	messagesForwarded    int64
	failedForwards       int64
	mediaGroupsForwarded int64
	startTime            time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	MessagesReceived     int64
	MessagesForwarded    int64
	FailedForwards       int64
	MediaGroupsForwarded int64
	Uptime               time.Duration
}

// NewStats creates a Stats tracker with the start time set to now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// AddReceived increments the received counter.
func (s *Stats) AddReceived() {
	s.mu.Lock()
	s.messagesReceived++
	s.mu.Unlock()
}

// AddForwarded adds n successfully forwarded messages.
func (s *Stats) AddForwarded(n int64) {
	s.mu.Lock()
	s.messagesForwarded += n
	s.mu.Unlock()
}

// AddFailed adds n failed forwards.
func (s *Stats) AddFailed(n int64) {
	s.mu.Lock()
	s.failedForwards += n
	s.mu.Unlock()
}

// AddMediaGroup increments the forwarded media group counter.
func (s *Stats) AddMediaGroup() {
	s.mu.Lock()
	s.mediaGroupsForwarded++
	s.mu.Unlock()
}

// Read returns a snapshot of all counters.
func (s *Stats) Read() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		MessagesReceived:     s.messagesReceived,
		MessagesForwarded:    s.messagesForwarded,
		FailedForwards:       s.failedForwards,
		MediaGroupsForwarded: s.mediaGroupsForwarded,
		Uptime:               time.Since(s.startTime),
	}
}
