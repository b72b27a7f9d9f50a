package forward

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
)

// FlushFunc receives a completed batch of messages ready for forwarding.
// Single messages arrive as a one-element slice; album members arrive
// together, ordered by message ID.
type FlushFunc func(messages []*models.Message)

// MediaGroupBuffer collects messages that share a media_group_id so albums can
// be re-sent as one sendMediaGroup call. Telegram delivers album members as
// individual updates with no end marker, so each arrival resets a per-group
// timer; when it expires the group is considered complete and flushed.
type MediaGroupBuffer struct {
	mu      sync.Mutex
	timeout time.Duration
	groups  map[string][]*models.Message
	timers  map[string]*time.Timer
	gens    map[string]uint64
	flush   FlushFunc
	logger  *slog.Logger
	stopped bool
}

// NewMediaGroupBuffer creates a buffer that flushes a media group after
// timeout has passed without a new member arriving.
func NewMediaGroupBuffer(timeout time.Duration, flush FlushFunc, logger *slog.Logger) *MediaGroupBuffer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &MediaGroupBuffer{
		timeout: timeout,
		groups:  make(map[string][]*models.Message),
		timers:  make(map[string]*time.Timer),
		gens:    make(map[string]uint64),
		flush:   flush,
		logger:  logger.With("component", "media_group_buffer"),
	}
}

// Add feeds a message into the buffer. Messages without a media group ID are
// flushed immediately in the caller's goroutine; album members are buffered
// and flushed from the timer goroutine once the group is complete.
func (b *MediaGroupBuffer) Add(msg *models.Message) {
	if msg == nil {
		return
	}
	if msg.MediaGroupID == "" {
		b.flush([]*models.Message{msg})
		return
	}

	groupID := msg.MediaGroupID

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.groups[groupID] = append(b.groups[groupID], msg)
	if timer, ok := b.timers[groupID]; ok {
		timer.Stop()
	}
	// Stop cannot unarm a timer that already fired and is waiting on the lock,
	// so each arrival bumps the generation and a stale timer flushes nothing.
	gen := b.gens[groupID] + 1
	b.gens[groupID] = gen
	b.timers[groupID] = time.AfterFunc(b.timeout, func() {
		b.flushGroup(groupID, gen)
	})
	count := len(b.groups[groupID])
	b.mu.Unlock()

	b.logger.Debug("Buffered media group message", "media_group_id", groupID, "buffered", count)
}

// flushGroup removes the group from the buffer and hands it to the flush
// callback in message-ID order. A timer superseded by a later arrival carries
// a stale generation and is a no-op.
func (b *MediaGroupBuffer) flushGroup(groupID string, gen uint64) {
	b.mu.Lock()
	if b.gens[groupID] != gen {
		b.mu.Unlock()
		return
	}
	messages := b.groups[groupID]
	delete(b.groups, groupID)
	delete(b.timers, groupID)
	delete(b.gens, groupID)
	b.mu.Unlock()

	if len(messages) == 0 {
		return
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID < messages[j].ID
	})

	b.logger.Debug("Flushing media group", "media_group_id", groupID, "count", len(messages))
	b.flush(messages)
}

// Stop cancels all pending timers and flushes any buffered groups so messages
// are not lost on shutdown.
func (b *MediaGroupBuffer) Stop() {
	type pendingGroup struct {
		id  string
		gen uint64
	}

	b.mu.Lock()
	b.stopped = true
	pending := make([]pendingGroup, 0, len(b.timers))
	for groupID, timer := range b.timers {
		timer.Stop()
		pending = append(pending, pendingGroup{groupID, b.gens[groupID]})
	}
	b.mu.Unlock()

	for _, p := range pending {
		b.flushGroup(p.id, p.gen)
	}
}
