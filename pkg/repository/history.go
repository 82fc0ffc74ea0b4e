package repository

import (
	"sync"
	"time"

	"github.com/dskvich/homework-telegram-bot/pkg/domain"
)

const DefaultMaxTurns = 10

type historyEntry struct {
	turns      []domain.Turn
	lastUpdate time.Time
}

// historyRepository keeps a bounded FIFO of conversation turns per user.
type historyRepository struct {
	mu       sync.RWMutex
	entries  map[int64]*historyEntry
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

// NewHistoryRepository keeps at most maxTurns turns per user. A positive ttl drops
// a history that has not been touched for longer than ttl.
func NewHistoryRepository(maxTurns int, ttl time.Duration) *historyRepository {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &historyRepository{
		entries:  make(map[int64]*historyEntry),
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Append adds turns in order, evicting the oldest ones so the bound always holds.
func (h *historyRepository) Append(userID int64, turns ...domain.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[userID]
	if !ok || h.isExpired(entry) {
		entry = &historyEntry{}
		h.entries[userID] = entry
	}

	for _, turn := range turns {
		for len(entry.turns) >= h.maxTurns {
			entry.turns = entry.turns[1:]
		}
		entry.turns = append(entry.turns, turn)
	}
	entry.lastUpdate = h.now()
}

// Get returns a copy of the user's turns, oldest first.
func (h *historyRepository) Get(userID int64) []domain.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.entries[userID]
	if !ok || h.isExpired(entry) {
		return nil
	}

	return append([]domain.Turn(nil), entry.turns...)
}

// Clear drops the user's history and reports whether there was any.
func (h *historyRepository) Clear(userID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.entries[userID]
	delete(h.entries, userID)

	return ok && len(entry.turns) > 0 && !h.isExpired(entry)
}

func (h *historyRepository) isExpired(entry *historyEntry) bool {
	if h.ttl <= 0 {
		return false
	}
	return h.now().Sub(entry.lastUpdate) > h.ttl
}
