package reports

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultTimeout  = 5 * time.Minute
	SweeperInterval = time.Minute
)

// Pending is a card report waiting for the learner's note.
type Pending struct {
	ChatID    int64
	VocabID   string
	Term      string
	ExpiresAt time.Time
}

type Manager struct {
	mu      sync.Mutex
	pending map[int64]Pending
	now     func() time.Time
}

func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		pending: make(map[int64]Pending),
		now:     now,
	}
}

var DefaultManager = NewManager(nil)

func ResetDefaultManager(now func() time.Time) {
	DefaultManager = NewManager(now)
}

// Start waits for the learner's next message in chatID as a note on the
// card. A second Start replaces the first.
func (m *Manager) Start(userID, chatID int64, vocabID, term string, timeout time.Duration) {
	if m == nil || userID == 0 || chatID == 0 || vocabID == "" {
		return
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[userID] = Pending{
		ChatID:    chatID,
		VocabID:   vocabID,
		Term:      term,
		ExpiresAt: m.now().Add(timeout),
	}
}

// Consume returns and clears the pending report for the user when it belongs
// to chatID and has not expired.
func (m *Manager) Consume(userID, chatID int64) (Pending, bool) {
	if m == nil || userID == 0 || chatID == 0 {
		return Pending{}, false
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.pending[userID]
	if !ok || entry.ChatID != chatID {
		return Pending{}, false
	}
	delete(m.pending, userID)
	if !now.Before(entry.ExpiresAt) {
		return Pending{}, false
	}
	return entry, true
}

func (m *Manager) SweepExpired(now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, entry := range m.pending {
		if !now.Before(entry.ExpiresAt) {
			delete(m.pending, userID)
		}
	}
}

func (m *Manager) StartSweeper(ctx context.Context) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(SweeperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.SweepExpired(now)
		}
	}
}
