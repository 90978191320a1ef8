package stream

import (
	"sync"
	"time"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

type SnapshotCallback func(s *gamestate.Snapshot)

type snapshotCallbackEntry struct {
	id       int
	callback SnapshotCallback
}

// Latest holds the most recent snapshot. Stores are last-write-wins and every
// Store synchronously notifies change callbacks in registration order.
type Latest struct {
	mu   sync.RWMutex
	cur  *gamestate.Snapshot
	seq  uint64
	now  func() time.Time
	cbM  sync.RWMutex
	cbs  []snapshotCallbackEntry
	next int
}

func NewLatest() *Latest {
	return &Latest{now: time.Now}
}

// Store stamps s with a receipt sequence number and makes it current.
func (l *Latest) Store(s *gamestate.Snapshot) {
	if s == nil {
		return
	}
	l.mu.Lock()
	l.seq++
	s.Seq = l.seq
	if s.ReceivedAt.IsZero() {
		s.ReceivedAt = l.now()
	}
	l.cur = s
	l.mu.Unlock()

	l.cbM.RLock()
	callbacks := make([]snapshotCallbackEntry, len(l.cbs))
	copy(callbacks, l.cbs)
	l.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(s)
		}
	}
}

// Load returns the current snapshot or nil before the first event.
func (l *Latest) Load() *gamestate.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

func (l *Latest) OnChange(cb SnapshotCallback) int {
	l.cbM.Lock()
	defer l.cbM.Unlock()
	l.next++
	l.cbs = append(l.cbs, snapshotCallbackEntry{id: l.next, callback: cb})
	return l.next
}

func (l *Latest) RemoveCallback(id int) {
	l.cbM.Lock()
	defer l.cbM.Unlock()
	for i, cb := range l.cbs {
		if cb.id == id {
			l.cbs = append(l.cbs[:i], l.cbs[i+1:]...)
			break
		}
	}
}
