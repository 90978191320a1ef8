package clock

import (
	"fmt"
	"time"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

// TickInterval is how often the side to move is charged between snapshots.
const TickInterval = 100 * time.Millisecond

// State is the locally displayed remaining time per side in milliseconds.
type State struct {
	WhiteMs int64
	BlackMs int64
}

func (s State) For(c gamestate.Color) int64 {
	if c == gamestate.Black {
		return s.BlackMs
	}
	return s.WhiteMs
}

// Clock interpolates between authoritative snapshots. It is not safe for
// concurrent use; the viewer session owns it.
type Clock struct {
	state State
	last  *gamestate.Snapshot
}

func New() *Clock { return &Clock{} }

func (c *Clock) State() State { return c.state }

// Sync resets both sides to the snapshot's remaining time when the snapshot
// carries one and has not been applied before. It reports whether a reset happened.
func (c *Clock) Sync(s *gamestate.Snapshot) bool {
	if s == nil || s.RemainingTime == nil {
		return false
	}
	if s == c.last {
		return false
	}
	c.state = State{
		WhiteMs: int64(s.RemainingTime.White),
		BlackMs: int64(s.RemainingTime.Black),
	}
	c.last = s
	return true
}

// Tick charges d to side. Values may go negative; nothing clamps at zero.
func (c *Clock) Tick(side gamestate.Color, d time.Duration) {
	ms := d.Milliseconds()
	switch side {
	case gamestate.White:
		c.state.WhiteMs -= ms
	case gamestate.Black:
		c.state.BlackMs -= ms
	}
}

// ShouldTick reports whether a snapshot allows the clock to run.
func ShouldTick(s *gamestate.Snapshot) bool {
	return s != nil && !s.IsError()
}

// SideToMove prefers the position notation's active colour and falls back to
// the parity of the recorded move count.
func SideToMove(s *gamestate.Snapshot, historyLen int) gamestate.Color {
	if side, ok := s.SideToMove(); ok {
		return side
	}
	if historyLen%2 == 0 {
		return gamestate.White
	}
	return gamestate.Black
}

// FormatTime renders milliseconds as M:SS, prefixed with "-" when negative.
// Whole seconds truncate toward zero.
func FormatTime(ms int64) string {
	total := ms / 1000
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}
