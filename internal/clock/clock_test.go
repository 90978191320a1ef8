package clock

import (
	"testing"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

func snap(seq uint64, white, black float64) *gamestate.Snapshot {
	return &gamestate.Snapshot{
		Position:      "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		RemainingTime: &gamestate.Times{White: white, Black: black},
		Seq:           seq,
	}
}

func TestTenTicksChargeSideToMove(t *testing.T) {
	c := New()
	s := snap(1, 60000, 60000)
	if !c.Sync(s) {
		t.Fatalf("first sync should reset")
	}
	side := SideToMove(s, 0)
	for i := 0; i < 10; i++ {
		c.Tick(side, TickInterval)
	}
	if got := c.State(); got.WhiteMs != 59000 || got.BlackMs != 60000 {
		t.Fatalf("unexpected clock %+v", got)
	}
}

func TestSyncOnlyOnNewSnapshot(t *testing.T) {
	c := New()
	s := snap(1, 60000, 60000)
	c.Sync(s)
	c.Tick(gamestate.White, TickInterval)
	if c.Sync(s) {
		t.Fatalf("same snapshot must not reset again")
	}
	if c.State().WhiteMs != 59900 {
		t.Fatalf("tick lost: %+v", c.State())
	}
	if !c.Sync(snap(2, 60000, 60000)) {
		t.Fatalf("equal values in a new snapshot still reset")
	}
	if c.State().WhiteMs != 60000 {
		t.Fatalf("reset not applied: %+v", c.State())
	}
	if c.Sync(&gamestate.Snapshot{Seq: 3}) {
		t.Fatalf("snapshot without remaining time must not reset")
	}
}

func TestSyncIgnoresUnstampedSequence(t *testing.T) {
	c := New()
	if !c.Sync(snap(0, 60000, 60000)) {
		t.Fatalf("first unstamped snapshot should reset")
	}
	c.Tick(gamestate.White, TickInterval)
	if !c.Sync(snap(0, 30000, 45000)) {
		t.Fatalf("a different snapshot with the same sequence should reset")
	}
	if got := c.State(); got.WhiteMs != 30000 || got.BlackMs != 45000 {
		t.Fatalf("reset not applied: %+v", got)
	}
}

func TestClockRunsNegative(t *testing.T) {
	c := New()
	c.Sync(snap(1, 50, 1000))
	c.Tick(gamestate.White, TickInterval)
	if c.State().WhiteMs != -50 {
		t.Fatalf("expected -50, got %d", c.State().WhiteMs)
	}
}

func TestShouldTick(t *testing.T) {
	if ShouldTick(nil) {
		t.Fatalf("no snapshot, no ticking")
	}
	if ShouldTick(&gamestate.Snapshot{Kind: gamestate.KindError}) {
		t.Fatalf("error snapshot stops ticking")
	}
	if !ShouldTick(&gamestate.Snapshot{Kind: gamestate.KindState}) {
		t.Fatalf("state snapshot ticks")
	}
}

func TestSideToMoveFallback(t *testing.T) {
	black := &gamestate.Snapshot{Position: "8/8/8/8/8/8/8/8 b - - 0 1"}
	if SideToMove(black, 0) != gamestate.Black {
		t.Fatalf("notation should win over parity")
	}
	unreadable := &gamestate.Snapshot{Position: "?"}
	if SideToMove(unreadable, 0) != gamestate.White || SideToMove(unreadable, 3) != gamestate.Black {
		t.Fatalf("parity fallback wrong")
	}
}

func TestFormatTime(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{65000, "1:05"},
		{600000, "10:00"},
		{-1500, "-0:01"},
		{-61000, "-1:01"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.ms); got != tc.want {
			t.Fatalf("FormatTime(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}
