package playback

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/rules"
)

// AutoplayInterval is the delay between automatic steps.
const AutoplayInterval = time.Second

var ErrIndexOutOfRange = errors.New("playback: move index out of range")

// Cursor is the playback position. Index -1 means before the first move.
type Cursor struct {
	Index       int  `json:"index"`
	AutoPlaying bool `json:"autoPlaying"`
}

// Player records the moves seen on the stream and replays them on request.
// It is not safe for concurrent use.
type Player struct {
	history []string
	cursor  Cursor
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{cursor: Cursor{Index: -1}, logger: logger}
}

func (p *Player) Cursor() Cursor { return p.cursor }

func (p *Player) Len() int { return len(p.history) }

// History returns a copy of the recorded moves.
func (p *Player) History() []string {
	return append([]string(nil), p.history...)
}

// AtEnd reports whether the cursor sits on the last recorded move.
func (p *Player) AtEnd() bool { return p.cursor.Index >= len(p.history)-1 }

// Record appends lastMove unless it is empty or repeats the most recent entry,
// and moves the cursor to the new end. It reports whether a move was appended.
func (p *Player) Record(lastMove string) bool {
	if lastMove == "" {
		return false
	}
	if n := len(p.history); n > 0 && p.history[n-1] == lastMove {
		return false
	}
	p.history = append(p.history, lastMove)
	p.cursor.Index = len(p.history) - 1
	return true
}

// GoToMove replays history[0..index] from the initial position and moves the cursor there.
func (p *Player) GoToMove(index int) (rules.Position, error) {
	if index < -1 || index >= len(p.history) {
		return rules.Position{}, fmt.Errorf("%w: %d not in [-1, %d]", ErrIndexOutOfRange, index, len(p.history)-1)
	}
	pos := Replay(p.history, index, p.logger)
	p.cursor.Index = index
	return pos, nil
}

// GoToNextMove advances one move. At the end it does nothing and reports false.
func (p *Player) GoToNextMove() (rules.Position, bool) {
	if p.AtEnd() {
		return rules.Position{}, false
	}
	pos, err := p.GoToMove(p.cursor.Index + 1)
	if err != nil {
		return rules.Position{}, false
	}
	return pos, true
}

func (p *Player) SetAutoplay(on bool) { p.cursor.AutoPlaying = on }

// AutoplayDue reports whether another automatic step should be scheduled.
// Reaching the end switches autoplay off.
func (p *Player) AutoplayDue() bool {
	if !p.cursor.AutoPlaying {
		return false
	}
	if p.AtEnd() {
		p.cursor.AutoPlaying = false
		return false
	}
	return true
}

// AutoplayStep performs one scheduled step if autoplay is still on.
func (p *Player) AutoplayStep() (rules.Position, bool) {
	if !p.cursor.AutoPlaying {
		return rules.Position{}, false
	}
	pos, ok := p.GoToNextMove()
	p.AutoplayDue()
	return pos, ok
}

// Replay applies moves[0..index] to a fresh initial position. A notation that
// matches no legal move is logged and skipped; later moves are still attempted.
func Replay(moves []string, index int, logger *zap.Logger) rules.Position {
	if logger == nil {
		logger = zap.NewNop()
	}
	pos := rules.Initial()
	for i := 0; i <= index && i < len(moves); i++ {
		next, _, err := pos.ApplyUCI(moves[i])
		if err != nil {
			logger.Error("replay_move_unmatched",
				zap.Int("ply", i),
				zap.String("move", moves[i]),
				zap.Error(err),
			)
			continue
		}
		pos = next
	}
	return pos
}
