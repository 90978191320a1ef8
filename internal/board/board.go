package board

import (
	"fmt"
	"time"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/rules"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/theme"
)

type HighlightKind string

const (
	HighlightCheck    HighlightKind = "check"
	HighlightLastMove HighlightKind = "last-move"
)

// Config is everything the rendering widget needs for one frame.
type Config struct {
	Position          string                   `json:"position"`
	Orientation       gamestate.Color          `json:"orientation"`
	Width             int                      `json:"width"`
	LightSquare       string                   `json:"lightSquare"`
	DarkSquare        string                   `json:"darkSquare"`
	BorderRadius      int                      `json:"borderRadius"`
	BoxShadow         string                   `json:"boxShadow"`
	ShowNotation      bool                     `json:"showNotation"`
	Draggable         bool                     `json:"draggable"`
	AnimationDuration time.Duration            `json:"-"`
	AnimationMs       int                      `json:"animationMs"`
	Highlights        map[string]HighlightKind `json:"highlights"`
	HighlightColors   map[HighlightKind]string `json:"highlightColors"`
}

// HighlightColor returns the configured colour for the highlight on square, if any.
func (c Config) HighlightColor(square string) (string, bool) {
	kind, ok := c.Highlights[square]
	if !ok {
		return "", false
	}
	col, ok := c.HighlightColors[kind]
	return col, ok
}

// Compose builds the widget configuration for the displayed position.
// An unknown orientation defaults to white.
func Compose(display rules.Position, orientation gamestate.Color, lastMove string, th theme.Theme) Config {
	if !orientation.Valid() {
		orientation = gamestate.White
	}
	return Config{
		Position:          display.FEN(),
		Orientation:       orientation,
		Width:             th.Board.Width,
		LightSquare:       th.Board.LightSquare,
		DarkSquare:        th.Board.DarkSquare,
		BorderRadius:      th.Board.BorderRadius,
		BoxShadow:         th.Board.BoxShadow,
		ShowNotation:      th.Board.ShowNotation,
		Draggable:         th.Board.Draggable,
		AnimationDuration: th.AnimationDuration(),
		AnimationMs:       th.Board.AnimationMs,
		Highlights:        ComputeHighlights(display, lastMove),
		HighlightColors: map[HighlightKind]string{
			HighlightCheck:    th.Highlights.Check,
			HighlightLastMove: th.Highlights.LastMove,
		},
	}
}

// ComputeHighlights marks the king of the side to move when in check and the
// origin and destination of lastMove. A last-move mark wins on a shared square.
func ComputeHighlights(pos rules.Position, lastMove string) map[string]HighlightKind {
	out := make(map[string]HighlightKind, 3)
	if pos.InCheck() {
		if sq, ok := pos.KingSquare(pos.Turn()); ok {
			out[sq] = HighlightCheck
		}
	}
	if len(lastMove) >= 4 {
		if mv, err := rules.ParseMove(lastMove); err == nil {
			out[mv.From] = HighlightLastMove
			out[mv.To] = HighlightLastMove
		}
	}
	return out
}

// AttemptDrop applies a dragged piece to the displayed position. A pawn reaching
// the back rank always becomes a queen.
func AttemptDrop(display rules.Position, from, to string) (rules.Position, rules.Move, error) {
	mv, err := rules.ParseMove(from + to)
	if err != nil {
		return display, rules.Move{}, err
	}
	if pc, ok := display.PieceAt(mv.From); ok && pc.Kind == rules.Pawn && (mv.To[1] == '8' || mv.To[1] == '1') {
		mv.Promotion = "q"
	}
	next, applied, err := display.Apply(mv)
	if err != nil {
		return display, rules.Move{}, fmt.Errorf("drop %s-%s: %w", from, to, err)
	}
	return next, applied, nil
}
