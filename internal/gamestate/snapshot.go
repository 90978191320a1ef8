package gamestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Color is a side of the board as it appears on the wire.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Valid() bool { return c == White || c == Black }

// Other returns the opposing side. Unknown colours map to White.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Kind classifies a snapshot.
type Kind string

const (
	KindStart Kind = "start"
	KindState Kind = "state"
	KindError Kind = "error"
)

// UnmarshalJSON accepts both the server's gameStart/gameState names and the short forms.
// Any other name is treated as a state update so its position still renders.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch strings.TrimSpace(s) {
	case "gameStart", "start":
		*k = KindStart
	case "error":
		*k = KindError
	default:
		*k = KindState
	}
	return nil
}

type Ratings struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

// For returns the rating of c. A missing table, unknown colour or zero rating reports false.
func (r *Ratings) For(c Color) (float64, bool) {
	if r == nil {
		return 0, false
	}
	var v float64
	switch c {
	case White:
		v = r.White
	case Black:
		v = r.Black
	}
	return v, v != 0
}

// Times holds remaining clock time per side in milliseconds.
type Times struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

type ChatMessage struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	Time     string `json:"time"`
}

// Snapshot is one complete description of the game as pushed by the server.
type Snapshot struct {
	Position          string        `json:"fen"`
	LastMove          string        `json:"lastMove,omitempty"`
	IsLocalTurn       bool          `json:"isOurTurn"`
	Kind              Kind          `json:"type"`
	Message           string        `json:"message,omitempty"`
	ViewedColor       Color         `json:"playerColor,omitempty"`
	Ratings           *Ratings      `json:"ratings,omitempty"`
	RemainingTime     *Times        `json:"timeLeft,omitempty"`
	BotColor          Color         `json:"botColor,omitempty"`
	PositionAdvantage *float64      `json:"positionAdvantage,omitempty"`
	ChatMessages      []ChatMessage `json:"chatMessages,omitempty"`

	// Seq is assigned on receipt; two snapshots with equal content still differ in Seq.
	Seq        uint64    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

var ErrEmptyPayload = errors.New("gamestate: empty payload")

// Decode parses one snapshot payload. A JSON null lastMove decodes to "".
func Decode(data []byte) (*Snapshot, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyPayload
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("gamestate: decode snapshot: %w", err)
	}
	if s.Kind == "" {
		s.Kind = KindState
	}
	s.LastMove = strings.TrimSpace(s.LastMove)
	return &s, nil
}

// SideToMove reads the active colour field of the position notation.
func (s *Snapshot) SideToMove() (Color, bool) {
	if s == nil {
		return "", false
	}
	fields := strings.Fields(s.Position)
	if len(fields) < 2 {
		return "", false
	}
	switch fields[1] {
	case "w":
		return White, true
	case "b":
		return Black, true
	}
	return "", false
}

// IsError reports whether the snapshot carries a server error.
func (s *Snapshot) IsError() bool { return s != nil && s.Kind == KindError }
