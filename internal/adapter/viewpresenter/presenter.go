package viewpresenter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/board"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/clock"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/msgcat"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/playback"
	"github.com/kevoconnell/chess-engine-llm-frontend/pkg/viewdto"
)

// Input is the session state a frame is built from.
type Input struct {
	Snapshot        *gamestate.Snapshot
	Board           board.Config
	Clock           clock.State
	SideToMove      gamestate.Color
	Cursor          playback.Cursor
	History         []string
	Live            bool
	ConnectionError string
	UserID          string
}

// Presenter turns session state into the page DTO.
type Presenter struct {
	cat *msgcat.Catalog
}

func New(cat *msgcat.Catalog) *Presenter {
	return &Presenter{cat: cat}
}

func (p *Presenter) Build(in Input) viewdto.Frame {
	snap := in.Snapshot
	bot := botColor(snap)
	clockRunning := clock.ShouldTick(snap)

	frame := viewdto.Frame{
		UserID:          in.UserID,
		Board:           toBoard(in.Board, snap),
		Top:             p.panel(snap, bot.Other(), in.Clock, in.SideToMove, clockRunning),
		Bottom:          p.panel(snap, bot, in.Clock, in.SideToMove, clockRunning),
		Elo:             p.elo(snap, bot),
		Chat:            chatLines(snap),
		ConnectionError: in.ConnectionError,
		Playback: viewdto.Playback{
			Moves:        append([]string{}, in.History...),
			CurrentIndex: in.Cursor.Index,
			AutoPlaying:  in.Cursor.AutoPlaying,
			Live:         in.Live,
		},
	}
	if snap == nil {
		return frame
	}

	frame.Seq = snap.Seq
	frame.Kind = string(snap.Kind)
	frame.LocalTurn = snap.IsLocalTurn
	if snap.IsLocalTurn {
		frame.TurnText = p.cat.Text("turn.local", nil, "Your turn")
	} else {
		frame.TurnText = p.cat.Text("turn.remote", nil, "Waiting for opponent")
	}
	if snap.IsError() {
		frame.Alert = strings.TrimSpace(snap.Message)
		if frame.Alert == "" {
			frame.Alert = p.cat.Text("alert.fallback", nil, "The game server reported an error")
		}
	}
	return frame
}

// ConnectionText renders the message shown when the stream is no longer delivering.
func (p *Presenter) ConnectionText(err error) string {
	if err == nil {
		return p.cat.Text("connection.closed", nil, "Connection to the game server was closed")
	}
	return p.cat.Text("connection.failed", map[string]any{"Reason": err.Error()}, err.Error())
}

// botColor defaults to white when the server has not said.
func botColor(s *gamestate.Snapshot) gamestate.Color {
	if s != nil && s.BotColor.Valid() {
		return s.BotColor
	}
	return gamestate.White
}

func (p *Presenter) panel(s *gamestate.Snapshot, side gamestate.Color, st clock.State, toMove gamestate.Color, running bool) viewdto.PlayerPanel {
	name := p.cat.Text("player.pending", nil, "...")
	if s != nil {
		if s.BotColor == side || (!s.BotColor.Valid() && side == gamestate.White) {
			name = p.cat.Text("player.bot", nil, "Bot")
		} else {
			name = p.cat.Text("player.opponent", nil, "Opponent")
		}
	}
	rating := p.rating(s, side)
	return viewdto.PlayerPanel{
		Color:     string(side),
		Name:      name,
		Rating:    rating,
		Label:     p.cat.Text("player.label", map[string]any{"Name": name, "Rating": rating}, name+" ("+rating+")"),
		Clock:     clock.FormatTime(st.For(side)),
		Advantage: p.advantage(s, side),
		Active:    running && toMove == side,
	}
}

func (p *Presenter) rating(s *gamestate.Snapshot, side gamestate.Color) string {
	if s != nil {
		if v, ok := s.Ratings.For(side); ok {
			return formatNumber(v)
		}
	}
	return p.cat.Text("rating.unknown", nil, "?")
}

func (p *Presenter) elo(s *gamestate.Snapshot, bot gamestate.Color) string {
	if s != nil {
		if v, ok := s.Ratings.For(bot); ok {
			return p.cat.Text("elo.label", map[string]any{"Rating": formatNumber(v)}, "ELO: "+formatNumber(v))
		}
	}
	return p.cat.Text("elo.pending", nil, "...")
}

// advantage is shown only on the panel of the side that is ahead.
func (p *Presenter) advantage(s *gamestate.Snapshot, side gamestate.Color) string {
	if s == nil || s.PositionAdvantage == nil {
		return ""
	}
	adv := *s.PositionAdvantage
	if adv == 0 || math.IsNaN(adv) {
		return ""
	}
	ahead := gamestate.White
	if adv < 0 {
		ahead = gamestate.Black
	}
	if ahead != side {
		return ""
	}
	v := formatNumber(math.Abs(adv))
	return p.cat.Text("advantage", map[string]any{"Value": v}, "+"+v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func chatLines(s *gamestate.Snapshot) []viewdto.ChatLine {
	if s == nil || len(s.ChatMessages) == 0 {
		return []viewdto.ChatLine{}
	}
	out := make([]viewdto.ChatLine, 0, len(s.ChatMessages))
	for _, m := range s.ChatMessages {
		out = append(out, viewdto.ChatLine{
			Username: m.Username,
			Text:     m.Text,
			Time:     formatChatTime(m.Time),
		})
	}
	return out
}

func formatChatTime(raw string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Local().Format("15:04:05")
}

func toBoard(cfg board.Config, s *gamestate.Snapshot) viewdto.Board {
	styles := make(map[string]string, len(cfg.Highlights))
	for sq := range cfg.Highlights {
		if col, ok := cfg.HighlightColor(sq); ok {
			styles[sq] = col
		}
	}
	b := viewdto.Board{
		Position:     cfg.Position,
		Orientation:  string(cfg.Orientation),
		Width:        cfg.Width,
		LightSquare:  cfg.LightSquare,
		DarkSquare:   cfg.DarkSquare,
		BorderRadius: cfg.BorderRadius,
		BoxShadow:    cfg.BoxShadow,
		ShowNotation: cfg.ShowNotation,
		Draggable:    cfg.Draggable,
		AnimationMs:  cfg.AnimationMs,
		SquareStyles: styles,
	}
	if s != nil {
		b.LastMove = s.LastMove
	}
	return b
}
