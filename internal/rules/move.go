package rules

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

// Move is a verbose move descriptor. Promotion is one of "", "q", "r", "b", "n".
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func (m Move) UCI() string { return m.From + m.To + m.Promotion }

func (m Move) String() string { return m.UCI() }

// ParseMove reads coordinate notation such as "e2e4" or "e7e8q".
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrMoveSyntax, s)
	}
	if _, ok := parseSquare(s[0:2]); !ok {
		return Move{}, fmt.Errorf("%w: %q", ErrMoveSyntax, s)
	}
	if _, ok := parseSquare(s[2:4]); !ok {
		return Move{}, fmt.Errorf("%w: %q", ErrMoveSyntax, s)
	}
	m := Move{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		if !strings.ContainsRune("qrbn", rune(s[4])) {
			return Move{}, fmt.Errorf("%w: %q", ErrMoveSyntax, s)
		}
		m.Promotion = s[4:5]
	}
	return m, nil
}

// PieceKind is the lower-case FEN letter of a piece type, or 0 for an empty square.
type PieceKind byte

const (
	NoKind PieceKind = 0
	King   PieceKind = 'k'
	Queen  PieceKind = 'q'
	Rook   PieceKind = 'r'
	Bishop PieceKind = 'b'
	Knight PieceKind = 'n'
	Pawn   PieceKind = 'p'
)

type Piece struct {
	Kind  PieceKind
	Color gamestate.Color
}

func (p Piece) Empty() bool { return p.Kind == NoKind }

// Letter returns the FEN letter, upper case for white.
func (p Piece) Letter() string {
	if p.Empty() {
		return ""
	}
	if p.Color == gamestate.White {
		return strings.ToUpper(string(rune(p.Kind)))
	}
	return string(rune(p.Kind))
}

func fromLibMove(mv *nchess.Move) Move {
	return Move{
		From:      squareName(mv.S1()),
		To:        squareName(mv.S2()),
		Promotion: promotionLetter(mv.Promo()),
	}
}

func promotionLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}

func fromLibPiece(pc nchess.Piece) Piece {
	if pc == nchess.NoPiece {
		return Piece{}
	}
	var kind PieceKind
	switch pc.Type() {
	case nchess.King:
		kind = King
	case nchess.Queen:
		kind = Queen
	case nchess.Rook:
		kind = Rook
	case nchess.Bishop:
		kind = Bishop
	case nchess.Knight:
		kind = Knight
	case nchess.Pawn:
		kind = Pawn
	default:
		return Piece{}
	}
	c := gamestate.White
	if pc.Color() == nchess.Black {
		c = gamestate.Black
	}
	return Piece{Kind: kind, Color: c}
}
