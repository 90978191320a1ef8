package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

var (
	ErrInvalidPosition = errors.New("rules: invalid position notation")
	ErrIllegalMove     = errors.New("rules: illegal move")
	ErrMoveSyntax      = errors.New("rules: malformed move notation")
)

// Position is an immutable chess position. The zero value is the standard initial position.
type Position struct {
	game *nchess.Game
}

// Initial returns the standard starting position.
func Initial() Position {
	return Position{game: nchess.NewGame()}
}

// FromFEN parses a position notation string.
func FromFEN(fen string) (Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return Position{}, ErrInvalidPosition
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return Position{game: nchess.NewGame(opt)}, nil
}

func (p Position) g() *nchess.Game {
	if p.game == nil {
		return nchess.NewGame()
	}
	return p.game
}

func (p Position) FEN() string { return p.g().FEN() }

// Board exposes the underlying board for rendering. Callers must not mutate it.
func (p Position) Board() *nchess.Board { return p.g().Position().Board() }

// Turn reports the side to move.
func (p Position) Turn() gamestate.Color {
	if p.g().Position().Turn() == nchess.Black {
		return gamestate.Black
	}
	return gamestate.White
}

// LegalMoves lists legal moves in the order the rules library generates them.
func (p Position) LegalMoves() []Move {
	valid := p.g().ValidMoves()
	out := make([]Move, 0, len(valid))
	for i := range valid {
		out = append(out, fromLibMove(&valid[i]))
	}
	return out
}

// Apply plays m and returns the resulting position. The receiver is left unchanged.
func (p Position) Apply(m Move) (Position, Move, error) {
	opt, err := nchess.FEN(p.FEN())
	if err != nil {
		return p, Move{}, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	next := nchess.NewGame(opt)
	valid := next.ValidMoves()
	for i := range valid {
		cand := fromLibMove(&valid[i])
		if cand != m {
			continue
		}
		if err := next.Move(&valid[i], nil); err != nil {
			return p, Move{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
		}
		return Position{game: next}, cand, nil
	}
	return p, Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
}

// ApplyUCI parses and plays a coordinate move.
func (p Position) ApplyUCI(s string) (Position, Move, error) {
	m, err := ParseMove(s)
	if err != nil {
		return p, Move{}, err
	}
	return p.Apply(m)
}

// PieceAt returns the piece on a square such as "e4".
func (p Position) PieceAt(square string) (Piece, bool) {
	sq, ok := parseSquare(square)
	if !ok {
		return Piece{}, false
	}
	pc := fromLibPiece(p.Board().Piece(sq))
	return pc, !pc.Empty()
}

// Squares returns the board as rows from rank 8 down to rank 1, files a to h.
func (p Position) Squares() [8][8]Piece {
	var out [8][8]Piece
	board := p.Board()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := nchess.NewSquare(nchess.File(col), nchess.Rank(7-row))
			out[row][col] = fromLibPiece(board.Piece(sq))
		}
	}
	return out
}

// KingSquare locates the king of side c.
func (p Position) KingSquare(c gamestate.Color) (string, bool) {
	sq, ok := kingSquare(p.Board(), libColor(c))
	if !ok {
		return "", false
	}
	return squareName(sq), true
}

// InCheck reports whether the side to move is in check.
func (p Position) InCheck() bool {
	board := p.Board()
	us := p.g().Position().Turn()
	ksq, ok := kingSquare(board, us)
	if !ok {
		return false
	}
	them := nchess.White
	if us == nchess.White {
		them = nchess.Black
	}
	return attacked(board, ksq, them)
}

func kingSquare(board *nchess.Board, c nchess.Color) (nchess.Square, bool) {
	for sq, pc := range board.SquareMap() {
		if pc.Type() == nchess.King && pc.Color() == c {
			return sq, true
		}
	}
	var none nchess.Square
	return none, false
}

func libColor(c gamestate.Color) nchess.Color {
	if c == gamestate.Black {
		return nchess.Black
	}
	return nchess.White
}

func parseSquare(s string) (nchess.Square, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		var none nchess.Square
		return none, false
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), true
}

func squareName(sq nchess.Square) string {
	return string([]byte{'a' + byte(sq.File()), '1' + byte(sq.Rank())})
}
