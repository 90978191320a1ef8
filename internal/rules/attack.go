package rules

import nchess "github.com/corentings/chess/v2"

var (
	knightSteps  = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps    = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	straightRays = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalRays = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// attacked reports whether any piece of colour by attacks sq.
func attacked(board *nchess.Board, sq nchess.Square, by nchess.Color) bool {
	f, r := int(sq.File()), int(sq.Rank())

	at := func(df, dr int) (nchess.Piece, bool) {
		nf, nr := f+df, r+dr
		if nf < 0 || nf > 7 || nr < 0 || nr > 7 {
			return nchess.NoPiece, false
		}
		return board.Piece(nchess.NewSquare(nchess.File(nf), nchess.Rank(nr))), true
	}
	is := func(pc nchess.Piece, types ...nchess.PieceType) bool {
		if pc == nchess.NoPiece || pc.Color() != by {
			return false
		}
		for _, t := range types {
			if pc.Type() == t {
				return true
			}
		}
		return false
	}

	// A white pawn attacks upward, so it sits one rank below its target.
	pawnDir := -1
	if by == nchess.Black {
		pawnDir = 1
	}
	for _, df := range []int{-1, 1} {
		if pc, ok := at(df, pawnDir); ok && is(pc, nchess.Pawn) {
			return true
		}
	}
	for _, s := range knightSteps {
		if pc, ok := at(s[0], s[1]); ok && is(pc, nchess.Knight) {
			return true
		}
	}
	for _, s := range kingSteps {
		if pc, ok := at(s[0], s[1]); ok && is(pc, nchess.King) {
			return true
		}
	}
	slide := func(rays [4][2]int, types ...nchess.PieceType) bool {
		for _, ray := range rays {
			for step := 1; step < 8; step++ {
				pc, ok := at(ray[0]*step, ray[1]*step)
				if !ok {
					break
				}
				if pc == nchess.NoPiece {
					continue
				}
				if is(pc, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(straightRays, nchess.Rook, nchess.Queen) || slide(diagonalRays, nchess.Bishop, nchess.Queen)
}
