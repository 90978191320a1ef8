package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/board"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/rules"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/theme"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func luminance(img image.Image, x, y int) uint32 {
	r, g, b, _ := img.At(x, y).RGBA()
	return (r + g + b) / 3
}

func TestRenderPNGDimensions(t *testing.T) {
	th := theme.Default()
	cfg := board.Compose(rules.Initial(), gamestate.White, "", th)
	r := NewPNGRenderer(th)

	bare, err := r.RenderPNG(context.Background(), cfg, HUD{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, bare)
	squareSize := th.Board.Width / 8
	wantW := squareSize*8 + notationMargin*2
	if img.Bounds().Dx() != wantW {
		t.Fatalf("width = %d, want %d", img.Bounds().Dx(), wantW)
	}

	withHUD, err := r.RenderPNG(context.Background(), cfg, HUD{
		Top:    &PlayerStrip{Label: "Opponent (1500)", Clock: "1:00"},
		Bottom: &PlayerStrip{Label: "Bot (1432)", Clock: "0:59", Active: true},
	})
	if err != nil {
		t.Fatalf("render with hud: %v", err)
	}
	if got := decode(t, withHUD).Bounds().Dy(); got <= img.Bounds().Dy() {
		t.Fatalf("hud strips should add height: %d <= %d", got, img.Bounds().Dy())
	}
}

func TestRenderOrientationFlipsBoard(t *testing.T) {
	th := theme.Default()
	th.Board.ShowNotation = false
	r := NewPNGRenderer(th)
	squareSize := th.Board.Width / 8
	cx, cy := squareSize/2, squareSize/2+squareSize/10

	white, err := r.RenderPNG(context.Background(), board.Compose(rules.Initial(), gamestate.White, "", th), HUD{})
	if err != nil {
		t.Fatalf("render white: %v", err)
	}
	black, err := r.RenderPNG(context.Background(), board.Compose(rules.Initial(), gamestate.Black, "", th), HUD{})
	if err != nil {
		t.Fatalf("render black: %v", err)
	}
	// Top-left is a8 (black rook) from white's side and h1 (white rook) from black's.
	if luminance(decode(t, white), cx, cy) >= luminance(decode(t, black), cx, cy) {
		t.Fatalf("top-left piece should be dark for white orientation and light for black")
	}
}

func TestRenderHighlightTintsSquare(t *testing.T) {
	th := theme.Default()
	th.Board.ShowNotation = false
	r := NewPNGRenderer(th)
	squareSize := th.Board.Width / 8

	plain := board.Compose(rules.Initial(), gamestate.White, "", th)
	lit := plain
	lit.Highlights = map[string]board.HighlightKind{"e4": board.HighlightLastMove}

	a, err := r.RenderPNG(context.Background(), plain, HUD{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := r.RenderPNG(context.Background(), lit, HUD{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// e4 sits on row 4, column 4 from white's side.
	x, y := 4*squareSize+2, 4*squareSize+2
	if decode(t, a).At(x, y) == decode(t, b).At(x, y) {
		t.Fatalf("highlight did not change e4")
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	th := theme.Default()
	r := NewPNGRenderer(th)
	cfg := board.Compose(rules.Initial(), gamestate.White, "", th)

	bad := cfg
	bad.Position = "nonsense"
	if _, err := r.RenderPNG(context.Background(), bad, HUD{}); err == nil {
		t.Fatalf("expected error for invalid position")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPNG(ctx, cfg, HUD{}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
