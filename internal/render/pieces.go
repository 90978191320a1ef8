package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/rules"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/theme"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

type pieceCacheKey struct {
	piece  rules.Piece
	size   int
	fill   string
	stroke string
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

// renderPiece rasterises one tinted piece at size x size pixels.
func renderPiece(piece rules.Piece, size int, style theme.PieceStyle) (image.Image, error) {
	fill, stroke := style.WhiteFill, style.WhiteStroke
	if piece.Color == gamestate.Black {
		fill, stroke = style.BlackFill, style.BlackStroke
	}
	key := pieceCacheKey{piece: piece, size: size, fill: fill, stroke: stroke}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	name := pieceAssetName(piece)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(tintSVG(data, fill, stroke)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", name, err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}

func pieceAssetName(piece rules.Piece) string {
	return fmt.Sprintf("assets/pieces/%c.svg", byte(piece.Kind))
}

// tintSVG substitutes the colour placeholders used by the embedded assets.
func tintSVG(svg []byte, fill, stroke string) []byte {
	out := bytes.ReplaceAll(svg, []byte("FILL_COLOR"), []byte(hexOf(fill)))
	return bytes.ReplaceAll(out, []byte("STROKE_COLOR"), []byte(hexOf(stroke)))
}

// hexOf normalises any theme colour to #rrggbb, which oksvg reads reliably.
func hexOf(s string) string {
	c := theme.ColorOr(s, color.NRGBA{A: 0xff})
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
