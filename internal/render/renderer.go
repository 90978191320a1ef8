package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/board"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/rules"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/theme"
)

// PlayerStrip is one caption bar drawn above or below the board.
type PlayerStrip struct {
	Label  string
	Clock  string
	Active bool
}

// HUD holds the optional caption bars. Top is the side drawn at the top of the board.
type HUD struct {
	Top    *PlayerStrip
	Bottom *PlayerStrip
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, cfg board.Config, hud HUD) ([]byte, error)
}

type PNGRenderer struct {
	theme theme.Theme
}

func NewPNGRenderer(th theme.Theme) *PNGRenderer {
	return &PNGRenderer{theme: th}
}

var (
	fallbackLight  = color.NRGBA{R: 0xed, G: 0xee, B: 0xd1, A: 0xff}
	fallbackDark   = color.NRGBA{R: 0x77, G: 0x99, B: 0x52, A: 0xff}
	canvasColor    = color.NRGBA{R: 38, G: 36, B: 33, A: 255}
	activeBarColor = color.NRGBA{R: 129, G: 182, B: 76, A: 255}
	clockBoxColor  = color.NRGBA{R: 20, G: 20, B: 20, A: 220}
)

const (
	notationMargin = 18
	stripGap       = 6
	stripRadius    = 6
	stripPaddingX  = 10
)

func (r *PNGRenderer) RenderPNG(ctx context.Context, cfg board.Config, hud HUD) ([]byte, error) {
	pos, err := rules.FromFEN(cfg.Position)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	width := cfg.Width
	if width <= 0 {
		width = r.theme.Board.Width
	}
	squareSize := width / 8
	if squareSize < 8 {
		return nil, fmt.Errorf("render: board width %d too small", width)
	}
	boardSize := squareSize * 8

	margin := 0
	if cfg.ShowNotation {
		margin = notationMargin
	}
	stripH := r.theme.HUD.Height
	if stripH <= 0 {
		stripH = 28
	}
	topH, bottomH := 0, 0
	if hud.Top != nil {
		topH = stripH + stripGap
	}
	if hud.Bottom != nil {
		bottomH = stripH + stripGap
	}

	totalW := boardSize + margin*2
	totalH := topH + boardSize + margin + bottomH
	origin := image.Point{X: margin, Y: topH}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalW, totalH))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(canvasColor), image.Point{}, imagedraw.Src)

	light := theme.ColorOr(cfg.LightSquare, fallbackLight)
	dark := theme.ColorOr(cfg.DarkSquare, fallbackDark)
	drawSquares(img, cfg.Orientation, squareSize, origin, light, dark)
	drawHighlights(img, cfg, squareSize, origin)
	if err := drawPieces(ctx, img, pos, cfg.Orientation, squareSize, origin, r.theme.Pieces); err != nil {
		return nil, err
	}
	if cfg.ShowNotation {
		drawCoordinates(img, cfg.Orientation, squareSize, origin, light)
	}

	textColor := theme.ColorOr(r.theme.HUD.Text, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	stripBG := theme.ColorOr(r.theme.HUD.Background, color.NRGBA{R: 30, G: 30, B: 30, A: 220})
	if hud.Top != nil {
		rect := image.Rect(boardRect.Min.X, 0, boardRect.Max.X, stripH)
		drawStrip(img, rect, *hud.Top, stripBG, textColor)
	}
	if hud.Bottom != nil {
		y := boardRect.Max.Y + margin + stripGap
		rect := image.Rect(boardRect.Min.X, y, boardRect.Max.X, y+stripH)
		drawStrip(img, rect, *hud.Bottom, stripBG, textColor)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// cellSquare maps a screen cell to board file and rank (0-based) for the given orientation.
func cellSquare(row, col int, orientation gamestate.Color) (file, rank int) {
	if orientation == gamestate.Black {
		return 7 - col, row
	}
	return col, 7 - row
}

// squareCell is the inverse of cellSquare.
func squareCell(file, rank int, orientation gamestate.Color) (row, col int) {
	if orientation == gamestate.Black {
		return rank, 7 - file
	}
	return 7 - rank, file
}

func squareRect(square string, squareSize int, origin image.Point, orientation gamestate.Color) (image.Rectangle, bool) {
	if len(square) != 2 || square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return image.Rectangle{}, false
	}
	row, col := squareCell(int(square[0]-'a'), int(square[1]-'1'), orientation)
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize), true
}

func drawSquares(dst imagedraw.Image, orientation gamestate.Color, squareSize int, origin image.Point, light, dark color.Color) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			file, rank := cellSquare(row, col, orientation)
			clr := light
			if (file+rank)%2 == 0 {
				clr = dark
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawHighlights(img *image.RGBA, cfg board.Config, squareSize int, origin image.Point) {
	for square := range cfg.Highlights {
		raw, ok := cfg.HighlightColor(square)
		if !ok {
			continue
		}
		clr, err := theme.ParseColor(raw)
		if err != nil {
			continue
		}
		rect, ok := squareRect(square, squareSize, origin, cfg.Orientation)
		if !ok {
			continue
		}
		imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Over)
	}
}

func drawPieces(ctx context.Context, dst imagedraw.Image, pos rules.Position, orientation gamestate.Color, squareSize int, origin image.Point, style theme.PieceStyle) error {
	squares := pos.Squares()
	for row := 0; row < 8; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for col := 0; col < 8; col++ {
			file, rank := cellSquare(row, col, orientation)
			piece := squares[7-rank][file]
			if piece.Empty() {
				continue
			}
			img, err := renderPiece(piece, squareSize, style)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(dst imagedraw.Image, orientation gamestate.Color, squareSize int, origin image.Point, clr color.Color) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(clr)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + 8*squareSize

	for i := 0; i < 8; i++ {
		file, rank := cellSquare(i, i, orientation)
		rankCenter := origin.Y + i*squareSize + squareSize/2
		drawCenteredText(drawer, strconv.Itoa(rank+1), origin.X-notationMargin/2, rankCenter+ascent/2)
		fileCenter := origin.X + i*squareSize + squareSize/2
		drawCenteredText(drawer, string(rune('a'+file)), fileCenter, boardEndY+ascent+2)
	}
}

func drawStrip(img *image.RGBA, rect image.Rectangle, strip PlayerStrip, bg, text color.Color) {
	drawRoundedPanel(img, rect, stripRadius, bg)
	if strip.Active {
		bar := image.Rect(rect.Min.X, rect.Min.Y+4, rect.Min.X+4, rect.Max.Y-4)
		imagedraw.Draw(img, bar, image.NewUniform(activeBarColor), image.Point{}, imagedraw.Over)
	}

	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face, Src: image.NewUniform(text)}
	metrics := face.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2

	clockW := 0
	if c := strings.TrimSpace(strip.Clock); c != "" {
		clockW = drawer.MeasureString(c).Round() + stripPaddingX*2
		box := image.Rect(rect.Max.X-clockW, rect.Min.Y+3, rect.Max.X-3, rect.Max.Y-3)
		drawRoundedPanel(img, box, stripRadius-2, clockBoxColor)
		drawer.Dot = fixed.P(box.Min.X+stripPaddingX-2, baseline)
		drawer.DrawString(c)
	}

	label := truncateWithEllipsis(face, strip.Label, rect.Dx()-clockW-stripPaddingX*2)
	drawer.Src = image.NewUniform(text)
	drawer.Dot = fixed.P(rect.Min.X+stripPaddingX, baseline)
	drawer.DrawString(label)
}
